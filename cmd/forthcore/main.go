// Command forthcore runs the embeddable Forth interpreter as a
// standalone tool: evaluate a string, feed it source files and stdin,
// and save or reload whole images across invocations.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	forthcore "github.com/arvidholm/forthcore"
	"github.com/arvidholm/forthcore/internal/diagio"
)

const defaultCoreFile = "forth.core"

func main() { os.Exit(run(os.Args[1:])) }

func run(args []string) int {
	var (
		evalStr  string
		saveFile string
		saveDef  bool
		loadFile string
		memKB    uint
		stdinToo bool
		trace    bool
	)

	fs := flag.NewFlagSet("forthcore", flag.ContinueOnError)
	fs.StringVar(&evalStr, "e", "", "evaluate `string` before any file operands")
	fs.StringVar(&saveFile, "s", "", "save the image to `file` on exit (implies -d)")
	fs.BoolVar(&saveDef, "d", false, "save the image to "+defaultCoreFile+" on exit")
	fs.StringVar(&loadFile, "l", "", "load a previously saved image from `file`")
	fs.UintVar(&memKB, "m", 0, "memory size in `kilobytes` (mutually exclusive with -l)")
	fs.BoolVar(&stdinToo, "t", false, "read stdin after the file operands")
	fs.BoolVar(&trace, "trace", false, "enable opcode trace logging to stderr")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	log := diagio.Logger{}
	log.SetOutput(os.Stderr)

	opts := []forthcore.Option{
		forthcore.WithOutput(os.Stdout),
		forthcore.WithErrorOutput(os.Stderr),
		forthcore.WithBlockStore(forthcore.NewBlockStore("")),
	}
	if trace {
		opts = append(opts, forthcore.WithLogf(log.Leveledf("TRACE")))
	}

	var vm *forthcore.VM
	if loadFile != "" {
		if memKB != 0 {
			log.Errorf("-l and -m are mutually exclusive")
			return log.ExitCode()
		}
		f, err := os.Open(loadFile)
		if err != nil {
			log.Errorf("%v", err)
			return log.ExitCode()
		}
		vm, err = forthcore.Load(f, opts...)
		f.Close()
		if err != nil {
			log.Errorf("%v", err)
			return log.ExitCode()
		}
	} else {
		if memKB != 0 {
			cells := int(memKB) * 1024 / forthcore.CellBytes
			if cells < forthcore.MinCells {
				log.Errorf("-m %d kilobytes is below the %d-cell minimum core",
					memKB, forthcore.MinCells)
				return log.ExitCode()
			}
			opts = append(opts, forthcore.WithMemSize(cells))
		}
		var err error
		vm, err = forthcore.New(opts...)
		if err != nil {
			log.Errorf("%v", err)
			return log.ExitCode()
		}
	}
	defer vm.Free()

	if evalStr != "" {
		if err := vm.Eval(evalStr); err != nil {
			log.Errorf("eval: %v", err)
			return log.ExitCode()
		}
	}

	for _, name := range fs.Args() {
		f, err := os.Open(name)
		if err != nil {
			log.Errorf("%v", err)
			return log.ExitCode()
		}
		vm.SetFileInput(f)
		err = vm.Run()
		f.Close()
		if err != nil {
			log.Errorf("%s: %v", name, err)
			return log.ExitCode()
		}
	}

	if stdinToo {
		vm.SetFileInput(os.Stdin)
		if err := vm.Run(); err != nil {
			log.Errorf("stdin: %v", err)
			return log.ExitCode()
		}
	}

	// -s FILE names the dump file and also turns saving on, the same
	// fallthrough the original option parser had.
	if saveFile != "" {
		saveDef = true
	} else {
		saveFile = defaultCoreFile
	}
	if saveDef {
		if err := saveCore(vm, saveFile); err != nil {
			log.Errorf("%v", err)
		}
	}
	return log.ExitCode()
}

func saveCore(vm *forthcore.VM, name string) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := vm.SaveCore(f); err != nil {
		f.Close()
		return fmt.Errorf("saving %s: %w", name, err)
	}
	return f.Close()
}
