package forthcore

import (
	"fmt"
	"io"
	"time"

	"github.com/arvidholm/forthcore/internal/charsource"
	"github.com/arvidholm/forthcore/internal/escape"
)

// New creates a VM image: zeroed memory sized per options (or the
// defaults), registers installed, native primitives compiled, and the
// embedded kernel source evaluated once. The returned VM is ready to
// Run or Eval against.
func New(opts ...Option) (*VM, error) {
	cfg := config{memCells: defaultMemCells, stackCells: defaultStackCells}
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.memCells < MinCells {
		cfg.memCells = MinCells
	}
	if cfg.stackCells == 0 {
		cfg.stackCells = defaultStackCells
	}
	if 2*cfg.stackCells >= cfg.memCells-dictionaryStart {
		return nil, fmt.Errorf("forthcore: memory size %d too small for stack size %d", cfg.memCells, cfg.stackCells)
	}

	vm := &VM{
		mem:        make([]Cell, cfg.memCells),
		stackCells: cfg.stackCells,
		errOut:     cfg.errOut,
		logf:       cfg.logf,
		traceOps:   cfg.trace,
		blocks:     cfg.blocks,
	}
	if cfg.output != nil {
		vm.outputs = append(vm.outputs, cfg.output)
	} else {
		vm.outputs = append(vm.outputs, io.Discard)
	}
	if vm.errOut == nil {
		vm.errOut = vm.outputs[0]
	}

	if err := vm.reset(); err != nil {
		return nil, err
	}

	if cfg.input != nil {
		vm.SetFileInput(cfg.input)
	}
	if cfg.strInput != nil {
		vm.SetStringInput(*cfg.strInput)
	}
	return vm, nil
}

// Load reads a previously saved image from r and returns a VM ready to
// resume execution. Output, error-output, logging, and block-store
// options apply the same as New; memory size and stack layout come from
// the saved image itself. Input sources are not part of an image: a
// loaded VM starts with an exhausted string input until the host
// attaches one.
func Load(r io.Reader, opts ...Option) (*VM, error) {
	var cfg config
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	vm := &VM{
		errOut:   cfg.errOut,
		logf:     cfg.logf,
		traceOps: cfg.trace,
		blocks:   cfg.blocks,
	}
	if cfg.output != nil {
		vm.outputs = append(vm.outputs, cfg.output)
	} else {
		vm.outputs = append(vm.outputs, io.Discard)
	}
	if vm.errOut == nil {
		vm.errOut = vm.outputs[0]
	}

	if err := vm.LoadCore(r); err != nil {
		return nil, err
	}
	vm.stackCells = vm.mem[regSTACKSIZE]
	vm.bootTime = time.Now()

	// A file-input handle saved by another process means nothing here;
	// fall back to the empty reserved string slot so the first Run sees
	// clean EOF rather than a dangling handle.
	if vm.mem[regSOURCEID] == 0 {
		vm.mem[regSOURCEID] = sourceStringID
		vm.mem[regSIN] = 1
		vm.mem[regSIDX] = 0
		vm.mem[regSLEN] = 0
	}

	if cfg.input != nil {
		vm.SetFileInput(cfg.input)
	}
	if cfg.strInput != nil {
		vm.SetStringInput(*cfg.strInput)
	}
	return vm, nil
}

// Free releases any host-owned resources the VM holds open (file
// inputs, in particular). It does not reclaim vm.mem — the host simply
// drops the reference, there being no finalizer to run in a
// garbage-collected target language.
func (vm *VM) Free() error {
	var firstErr error
	for _, f := range vm.fileInputs {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Run drives the interpreter from whatever input source is currently
// active until that source is exhausted or a fatal condition is raised.
// It returns a non-nil error on a fatal condition or if the handle is
// already INVALID from a prior run, and nil on a clean EOF. A stray
// Go-level panic or runtime.Goexit inside opcode dispatch — a bug, not
// an in-band fatal condition — is isolated by internal/escape and
// surfaced as an error rather than taking down the host process.
func (vm *VM) Run() error {
	if vm.load(regINVALID) != 0 {
		return fmt.Errorf("forthcore: handle is invalid")
	}
	return escape.Recover("forthcore.Run", vm.run)
}

// Eval temporarily sets string input to src and runs it to completion,
// restoring whatever input context was active beforehand.
func (vm *VM) Eval(src string) error {
	if vm.load(regINVALID) != 0 {
		return fmt.Errorf("forthcore: handle is invalid")
	}
	return escape.Recover("forthcore.Eval", func() error { return vm.evalString(src) })
}

// Push places val on top of the data stack, as a host would before
// invoking a word expecting arguments.
func (vm *VM) Push(val Cell) { vm.push(val) }

// Pop removes and returns the top of the data stack.
func (vm *VM) Pop() Cell { return vm.pop() }

// StackPosition reports the current data-stack depth in cells.
func (vm *VM) StackPosition() Cell { return vm.depth() }

// SetFileInput makes r the active input source, registering a new
// file-input handle in FIN and switching SOURCE_ID to file input.
func (vm *VM) SetFileInput(r io.Reader) {
	vm.fileInputs = append(vm.fileInputs, charsource.NewFile(r, ""))
	vm.store(regFIN, Cell(len(vm.fileInputs)))
	vm.store(regSOURCEID, 0)
}

// SetStringInput makes s the active input source, reusing the reserved
// string-input slot conventions Eval itself uses.
func (vm *VM) SetStringInput(s string) {
	if len(vm.stringInputs) == 0 {
		vm.stringInputs = append(vm.stringInputs, nil)
	}
	vm.stringInputs[0] = []byte(s)
	vm.store(regSOURCEID, sourceStringID)
	vm.store(regSIN, 1)
	vm.store(regSIDX, 0)
	vm.store(regSLEN, Cell(len(s)))
}

// SetFileOutput makes w the active output sink (FOUT), registering a
// new output handle.
func (vm *VM) SetFileOutput(w io.Writer) {
	vm.outputs = append(vm.outputs, w)
	vm.store(regFOUT, Cell(len(vm.outputs)))
}

// DefineConstant installs name as a word that pushes value when run,
// the same shape the kernel's own "constant" produces, without going
// through the READ loop.
func (vm *VM) DefineConstant(name string, value Cell) error {
	if name == "" || len(name) > maxWordLength-1 {
		return fmt.Errorf("forthcore: constant name must be 1..%d bytes", maxWordLength-1)
	}
	if vm.load(regINVALID) != 0 {
		return fmt.Errorf("forthcore: handle is invalid")
	}
	vm.compileHeader(Cell(opCOMPILE), name)
	vm.appendCell(Cell(opRUN))
	vm.appendCell(2)
	vm.appendCell(value)
	vm.appendCell(vm.find("exit") + 1)
	return nil
}

// DumpCore writes a human-readable, non-reloadable disassembly of
// registers, stacks, and dictionary entries to w.
func (vm *VM) DumpCore(w io.Writer) { newDumper(vm, w).dump() }
