package forthcore

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/arvidholm/forthcore/internal/charsource"
)

// BlockStore is the collaborator BSAVE/BLOAD transfer fixed-size blocks
// through. The default, returned by NewBlockStore, is a plain directory
// of "XXXX.blk" files; callers embedding a VM somewhere blocks can't be
// ordinary files (a database blob column, an in-memory test fixture)
// supply their own.
type BlockStore interface {
	Load(id uint, buf []byte) error
	Save(id uint, buf []byte) error
}

// haltError is the VM's in-band fatal escape: fatal() latches INVALID
// and panics with one of these, and run() recovers it at its own
// boundary and returns err. A clean end of input unwinds the same way,
// wrapping errSourceEOF, and run() turns that one into a nil return.
// It is a plain panic/recover pair, distinct from internal/escape's
// goroutine-level net: that one only catches stray Go-level panics,
// never these expected unwinds.
type haltError struct{ err error }

func (h haltError) Error() string { return h.err.Error() }
func (h haltError) Unwrap() error { return h.err }

// VM is an embeddable Forth core: a single flat Cell array holding
// registers, the word-name scratch buffer, an append-only dictionary,
// and two stacks sharing the high end of memory.
type VM struct {
	mem []Cell

	stackCells Cell

	fileInputs   []*charsource.File
	stringInputs [][]byte
	outputs      []io.Writer

	blocks BlockStore

	errOut io.Writer
	logf   func(string, ...interface{})

	traceOps bool
	bootTime time.Time
}

// fatal raises err as the VM's sticky fatal condition: it latches
// INVALID and unwinds via panic to the nearest run()/Eval() boundary.
func (vm *VM) fatal(err error) {
	vm.store(regINVALID, 1)
	panic(haltError{err})
}

func (vm *VM) fileInput(id Cell) *charsource.File {
	i := int(id) - 1
	if i < 0 || i >= len(vm.fileInputs) || vm.fileInputs[i] == nil {
		vm.fatal(fmt.Errorf("forthcore: no file input handle %d", id))
	}
	return vm.fileInputs[i]
}

func (vm *VM) stringInput(id Cell) []byte {
	i := int(id) - 1
	if i < 0 || i >= len(vm.stringInputs) {
		vm.fatal(fmt.Errorf("forthcore: no string input handle %d", id))
	}
	return vm.stringInputs[i]
}

func (vm *VM) output(id Cell) io.Writer {
	i := int(id) - 1
	if i < 0 || i >= len(vm.outputs) || vm.outputs[i] == nil {
		vm.fatal(fmt.Errorf("forthcore: no output handle %d", id))
	}
	return vm.outputs[i]
}

func (vm *VM) diagf(format string, args ...interface{}) {
	if vm.errOut == nil {
		return
	}
	fmt.Fprintf(vm.errOut, format, args...)
}

func (vm *VM) trace(op Cell, pc Cell) {
	if !vm.traceOps || vm.logf == nil {
		return
	}
	opName := "?"
	if op < opCount {
		opName = opcodeNames[op]
	}
	name, off := vm.wordOf(pc)
	if name == "" {
		vm.logf("op=%s pc=%d", opName, pc)
		return
	}
	vm.logf("op=%s pc=%d word=%s+%d", opName, pc, name, off)
}

// reset zeroes memory, installs the register defaults, the driver word,
// and the native dictionary, and then lays the Forth-level kernel
// vocabulary on top by evaluating kernelSource through the ordinary
// READ loop. It is called once by New.
func (vm *VM) reset() error {
	for i := range vm.mem {
		vm.mem[i] = 0
	}
	vm.store(regDIC, dictionaryStart)
	vm.store(regSTACKSIZE, vm.stackCells)
	vm.store(regRSTK, vm.retStackBase())
	vm.store(regSTATE, 0)
	vm.store(regBASE, 10)
	vm.store(regPWD, 0)
	vm.store(regDSTK, vm.dataStackTop())
	vm.store(regTOP, 0)
	vm.store(regFOUT, 1)
	vm.store(regFIN, 0)

	// Default active input is the reserved empty string-input slot
	// (handle 1), so a bare Run() with nothing configured hits a clean
	// EOF instead of faulting on an unregistered file handle.
	if len(vm.stringInputs) == 0 {
		vm.stringInputs = append(vm.stringInputs, nil)
	} else {
		vm.stringInputs[0] = nil
	}
	vm.store(regSOURCEID, sourceStringID)
	vm.store(regSIN, 1)
	vm.store(regSIDX, 0)
	vm.store(regSLEN, 0)

	// The driver word: three instruction cells and a three-cell body
	// that calls READ and then re-enters itself, with TAIL discarding
	// the frame each self-call pushes so the return stack stays level.
	// Execution starts at the READ call so the first TAIL only runs
	// once a frame exists to drop.
	driver := vm.load(regDIC)
	vm.appendCell(Cell(opREAD)) // driver+0
	vm.appendCell(Cell(opTAIL)) // driver+1
	vm.appendCell(Cell(opRUN))  // driver+2
	vm.appendCell(driver + 1)   // body: drop the previous cycle's frame
	vm.appendCell(driver)       // read one token
	vm.appendCell(driver + 2)   // call self
	vm.store(regINSTRUCTION, driver+4)

	vm.bootTime = time.Now()
	vm.compileBuiltins()
	vm.compileSemicolon()
	if err := vm.evalString(kernelSource); err != nil {
		return fmt.Errorf("forthcore: kernel bootstrap failed: %w", err)
	}
	return nil
}

// evalString runs src through the interpreter as the active input
// source, saving and restoring whatever input context was active
// before the call. A single reserved string-input slot (handle 1)
// backs it, rather than growing the string-input registry per call.
func (vm *VM) evalString(src string) error {
	savedSourceID := vm.load(regSOURCEID)
	savedSIN := vm.load(regSIN)
	savedSIDX := vm.load(regSIDX)
	savedSLEN := vm.load(regSLEN)
	defer func() {
		vm.store(regSOURCEID, savedSourceID)
		vm.store(regSIN, savedSIN)
		vm.store(regSIDX, savedSIDX)
		vm.store(regSLEN, savedSLEN)
	}()

	if len(vm.stringInputs) == 0 {
		vm.stringInputs = append(vm.stringInputs, nil)
	}
	vm.stringInputs[0] = []byte(src)
	vm.store(regSOURCEID, sourceStringID)
	vm.store(regSIN, 1)
	vm.store(regSIDX, 0)
	vm.store(regSLEN, Cell(len(src)))
	return vm.run()
}

// run drives the threaded-code interpreter from wherever INSTRUCTION
// points — ordinarily somewhere inside the driver word, whose READ
// consumes one token per cycle — until the active input source is
// exhausted or a fatal condition is raised. Each iteration fetches one
// cell as the new word pointer and dispatches the instruction it names.
// It recovers haltError at this boundary, converting it into a returned
// error; any other panic propagates (a genuine bug, caught further up
// by internal/escape).
func (vm *VM) run() (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if he, ok := r.(haltError); ok {
			if errors.Is(he.err, errSourceEOF) {
				err = nil
				return
			}
			vm.diagf("( fatal %q )\n", he.err.Error())
			err = he
			return
		}
		panic(r)
	}()

	for {
		i := vm.load(regINSTRUCTION)
		pc := vm.load(i)
		vm.store(regINSTRUCTION, i+1)
		vm.dispatchOnce(pc)
	}
}

// dispatchOnce executes the single opcode packed into m[pc]'s low bits.
func (vm *VM) dispatchOnce(pc Cell) {
	op := miscOpcode(vm.load(pc))
	next := pc + 1
	vm.trace(op, pc)
	vm.exec(op, next)
}

// returnDepth reports how many frames are live on the return stack.
func (vm *VM) returnDepth() Cell { return vm.load(regRSTK) - vm.retStackBase() }
