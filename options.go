package forthcore

import "io"

// defaultMemCells and defaultStackCells size a VM created with no
// WithMemSize/WithStackSize option: enough headroom above MinCells for
// the kernel bootstrap plus a comfortable pair of stacks.
const (
	defaultMemCells   = 4096
	defaultStackCells = 256
)

// Option configures a VM at construction time.
type Option interface{ apply(*config) }

type config struct {
	memCells   Cell
	stackCells Cell
	input      io.Reader
	strInput   *string
	output     io.Writer
	errOut     io.Writer
	logf       func(string, ...interface{})
	blocks     BlockStore
	trace      bool
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithInput makes r the active input source once construction is done,
// as if SetFileInput had been called on the fresh VM.
func WithInput(r io.Reader) Option {
	return optionFunc(func(c *config) { c.input = r })
}

// WithStringInput makes s the active input source once construction is
// done, as if SetStringInput had been called on the fresh VM. If both
// WithInput and WithStringInput are given, the string wins.
func WithStringInput(s string) Option {
	return optionFunc(func(c *config) { c.strInput = &s })
}

// WithOutput sets the VM's primary output sink (FOUT) at construction,
// the target of EMIT/PRINT/PNUM. Defaults to io.Discard.
func WithOutput(w io.Writer) Option {
	return optionFunc(func(c *config) { c.output = w })
}

// WithMemSize sets the total number of cells in the VM's image,
// including registers, the word buffer, the dictionary, and both
// stacks. It is rounded up to MinCells if smaller.
func WithMemSize(cells int) Option {
	return optionFunc(func(c *config) { c.memCells = Cell(cells) })
}

// WithStackSize sets the size, in cells, of each of the data and return
// stacks.
func WithStackSize(cells int) Option {
	return optionFunc(func(c *config) { c.stackCells = Cell(cells) })
}

// WithErrorOutput directs the VM's own "( error ... )" / "( fatal ... )"
// diagnostic lines to w, distinct from the Forth-level output sink
// (FOUT) that EMIT/PRINT/PNUM write to. Defaults to the primary output
// sink set by WithOutput.
func WithErrorOutput(w io.Writer) Option {
	return optionFunc(func(c *config) { c.errOut = w })
}

// WithLogf installs an opcode-tracing hook, off by default. Zero
// overhead when nil.
func WithLogf(logf func(mess string, args ...interface{})) Option {
	return optionFunc(func(c *config) { c.logf = logf; c.trace = logf != nil })
}

// WithBlockStore supplies the collaborator BSAVE/BLOAD transfer
// BLOCK_SIZE-byte blocks through. Defaults to nil: block opcodes report
// a recoverable diagnostic until one is configured.
func WithBlockStore(store BlockStore) Option {
	return optionFunc(func(c *config) { c.blocks = store })
}
