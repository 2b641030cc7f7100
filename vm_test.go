package forthcore

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vmTestCase struct {
	name    string
	opts    []Option
	evals   []string
	wantErr bool

	wantOut     string
	outContains []string
	errContains []string
	wantStack   []Cell

	expect []func(t *testing.T, vm *VM)
}

func vmTest(name string, evals ...string) vmTestCase {
	return vmTestCase{name: name, evals: evals}
}

func (vmt vmTestCase) withOptions(opts ...Option) vmTestCase {
	vmt.opts = append(vmt.opts, opts...)
	return vmt
}

func (vmt vmTestCase) expectOutput(out string) vmTestCase {
	vmt.wantOut = out
	return vmt
}

func (vmt vmTestCase) expectOutputContains(parts ...string) vmTestCase {
	vmt.outContains = append(vmt.outContains, parts...)
	return vmt
}

func (vmt vmTestCase) expectDiag(parts ...string) vmTestCase {
	vmt.errContains = append(vmt.errContains, parts...)
	return vmt
}

func (vmt vmTestCase) expectStack(vals ...Cell) vmTestCase {
	vmt.wantStack = vals
	if vals == nil {
		vmt.wantStack = []Cell{}
	}
	return vmt
}

func (vmt vmTestCase) expectError() vmTestCase {
	vmt.wantErr = true
	return vmt
}

func (vmt vmTestCase) expectWith(fn func(t *testing.T, vm *VM)) vmTestCase {
	vmt.expect = append(vmt.expect, fn)
	return vmt
}

func (vmt vmTestCase) run(t *testing.T) {
	t.Run(vmt.name, func(t *testing.T) {
		var out, diag bytes.Buffer
		opts := append([]Option{WithOutput(&out), WithErrorOutput(&diag)}, vmt.opts...)
		vm, err := New(opts...)
		require.NoError(t, err, "unexpected construction error")
		defer vm.Free()

		for i, src := range vmt.evals {
			err = vm.Eval(src)
			if vmt.wantErr && i == len(vmt.evals)-1 {
				assert.Error(t, err, "expected an eval error")
			} else {
				require.NoError(t, err, "unexpected eval error for %q", src)
			}
		}

		if len(vmt.outContains) == 0 {
			assert.Equal(t, vmt.wantOut, out.String(), "output mismatch")
		}
		for _, part := range vmt.outContains {
			assert.Contains(t, out.String(), part, "output missing %q", part)
		}
		for _, part := range vmt.errContains {
			assert.Contains(t, diag.String(), part, "diagnostics missing %q", part)
		}
		if vmt.wantStack != nil {
			assert.Equal(t, vmt.wantStack, vm.stackValues(), "stack mismatch")
		}
		for _, expect := range vmt.expect {
			expect(t, vm)
		}
	})
}

// stackValues returns the data stack bottom-first, for test assertions.
// push spills the previous top to the cell at the new stack pointer, so
// the deepest value sits highest in the spill region and TOP holds the
// newest.
func (vm *VM) stackValues() []Cell {
	d := int(vm.depth())
	vals := make([]Cell, 0, d)
	if d == 0 {
		return vals
	}
	dsp := vm.load(regDSTK)
	for i := d - 2; i >= 0; i-- {
		vals = append(vals, vm.load(dsp+Cell(i)))
	}
	return append(vals, vm.load(regTOP))
}

func TestVM_interpret(t *testing.T) {
	for _, vmt := range []vmTestCase{
		vmTest("add and print", " 2 3 + . ").
			expectOutput("5 ").expectStack(),
		vmTest("subtract", " 10 4 - . ").expectOutput("6 "),
		vmTest("multiply divide", " 6 7 * 2 / . ").expectOutput("21 "),
		vmTest("stack shuffles", " 1 2 3 rot . . . ").expectOutput("1 3 2 "),
		vmTest("over and swap", " 1 2 over . . . ").expectOutput("1 2 1 "),
		vmTest("comparisons", " 2 3 u< . 3 2 u> . 4 4 = . ").
			expectOutput("-1 -1 -1 "),
		vmTest("emit", "72 emit 105 emit").expectOutput("Hi"),
		vmTest("key reads one char", "key A . ").expectOutput("65 "),
		vmTest("depth", "1 2 3 depth . ").
			expectOutput("3 ").expectStack(1, 2, 3),
		vmTest("comment", "1 ( this text is skipped ) 2 + . ").
			expectOutput("3 "),
		vmTest("leftover values stay", "11 22").expectStack(11, 22),
	} {
		vmt.run(t)
	}
}

func TestVM_compile(t *testing.T) {
	for _, vmt := range []vmTestCase{
		vmTest("colon definition", ": square dup * ; 7 square . ").
			expectOutput("49 ").
			expectWith(func(t *testing.T, vm *VM) {
				assert.NotZero(t, vm.find("square"), "square should be defined")
			}),
		vmTest("recursive factorial",
			": fact dup 1 u< if drop 1 exit then dup 1 - fact * ; 5 fact . ").
			expectOutput("120 ").expectStack(),
		vmTest("if true branch", ": t 1 if 42 . else 43 . then ; t").
			expectOutput("42 "),
		vmTest("if false branch", ": f 0 if 42 . else 43 . then ; f").
			expectOutput("43 "),
		vmTest("if without else", ": g dup if 1 . then . ; 0 g 5 g").
			expectOutput("0 1 5 "),
		vmTest("begin until loop",
			": count-up 0 begin 1+ dup . dup 5 = until drop ; count-up").
			expectOutput("1 2 3 4 5 "),
		vmTest("nested calls", ": twice dup + ; : quad twice twice ; 3 quad . ").
			expectOutput("12 "),
		vmTest("definitions persist across evals",
			": double 2 * ;", "21 double . ").
			expectOutput("42 "),
		vmTest("constant", "42 constant answer answer . ").
			expectOutput("42 "),
		vmTest("variable", "variable x 7 x ! x @ . ").
			expectOutput("7 "),
		vmTest("deep recursion leaves a level return stack",
			": burn dup 0 = if exit then 1 - burn ; 200 burn drop").
			expectStack().
			expectWith(func(t *testing.T, vm *VM) {
				assert.Equal(t, Cell(0), vm.returnDepth(), "every call frame should have unwound")
			}),
		vmTest("literal compiles compile-time value",
			": five [ 2 3 + ] literal ; five . ").
			expectOutput("5 "),
	} {
		vmt.run(t)
	}
}

func TestVM_numbers(t *testing.T) {
	for _, vmt := range []vmTestCase{
		vmTest("negative literal", "-5 negate . ").expectOutput("5 "),
		vmTest("signed print", "0 7 - . ").expectOutput("-7 "),
		vmTest("hex input and output", "hex ff . ").expectOutput("ff "),
		vmTest("hex to decimal", "hex ff decimal . ").expectOutput("255 "),
		vmTest("prefix base", "0 base ! 0x10 . ").expectOutput("16 "),
		vmTest("octal prefix", "0 base ! 010 . ").expectOutput("8 "),
		vmTest("mod", "17 5 mod . ").expectOutput("2 "),
		vmTest("min max abs", "3 9 min . 3 9 max . -4 abs . ").
			expectOutput("3 9 4 "),
	} {
		vmt.run(t)
	}
}

func TestVM_diagnostics(t *testing.T) {
	for _, vmt := range []vmTestCase{
		vmTest("unknown word", "xyzzy").
			expectDiag(`( error "xyzzy is not a word" )`).
			expectStack(),
		vmTest("unknown word after a definition continues", ": w 1 ; nonesuch w . ").
			expectDiag(`( error "nonesuch is not a word" )`).
			expectOutputContains("1 "),
		vmTest("division by zero", "1 0 / ").
			expectDiag(`( error "division by zero" )`),
	} {
		vmt.run(t)
	}
}

func TestVM_fatal(t *testing.T) {
	var out, diag bytes.Buffer
	vm, err := New(WithOutput(&out), WithErrorOutput(&diag))
	require.NoError(t, err)
	defer vm.Free()

	require.NoError(t, vm.Eval(": bad 999999999 @ ;"))
	err = vm.Eval("bad")
	assert.Error(t, err, "out-of-bounds fetch must fail the run")
	assert.Contains(t, diag.String(), `( fatal "bounds check failed: @999999999" )`)

	assert.Error(t, vm.Eval("1 1 + . "), "an invalid handle must refuse to run")
	assert.Error(t, vm.Run(), "an invalid handle must refuse to run")

	var img bytes.Buffer
	assert.Error(t, vm.SaveCore(&img), "an invalid image must refuse to persist")
}

func TestVM_hostStack(t *testing.T) {
	vm, err := New()
	require.NoError(t, err)
	defer vm.Free()

	vm.Push(3)
	vm.Push(4)
	assert.Equal(t, Cell(2), vm.StackPosition())
	require.NoError(t, vm.Eval("+"))
	assert.Equal(t, Cell(7), vm.Pop())
	assert.Equal(t, Cell(0), vm.StackPosition())
}

func TestVM_defineConstant(t *testing.T) {
	var out bytes.Buffer
	vm, err := New(WithOutput(&out))
	require.NoError(t, err)
	defer vm.Free()

	require.NoError(t, vm.DefineConstant("answer", 42))
	require.Error(t, vm.DefineConstant("", 1))
	require.NoError(t, vm.Eval("answer 2 * . "))
	assert.Equal(t, "84 ", out.String())
}

func TestVM_outputRouting(t *testing.T) {
	var out, other, diag bytes.Buffer
	vm, err := New(WithOutput(&out), WithErrorOutput(&diag))
	require.NoError(t, err)
	defer vm.Free()

	require.NoError(t, vm.Eval("1 . "))
	vm.SetFileOutput(&other)
	require.NoError(t, vm.Eval("2 . "))
	assert.Equal(t, "1 ", out.String())
	assert.Equal(t, "2 ", other.String())

	require.NoError(t, vm.Eval("nonesuch"))
	assert.Contains(t, diag.String(), "nonesuch")
	assert.NotContains(t, other.String(), "nonesuch",
		"diagnostics must not leak into the program output sink")
}

func TestVM_fileInput(t *testing.T) {
	var out bytes.Buffer
	vm, err := New(WithOutput(&out), WithInput(strings.NewReader(": three 3 ;\nthree . \n")))
	require.NoError(t, err)
	defer vm.Free()

	require.NoError(t, vm.Run())
	assert.Equal(t, "3 ", out.String())
}

func TestVM_words(t *testing.T) {
	var out bytes.Buffer
	vm, err := New(WithOutput(&out))
	require.NoError(t, err)
	defer vm.Free()

	require.NoError(t, vm.Eval("words"))
	for _, name := range []string{"dup", "swap", ";", "if", "variable", "words"} {
		assert.Contains(t, out.String(), name)
	}
}

func TestVM_clock(t *testing.T) {
	vm, err := New()
	require.NoError(t, err)
	defer vm.Free()

	require.NoError(t, vm.Eval("clock"))
	elapsed := vm.Pop()
	assert.Less(t, uint64(elapsed), uint64(60_000), "clock should report millis since boot")
}

func TestVM_trace(t *testing.T) {
	var lines []string
	logf := func(mess string, args ...interface{}) {
		lines = append(lines, mess)
	}
	vm, err := New(WithLogf(logf))
	require.NoError(t, err)
	defer vm.Free()

	assert.NotEmpty(t, lines, "kernel bootstrap should produce trace output")
}

func TestVM_memorySizing(t *testing.T) {
	_, err := New(WithMemSize(4096), WithStackSize(3000))
	assert.Error(t, err, "stacks must fit below memory")

	vm, err := New(WithMemSize(10))
	require.NoError(t, err, "tiny sizes round up to the minimum core")
	assert.Equal(t, MinCells, len(vm.mem))
	vm.Free()
}
