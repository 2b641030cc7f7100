package forthcore

// compileSemicolon hand-assembles ";" directly in Go rather than
// parsing it from source: defining ";" in Forth would need ";" to
// already exist to close its own definition. Its header carries RUN in
// the misc cell (immediate from birth, the same shape IMMEDIATE
// produces), and its body closes the open definition the way a
// Forth-level "' exit 1 + , 0 state !" would: append a call to exit's
// body to the word under construction, then clear STATE.
func (vm *VM) compileSemicolon() {
	exit := vm.find("exit") + 1
	comma := vm.find(",") + 1
	stor := vm.find("!") + 1

	vm.compileHeader(Cell(opRUN), ";")
	vm.appendCell(2)
	vm.appendCell(exit)
	vm.appendCell(comma)
	vm.appendCell(2)
	vm.appendCell(0)
	vm.appendCell(2)
	vm.appendCell(regSTATE)
	vm.appendCell(stor)
	vm.appendCell(exit)
}

// kernelSource is ordinary Forth text, evaluated once at boot time
// through the same READ loop user programs go through. It layers the
// usual higher-level vocabulary on top of the native opcode set and
// the hand-assembled ":"/";".
//
// Two idioms carry most of the weight. "[ ... ]" drops to interpret
// mode mid-definition, so "[ find ?branch 1 + , ]" can resolve a
// primitive's executable address and splice a raw call cell while the
// surrounding definition is still open. "literal" then covers the
// other half: it takes a value computed at compile time off the stack
// and compiles a push of it into the open definition. IF/ELSE/THEN and
// BEGIN/UNTIL use the classic trick of leaving the address of a
// not-yet-known branch offset on the data stack during compilation for
// a later immediate word to patch.
const kernelSource = `
: state 8 ;
: base 9 ;
: here 6 @ ;
: [ immediate 0 state ! ;
: ] 1 state ! ;
: literal immediate 2 , , ;

: if immediate [ find ?branch 1 + ] literal , here 0 , ;
: else immediate [ find branch 1 + ] literal , here 0 , swap dup here swap - swap ! ;
: then immediate dup here swap - swap ! ;
: begin immediate here ;
: until immediate [ find ?branch 1 + ] literal , here - , ;
: ( immediate begin key 41 = until ;

( from here down the kernel can comment on itself )

: < u< ;
: > u> ;
: . pnum 32 emit ;
: cr 10 emit ;
: space 32 emit ;
: bl 32 ;
: true -1 ;
: false 0 ;

: 0= 0 = ;
: not 0= ;
: <> = not ;
: 0< [ -1 1 rshift ] literal u> ;
: 1+ 1 + ;
: 1- 1 - ;
: 2* 1 lshift ;
: 2/ 1 rshift ;
: negate 0 swap - ;

: 2dup over over ;
: 2drop drop drop ;
: nip swap drop ;
: tuck swap over ;
: rot >r swap r> swap ;
: -rot swap >r swap r> ;
: ?dup dup if dup then ;

: mod 2dup / * - ;
: /mod 2dup mod >r / r> ;
: abs dup 0< if negate then ;
: max 2dup u< if swap then drop ;
: min 2dup u> if swap then drop ;

: decimal 10 base ! ;
: hex 16 base ! ;
: allot here + 6 ! ;

: constant [ find : , ] 2 , , [ find exit 1 + ] literal , 0 state ! ;
: variable [ find : , ] 2 , here 2 + , [ find exit 1 + ] literal , 0 , 0 state ! ;

( walk the dictionary chain printing each name: the name bytes sit )
( just below the link cell, their cell count packed into the misc )
: words 10 @ begin dup 1 + @ 8 rshift 255 and over swap - print space @ dup 0 = until drop cr ;
`
