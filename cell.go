package forthcore

// Cell is the VM's natural machine word. The spec allows a compile-time
// choice of 16/32/64 bits; this build fixes it at 64, see DESIGN.md.
type Cell uint64

const (
	cellBits  = 64
	cellBytes = cellBits / 8

	// CellBytes exposes the cell width in bytes to hosts sizing images
	// in external units (the CLI's -m kilobytes flag, block offsets).
	CellBytes = cellBytes
)

// Signed reinterprets c as two's-complement of cellBits width.
func (c Cell) Signed() int64 { return int64(c) }

// Registers, fixed cell indices per the register table. Only the
// register set actually consumed by the core is named here.
const (
	regDIC         = 6  // next free dictionary cell
	regRSTK        = 7  // return-stack pointer (cell index)
	regSTATE       = 8  // 0=interpret, nonzero=compile
	regBASE        = 9  // numeric base, 2..36, 0 = "by prefix"
	regPWD         = 10 // head of dictionary linked list
	regSOURCEID    = 11 // 0=file-like input, -1=string input
	regSIN         = 12 // string-input handle id
	regSIDX        = 13 // string-input cursor
	regSLEN        = 14 // string-input length
	regFIN         = 16 // file-like input handle id
	regFOUT        = 17 // output sink handle id
	regINVALID     = 24 // sticky fatal flag
	regTOP         = 25 // saved top-of-stack across yields
	regINSTRUCTION = 26 // saved program counter across yields
	regSTACKSIZE   = 27 // size of each stack in cells

	registerCount = 32

	// maxWordLength bounds a single lexed token, in bytes, counting the
	// terminating NUL.
	maxWordLength = 32
	wordBufCells  = (maxWordLength + cellBytes - 1) / cellBytes

	// dictionaryStart is the first cell index available to the compiler.
	dictionaryStart = registerCount + wordBufCells
)

// MinCells is the floor below which an image cannot hold the boot
// program; New rounds smaller requests up to it and LoadCore rejects
// images under it.
const MinCells = 2048
