package forthcore

import (
	"errors"
	"io"
	"strings"
)

// errSourceEOF signals clean exhaustion of the active input source to
// the top-level driver loop; it is not a fatal VM error.
var errSourceEOF = errors.New("forthcore: input exhausted")

// sourceStringID is the SOURCE_ID value selecting string input; zero
// selects the file-like input named by FIN.
const sourceStringID = ^Cell(0)

// getChar pulls the next byte from whichever input source SOURCE_ID
// names: 0 is the file-like handle in FIN, -1 the string input cursor
// in SIN/SIDX/SLEN.
func (vm *VM) getChar() (byte, error) {
	if vm.load(regSOURCEID) == 0 {
		return vm.fileInput(vm.load(regFIN)).ReadByte()
	}
	idx := vm.load(regSIDX)
	if idx >= vm.load(regSLEN) {
		return 0, io.EOF
	}
	sin := vm.stringInput(vm.load(regSIN))
	b := sin[idx]
	vm.store(regSIDX, idx+1)
	return b, nil
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// getWord skips leading whitespace and collects the next run of
// non-whitespace bytes, truncated to maxWordLength-1. It also mirrors
// the token into the fixed word buffer at the base of memory, for
// fidelity with implementations that let Forth code peek at it
// directly.
func (vm *VM) getWord() (string, error) {
	var b byte
	var err error
	for {
		b, err = vm.getChar()
		if err != nil {
			return "", err
		}
		if !isSpace(b) {
			break
		}
	}

	buf := make([]byte, 0, maxWordLength)
	for {
		buf = append(buf, b)
		if len(buf) >= maxWordLength-1 {
			break
		}
		b, err = vm.getChar()
		if err != nil {
			break
		}
		if isSpace(b) {
			break
		}
	}

	vm.storeWordBuf(buf)
	return string(buf), nil
}

func (vm *VM) storeWordBuf(word []byte) {
	cells := nameToCells(string(word))
	addr := Cell(registerCount)
	for i, c := range cells {
		if Cell(i) >= wordBufCells {
			break
		}
		vm.store(addr+Cell(i), c)
	}
}

// parseNumber interprets token in the VM's current BASE. Base 0 means
// "by prefix": 0x selects 16, a leading 0 selects 8, decimal otherwise.
// The value is always computed, even on failure, matching
// implementations that let a caller fall back to treating a malformed
// numeral as "leading digits only" rather than discarding it outright;
// ok reports whether every character in token was a valid digit.
// Values too wide for a cell wrap silently — see DESIGN.md.
func parseNumber(token string, base Cell) (value Cell, ok bool) {
	if token == "" {
		return 0, false
	}
	neg := false
	i := 0
	if (token[0] == '-' || token[0] == '+') && len(token) > 1 {
		neg = token[0] == '-'
		i = 1
	}
	if base == 0 {
		base = 10
		switch rest := token[i:]; {
		case strings.HasPrefix(rest, "0x"), strings.HasPrefix(rest, "0X"):
			base = 16
			i += 2
		case len(rest) > 1 && rest[0] == '0':
			base = 8
			i++
		}
	}
	if base < 2 || base > 36 || i >= len(token) {
		return 0, false
	}
	ok = true
	for ; i < len(token); i++ {
		d, valid := digitValue(token[i])
		if !valid || Cell(d) >= base {
			ok = false
			break
		}
		value = value*base + Cell(d)
	}
	if neg {
		value = -value
	}
	return value, ok
}

func digitValue(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10, true
	}
	return 0, false
}
