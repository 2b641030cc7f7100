package forthcore

import (
	"fmt"
	"io"
	"strconv"
)

// dumper formats a non-reloadable, human-readable disassembly of a VM's
// registers, stacks, and dictionary: walk the dictionary chain once to
// index word boundaries, then write a short summary followed by one
// section each for the stacks, the dictionary entries, and the
// non-zero registers.
type dumper struct {
	vm  *VM
	out io.Writer

	addrWidth int
	words     []Cell // link-cell indices, highest (most recent) first
}

func newDumper(vm *VM, out io.Writer) *dumper {
	d := &dumper{vm: vm, out: out}
	d.addrWidth = len(strconv.Itoa(len(vm.mem))) + 1
	for link := vm.load(regPWD); link != 0; link = vm.load(link) {
		d.words = append(d.words, link)
	}
	return d
}

func (d *dumper) dump() {
	fmt.Fprintf(d.out, "# forthcore dump\n")
	fmt.Fprintf(d.out, "  dic: %d\n", d.vm.load(regDIC))
	fmt.Fprintf(d.out, "  pwd: %d\n", d.vm.load(regPWD))
	fmt.Fprintf(d.out, "  state: %d  base: %d  invalid: %d\n",
		d.vm.load(regSTATE), d.vm.load(regBASE), d.vm.load(regINVALID))

	d.dumpStacks()
	d.dumpDictionary()
	d.dumpRegisters()
}

func (d *dumper) dumpRegisters() {
	fmt.Fprintf(d.out, "# Registers\n")
	for i := Cell(0); i < registerCount; i++ {
		if v := d.vm.mem[i]; v != 0 {
			fmt.Fprintf(d.out, "  @%*d %d\n", d.addrWidth, i, v)
		}
	}
}

func (d *dumper) dumpStacks() {
	fmt.Fprintf(d.out, "# Data stack (depth %d)\n", d.vm.depth())
	fmt.Fprintf(d.out, "  top: %d\n", d.vm.load(regTOP))
	for addr := d.vm.load(regDSTK); addr < d.vm.dataStackTop(); addr++ {
		fmt.Fprintf(d.out, "  @%*d %d\n", d.addrWidth, addr, d.vm.mem[addr])
	}

	fmt.Fprintf(d.out, "# Return stack (depth %d)\n", d.vm.returnDepth())
	for addr := d.vm.retStackBase() + 1; addr <= d.vm.load(regRSTK); addr++ {
		fmt.Fprintf(d.out, "  @%*d %d\n", d.addrWidth, addr, d.vm.mem[addr])
	}
}

// dumpDictionary walks entries oldest-first (reverse of d.words, which
// is newest-first) and disassembles each body up to the next entry's
// name bytes.
func (d *dumper) dumpDictionary() {
	fmt.Fprintf(d.out, "# Dictionary\n")
	for i := len(d.words) - 1; i >= 0; i-- {
		link := d.words[i]
		misc := d.vm.load(link + 1)
		n := miscNameCells(misc)
		var name string
		if link >= n {
			cells := make([]Cell, n)
			for j := Cell(0); j < n; j++ {
				cells[j] = d.vm.load(link - n + j)
			}
			name = cellsToName(cells)
		}

		bodyEnd := d.vm.load(regDIC)
		if i > 0 {
			nextLink := d.words[i-1]
			nextMisc := d.vm.load(nextLink + 1)
			bodyEnd = nextLink - miscNameCells(nextMisc)
		}

		hidden := ""
		if miscHidden(misc) {
			hidden = " hidden"
		}
		opName := "?"
		if op := miscOpcode(misc); op < opCount {
			opName = opcodeNames[op]
		}
		fmt.Fprintf(d.out, "  @%*d : %s (op=%s%s)", d.addrWidth, link, name, opName, hidden)
		for addr := link + 2; addr < bodyEnd; addr++ {
			fmt.Fprintf(d.out, " %d", d.vm.mem[addr])
		}
		fmt.Fprintln(d.out)
	}
}
