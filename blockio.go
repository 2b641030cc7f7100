package forthcore

import "github.com/arvidholm/forthcore/internal/blockfile"

// NewBlockStore returns the default BlockStore: a directory of
// "XXXX.blk" files, one per block id, each exactly BlockSize bytes.
func NewBlockStore(dir string) BlockStore { return blockfile.Store{Dir: dir} }

// execBlockIO implements BSAVE (save=true) and BLOAD (save=false):
// ( offset id -- status ), transferring blockfile.BlockSize bytes
// between byte offset offset of m (reinterpreted as bytes, least
// significant byte of each cell first, matching the dictionary name
// packing) and the numbered block file. A failure — missing block
// store, a short read, an out-of-range offset — is recoverable: it
// reports a diagnostic and leaves status -1 on the stack with the VM
// still running.
func (vm *VM) execBlockIO(save bool) Cell {
	id := vm.pop()
	offset := vm.pop()

	if vm.blocks == nil {
		return vm.blockFail("no block store configured")
	}
	byteLen := uint64(len(vm.mem)) * cellBytes
	if uint64(offset) > byteLen-blockfile.BlockSize {
		return vm.blockFail("block transfer out of range")
	}

	buf := make([]byte, blockfile.BlockSize)
	if save {
		for i := range buf {
			addr := uint64(offset) + uint64(i)
			buf[i] = byte(vm.mem[addr/cellBytes] >> (8 * (addr % cellBytes)))
		}
		if err := vm.blocks.Save(uint(id), buf); err != nil {
			return vm.blockFail(err.Error())
		}
		return 0
	}

	if err := vm.blocks.Load(uint(id), buf); err != nil {
		return vm.blockFail(err.Error())
	}
	for i, b := range buf {
		addr := uint64(offset) + uint64(i)
		idx := addr / cellBytes
		shift := 8 * (addr % cellBytes)
		vm.mem[idx] = vm.mem[idx]&^(Cell(0xFF)<<shift) | Cell(b)<<shift
	}
	return 0
}

func (vm *VM) blockFail(msg string) Cell {
	vm.diagf("( error %q )\n", msg)
	return ^Cell(0)
}
