package forthcore

import (
	"encoding/binary"
	"fmt"
	"io"
	"unsafe"
)

const (
	imageMagic0, imageMagic1, imageMagic2, imageMagic3 = 0xFF, '4', 'T', 'H'
	imageVersion                                       = 0x02
	imageTrailer                                       = 0xFF

	endianLittle = 1
	endianBig    = 0
)

func hostEndian() byte {
	var x uint16 = 1
	b := (*[2]byte)(unsafe.Pointer(&x))
	if b[0] == 1 {
		return endianLittle
	}
	return endianBig
}

func hostByteOrder() binary.ByteOrder {
	if hostEndian() == endianLittle {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// SaveCore serializes the entire memory image to w: an 8-byte header
// naming this build's cell width, format version, and byte order, an
// 8-byte little-endian cell count, then that many cells in host byte
// order. A core saved by one build can only be loaded back by a build
// with the exact same cell width and byte order.
func (vm *VM) SaveCore(w io.Writer) error {
	if vm.load(regINVALID) != 0 {
		return fmt.Errorf("forthcore: refusing to save an invalid image")
	}

	header := [8]byte{imageMagic0, imageMagic1, imageMagic2, imageMagic3,
		cellBytes, imageVersion, hostEndian(), imageTrailer}
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(len(vm.mem)))
	if _, err := w.Write(sizeBuf[:]); err != nil {
		return err
	}

	order := hostByteOrder()
	buf := make([]byte, cellBytes)
	for _, c := range vm.mem {
		order.PutUint64(buf, uint64(c))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// LoadCore replaces the VM's memory with the image read from r,
// strictly rejecting any header mismatch (cell width, version, byte
// order) or a file that is truncated or smaller than the minimum core.
func (vm *VM) LoadCore(r io.Reader) error {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return fmt.Errorf("forthcore: reading image header: %w", err)
	}
	if header[0] != imageMagic0 || header[1] != imageMagic1 ||
		header[2] != imageMagic2 || header[3] != imageMagic3 ||
		header[7] != imageTrailer {
		return fmt.Errorf("forthcore: not a forthcore core image")
	}
	if header[4] != cellBytes {
		return fmt.Errorf("forthcore: image cell width %d does not match this build's %d", header[4], cellBytes)
	}
	if header[5] != imageVersion {
		return fmt.Errorf("forthcore: unsupported image version %d", header[5])
	}
	if header[6] != hostEndian() {
		return fmt.Errorf("forthcore: image byte order does not match this build's")
	}

	var sizeBuf [8]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return fmt.Errorf("forthcore: reading image size: %w", err)
	}
	size := binary.LittleEndian.Uint64(sizeBuf[:])
	if size < MinCells {
		return fmt.Errorf("forthcore: image core_size %d below minimum %d", size, MinCells)
	}
	if size > uint64(1<<32) {
		return fmt.Errorf("forthcore: implausible image size %d", size)
	}

	mem := make([]Cell, size)
	order := hostByteOrder()
	buf := make([]byte, cellBytes)
	for i := range mem {
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("forthcore: image truncated at cell %d: %w", i, err)
		}
		mem[i] = Cell(order.Uint64(buf))
	}

	vm.mem = mem
	return nil
}
