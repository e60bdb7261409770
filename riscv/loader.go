package riscv

import (
	"encoding/binary"
)

// Fixed memory map addresses (§4.3).
const (
	CodeBase      uint32 = 0x1000
	InputBuffer   uint32 = 0x1000_0000
	OutputBuffer  uint32 = 0x2000_0000
	MaxBufferSize uint32 = 1024 * 1024
)

var (
	rvbcMagic = [4]byte{'R', 'V', 'B', 'C'}
	elfMagic  = [4]byte{0x7f, 'E', 'L', 'F'}
)

// LoadBytecode sniffs data's first four bytes and loads it into mem,
// returning the absolute entry point. Anything other than the two
// recognized magics is InvalidBytecode (§4.3).
func LoadBytecode(mem *Memory, data []byte) (uint32, error) {
	if len(data) < 4 {
		return 0, newFault(FaultInvalidBytecode, "too short")
	}
	var magic [4]byte
	copy(magic[:], data[:4])
	switch magic {
	case rvbcMagic:
		return loadRVBC(mem, data)
	case elfMagic:
		return loadELF32(mem, data)
	default:
		return 0, newFault(FaultInvalidBytecode, "unrecognized magic")
	}
}

func loadRVBC(mem *Memory, data []byte) (uint32, error) {
	if len(data) < 8 {
		return 0, newFault(FaultInvalidBytecode, "truncated header")
	}
	offset := binary.LittleEndian.Uint32(data[4:8])
	code := data[8:]
	if offset%4 != 0 {
		return 0, newFault(FaultInvalidBytecode, "entry offset not 4-aligned")
	}
	if offset >= uint32(len(code)) {
		return 0, newFault(FaultInvalidBytecode, "entry offset out of range")
	}
	if len(code) > 0 {
		if err := mem.LoadSegment(CodeBase, code); err != nil {
			return 0, newFault(FaultInvalidBytecode, err.Error())
		}
	}
	return CodeBase + offset, nil
}

// elf32Header mirrors the fixed-width fields of a 32-bit ELF header that
// the loader actually consumes.
type elf32Header struct {
	Entry     uint32
	PhOff     uint32
	PhEntSize uint16
	PhNum     uint16
}

type elf32ProgramHeader struct {
	Type   uint32
	Offset uint32
	VAddr  uint32
	FileSz uint32
	MemSz  uint32
}

const ptLoad = 1

func loadELF32(mem *Memory, data []byte) (uint32, error) {
	if len(data) < 52 {
		return 0, newFault(FaultInvalidBytecode, "truncated elf header")
	}
	// e_ident[EI_CLASS] must be ELFCLASS32 (1); e_ident[EI_DATA] must be
	// ELFDATA2LSB (1), per §4.3's "32-bit little-endian ELF only".
	if data[4] != 1 || data[5] != 1 {
		return 0, newFault(FaultInvalidBytecode, "not 32-bit little-endian")
	}

	hdr := elf32Header{
		Entry:     binary.LittleEndian.Uint32(data[24:28]),
		PhOff:     binary.LittleEndian.Uint32(data[28:32]),
		PhEntSize: binary.LittleEndian.Uint16(data[42:44]),
		PhNum:     binary.LittleEndian.Uint16(data[44:46]),
	}
	if hdr.Entry == 0 || hdr.Entry%4 != 0 {
		return 0, newFault(FaultInvalidBytecode, "entry point invalid")
	}

	loadedAny := false
	for i := uint16(0); i < hdr.PhNum; i++ {
		phOff := hdr.PhOff + uint32(i)*uint32(hdr.PhEntSize)
		if int(phOff)+32 > len(data) {
			return 0, newFault(FaultInvalidBytecode, "program header out of range")
		}
		ph := elf32ProgramHeader{
			Type:   binary.LittleEndian.Uint32(data[phOff : phOff+4]),
			Offset: binary.LittleEndian.Uint32(data[phOff+4 : phOff+8]),
			VAddr:  binary.LittleEndian.Uint32(data[phOff+8 : phOff+12]),
			FileSz: binary.LittleEndian.Uint32(data[phOff+16 : phOff+20]),
			MemSz:  binary.LittleEndian.Uint32(data[phOff+20 : phOff+24]),
		}
		if ph.Type != ptLoad {
			continue
		}
		if uint64(ph.Offset)+uint64(ph.FileSz) > uint64(len(data)) {
			return 0, newFault(FaultInvalidBytecode, "segment file range out of bounds")
		}
		if uint64(ph.VAddr)+uint64(ph.MemSz) > uint64(mem.limit) {
			return 0, newFault(FaultInvalidBytecode, "segment memory range exceeds limit")
		}
		if ph.FileSz > 0 {
			if err := mem.LoadSegment(ph.VAddr, data[ph.Offset:ph.Offset+ph.FileSz]); err != nil {
				return 0, newFault(FaultInvalidBytecode, err.Error())
			}
		}
		if ph.MemSz > ph.FileSz {
			bss := make([]byte, ph.MemSz-ph.FileSz)
			if err := mem.WriteBytes(ph.VAddr+ph.FileSz, bss); err != nil {
				return 0, newFault(FaultInvalidBytecode, err.Error())
			}
		}
		loadedAny = true
	}
	if !loadedAny {
		return 0, newFault(FaultInvalidBytecode, "no PT_LOAD segment")
	}
	return hdr.Entry, nil
}
