package riscv

// RV32 opcode field values.
const (
	opLUI    = 0x37
	opAUIPC  = 0x17
	opJAL    = 0x6f
	opJALR   = 0x67
	opBranch = 0x63
	opLoad   = 0x03
	opStore  = 0x23
	opImm    = 0x13
	opReg    = 0x33
	opSystem = 0x73
)

// EncodeRType assembles an R-type instruction (register-register ALU ops
// and the RV32M multiply/divide extension).
func EncodeRType(opcode, funct3, funct7, rd, rs1, rs2 uint32) uint32 {
	return (funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

// EncodeIType assembles an I-type instruction (immediate ALU ops, loads,
// JALR). imm is sign-extended from its low 12 bits by the caller.
func EncodeIType(opcode, funct3, rd, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)&0xfff)<<20 | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

// EncodeSType assembles an S-type instruction (stores).
func EncodeSType(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	imm11_5 := (u >> 5) & 0x7f
	imm4_0 := u & 0x1f
	return (imm11_5 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (imm4_0 << 7) | opcode
}

// EncodeBType assembles a B-type instruction (conditional branches). imm
// must be even; bit 0 is implicitly zero.
func EncodeBType(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	b12 := (u >> 12) & 0x1
	b10_5 := (u >> 5) & 0x3f
	b4_1 := (u >> 1) & 0xf
	b11 := (u >> 11) & 0x1
	return (b12 << 31) | (b10_5 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (b4_1 << 8) | (b11 << 7) | opcode
}

// EncodeUType assembles a U-type instruction (LUI, AUIPC). imm occupies
// the upper 20 bits of the target value.
func EncodeUType(opcode, rd uint32, imm int32) uint32 {
	return (uint32(imm) & 0xfffff000) | (rd << 7) | opcode
}

// EncodeJType assembles a J-type instruction (JAL). imm must be even.
func EncodeJType(opcode, rd uint32, imm int32) uint32 {
	u := uint32(imm)
	b20 := (u >> 20) & 0x1
	b10_1 := (u >> 1) & 0x3ff
	b11 := (u >> 11) & 0x1
	b19_12 := (u >> 12) & 0xff
	return (b20 << 31) | (b10_1 << 21) | (b11 << 20) | (b19_12 << 12) | (rd << 7) | opcode
}

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}
