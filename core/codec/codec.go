// Package codec implements UNITS's canonical deterministic serialization:
// the fixed little-endian, length-prefixed binary encoding used both on the
// storage path (canonical_serialize for proof hashing) and on the RISC-V
// host's input/output buffers (§4.3, §6). It is deliberately not RLP and
// not protobuf — a small bespoke compact encoder, in the style of the
// teacher corpus's own receipt-trie compact encoding.
//
// Every Encode* function is a pure function of its argument: no map
// iteration order, no pointer addresses, and no wall-clock leaks into the
// output. Maps are always written as a length-prefixed list of (key, value)
// pairs with keys pre-sorted ascending, per spec §4.2's canonical
// serialization rule.
package codec

import (
	"encoding/binary"
	"errors"
)

// ErrTruncated is returned when a Decode* function runs out of input bytes
// before it has consumed a complete value.
var ErrTruncated = errors.New("codec: truncated input")

// ErrOversizedField is returned when a length prefix claims more bytes than
// remain in the buffer, guarding against a corrupt or hostile length field
// driving an enormous allocation.
var ErrOversizedField = errors.New("codec: length prefix exceeds remaining input")

// Writer accumulates a canonical byte encoding. The zero value is ready to
// use.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with capacity reserved for hint bytes.
func NewWriter(hint int) *Writer {
	return &Writer{buf: make([]byte, 0, hint)}
}

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte { return w.buf }

// PutUint8 appends a single byte.
func (w *Writer) PutUint8(v uint8) { w.buf = append(w.buf, v) }

// PutUint32 appends v as 4 little-endian bytes.
func (w *Writer) PutUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutUint64 appends v as 8 little-endian bytes.
func (w *Writer) PutUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutInt64 appends v as 8 little-endian bytes (two's complement).
func (w *Writer) PutInt64(v int64) { w.PutUint64(uint64(v)) }

// PutBytes appends a uint32 length prefix followed by b verbatim.
func (w *Writer) PutBytes(b []byte) {
	w.PutUint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// PutFixed appends b verbatim with no length prefix — used for fields of
// statically known width such as a 32-byte ObjectId or Hash.
func (w *Writer) PutFixed(b []byte) { w.buf = append(w.buf, b...) }

// PutBool appends a single byte, 1 for true and 0 for false.
func (w *Writer) PutBool(v bool) {
	if v {
		w.PutUint8(1)
	} else {
		w.PutUint8(0)
	}
}

// PutOptionalFixed writes a single presence byte followed by b when present
// is true; when false, only the presence byte is written.
func (w *Writer) PutOptionalFixed(present bool, b []byte) {
	w.PutBool(present)
	if present {
		w.PutFixed(b)
	}
}

// Reader consumes a canonical byte encoding produced by Writer.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps b for sequential decoding.
func NewReader(b []byte) *Reader { return &Reader{buf: b} }

// Remaining returns the number of unconsumed bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return ErrTruncated
	}
	return nil
}

// Uint8 decodes a single byte.
func (r *Reader) Uint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// Uint32 decodes 4 little-endian bytes.
func (r *Reader) Uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// Uint64 decodes 8 little-endian bytes.
func (r *Reader) Uint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// Int64 decodes 8 little-endian bytes as a two's-complement signed value.
func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

// Bool decodes a single presence/flag byte.
func (r *Reader) Bool() (bool, error) {
	v, err := r.Uint8()
	return v != 0, err
}

// Bytes decodes a uint32-length-prefixed byte slice.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if int(n) > r.Remaining() {
		return nil, ErrOversizedField
	}
	b := make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return b, nil
}

// Fixed decodes exactly n bytes with no length prefix.
func (r *Reader) Fixed(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+n])
	r.pos += n
	return b, nil
}

// OptionalFixed decodes a presence byte followed, if set, by n fixed bytes.
// It returns (nil, nil) when the field is absent.
func (r *Reader) OptionalFixed(n int) ([]byte, error) {
	present, err := r.Bool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	return r.Fixed(n)
}

// Discard drops n bytes, used by callers that only need a length check.
func (r *Reader) Discard(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// ReadAll reads the full remaining buffer.
func (r *Reader) ReadAll() []byte {
	b := r.buf[r.pos:]
	r.pos = len(r.buf)
	return b
}
