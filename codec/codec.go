/*
Package codec reads and writes the protobuf wire format used by all
persisted models, messages and transactions.

Each type implements Marshal/Unmarshal by hand with a Writer and Decode,
listing its field numbers next to the type. Unknown fields are skipped
when decoding, so schemas can grow new fields.
*/
package codec

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-escrow/errors"
)

// Wire types used by this package.
const (
	WireVarint  = 0
	WireFixed64 = 1
	WireBytes   = 2
	WireFixed32 = 5
)

// Marshaller is implemented by every type that can be nested as a
// message field.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Writer appends encoded fields to an internal buffer. Zero values are
// omitted, as proto3 does.
type Writer struct {
	buf *proto.Buffer
	err error
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{buf: proto.NewBuffer(nil)}
}

func (w *Writer) key(field int, wire int) {
	w.check(w.buf.EncodeVarint(uint64(field)<<3 | uint64(wire)))
}

func (w *Writer) check(err error) {
	if w.err == nil && err != nil {
		w.err = errors.Wrap(err, "encode")
	}
}

// Bytes writes a length delimited field.
func (w *Writer) Bytes(field int, b []byte) {
	if len(b) == 0 {
		return
	}
	w.key(field, WireBytes)
	w.check(w.buf.EncodeRawBytes(b))
}

// RepeatedBytes writes every element of a repeated bytes field. Empty
// elements are kept so that positions stay stable.
func (w *Writer) RepeatedBytes(field int, list [][]byte) {
	for _, b := range list {
		w.key(field, WireBytes)
		w.check(w.buf.EncodeRawBytes(b))
	}
}

// String writes a string field.
func (w *Writer) String(field int, s string) {
	if s == "" {
		return
	}
	w.key(field, WireBytes)
	w.check(w.buf.EncodeStringBytes(s))
}

// Uint64 writes a varint field.
func (w *Writer) Uint64(field int, v uint64) {
	if v == 0 {
		return
	}
	w.key(field, WireVarint)
	w.check(w.buf.EncodeVarint(v))
}

// Bool writes a boolean field.
func (w *Writer) Bool(field int, v bool) {
	if v {
		w.Uint64(field, 1)
	}
}

// Message writes a nested message. Nil messages are omitted.
func (w *Writer) Message(field int, m Marshaller) {
	if m == nil {
		return
	}
	raw, err := m.Marshal()
	if err != nil {
		w.check(err)
		return
	}
	// An empty nested message is still written, so that its presence is
	// kept.
	w.key(field, WireBytes)
	w.check(w.buf.EncodeRawBytes(raw))
}

// Result returns the encoded bytes or the first error that happened.
func (w *Writer) Result() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if b := w.buf.Bytes(); len(b) > 0 {
		return b, nil
	}
	// Stores treat nil as a missing value.
	return []byte{}, nil
}

// Field is a single decoded field.
type Field struct {
	Num  int
	Wire int

	raw    []byte
	varint uint64
}

// Bytes returns a copy of the length delimited value.
func (f Field) Bytes() ([]byte, error) {
	if f.Wire != WireBytes {
		return nil, f.wireErr()
	}
	return append([]byte(nil), f.raw...), nil
}

// String returns the length delimited value as a string.
func (f Field) String() (string, error) {
	if f.Wire != WireBytes {
		return "", f.wireErr()
	}
	return string(f.raw), nil
}

// Uint64 returns the varint value.
func (f Field) Uint64() (uint64, error) {
	if f.Wire != WireVarint {
		return 0, f.wireErr()
	}
	return f.varint, nil
}

// Uint32 returns the varint value, failing if it does not fit.
func (f Field) Uint32() (uint32, error) {
	v, err := f.Uint64()
	if err != nil {
		return 0, err
	}
	if v > 1<<32-1 {
		return 0, errors.Wrapf(errors.ErrOverflow, "field %d", f.Num)
	}
	return uint32(v), nil
}

// Bool returns the varint value as a boolean.
func (f Field) Bool() (bool, error) {
	v, err := f.Uint64()
	return v != 0, err
}

// Message decodes a nested message into dst.
func (f Field) Message(dst interface{ Unmarshal([]byte) error }) error {
	if f.Wire != WireBytes {
		return f.wireErr()
	}
	return dst.Unmarshal(f.raw)
}

func (f Field) wireErr() error {
	return errors.Wrapf(errors.ErrInput, "field %d: unexpected wire type %d", f.Num, f.Wire)
}

// Decode walks all fields of the encoded message and calls fn for each of
// them. Fields of wire types other than varint or length delimited are
// skipped without calling fn.
func Decode(data []byte, fn func(Field) error) error {
	for len(data) > 0 {
		key, n := proto.DecodeVarint(data)
		if n == 0 {
			return errors.Wrap(errors.ErrInput, "malformed field key")
		}
		data = data[n:]

		f := Field{Num: int(key >> 3), Wire: int(key & 7)}
		if f.Num <= 0 {
			return errors.Wrapf(errors.ErrInput, "invalid field number %d", f.Num)
		}

		switch f.Wire {
		case WireVarint:
			v, n := proto.DecodeVarint(data)
			if n == 0 {
				return errors.Wrapf(errors.ErrInput, "field %d: malformed varint", f.Num)
			}
			f.varint = v
			data = data[n:]
		case WireBytes:
			size, n := proto.DecodeVarint(data)
			if n == 0 || uint64(len(data)-n) < size {
				return errors.Wrapf(errors.ErrInput, "field %d: truncated", f.Num)
			}
			f.raw = data[n : n+int(size)]
			data = data[n+int(size):]
		case WireFixed64:
			if len(data) < 8 {
				return errors.Wrapf(errors.ErrInput, "field %d: truncated", f.Num)
			}
			data = data[8:]
			continue
		case WireFixed32:
			if len(data) < 4 {
				return errors.Wrapf(errors.ErrInput, "field %d: truncated", f.Num)
			}
			data = data[4:]
			continue
		default:
			return errors.Wrapf(errors.ErrInput, "field %d: unsupported wire type %d", f.Num, f.Wire)
		}

		if err := fn(f); err != nil {
			return errors.Wrapf(err, "field %d", f.Num)
		}
	}
	return nil
}
