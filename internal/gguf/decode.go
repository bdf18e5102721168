package gguf

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const maxStringLen = 64 << 20

var errNestedArray = errors.New("nested arrays are not supported")

// decoder walks the metadata section. The first failure sticks: later calls
// return zero values and Read checks err once per key.
type decoder struct {
	r    *bufio.Reader
	off  int64
	size int64
	err  error
}

func newDecoder(rd io.Reader, size int64) *decoder {
	return &decoder{r: bufio.NewReader(rd), size: size}
}

// reserve reports whether n more bytes fit in the file, recording
// io.ErrUnexpectedEOF when they do not.
func (d *decoder) reserve(n int64) bool {
	if d.err != nil {
		return false
	}
	if d.size > 0 && d.off+n > d.size {
		d.err = io.ErrUnexpectedEOF
		return false
	}
	d.off += n
	return true
}

// scalar decodes one little-endian fixed-size value.
func scalar[T uint8 | int8 | uint16 | int16 | uint32 | int32 | uint64 | int64 | float32 | float64 | bool](d *decoder) T {
	var v T
	if !d.reserve(int64(binary.Size(v))) {
		return v
	}
	if err := binary.Read(d.r, binary.LittleEndian, &v); err != nil {
		d.err = err
	}
	return v
}

func (d *decoder) stringLen() int64 {
	n := scalar[uint64](d)
	if d.err == nil && (n > maxStringLen || (d.size > 0 && n > uint64(d.size))) {
		d.err = fmt.Errorf("string length too large: %d", n)
	}
	return int64(n)
}

func (d *decoder) str() string {
	n := d.stringLen()
	if n == 0 || !d.reserve(n) {
		return ""
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		d.err = err
		return ""
	}
	return string(buf)
}

// discard skips n bytes that were already reserved.
func (d *decoder) discard(n int64) {
	if d.err != nil {
		return
	}
	if _, err := d.r.Discard(int(n)); err != nil {
		d.err = err
	}
}

func (d *decoder) value(t ValueType) any {
	switch t {
	case TypeUint8:
		return scalar[uint8](d)
	case TypeInt8:
		return scalar[int8](d)
	case TypeUint16:
		return scalar[uint16](d)
	case TypeInt16:
		return scalar[int16](d)
	case TypeUint32:
		return scalar[uint32](d)
	case TypeInt32:
		return scalar[int32](d)
	case TypeUint64:
		return scalar[uint64](d)
	case TypeInt64:
		return scalar[int64](d)
	case TypeFloat32:
		return scalar[float32](d)
	case TypeFloat64:
		return scalar[float64](d)
	case TypeBool:
		return scalar[bool](d)
	case TypeString:
		return d.str()
	case TypeArray:
		return d.array()
	}
	if d.err == nil {
		d.err = fmt.Errorf("unsupported value type %d", uint32(t))
	}
	return nil
}

// skip passes over one element without keeping it.
func (d *decoder) skip(t ValueType) {
	switch t {
	case TypeString:
		if n := d.stringLen(); d.reserve(n) {
			d.discard(n)
		}
	case TypeArray:
		d.err = errNestedArray
	default:
		d.value(t)
	}
}

// array keeps the first maxArrayValues elements and counts the rest.
func (d *decoder) array() ArrayValue {
	arr := ArrayValue{ElemType: ValueType(scalar[uint32](d))}
	if arr.ElemType == TypeArray && d.err == nil {
		d.err = errNestedArray
	}
	arr.Len = scalar[uint64](d)
	for i := uint64(0); i < arr.Len && d.err == nil; i++ {
		if i >= maxArrayValues {
			d.skip(arr.ElemType)
			continue
		}
		v := d.value(arr.ElemType)
		if d.err == nil {
			arr.Values = append(arr.Values, v)
		}
	}
	return arr
}
