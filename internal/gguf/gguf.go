// Package gguf reads the header and key/value metadata of GGUF model files.
// Tensor data is never touched; llama.cpp owns that.
package gguf

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const magic = "GGUF"

// ErrNotGGUF is returned when the file does not start with the GGUF magic.
var ErrNotGGUF = errors.New("not a gguf file")

type ValueType uint32

const (
	TypeUint8   ValueType = 0
	TypeInt8    ValueType = 1
	TypeUint16  ValueType = 2
	TypeInt16   ValueType = 3
	TypeUint32  ValueType = 4
	TypeInt32   ValueType = 5
	TypeFloat32 ValueType = 6
	TypeBool    ValueType = 7
	TypeString  ValueType = 8
	TypeArray   ValueType = 9
	TypeUint64  ValueType = 10
	TypeInt64   ValueType = 11
	TypeFloat64 ValueType = 12
)

func (t ValueType) String() string {
	switch t {
	case TypeUint8:
		return "u8"
	case TypeInt8:
		return "i8"
	case TypeUint16:
		return "u16"
	case TypeInt16:
		return "i16"
	case TypeUint32:
		return "u32"
	case TypeInt32:
		return "i32"
	case TypeUint64:
		return "u64"
	case TypeInt64:
		return "i64"
	case TypeFloat32:
		return "f32"
	case TypeFloat64:
		return "f64"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	default:
		return fmt.Sprintf("type(%d)", uint32(t))
	}
}

// ArrayValue holds a typed GGUF array. Large arrays (token vocabularies)
// keep only their length; see maxArrayValues.
type ArrayValue struct {
	ElemType ValueType
	Len      uint64
	Values   []any
}

type Value struct {
	Type  ValueType
	Value any
}

type Header struct {
	Version     uint32
	TensorCount uint64
	KVCount     uint64
}

// Metadata is the parsed header and key/value section of a GGUF file.
type Metadata struct {
	Path   string
	Size   int64
	Header Header
	KV     map[string]Value
}

// maxArrayValues bounds how many array elements are retained. Vocabulary
// arrays run to hundreds of thousands of strings.
const maxArrayValues = 64

// ReadFile parses the metadata of the GGUF file at path.
func ReadFile(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	md, err := Read(f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	md.Path = path
	return md, nil
}

// Read parses GGUF metadata from r. size bounds string lengths; pass 0 when
// unknown.
func Read(rd io.Reader, size int64) (*Metadata, error) {
	d := newDecoder(rd, size)

	m := make([]byte, len(magic))
	if _, err := io.ReadFull(d.r, m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotGGUF, err)
	}
	if string(m) != magic {
		return nil, fmt.Errorf("%w: magic %q", ErrNotGGUF, string(m))
	}
	d.off = int64(len(magic))

	h := Header{
		Version:     scalar[uint32](d),
		TensorCount: scalar[uint64](d),
		KVCount:     scalar[uint64](d),
	}
	if d.err != nil {
		return nil, fmt.Errorf("read header: %w", d.err)
	}

	kv := make(map[string]Value, min(h.KVCount, 1024))
	for i := range h.KVCount {
		key := d.str()
		vt := ValueType(scalar[uint32](d))
		if d.err != nil {
			return nil, fmt.Errorf("read key %d: %w", i, d.err)
		}
		val := d.value(vt)
		if d.err != nil {
			return nil, fmt.Errorf("read value for %s: %w", key, d.err)
		}
		kv[key] = Value{Type: vt, Value: val}
	}

	return &Metadata{Size: size, Header: h, KV: kv}, nil
}
