package value

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"go.dedis.ch/capvm/core/uref"
	"golang.org/x/xerrors"
)

// MaxDepth is the maximum nesting of composite values accepted by the codec.
const MaxDepth = 64

// ErrDeserialization is returned when the input cannot be decoded to a value of
// the expected kind.
var ErrDeserialization = xerrors.New("deserialization error")

// Encode returns the canonical binary form of the value.
func Encode(v Value) ([]byte, error) {
	enc := encoder{}

	err := enc.value(v, 0)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode: %v", err)
	}

	return enc.buf, nil
}

// Decode decodes the data and returns the value if it is of the expected kind.
// KindAny accepts any kind. The whole input must be consumed.
func Decode(data []byte, expected Kind) (Value, error) {
	dec := decoder{data: data}

	v, err := dec.value(0)
	if err != nil {
		return nil, xerrors.Errorf("%v: %w", err, ErrDeserialization)
	}

	if dec.pos != len(data) {
		return nil, xerrors.Errorf("%d trailing bytes: %w",
			len(data)-dec.pos, ErrDeserialization)
	}

	if expected != KindAny && v.Kind() != expected {
		return nil, xerrors.Errorf("expected %v but got %v: %w",
			expected, v.Kind(), ErrDeserialization)
	}

	return v, nil
}

type encoder struct {
	buf []byte
}

func (e *encoder) tag(k Kind) {
	e.buf = append(e.buf, byte(k))
}

func (e *encoder) u32(n int) error {
	if n > math.MaxUint32 {
		return xerrors.Errorf("length %d overflows", n)
	}

	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(n))

	return nil
}

func (e *encoder) blob(b []byte) error {
	err := e.u32(len(b))
	if err != nil {
		return err
	}

	e.buf = append(e.buf, b...)

	return nil
}

func (e *encoder) seq(values []Value, depth int) error {
	err := e.u32(len(values))
	if err != nil {
		return err
	}

	for _, item := range values {
		err = e.value(item, depth+1)
		if err != nil {
			return err
		}
	}

	return nil
}

func (e *encoder) value(v Value, depth int) error {
	if depth > MaxDepth {
		return xerrors.Errorf("nesting deeper than %d", MaxDepth)
	}

	if v == nil {
		return xerrors.New("nil value")
	}

	switch x := v.(type) {
	case Unit:
		e.tag(KindUnit)
	case Bool:
		e.tag(KindBool)
		if x {
			e.buf = append(e.buf, 1)
		} else {
			e.buf = append(e.buf, 0)
		}
	case Int:
		e.tag(KindInt)
		e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(x))
	case String:
		if !utf8.ValidString(string(x)) {
			return xerrors.New("invalid UTF-8 string")
		}

		e.tag(KindString)
		return e.blob([]byte(x))
	case Bytes:
		e.tag(KindBytes)
		return e.blob(x)
	case List:
		e.tag(KindList)
		return e.seq(x, depth)
	case Tuple:
		e.tag(KindTuple)
		return e.seq(x, depth)
	case Option:
		e.tag(KindOption)

		inner, ok := x.Get()
		if !ok {
			e.buf = append(e.buf, 0)
			return nil
		}

		e.buf = append(e.buf, 1)
		return e.value(inner, depth+1)
	case Map:
		e.tag(KindMap)

		err := e.u32(len(x.entries))
		if err != nil {
			return err
		}

		for _, entry := range x.entries {
			err = e.value(entry.Key, depth+1)
			if err != nil {
				return err
			}

			err = e.value(entry.Value, depth+1)
			if err != nil {
				return err
			}
		}
	case Key:
		data, err := x.Key.MarshalBinary()
		if err != nil {
			return err
		}

		e.tag(KindKey)
		e.buf = append(e.buf, data...)
	default:
		return xerrors.Errorf("unsupported value type %T", v)
	}

	return nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || len(d.data)-d.pos < n {
		return nil, xerrors.Errorf("truncated input: need %d bytes at offset %d", n, d.pos)
	}

	b := d.data[d.pos : d.pos+n]
	d.pos += n

	return b, nil
}

func (d *decoder) readByte() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (d *decoder) u32() (int, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}

	n := binary.LittleEndian.Uint32(b)

	// Every element takes at least one byte, which bounds the allocation.
	if int64(n) > int64(len(d.data)-d.pos) {
		return 0, xerrors.Errorf("truncated input: length %d at offset %d", n, d.pos)
	}

	return int(n), nil
}

func (d *decoder) blob() ([]byte, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}

	b, err := d.take(n)
	if err != nil {
		return nil, err
	}

	return append([]byte{}, b...), nil
}

func (d *decoder) seq(depth int) ([]Value, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}

	values := make([]Value, n)
	for i := range values {
		values[i], err = d.value(depth + 1)
		if err != nil {
			return nil, err
		}
	}

	return values, nil
}

func (d *decoder) value(depth int) (Value, error) {
	if depth > MaxDepth {
		return nil, xerrors.Errorf("nesting deeper than %d", MaxDepth)
	}

	tag, err := d.readByte()
	if err != nil {
		return nil, err
	}

	switch Kind(tag) {
	case KindUnit:
		return Unit{}, nil
	case KindBool:
		b, err := d.readByte()
		if err != nil {
			return nil, err
		}

		switch b {
		case 0:
			return Bool(false), nil
		case 1:
			return Bool(true), nil
		default:
			return nil, xerrors.Errorf("invalid boolean byte %#x", b)
		}
	case KindInt:
		b, err := d.take(8)
		if err != nil {
			return nil, err
		}

		return Int(int64(binary.LittleEndian.Uint64(b))), nil
	case KindString:
		b, err := d.blob()
		if err != nil {
			return nil, err
		}

		if !utf8.Valid(b) {
			return nil, xerrors.New("invalid UTF-8 string")
		}

		return String(b), nil
	case KindBytes:
		b, err := d.blob()
		if err != nil {
			return nil, err
		}

		return Bytes(b), nil
	case KindList:
		values, err := d.seq(depth)
		if err != nil {
			return nil, err
		}

		return List(values), nil
	case KindTuple:
		values, err := d.seq(depth)
		if err != nil {
			return nil, err
		}

		return Tuple(values), nil
	case KindOption:
		flag, err := d.readByte()
		if err != nil {
			return nil, err
		}

		switch flag {
		case 0:
			return None(), nil
		case 1:
			inner, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}

			return Some(inner), nil
		default:
			return nil, xerrors.Errorf("invalid option flag %#x", flag)
		}
	case KindMap:
		return d.mapping(depth)
	case KindKey:
		k, n, err := uref.UnmarshalKey(d.data[d.pos:])
		if err != nil {
			return nil, err
		}

		d.pos += n

		return NewKey(k), nil
	default:
		return nil, xerrors.Errorf("unknown tag %#x", tag)
	}
}

func (d *decoder) mapping(depth int) (Value, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, n)

	var prev []byte

	for i := range entries {
		start := d.pos

		key, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}

		raw := d.data[start:d.pos]

		// Keys must be strictly increasing so that a map has a single
		// encoding.
		if prev != nil && string(raw) <= string(prev) {
			return nil, xerrors.New("map keys not in canonical order")
		}

		prev = raw

		val, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}

		entries[i] = Entry{Key: key, Value: val}
	}

	return Map{entries: entries}, nil
}
