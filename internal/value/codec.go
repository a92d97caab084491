package value

import (
	"encoding/binary"
	"math"

	"github.com/wago-dev/wdx/internal/status"
)

// EncodeBinary renders v in a compact binary format, an alternative to
// JSON. Layout:
// one type byte, one rank byte, then either a scalar payload or a 4-byte
// big-endian element count followed by that many scalar payloads.
func EncodeBinary(v *Value) ([]byte, error) {
	buf := []byte{byte(v.typ), byte(v.rank)}
	if v.rank == Array {
		count := make([]byte, 4)
		binary.BigEndian.PutUint32(count, uint32(len(v.items)))
		buf = append(buf, count...)
		for i := range v.items {
			enc, err := encodeScalar(&v.items[i])
			if err != nil {
				return nil, err
			}
			buf = append(buf, enc...)
		}
		return buf, nil
	}
	enc, err := encodeScalar(v)
	if err != nil {
		return nil, err
	}
	return append(buf, enc...), nil
}

func encodeScalar(v *Value) ([]byte, error) {
	switch v.typ {
	case String, FileID, IPv4Address, InstanceIdentityRef:
		return encodeBytesField([]byte(v.str)), nil
	case Boolean:
		if v.b {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case Float32:
		out := make([]byte, 4)
		binary.BigEndian.PutUint32(out, math.Float32bits(float32(v.f)))
		return out, nil
	case Float64:
		out := make([]byte, 8)
		binary.BigEndian.PutUint64(out, math.Float64bits(v.f))
		return out, nil
	case Uint8:
		return []byte{byte(v.u)}, nil
	case Int8:
		return []byte{byte(v.i)}, nil
	case Uint16, EnumMember, InstanceRef:
		out := make([]byte, 2)
		binary.BigEndian.PutUint16(out, uint16(v.u))
		return out, nil
	case Int16:
		out := make([]byte, 2)
		binary.BigEndian.PutUint16(out, uint16(v.i))
		return out, nil
	case Uint32:
		out := make([]byte, 4)
		binary.BigEndian.PutUint32(out, uint32(v.u))
		return out, nil
	case Int32:
		out := make([]byte, 4)
		binary.BigEndian.PutUint32(out, uint32(v.i))
		return out, nil
	case Uint64:
		out := make([]byte, 8)
		binary.BigEndian.PutUint64(out, v.u)
		return out, nil
	case Int64:
		out := make([]byte, 8)
		binary.BigEndian.PutUint64(out, uint64(v.i))
		return out, nil
	case Bytes:
		return encodeBytesField(v.by), nil
	case Instantiations:
		out := make([]byte, 4)
		binary.BigEndian.PutUint32(out, uint32(len(v.insts)))
		for _, inst := range v.insts {
			id := make([]byte, 2)
			binary.BigEndian.PutUint16(id, inst.ID)
			out = append(out, id...)
			count := make([]byte, 4)
			binary.BigEndian.PutUint32(count, uint32(len(inst.Classes)))
			out = append(out, count...)
			for _, cls := range inst.Classes {
				out = append(out, encodeBytesField([]byte(cls))...)
			}
		}
		return out, nil
	case Method, Unknown:
		return nil, nil
	}
	return nil, status.Newf(status.InternalError, "no binary encoding for value type %s", v.typ)
}

func encodeBytesField(b []byte) []byte {
	out := make([]byte, 4+len(b))
	binary.BigEndian.PutUint32(out, uint32(len(b)))
	copy(out[4:], b)
	return out
}

// DecodeBinary parses a value previously produced by EncodeBinary, returning
// the value and the number of bytes consumed from data.
func DecodeBinary(data []byte) (*Value, int, error) {
	if len(data) < 2 {
		return nil, 0, status.New(status.WrongValueRepresentation, "truncated binary value header")
	}
	typ := Type(data[0])
	rank := Rank(data[1])
	offset := 2

	if rank == Array {
		if len(data) < offset+4 {
			return nil, 0, status.New(status.WrongValueRepresentation, "truncated binary array count")
		}
		count := int(binary.BigEndian.Uint32(data[offset:]))
		offset += 4
		items := make([]Value, count)
		for i := 0; i < count; i++ {
			item, n, err := decodeScalar(typ, data[offset:])
			if err != nil {
				return nil, 0, err
			}
			items[i] = *item
			offset += n
		}
		return &Value{typ: typ, rank: Array, items: items}, offset, nil
	}

	scalar, n, err := decodeScalar(typ, data[offset:])
	if err != nil {
		return nil, 0, err
	}
	return scalar, offset + n, nil
}

func decodeBytesField(data []byte) ([]byte, int, error) {
	if len(data) < 4 {
		return nil, 0, status.New(status.WrongValueRepresentation, "truncated binary length prefix")
	}
	n := int(binary.BigEndian.Uint32(data))
	if len(data) < 4+n {
		return nil, 0, status.New(status.WrongValueRepresentation, "truncated binary payload")
	}
	return data[4 : 4+n], 4 + n, nil
}

func decodeScalar(typ Type, data []byte) (*Value, int, error) {
	need := func(n int) error {
		if len(data) < n {
			return status.New(status.WrongValueRepresentation, "truncated binary scalar payload")
		}
		return nil
	}
	switch typ {
	case String, FileID, IPv4Address, InstanceIdentityRef:
		b, n, err := decodeBytesField(data)
		if err != nil {
			return nil, 0, err
		}
		v := &Value{typ: typ, rank: Scalar, str: string(b)}
		return v, n, nil
	case Boolean:
		if err := need(1); err != nil {
			return nil, 0, err
		}
		return NewBoolean(data[0] != 0), 1, nil
	case Float32:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		return NewFloat32(math.Float32frombits(binary.BigEndian.Uint32(data))), 4, nil
	case Float64:
		if err := need(8); err != nil {
			return nil, 0, err
		}
		return NewFloat64(math.Float64frombits(binary.BigEndian.Uint64(data))), 8, nil
	case Uint8:
		if err := need(1); err != nil {
			return nil, 0, err
		}
		return NewUint8(data[0]), 1, nil
	case Int8:
		if err := need(1); err != nil {
			return nil, 0, err
		}
		return NewInt8(int8(data[0])), 1, nil
	case Uint16:
		if err := need(2); err != nil {
			return nil, 0, err
		}
		return NewUint16(binary.BigEndian.Uint16(data)), 2, nil
	case Int16:
		if err := need(2); err != nil {
			return nil, 0, err
		}
		return NewInt16(int16(binary.BigEndian.Uint16(data))), 2, nil
	case EnumMember:
		if err := need(2); err != nil {
			return nil, 0, err
		}
		return NewEnumValue(binary.BigEndian.Uint16(data)), 2, nil
	case InstanceRef:
		if err := need(2); err != nil {
			return nil, 0, err
		}
		return NewInstanceRef(binary.BigEndian.Uint16(data)), 2, nil
	case Uint32:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		return NewUint32(binary.BigEndian.Uint32(data)), 4, nil
	case Int32:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		return NewInt32(int32(binary.BigEndian.Uint32(data))), 4, nil
	case Uint64:
		if err := need(8); err != nil {
			return nil, 0, err
		}
		return NewUint64(binary.BigEndian.Uint64(data)), 8, nil
	case Int64:
		if err := need(8); err != nil {
			return nil, 0, err
		}
		return NewInt64(int64(binary.BigEndian.Uint64(data))), 8, nil
	case Bytes:
		b, n, err := decodeBytesField(data)
		if err != nil {
			return nil, 0, err
		}
		return NewBytes(append([]byte(nil), b...)), n, nil
	case Instantiations:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		count := int(binary.BigEndian.Uint32(data))
		offset := 4
		insts := make([]Instantiation, count)
		for i := 0; i < count; i++ {
			if err := need(offset + 2); err != nil {
				return nil, 0, err
			}
			id := binary.BigEndian.Uint16(data[offset:])
			offset += 2
			if err := need(offset + 4); err != nil {
				return nil, 0, err
			}
			classCount := int(binary.BigEndian.Uint32(data[offset:]))
			offset += 4
			classes := make([]string, classCount)
			for j := 0; j < classCount; j++ {
				b, n, err := decodeBytesField(data[offset:])
				if err != nil {
					return nil, 0, err
				}
				classes[j] = string(b)
				offset += n
			}
			insts[i] = Instantiation{ID: id, Classes: classes}
		}
		return NewInstantiations(insts), offset, nil
	case Method:
		return &Value{typ: Method, rank: Scalar}, 0, nil
	case Unknown:
		return &Value{typ: Unknown, rank: Scalar}, 0, nil
	}
	return nil, 0, status.Newf(status.WrongValueRepresentation, "no binary decoding for value type %s", typ)
}
