package value

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/wago-dev/wdx/internal/status"
)

// maxBytesDecoded caps the decoded length of a Bytes value; JSON carries it
// base64-encoded, so the wire payload may be up to ~4/3 this size.
const maxBytesDecoded = 2 * 1024 * 1024

// instanceIdentityRefPattern is the qualification-time shape check for an
// instance_identity_ref string: one or more "<name>/" path segments
// followed by a bare instance number.
var instanceIdentityRefPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*/)+([0-9]+)$`)

// CreateWithUnknownType wraps a raw JSON payload whose type is not yet
// known, typically because it arrived over IPC with no accompanying
// parameter definition. Call SetTypeInternal exactly once, after looking up
// the definition, to qualify it.
func CreateWithUnknownType(payload json.RawMessage) *Value {
	raw := make(json.RawMessage, len(payload))
	copy(raw, payload)
	return &Value{typ: Unknown, raw: raw}
}

// SetTypeInternal qualifies a Value previously created by
// CreateWithUnknownType, parsing its stored JSON payload against typ/rank.
// It is for use by the model and registry layers only, after a
// CreateWithUnknownType value has been matched to its parameter
// definition; calling it on an already-qualified Value is a logic error.
func (v *Value) SetTypeInternal(typ Type, rank Rank) error {
	if v.typ != Unknown {
		return status.New(status.LogicError, "value already has a type")
	}
	qualified, err := CreateWithJSON(typ, rank, v.raw)
	if err != nil {
		return err
	}
	*v = *qualified
	return nil
}

// CreateWithJSON parses payload as a value of the given type and rank.
func CreateWithJSON(typ Type, rank Rank, payload json.RawMessage) (*Value, error) {
	if rank == Array {
		var items []json.RawMessage
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil, status.Newf(status.WrongValueRepresentation, "not a JSON array: %v", err)
		}
		out := make([]Value, len(items))
		for i, item := range items {
			scalar, err := createScalarWithJSON(typ, item)
			if err != nil {
				return nil, err
			}
			out[i] = *scalar
		}
		return &Value{typ: typ, rank: Array, items: out}, nil
	}
	return createScalarWithJSON(typ, payload)
}

func createScalarWithJSON(typ Type, payload json.RawMessage) (*Value, error) {
	switch typ {
	case String:
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, wrongRepr(err)
		}
		return NewString(s), nil
	case Boolean:
		var b bool
		if err := json.Unmarshal(payload, &b); err != nil {
			return nil, wrongRepr(err)
		}
		return NewBoolean(b), nil
	case Float32:
		var f float64
		if err := json.Unmarshal(payload, &f); err != nil {
			return nil, wrongRepr(err)
		}
		return NewFloat32(float32(f)), nil
	case Float64:
		var f float64
		if err := json.Unmarshal(payload, &f); err != nil {
			return nil, wrongRepr(err)
		}
		return NewFloat64(f), nil
	case Uint8:
		u, err := parseUint(payload, 8)
		if err != nil {
			return nil, err
		}
		return NewUint8(uint8(u)), nil
	case Uint16:
		u, err := parseUint(payload, 16)
		if err != nil {
			return nil, err
		}
		return NewUint16(uint16(u)), nil
	case Uint32:
		u, err := parseUint(payload, 32)
		if err != nil {
			return nil, err
		}
		return NewUint32(uint32(u)), nil
	case Uint64:
		u, err := parseUint(payload, 64)
		if err != nil {
			return nil, err
		}
		return NewUint64(u), nil
	case Int8:
		i, err := parseInt(payload, 8)
		if err != nil {
			return nil, err
		}
		return NewInt8(int8(i)), nil
	case Int16:
		i, err := parseInt(payload, 16)
		if err != nil {
			return nil, err
		}
		return NewInt16(int16(i)), nil
	case Int32:
		i, err := parseInt(payload, 32)
		if err != nil {
			return nil, err
		}
		return NewInt32(int32(i)), nil
	case Int64:
		i, err := parseInt(payload, 64)
		if err != nil {
			return nil, err
		}
		return NewInt64(i), nil
	case Bytes:
		var b []byte
		if err := json.Unmarshal(payload, &b); err != nil {
			return nil, wrongRepr(err)
		}
		if len(b) > maxBytesDecoded {
			return nil, status.Newf(status.InvalidValue, "bytes value exceeds %d bytes", maxBytesDecoded)
		}
		return NewBytes(b), nil
	case IPv4Address:
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, wrongRepr(err)
		}
		return NewIPv4Address(s), nil
	case FileID:
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, wrongRepr(err)
		}
		return NewFileID(s), nil
	case Instantiations:
		var insts []Instantiation
		if err := json.Unmarshal(payload, &insts); err != nil {
			return nil, wrongRepr(err)
		}
		return NewInstantiations(insts), nil
	case InstanceRef:
		if string(payload) == "null" {
			return NewUnsetInstanceRef(), nil
		}
		u, err := parseUint(payload, 16)
		if err != nil {
			return nil, err
		}
		if uint16(u) > InstanceIDMax {
			return nil, status.New(status.InvalidValue, "instance id out of range")
		}
		return NewInstanceRef(uint16(u)), nil
	case InstanceIdentityRef:
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, wrongRepr(err)
		}
		if s == "" {
			return NewUnsetInstanceIdentityRef(), nil
		}
		m := instanceIdentityRefPattern.FindStringSubmatch(s)
		if m == nil {
			return nil, status.New(status.InvalidValue, "malformed instance identity reference")
		}
		n, err := strconv.ParseUint(m[2], 10, 16)
		if err != nil || uint16(n) > InstanceIDMax {
			return nil, status.New(status.InvalidValue, "instance number out of range")
		}
		return NewInstanceIdentityRef(s), nil
	case EnumMember:
		u, err := parseUint(payload, 16)
		if err != nil {
			return nil, err
		}
		return NewEnumValue(uint16(u)), nil
	case Method:
		return &Value{typ: Method, rank: Scalar}, nil
	default:
		return nil, status.Newf(status.WrongValueType, "cannot qualify value as %s", typ)
	}
}

func wrongRepr(err error) error {
	return status.Newf(status.WrongValueRepresentation, "%v", err)
}

func parseUint(payload json.RawMessage, bits int) (uint64, error) {
	var n json.Number
	if err := json.Unmarshal(payload, &n); err != nil {
		return 0, wrongRepr(err)
	}
	u, err := strconv.ParseUint(string(n), 10, bits)
	if err != nil {
		return 0, status.Newf(status.InvalidValue, "integer out of range for %d-bit unsigned: %v", bits, err)
	}
	return u, nil
}

func parseInt(payload json.RawMessage, bits int) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(payload, &n); err != nil {
		return 0, wrongRepr(err)
	}
	i, err := strconv.ParseInt(string(n), 10, bits)
	if err != nil {
		return 0, status.Newf(status.InvalidValue, "integer out of range for %d-bit signed: %v", bits, err)
	}
	return i, nil
}

// GetJSON returns the JSON representation of the value.
func (v *Value) GetJSON() (json.RawMessage, error) {
	if v.rank == Array {
		parts := make([]json.RawMessage, len(v.items))
		for i := range v.items {
			item := v.items[i]
			j, err := item.GetJSON()
			if err != nil {
				return nil, err
			}
			parts[i] = j
		}
		return json.Marshal(parts)
	}
	switch v.typ {
	case String, FileID, IPv4Address, InstanceIdentityRef:
		return json.Marshal(v.str)
	case Boolean:
		return json.Marshal(v.b)
	case Float32, Float64:
		return json.Marshal(v.f)
	case Uint8, Uint16, Uint32, Uint64:
		return json.Marshal(v.u)
	case InstanceRef:
		if uint16(v.u) == InstanceIDDynamicPlaceholder {
			return json.Marshal(nil)
		}
		return json.Marshal(v.u)
	case EnumMember:
		return json.Marshal(v.u)
	case Int8, Int16, Int32, Int64:
		return json.Marshal(v.i)
	case Bytes:
		return json.Marshal(v.by)
	case Instantiations:
		return json.Marshal(v.insts)
	case Method, Unknown:
		return json.Marshal(nil)
	}
	return nil, status.Newf(status.InternalError, "unhandled value type %s", v.typ)
}

// String returns a short human-readable description of the value, for logs
// and error messages, not for wire transport.
func (v *Value) String() string {
	j, err := v.GetJSON()
	if err != nil {
		return v.typ.String() + "(?)"
	}
	return string(j)
}
