// Package value implements the closed parameter-value type system: scalar
// and array values over a fixed set of wire types, one-shot type
// qualification for values that arrive over IPC without a known type, and
// the check_parameter_value validator used by the model and registry
// layers to accept or reject a value against a parameter definition.
package value

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/wago-dev/wdx/internal/status"
)

// Type is the closed enumeration of value kinds. Numbering follows the
// reference device model and must not be reordered.
type Type uint8

const (
	Unknown Type = iota
	String
	Boolean
	Uint8
	Uint16
	Uint32
	Uint64
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
	Bytes
	Instantiations
	IPv4Address
	FileID
	InstanceRef
	InstanceIdentityRef
	EnumMember
	Method
)

var typeNames = [...]string{
	"unknown", "string", "boolean", "uint8", "uint16", "uint32", "uint64",
	"int8", "int16", "int32", "int64", "float32", "float64", "bytes",
	"instantiations", "ipv4address", "file_id", "instance_ref",
	"instance_identity_ref", "enum_member", "method",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("unknown_value_type(%d)", uint8(t))
}

// ParseType resolves one of typeNames back into a Type, for YAML/JSON
// device-model fragments that name types by their wire string rather than
// their numeric tag.
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if name == s {
			return Type(i), nil
		}
	}
	return Unknown, fmt.Errorf("value: unknown type name %q", s)
}

// ParseRank resolves "scalar"/"array" into a Rank.
func ParseRank(s string) (Rank, error) {
	switch s {
	case "", "scalar":
		return Scalar, nil
	case "array":
		return Array, nil
	default:
		return Scalar, fmt.Errorf("value: unknown rank %q", s)
	}
}

// Rank distinguishes a single value from a homogeneous array of values.
type Rank uint8

const (
	Scalar Rank = iota
	Array
)

func (r Rank) String() string {
	if r == Array {
		return "array"
	}
	return "scalar"
}

// Instance id bounds. DYNAMIC_PLACEHOLDER_INSTANCE_ID marks an unset
// instance_ref; no real instance may ever hold it.
const (
	InstanceIDDynamicPlaceholder uint16 = math.MaxUint16
	InstanceIDMax                uint16 = math.MaxUint16 - 1
)

// Instantiation describes one entry of a dynamic class's instantiation
// list: an instance id plus the names of the classes it supports.
type Instantiation struct {
	ID      uint16   `json:"instance_id"`
	Classes []string `json:"classes"`
}

// Value holds a single typed parameter value, either a scalar of one of the
// closed Type kinds or a homogeneous array of such scalars. The zero Value
// is of Type Unknown and carries no payload; use one of the New* functions,
// CreateWithJSON, or CreateWithUnknownType to obtain a usable Value.
type Value struct {
	typ  Type
	rank Rank

	str   string          // string, file_id, ipv4address, instance_identity_ref
	b     bool            // boolean
	f     float64         // float32, float64
	u     uint64          // unsigned integers, instance_ref, enum_member
	i     int64           // signed integers
	by    []byte          // bytes
	insts []Instantiation // instantiations
	items []Value         // rank == Array

	raw json.RawMessage // unparsed payload, valid only while typ == Unknown
}

// Type returns the value's type.
func (v *Value) Type() Type { return v.typ }

// Rank returns the value's rank.
func (v *Value) Rank() Rank { return v.rank }

// IsArray reports whether the value's rank is Array.
func (v *Value) IsArray() bool { return v.rank == Array }

func typeMismatch(want Type, got *Value) *status.Error {
	return status.Newf(status.WrongValueType, "expected %s, got %s", want, got.typ)
}

// GetString returns the string payload; fails unless Type is String,
// FileID, IPv4Address, or InstanceIdentityRef.
func (v *Value) GetString() (string, error) {
	switch v.typ {
	case String, FileID, IPv4Address, InstanceIdentityRef:
		return v.str, nil
	}
	return "", typeMismatch(String, v)
}

// GetBoolean returns the boolean payload.
func (v *Value) GetBoolean() (bool, error) {
	if v.typ != Boolean {
		return false, typeMismatch(Boolean, v)
	}
	return v.b, nil
}

// GetFloat32 returns the payload narrowed to float32.
func (v *Value) GetFloat32() (float32, error) {
	if v.typ != Float32 {
		return 0, typeMismatch(Float32, v)
	}
	return float32(v.f), nil
}

// GetFloat64 returns the float64 payload.
func (v *Value) GetFloat64() (float64, error) {
	if v.typ != Float64 {
		return 0, typeMismatch(Float64, v)
	}
	return v.f, nil
}

// GetUint8 returns the payload narrowed to uint8.
func (v *Value) GetUint8() (uint8, error) {
	if v.typ != Uint8 {
		return 0, typeMismatch(Uint8, v)
	}
	return uint8(v.u), nil
}

// GetUint16 returns the payload narrowed to uint16.
func (v *Value) GetUint16() (uint16, error) {
	if v.typ != Uint16 {
		return 0, typeMismatch(Uint16, v)
	}
	return uint16(v.u), nil
}

// GetUint32 returns the payload narrowed to uint32.
func (v *Value) GetUint32() (uint32, error) {
	if v.typ != Uint32 {
		return 0, typeMismatch(Uint32, v)
	}
	return uint32(v.u), nil
}

// GetUint64 returns the uint64 payload.
func (v *Value) GetUint64() (uint64, error) {
	if v.typ != Uint64 {
		return 0, typeMismatch(Uint64, v)
	}
	return v.u, nil
}

// GetInt8 returns the payload narrowed to int8.
func (v *Value) GetInt8() (int8, error) {
	if v.typ != Int8 {
		return 0, typeMismatch(Int8, v)
	}
	return int8(v.i), nil
}

// GetInt16 returns the payload narrowed to int16.
func (v *Value) GetInt16() (int16, error) {
	if v.typ != Int16 {
		return 0, typeMismatch(Int16, v)
	}
	return int16(v.i), nil
}

// GetInt32 returns the payload narrowed to int32.
func (v *Value) GetInt32() (int32, error) {
	if v.typ != Int32 {
		return 0, typeMismatch(Int32, v)
	}
	return int32(v.i), nil
}

// GetInt64 returns the int64 payload.
func (v *Value) GetInt64() (int64, error) {
	if v.typ != Int64 {
		return 0, typeMismatch(Int64, v)
	}
	return v.i, nil
}

// GetBytes returns the bytes payload.
func (v *Value) GetBytes() ([]byte, error) {
	if v.typ != Bytes {
		return nil, typeMismatch(Bytes, v)
	}
	return v.by, nil
}

// GetIPv4Address returns the dotted-quad string payload.
func (v *Value) GetIPv4Address() (string, error) {
	if v.typ != IPv4Address {
		return "", typeMismatch(IPv4Address, v)
	}
	return v.str, nil
}

// GetFileID returns the file identifier payload.
func (v *Value) GetFileID() (string, error) {
	if v.typ != FileID {
		return "", typeMismatch(FileID, v)
	}
	return v.str, nil
}

// GetInstanceRef returns the instance id payload.
func (v *Value) GetInstanceRef() (uint16, error) {
	if v.typ != InstanceRef {
		return 0, typeMismatch(InstanceRef, v)
	}
	return uint16(v.u), nil
}

// IsUnsetInstanceRef reports whether an InstanceRef value refers to no
// instance.
func (v *Value) IsUnsetInstanceRef() (bool, error) {
	if v.typ != InstanceRef {
		return false, typeMismatch(InstanceRef, v)
	}
	return uint16(v.u) == InstanceIDDynamicPlaceholder, nil
}

// GetInstanceIdentityRef returns the path payload, empty for an unset ref.
func (v *Value) GetInstanceIdentityRef() (string, error) {
	if v.typ != InstanceIdentityRef {
		return "", typeMismatch(InstanceIdentityRef, v)
	}
	return v.str, nil
}

// IsUnsetInstanceIdentityRef reports whether the ref refers to no instance.
func (v *Value) IsUnsetInstanceIdentityRef() (bool, error) {
	if v.typ != InstanceIdentityRef {
		return false, typeMismatch(InstanceIdentityRef, v)
	}
	return v.str == "", nil
}

// GetEnumValue returns the enum member id payload.
func (v *Value) GetEnumValue() (uint16, error) {
	if v.typ != EnumMember {
		return 0, typeMismatch(EnumMember, v)
	}
	return uint16(v.u), nil
}

// GetInstantiations returns the instantiation list payload.
func (v *Value) GetInstantiations() ([]Instantiation, error) {
	if v.typ != Instantiations {
		return nil, typeMismatch(Instantiations, v)
	}
	return v.insts, nil
}

// GetItems returns the element values of an array-rank value.
func (v *Value) GetItems() ([]Value, error) {
	if v.rank != Array {
		return nil, status.New(status.WrongValueType, "value is not an array")
	}
	return v.items, nil
}

// MintFileID mints a fresh, service-lifetime-unique file identifier using a
// random v4 UUID rather than a process-local counter, so ids stay unique
// across restarts too.
func MintFileID() string {
	return uuid.NewString()
}

// MintUploadID mints a fresh upload identifier, same rationale as
// MintFileID.
func MintUploadID() string {
	return uuid.NewString()
}

// Equal reports whether two values have the same type, rank, and payload.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.typ != other.typ || v.rank != other.rank {
		return false
	}
	if v.rank == Array {
		if len(v.items) != len(other.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(&other.items[i]) {
				return false
			}
		}
		return true
	}
	switch v.typ {
	case String, FileID, IPv4Address, InstanceIdentityRef:
		return v.str == other.str
	case Boolean:
		return v.b == other.b
	case Float32, Float64:
		return v.f == other.f
	case Uint8, Uint16, Uint32, Uint64, InstanceRef, EnumMember:
		return v.u == other.u
	case Int8, Int16, Int32, Int64:
		return v.i == other.i
	case Bytes:
		if len(v.by) != len(other.by) {
			return false
		}
		for i := range v.by {
			if v.by[i] != other.by[i] {
				return false
			}
		}
		return true
	case Instantiations:
		if len(v.insts) != len(other.insts) {
			return false
		}
		for i := range v.insts {
			if v.insts[i].ID != other.insts[i].ID || len(v.insts[i].Classes) != len(other.insts[i].Classes) {
				return false
			}
			for j := range v.insts[i].Classes {
				if v.insts[i].Classes[j] != other.insts[i].Classes[j] {
					return false
				}
			}
		}
		return true
	case Unknown, Method:
		return true
	}
	return false
}
