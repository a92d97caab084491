package value

// NewString creates a scalar Value of Type String.
func NewString(s string) *Value { return &Value{typ: String, rank: Scalar, str: s} }

// NewBoolean creates a scalar Value of Type Boolean.
func NewBoolean(b bool) *Value { return &Value{typ: Boolean, rank: Scalar, b: b} }

// NewFloat32 creates a scalar Value of Type Float32.
func NewFloat32(f float32) *Value { return &Value{typ: Float32, rank: Scalar, f: float64(f)} }

// NewFloat64 creates a scalar Value of Type Float64.
func NewFloat64(f float64) *Value { return &Value{typ: Float64, rank: Scalar, f: f} }

// NewUint8 creates a scalar Value of Type Uint8.
func NewUint8(u uint8) *Value { return &Value{typ: Uint8, rank: Scalar, u: uint64(u)} }

// NewUint16 creates a scalar Value of Type Uint16.
func NewUint16(u uint16) *Value { return &Value{typ: Uint16, rank: Scalar, u: uint64(u)} }

// NewUint32 creates a scalar Value of Type Uint32.
func NewUint32(u uint32) *Value { return &Value{typ: Uint32, rank: Scalar, u: uint64(u)} }

// NewUint64 creates a scalar Value of Type Uint64.
func NewUint64(u uint64) *Value { return &Value{typ: Uint64, rank: Scalar, u: u} }

// NewInt8 creates a scalar Value of Type Int8.
func NewInt8(i int8) *Value { return &Value{typ: Int8, rank: Scalar, i: int64(i)} }

// NewInt16 creates a scalar Value of Type Int16.
func NewInt16(i int16) *Value { return &Value{typ: Int16, rank: Scalar, i: int64(i)} }

// NewInt32 creates a scalar Value of Type Int32.
func NewInt32(i int32) *Value { return &Value{typ: Int32, rank: Scalar, i: int64(i)} }

// NewInt64 creates a scalar Value of Type Int64.
func NewInt64(i int64) *Value { return &Value{typ: Int64, rank: Scalar, i: i} }

// NewBytes creates a scalar Value of Type Bytes.
func NewBytes(b []byte) *Value { return &Value{typ: Bytes, rank: Scalar, by: b} }

// NewIPv4Address creates a scalar Value of Type IPv4Address. The address is
// not validated at construction time; validation happens through
// CheckParameterValue against a definition.
func NewIPv4Address(addr string) *Value { return &Value{typ: IPv4Address, rank: Scalar, str: addr} }

// NewFileID creates a scalar Value of Type FileID wrapping an existing id.
func NewFileID(id string) *Value { return &Value{typ: FileID, rank: Scalar, str: id} }

// NewInstantiations creates a scalar Value of Type Instantiations.
func NewInstantiations(insts []Instantiation) *Value {
	return &Value{typ: Instantiations, rank: Scalar, insts: insts}
}

// NewInstanceRef creates a scalar Value of Type InstanceRef pointing at id.
func NewInstanceRef(id uint16) *Value {
	return &Value{typ: InstanceRef, rank: Scalar, u: uint64(id)}
}

// NewUnsetInstanceRef creates a scalar InstanceRef that refers to no instance.
func NewUnsetInstanceRef() *Value {
	return &Value{typ: InstanceRef, rank: Scalar, u: uint64(InstanceIDDynamicPlaceholder)}
}

// NewInstanceIdentityRef creates a scalar InstanceIdentityRef from a
// complete instance path ("<class>/.../<instance number>").
func NewInstanceIdentityRef(path string) *Value {
	return &Value{typ: InstanceIdentityRef, rank: Scalar, str: path}
}

// NewUnsetInstanceIdentityRef creates an InstanceIdentityRef that refers to
// no instance.
func NewUnsetInstanceIdentityRef() *Value {
	return &Value{typ: InstanceIdentityRef, rank: Scalar, str: ""}
}

// NewEnumValue creates a scalar Value of Type EnumMember.
func NewEnumValue(member uint16) *Value {
	return &Value{typ: EnumMember, rank: Scalar, u: uint64(member)}
}

func scalarArray(typ Type, n int, fill func(i int) Value) *Value {
	items := make([]Value, n)
	for i := 0; i < n; i++ {
		items[i] = fill(i)
	}
	return &Value{typ: typ, rank: Array, items: items}
}

// NewStringArray creates an array Value of Type String.
func NewStringArray(values []string) *Value {
	return scalarArray(String, len(values), func(i int) Value { return *NewString(values[i]) })
}

// NewBooleanArray creates an array Value of Type Boolean.
func NewBooleanArray(values []bool) *Value {
	return scalarArray(Boolean, len(values), func(i int) Value { return *NewBoolean(values[i]) })
}

// NewFloat32Array creates an array Value of Type Float32.
func NewFloat32Array(values []float32) *Value {
	return scalarArray(Float32, len(values), func(i int) Value { return *NewFloat32(values[i]) })
}

// NewFloat64Array creates an array Value of Type Float64.
func NewFloat64Array(values []float64) *Value {
	return scalarArray(Float64, len(values), func(i int) Value { return *NewFloat64(values[i]) })
}

// NewUint8Array creates an array Value of Type Uint8.
func NewUint8Array(values []uint8) *Value {
	return scalarArray(Uint8, len(values), func(i int) Value { return *NewUint8(values[i]) })
}

// NewUint16Array creates an array Value of Type Uint16.
func NewUint16Array(values []uint16) *Value {
	return scalarArray(Uint16, len(values), func(i int) Value { return *NewUint16(values[i]) })
}

// NewUint32Array creates an array Value of Type Uint32.
func NewUint32Array(values []uint32) *Value {
	return scalarArray(Uint32, len(values), func(i int) Value { return *NewUint32(values[i]) })
}

// NewUint64Array creates an array Value of Type Uint64.
func NewUint64Array(values []uint64) *Value {
	return scalarArray(Uint64, len(values), func(i int) Value { return *NewUint64(values[i]) })
}

// NewInt8Array creates an array Value of Type Int8.
func NewInt8Array(values []int8) *Value {
	return scalarArray(Int8, len(values), func(i int) Value { return *NewInt8(values[i]) })
}

// NewInt16Array creates an array Value of Type Int16.
func NewInt16Array(values []int16) *Value {
	return scalarArray(Int16, len(values), func(i int) Value { return *NewInt16(values[i]) })
}

// NewInt32Array creates an array Value of Type Int32.
func NewInt32Array(values []int32) *Value {
	return scalarArray(Int32, len(values), func(i int) Value { return *NewInt32(values[i]) })
}

// NewInt64Array creates an array Value of Type Int64.
func NewInt64Array(values []int64) *Value {
	return scalarArray(Int64, len(values), func(i int) Value { return *NewInt64(values[i]) })
}

// NewIPv4AddressArray creates an array Value of Type IPv4Address.
func NewIPv4AddressArray(values []string) *Value {
	return scalarArray(IPv4Address, len(values), func(i int) Value { return *NewIPv4Address(values[i]) })
}

// NewFileIDArray creates an array Value of Type FileID.
func NewFileIDArray(values []string) *Value {
	return scalarArray(FileID, len(values), func(i int) Value { return *NewFileID(values[i]) })
}

// NewInstanceRefArray creates an array Value of Type InstanceRef.
func NewInstanceRefArray(values []uint16) *Value {
	return scalarArray(InstanceRef, len(values), func(i int) Value { return *NewInstanceRef(values[i]) })
}

// NewInstanceIdentityRefArray creates an array Value of Type
// InstanceIdentityRef from complete instance paths.
func NewInstanceIdentityRefArray(values []string) *Value {
	return scalarArray(InstanceIdentityRef, len(values), func(i int) Value { return *NewInstanceIdentityRef(values[i]) })
}

// NewEnumValueArray creates an array Value of Type EnumMember.
func NewEnumValueArray(values []uint16) *Value {
	return scalarArray(EnumMember, len(values), func(i int) Value { return *NewEnumValue(values[i]) })
}

// NewBytesArray creates an array Value of Type Bytes.
func NewBytesArray(values [][]byte) *Value {
	return scalarArray(Bytes, len(values), func(i int) Value { return *NewBytes(values[i]) })
}
