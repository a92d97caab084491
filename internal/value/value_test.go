package value

import (
	"encoding/json"
	"testing"

	"github.com/wago-dev/wdx/internal/status"
)

func TestJSONRoundTrip(t *testing.T) {
	tests := []*Value{
		NewString("hello"),
		NewBoolean(true),
		NewUint32(42),
		NewInt64(-7),
		NewFloat64(3.5),
		NewBytes([]byte{1, 2, 3}),
		NewIPv4Address("10.0.0.1"),
		NewInstanceRef(5),
		NewUnsetInstanceRef(),
		NewInstanceIdentityRef("module/3"),
		NewUnsetInstanceIdentityRef(),
		NewEnumValue(2),
		NewUint32Array([]uint32{1, 2, 3}),
	}
	for _, v := range tests {
		j, err := v.GetJSON()
		if err != nil {
			t.Fatalf("GetJSON(%v): %v", v.typ, err)
		}
		roundTripped, err := CreateWithJSON(v.typ, v.rank, j)
		if err != nil {
			t.Fatalf("CreateWithJSON(%v): %v", v.typ, err)
		}
		j2, err := roundTripped.GetJSON()
		if err != nil {
			t.Fatalf("GetJSON round trip(%v): %v", v.typ, err)
		}
		if string(j) != string(j2) {
			t.Errorf("%v: round trip mismatch: %s != %s", v.typ, j, j2)
		}
		if !v.Equal(roundTripped) {
			t.Errorf("%v: round-tripped value not Equal to original", v.typ)
		}
	}
}

func TestCreateWithUnknownTypeThenSetTypeInternal(t *testing.T) {
	v := CreateWithUnknownType(json.RawMessage(`"10.0.0.1"`))
	if v.Type() != Unknown {
		t.Fatalf("expected Unknown type before qualification")
	}
	if err := v.SetTypeInternal(IPv4Address, Scalar); err != nil {
		t.Fatalf("SetTypeInternal: %v", err)
	}
	got, err := v.GetIPv4Address()
	if err != nil || got != "10.0.0.1" {
		t.Errorf("GetIPv4Address() = %q, %v", got, err)
	}
	if err := v.SetTypeInternal(String, Scalar); err == nil {
		t.Errorf("expected error qualifying an already-typed value a second time")
	}
}

func TestIntegerRangeOverflow(t *testing.T) {
	_, err := CreateWithJSON(Uint8, Scalar, json.RawMessage(`256`))
	if err == nil {
		t.Fatalf("expected overflow error for uint8(256)")
	}
	statusErr, ok := err.(*status.Error)
	if !ok || statusErr.Code != status.InvalidValue {
		t.Errorf("expected InvalidValue, got %v", err)
	}
}

func TestWrongValueType(t *testing.T) {
	v := NewString("x")
	if _, err := v.GetUint32(); err == nil {
		t.Fatalf("expected type mismatch error")
	} else if statusErr, ok := err.(*status.Error); !ok || statusErr.Code != status.WrongValueType {
		t.Errorf("expected WrongValueType, got %v", err)
	}
}

func TestCheckParameterValueIPv4Pattern(t *testing.T) {
	c := &Constraint{Type: IPv4Address, Rank: Scalar}
	v, err := CreateWithJSON(IPv4Address, Scalar, json.RawMessage(`"10.0.0.256"`))
	if err != nil {
		t.Fatalf("CreateWithJSON: %v", err)
	}
	if code := CheckParameterValue(v, c); code != status.WrongValueRepresentation {
		t.Errorf("got %v, want WrongValueRepresentation", code)
	}

	valid, _ := CreateWithJSON(IPv4Address, Scalar, json.RawMessage(`"10.0.0.1"`))
	if code := CheckParameterValue(valid, c); code != status.NoErrorYet {
		t.Errorf("got %v, want NoErrorYet", code)
	}
}

func TestCheckParameterValueInstanceIdentityRef(t *testing.T) {
	c := &Constraint{
		Type:              InstanceIdentityRef,
		Rank:              Scalar,
		RefClassResolved:  true,
		RefClassBasePaths: []string{"Module"},
	}
	v := NewInstanceIdentityRef("module/7")
	if code := CheckParameterValue(v, c); code != status.NoErrorYet {
		t.Errorf("got %v, want NoErrorYet", code)
	}

	wrongBase := NewInstanceIdentityRef("other/7")
	if code := CheckParameterValue(wrongBase, c); code != status.InvalidValue {
		t.Errorf("got %v, want InvalidValue for unknown base path", code)
	}

	malformed := NewInstanceIdentityRef("noSlashHere")
	if code := CheckParameterValue(malformed, c); code != status.InvalidValue {
		t.Errorf("got %v, want InvalidValue for malformed ref", code)
	}

	unset := NewUnsetInstanceIdentityRef()
	if code := CheckParameterValue(unset, c); code != status.NoErrorYet {
		t.Errorf("unset ref should pass validation, got %v", code)
	}
}

func TestCheckParameterValueArrayRecursion(t *testing.T) {
	c := &Constraint{Type: Uint8, Rank: Array}
	v := NewUint8Array([]uint8{1, 2, 3})
	if code := CheckParameterValue(v, c); code != status.NoErrorYet {
		t.Errorf("got %v, want NoErrorYet", code)
	}

	mismatched := NewUint16Array([]uint16{1, 2})
	if code := CheckParameterValue(mismatched, c); code != status.WrongValueType {
		t.Errorf("got %v, want WrongValueType for rank/type mismatch", code)
	}
}

func TestCheckParameterValueAllowedValues(t *testing.T) {
	c := &Constraint{
		Type: Uint32, Rank: Scalar,
		AllowedValues: &AllowedValues{MinSet: true, Min: 1, MaxSet: true, Max: 10},
	}
	if code := CheckParameterValue(NewUint32(5), c); code != status.NoErrorYet {
		t.Errorf("got %v, want NoErrorYet", code)
	}
	if code := CheckParameterValue(NewUint32(20), c); code != status.InvalidValue {
		t.Errorf("got %v, want InvalidValue", code)
	}
}

func TestCheckParameterValueEnumMembership(t *testing.T) {
	c := &Constraint{Type: EnumMember, Rank: Scalar, EnumMembersResolved: true, EnumMembers: []uint16{1, 2, 3}}
	if code := CheckParameterValue(NewEnumValue(2), c); code != status.NoErrorYet {
		t.Errorf("got %v, want NoErrorYet", code)
	}
	if code := CheckParameterValue(NewEnumValue(9), c); code != status.ValueNotPossible {
		t.Errorf("got %v, want ValueNotPossible", code)
	}
}

func TestCheckParameterValueUnknownQualification(t *testing.T) {
	c := &Constraint{Type: Uint16, Rank: Scalar}
	v := CreateWithUnknownType(json.RawMessage(`42`))
	if code := CheckParameterValue(v, c); code != status.NoErrorYet {
		t.Errorf("got %v, want NoErrorYet", code)
	}
	if v.Type() != Uint16 {
		t.Errorf("expected value to be qualified to Uint16, got %v", v.Type())
	}
}

func TestBinaryCodecRoundTrip(t *testing.T) {
	tests := []*Value{
		NewString("hello"),
		NewBoolean(true),
		NewUint64(12345),
		NewInt32(-99),
		NewFloat32(1.5),
		NewBytes([]byte{9, 8, 7}),
		NewInstanceRef(3),
		NewUint8Array([]uint8{1, 2, 3}),
		NewInstantiations([]Instantiation{{ID: 1, Classes: []string{"a", "b"}}}),
	}
	for _, v := range tests {
		enc, err := EncodeBinary(v)
		if err != nil {
			t.Fatalf("EncodeBinary(%v): %v", v.typ, err)
		}
		dec, n, err := DecodeBinary(enc)
		if err != nil {
			t.Fatalf("DecodeBinary(%v): %v", v.typ, err)
		}
		if n != len(enc) {
			t.Errorf("%v: consumed %d bytes, want %d", v.typ, n, len(enc))
		}
		if !v.Equal(dec) {
			t.Errorf("%v: decoded value not Equal to original", v.typ)
		}
	}
}

func TestFileIDUniqueness(t *testing.T) {
	a := MintFileID()
	b := MintFileID()
	if a == b {
		t.Errorf("expected distinct file ids, got %q twice", a)
	}
}

func TestParseTypeRoundTripsWithString(t *testing.T) {
	for t2 := Unknown; t2 <= Method; t2++ {
		parsed, err := ParseType(t2.String())
		if err != nil {
			t.Fatalf("ParseType(%q): %v", t2.String(), err)
		}
		if parsed != t2 {
			t.Errorf("ParseType(%q) = %v, want %v", t2.String(), parsed, t2)
		}
	}
	if _, err := ParseType("not-a-type"); err == nil {
		t.Error("expected error for unknown type name")
	}
}

func TestParseRank(t *testing.T) {
	if r, err := ParseRank("array"); err != nil || r != Array {
		t.Errorf("ParseRank(array) = %v, %v", r, err)
	}
	if r, err := ParseRank(""); err != nil || r != Scalar {
		t.Errorf("ParseRank(\"\") = %v, %v", r, err)
	}
	if _, err := ParseRank("bogus"); err == nil {
		t.Error("expected error for unknown rank")
	}
}
