package main

import (
	"testing"

	"github.com/wago-dev/wdx/internal/value"
)

func TestParseWireValueScalar(t *testing.T) {
	wv, err := parseWireValue("uint16:7")
	if err != nil {
		t.Fatalf("parseWireValue: %v", err)
	}
	if wv.Type != value.Uint16 || wv.Rank != value.Scalar {
		t.Fatalf("got type=%s rank=%s", wv.Type, wv.Rank)
	}
	v, err := wv.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	n, err := v.GetUint16()
	if err != nil || n != 7 {
		t.Fatalf("GetUint16() = %d, %v", n, err)
	}
}

func TestParseWireValueDefaultsToString(t *testing.T) {
	wv, err := parseWireValue("boiler-1")
	if err != nil {
		t.Fatalf("parseWireValue: %v", err)
	}
	if wv.Type != value.String {
		t.Fatalf("got type=%s, want string", wv.Type)
	}
	v, err := wv.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	s, err := v.GetString()
	if err != nil || s != "boiler-1" {
		t.Fatalf("GetString() = %q, %v", s, err)
	}
}

func TestParseWireValueBoolean(t *testing.T) {
	wv, err := parseWireValue("boolean:true")
	if err != nil {
		t.Fatalf("parseWireValue: %v", err)
	}
	v, err := wv.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	b, err := v.GetBoolean()
	if err != nil || !b {
		t.Fatalf("GetBoolean() = %v, %v", b, err)
	}
}

func TestParseWireValueArray(t *testing.T) {
	wv, err := parseWireValue("uint8:1,2,3")
	if err != nil {
		t.Fatalf("parseWireValue: %v", err)
	}
	if wv.Rank != value.Array {
		t.Fatalf("got rank=%s, want array", wv.Rank)
	}
}

func TestParseWireValueBadType(t *testing.T) {
	if _, err := parseWireValue("uint16:not-a-number"); err == nil {
		t.Fatal("expected an error for a non-numeric uint16 payload")
	}
}

func TestFormatWireValueNil(t *testing.T) {
	if got := formatWireValue(nil); got != "-" {
		t.Fatalf("formatWireValue(nil) = %q, want %q", got, "-")
	}
}
