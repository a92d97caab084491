package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/wago-dev/wdx/internal/ipc/wire"
	"github.com/wago-dev/wdx/internal/value"
)

// parseWireValue builds a wire.WireValue from a command-line "type:raw"
// pair (e.g. "uint16:7", "string:hello", "boolean:true"), or a bare raw
// string (defaulting to value.String) when no "type:" prefix is present.
// A raw string containing "," is split on "," to build an array-rank value.
func parseWireValue(spec string) (wire.WireValue, error) {
	typ := value.String
	raw := spec
	if i := strings.IndexByte(spec, ':'); i >= 0 {
		if t, err := value.ParseType(spec[:i]); err == nil {
			typ = t
			raw = spec[i+1:]
		}
	}

	rank := value.Scalar
	parts := []string{raw}
	if strings.Contains(raw, ",") {
		rank = value.Array
		parts = strings.Split(raw, ",")
	}

	payload, err := encodeJSONPayload(typ, rank, parts)
	if err != nil {
		return wire.WireValue{}, err
	}
	return wire.WireValue{Type: typ, Rank: rank, Payload: payload}, nil
}

// encodeJSONPayload renders parts as the JSON value.Value.GetJSON would
// produce for typ/rank, good enough to round-trip through
// value.CreateWithJSON on the server side.
func encodeJSONPayload(typ value.Type, rank value.Rank, parts []string) (json.RawMessage, error) {
	scalars := make([]json.RawMessage, len(parts))
	for i, p := range parts {
		s, err := encodeScalarJSON(typ, p)
		if err != nil {
			return nil, err
		}
		scalars[i] = s
	}
	if rank == value.Scalar {
		return scalars[0], nil
	}
	arr, err := json.Marshal(scalars)
	if err != nil {
		return nil, fmt.Errorf("encoding array value: %w", err)
	}
	return arr, nil
}

func encodeScalarJSON(typ value.Type, raw string) (json.RawMessage, error) {
	switch typ {
	case value.String, value.IPv4Address, value.FileID, value.InstanceIdentityRef:
		b, err := json.Marshal(raw)
		return b, err
	case value.Boolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing boolean %q: %w", raw, err)
		}
		return json.Marshal(b)
	case value.Uint8, value.Uint16, value.Uint32, value.Uint64, value.EnumMember, value.InstanceRef:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing integer %q: %w", raw, err)
		}
		return json.Marshal(n)
	case value.Int8, value.Int16, value.Int32, value.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing integer %q: %w", raw, err)
		}
		return json.Marshal(n)
	case value.Float32, value.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing float %q: %w", raw, err)
		}
		return json.Marshal(f)
	default:
		return nil, fmt.Errorf("cannot parse a %s value from the command line", typ)
	}
}

// formatWireValue renders a wire.WireValue back to a short display string
// for get/invoke output.
func formatWireValue(wv *wire.WireValue) string {
	if wv == nil {
		return "-"
	}
	v, err := wv.Decode()
	if err != nil {
		return fmt.Sprintf("<undecodable: %v>", err)
	}
	b, err := v.GetJSON()
	if err != nil {
		return fmt.Sprintf("<unencodable: %v>", err)
	}
	return string(b)
}
