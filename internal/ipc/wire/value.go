package wire

import (
	"encoding/json"
	"fmt"

	"github.com/wago-dev/wdx/internal/value"
)

// WireValue is the JSON-transportable form of a *value.Value: its type and
// rank travel alongside the raw payload, since value.Value itself carries
// no self-describing tag a bare json.Marshal could reconstruct — a
// *value.Value is only ever meaningful once paired with the definition
// that names its type, and over the wire that definition lives on the
// peer, not in the payload.
type WireValue struct {
	Type    value.Type `json:"type"`
	Rank    value.Rank `json:"rank"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeValue converts v into its wire form.
func EncodeValue(v *value.Value) (WireValue, error) {
	payload, err := v.GetJSON()
	if err != nil {
		return WireValue{}, fmt.Errorf("wire: encoding value: %w", err)
	}
	return WireValue{Type: v.Type(), Rank: v.Rank(), Payload: payload}, nil
}

// Decode reconstructs the *value.Value wv describes.
func (wv WireValue) Decode() (*value.Value, error) {
	v, err := value.CreateWithJSON(wv.Type, wv.Rank, wv.Payload)
	if err != nil {
		return nil, fmt.Errorf("wire: decoding value: %w", err)
	}
	return v, nil
}
