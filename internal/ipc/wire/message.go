// Package wire defines the envelope every IPC frame carries and the two
// payload encodings it may hold: self-describing JSON for human-facing
// objects, and a caller-encoded binary form for bulk-byte methods like file
// reads. It owns no transport of its own; see
// internal/ipc/transport for the framed socket I/O this envelope travels
// over.
package wire

import (
	"encoding/json"
	"fmt"
)

// Direction distinguishes a call from its answer.
type Direction uint8

const (
	Request Direction = iota
	Response
	Exception
)

func (d Direction) String() string {
	switch d {
	case Request:
		return "request"
	case Response:
		return "response"
	case Exception:
		return "exception"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// Encoding names how Message.Payload is laid out.
type Encoding uint8

const (
	JSON Encoding = iota
	Binary
)

// Message is one frame: a call into, or an answer from, an object. ObjectID
// names the stub/proxy endpoint (see internal/ipc/objectstore); MethodID
// names the operation within it; Seq ties a Response or Exception back to
// the Request that produced it.
type Message struct {
	ObjectID  uint32
	MethodID  uint32
	Seq       uint64
	Direction Direction
	Encoding  Encoding
	Payload   []byte
}

// NewRequest builds a request message, JSON-encoding body.
func NewRequest(objectID, methodID uint32, seq uint64, body any) (Message, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return Message{}, fmt.Errorf("wire: encoding request body: %w", err)
	}
	return Message{ObjectID: objectID, MethodID: methodID, Seq: seq, Direction: Request, Encoding: JSON, Payload: payload}, nil
}

// NewBinaryRequest builds a request message whose payload the caller has
// already encoded in the method's own binary layout, for bulk-byte methods.
func NewBinaryRequest(objectID, methodID uint32, seq uint64, payload []byte) Message {
	return Message{ObjectID: objectID, MethodID: methodID, Seq: seq, Direction: Request, Encoding: Binary, Payload: payload}
}

// NewResponse builds a response to seq, JSON-encoding body.
func NewResponse(objectID, methodID uint32, seq uint64, body any) (Message, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return Message{}, fmt.Errorf("wire: encoding response body: %w", err)
	}
	return Message{ObjectID: objectID, MethodID: methodID, Seq: seq, Direction: Response, Encoding: JSON, Payload: payload}, nil
}

// NewBinaryResponse builds a response whose payload is already encoded.
func NewBinaryResponse(objectID, methodID uint32, seq uint64, payload []byte) Message {
	return Message{ObjectID: objectID, MethodID: methodID, Seq: seq, Direction: Response, Encoding: Binary, Payload: payload}
}

// NewException builds the textual-reason exception response seq's caller
// re-raises as a remote-exception kind on its async result.
func NewException(objectID, methodID uint32, seq uint64, reason string) Message {
	return Message{ObjectID: objectID, MethodID: methodID, Seq: seq, Direction: Exception, Encoding: JSON, Payload: []byte(reason)}
}

// Reason returns an Exception message's textual reason.
func (m Message) Reason() string {
	return string(m.Payload)
}

// DecodeJSON unmarshals m's JSON payload into v.
func (m Message) DecodeJSON(v any) error {
	if m.Encoding != JSON {
		return fmt.Errorf("wire: message is binary-encoded, not JSON")
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("wire: decoding payload: %w", err)
	}
	return nil
}
