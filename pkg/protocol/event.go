package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// Event is the payload of a FrameEvent frame: a DOM event raised on the
// client against the node at pre-order index Target of the live tree.
//
// Wire format:
//
//	[Target: uvarint][Type: len-prefixed][Payload: len-prefixed JSON]
//
// Payload is decoded with encoding/json, so objects arrive as
// map[string]any, which is what vdom.At walks.
type Event struct {
	Target  int
	Type    string
	Payload any
}

// ErrPayloadNotJSON is returned when an event payload is not valid JSON.
var ErrPayloadNotJSON = errors.New("protocol: event payload is not valid JSON")

// Encode wraps the event in a frame.
func (ev *Event) Encode() (*Frame, error) {
	e := NewEncoder()
	if err := EncodeEventTo(e, ev); err != nil {
		return nil, err
	}
	return NewFrame(FrameEvent, e.Bytes()), nil
}

// EncodeEventTo encodes an event using the provided encoder.
func EncodeEventTo(e *Encoder, ev *Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	e.WriteInt(ev.Target)
	e.WriteString(ev.Type)
	e.WriteLenBytes(payload)
	return nil
}

// DecodeEvent decodes an event from a FrameEvent payload.
func DecodeEvent(data []byte) (*Event, error) {
	d := NewDecoder(data)
	target, err := d.ReadInt()
	if err != nil {
		return nil, err
	}
	typ, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	raw, err := d.ReadLenBytes()
	if err != nil {
		return nil, err
	}
	if err := checkPayloadDepth(raw); err != nil {
		return nil, err
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrPayloadNotJSON
	}
	return &Event{Target: target, Type: typ, Payload: payload}, nil
}

// checkPayloadDepth rejects JSON nested deeper than MaxPayloadDepth before
// it is unmarshaled.
func checkPayloadDepth(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	depth := newDepthContext(MaxPayloadDepth)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return ErrPayloadNotJSON
		}
		switch tok {
		case json.Delim('{'), json.Delim('['):
			if err := depth.enter(); err != nil {
				return err
			}
		case json.Delim('}'), json.Delim(']'):
			depth.leave()
		}
	}
}
