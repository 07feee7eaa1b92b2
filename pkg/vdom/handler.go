package vdom

import (
	"errors"
	"fmt"
	"reflect"
)

// HandlerKind selects how a handler's decoded value is interpreted.
type HandlerKind uint8

const (
	// Normal handlers decode directly to a message.
	Normal HandlerKind = iota
	// MayStopPropagation handlers decode to an Outcome whose
	// StopPropagation flag is honored.
	MayStopPropagation
	// MayPreventDefault handlers decode to an Outcome whose
	// PreventDefault flag is honored.
	MayPreventDefault
	// CustomHandler handlers decode to an Outcome with both flags honored.
	CustomHandler
)

// String returns the string representation of the HandlerKind.
func (k HandlerKind) String() string {
	switch k {
	case Normal:
		return "Normal"
	case MayStopPropagation:
		return "MayStopPropagation"
	case MayPreventDefault:
		return "MayPreventDefault"
	case CustomHandler:
		return "Custom"
	default:
		return "Unknown"
	}
}

// Passive reports whether listeners for this kind never prevent default.
func (k HandlerKind) Passive() bool {
	return k == Normal || k == MayStopPropagation
}

// Outcome is the decoded value of a non-Normal handler.
type Outcome struct {
	Message         any
	StopPropagation bool
	PreventDefault  bool
}

// Decoder turns an event payload into a value. Decoding is the caller's
// concern; a failing decoder makes the event a no-op.
type Decoder interface {
	Decode(event any) (any, error)
}

// Handler describes an event listener: how to decode and how to interpret it.
type Handler struct {
	Kind    HandlerKind
	Decoder Decoder
}

// Equal reports whether two handlers have the same kind and deeply equal
// decoders.
func (h Handler) Equal(o Handler) bool {
	if h.Kind != o.Kind {
		return false
	}
	if eq, ok := h.Decoder.(interface{ Equal(Decoder) bool }); ok {
		return eq.Equal(o.Decoder)
	}
	return reflect.DeepEqual(h.Decoder, o.Decoder)
}

// Decode runs the decoder and normalizes the result into an Outcome
// according to the handler kind.
func (h Handler) Decode(event any) (Outcome, error) {
	if h.Decoder == nil {
		return Outcome{}, ErrNoDecoder
	}
	v, err := h.Decoder.Decode(event)
	if err != nil {
		return Outcome{}, err
	}
	if h.Kind == Normal {
		return Outcome{Message: v}, nil
	}
	out, ok := v.(Outcome)
	if !ok {
		return Outcome{}, fmt.Errorf("vdom: %s handler decoded %T, want Outcome", h.Kind, v)
	}
	switch h.Kind {
	case MayStopPropagation:
		out.PreventDefault = false
	case MayPreventDefault:
		out.StopPropagation = false
	}
	return out, nil
}

// ErrNoDecoder is returned when a handler has no decoder.
var ErrNoDecoder = errors.New("vdom: handler has no decoder")

// DecodeError reports a decoder failure.
type DecodeError struct {
	Path []string
	Msg  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %v: %s", e.Path, e.Msg)
}

// Succeed decodes every event to the same value.
func Succeed(v any) Decoder { return succeed{Value: v} }

type succeed struct{ Value any }

func (d succeed) Decode(any) (any, error) { return d.Value, nil }

// At decodes the value found by walking map keys in the event payload.
// The payload must be built from map[string]any values.
func At(path ...string) Decoder { return at{Path: path} }

type at struct{ Path []string }

func (d at) Decode(event any) (any, error) {
	cur := event
	for i, k := range d.Path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, &DecodeError{Path: d.Path[:i+1], Msg: "expecting an object"}
		}
		v, ok := m[k]
		if !ok {
			return nil, &DecodeError{Path: d.Path[:i+1], Msg: "missing field"}
		}
		cur = v
	}
	return cur, nil
}

// MapDecoder applies a tagger to a decoder's result. For Outcome values
// the message is mapped and the flags kept.
func MapDecoder(t *Tagger, d Decoder) Decoder { return mapped{Tagger: t, Inner: d} }

type mapped struct {
	Tagger *Tagger
	Inner  Decoder
}

func (d mapped) Decode(event any) (any, error) {
	v, err := d.Inner.Decode(event)
	if err != nil {
		return nil, err
	}
	if out, ok := v.(Outcome); ok {
		out.Message = d.Tagger.Tag(out.Message)
		return out, nil
	}
	return d.Tagger.Tag(v), nil
}

// WithFlags wraps a decoder so its message is reported as an Outcome with
// fixed flags.
func WithFlags(d Decoder, stop, prevent bool) Decoder {
	return flagged{Inner: d, Stop: stop, Prevent: prevent}
}

type flagged struct {
	Inner   Decoder
	Stop    bool
	Prevent bool
}

func (d flagged) Decode(event any) (any, error) {
	v, err := d.Inner.Decode(event)
	if err != nil {
		return nil, err
	}
	return Outcome{Message: v, StopPropagation: d.Stop, PreventDefault: d.Prevent}, nil
}

// DecoderFunc adapts a function to Decoder. Function decoders never compare
// equal, so a facts diff always reports them as changed; the live listener
// is then updated in place.
type DecoderFunc func(event any) (any, error)

// Decode implements Decoder.
func (f DecoderFunc) Decode(event any) (any, error) { return f(event) }

// MapHandler maps the messages produced by h through t, keeping its kind.
func MapHandler(t *Tagger, h Handler) Handler {
	return Handler{Kind: h.Kind, Decoder: MapDecoder(t, h.Decoder)}
}
