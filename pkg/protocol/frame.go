package protocol

import (
	"bufio"
	"errors"
	"io"
)

// MaxPayloadSize is the largest frame payload accepted.
const MaxPayloadSize = DefaultMaxAllocation

// FrameType identifies the type of frame.
type FrameType uint8

const (
	FrameSnapshot FrameType = 0x01 // Server → Client full tree
	FramePatches  FrameType = 0x02 // Server → Client patch list
	FrameEvent    FrameType = 0x03 // Client → Server event
	FrameError    FrameType = 0x04 // Either direction
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameSnapshot:
		return "Snapshot"
	case FramePatches:
		return "Patches"
	case FrameEvent:
		return "Event"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Valid reports whether ft is a known frame type.
func (ft FrameType) Valid() bool {
	return ft >= FrameSnapshot && ft <= FrameError
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
	ErrTrailingData     = errors.New("protocol: trailing data after frame")
)

// Frame represents a protocol frame with header and payload.
//
// Wire format:
//
//	┌─────────────┬──────────────────────┬─────────────────────┐
//	│ Frame Type  │ Payload Length       │ Payload             │
//	│ (1 byte)    │ (uvarint)            │ (length bytes)      │
//	└─────────────┴──────────────────────┴─────────────────────┘
type Frame struct {
	Type    FrameType
	Payload []byte
}

// NewFrame creates a new frame with the given type and payload.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode encodes the frame to bytes including the header.
func (f *Frame) Encode() []byte {
	e := &Encoder{buf: make([]byte, 0, 1+UvarintLen(uint64(len(f.Payload)))+len(f.Payload))}
	f.EncodeTo(e)
	return e.Bytes()
}

// EncodeTo encodes the frame using the provided encoder.
func (f *Frame) EncodeTo(e *Encoder) {
	e.WriteByte(byte(f.Type))
	e.WriteLenBytes(f.Payload)
}

// DecodeFrame decodes a single frame occupying all of data.
func DecodeFrame(data []byte) (*Frame, error) {
	d := NewDecoder(data)
	b, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	ft := FrameType(b)
	if !ft.Valid() {
		return nil, ErrInvalidFrameType
	}
	payload, err := d.ReadLenBytes()
	if err != nil {
		return nil, err
	}
	if !d.EOF() {
		return nil, ErrTrailingData
	}
	return &Frame{Type: ft, Payload: payload}, nil
}

// ReadFrame reads a complete frame from r.
func ReadFrame(r io.ByteReader) (*Frame, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	ft := FrameType(b)
	if !ft.Valid() {
		return nil, ErrInvalidFrameType
	}

	var buf [MaxVarintLen]byte
	n := 0
	for {
		c, err := r.ReadByte()
		if err != nil {
			return nil, unexpected(err)
		}
		if n == MaxVarintLen {
			return nil, ErrVarintOverflow
		}
		buf[n] = c
		n++
		if c < 0x80 {
			break
		}
	}
	length, _ := DecodeUvarint(buf[:n])
	if length > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}

	payload := make([]byte, length)
	for i := range payload {
		if payload[i], err = r.ReadByte(); err != nil {
			return nil, unexpected(err)
		}
	}
	return &Frame{Type: ft, Payload: payload}, nil
}

// NewFrameReader wraps r for use with ReadFrame.
func NewFrameReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}

// WriteFrame writes a complete frame to w.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
