package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
	}{
		{"empty", NewFrame(FrameSnapshot, nil)},
		{"patches", NewFrame(FramePatches, []byte{1, 2, 3})},
		{"large", NewFrame(FrameEvent, bytes.Repeat([]byte{0xAB}, 1000))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeFrame(tc.frame.Encode())
			if err != nil {
				t.Fatalf("DecodeFrame: %v", err)
			}
			if got.Type != tc.frame.Type || !bytes.Equal(got.Payload, tc.frame.Payload) {
				t.Errorf("got %v %v, want %v %v", got.Type, got.Payload, tc.frame.Type, tc.frame.Payload)
			}
		})
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, io.ErrUnexpectedEOF},
		{"unknown type", []byte{0x09, 0x00}, ErrInvalidFrameType},
		{"zero type", []byte{0x00, 0x00}, ErrInvalidFrameType},
		{"truncated payload", []byte{0x01, 0x03, 0xAA}, io.ErrUnexpectedEOF},
		{"trailing bytes", []byte{0x01, 0x01, 0xAA, 0xBB}, ErrTrailingData},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeFrame(tc.data); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestReadWriteFrameStream(t *testing.T) {
	var buf bytes.Buffer
	frames := []*Frame{
		NewFrame(FrameSnapshot, []byte("one")),
		NewFrame(FramePatches, []byte("two")),
		NewFrame(FrameError, nil),
	}
	for _, f := range frames {
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatal(err)
		}
	}

	r := NewFrameReader(&buf)
	for i, want := range frames {
		got, err := ReadFrame(r)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got.Type != want.Type || !bytes.Equal(got.Payload, want.Payload) {
			t.Errorf("frame %d = %v %q, want %v %q", i, got.Type, got.Payload, want.Type, want.Payload)
		}
	}
	if _, err := ReadFrame(r); err != io.EOF {
		t.Errorf("after last frame: err = %v, want io.EOF", err)
	}
}

func TestReadFrameTruncated(t *testing.T) {
	data := NewFrame(FramePatches, []byte("payload")).Encode()
	_, err := ReadFrame(bytes.NewReader(data[:len(data)-2]))
	if err != io.ErrUnexpectedEOF {
		t.Errorf("err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReadFrameTooLarge(t *testing.T) {
	e := NewEncoder()
	e.WriteByte(byte(FramePatches))
	e.WriteUvarint(MaxPayloadSize + 1)
	if _, err := ReadFrame(bytes.NewReader(e.Bytes())); err != ErrFrameTooLarge {
		t.Errorf("err = %v, want ErrFrameTooLarge", err)
	}
}

func TestFrameTypeString(t *testing.T) {
	tests := map[FrameType]string{
		FrameSnapshot: "Snapshot",
		FramePatches:  "Patches",
		FrameEvent:    "Event",
		FrameError:    "Error",
		FrameType(99): "Unknown",
	}
	for ft, want := range tests {
		if got := ft.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", ft, got, want)
		}
	}
}
