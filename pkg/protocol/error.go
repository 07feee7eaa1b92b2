package protocol

import (
	"errors"

	verrors "github.com/vango-dev/vtree/internal/errors"
)

// ErrorMessage is the payload of a FrameError frame.
type ErrorMessage struct {
	Code    string // registry code, e.g. "E201"
	Message string // Human-readable error message
	Fatal   bool   // If true, connection should be closed
}

// Encode wraps the message in a frame.
func (em *ErrorMessage) Encode() *Frame {
	e := NewEncoder()
	EncodeErrorMessageTo(e, em)
	return NewFrame(FrameError, e.Bytes())
}

// EncodeErrorMessageTo encodes an ErrorMessage using the provided encoder.
func EncodeErrorMessageTo(e *Encoder, em *ErrorMessage) {
	e.WriteString(em.Code)
	e.WriteString(em.Message)
	e.WriteBool(em.Fatal)
}

// DecodeErrorMessage decodes an ErrorMessage from bytes.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	d := NewDecoder(data)
	return DecodeErrorMessageFrom(d)
}

// DecodeErrorMessageFrom decodes an ErrorMessage from a decoder.
func DecodeErrorMessageFrom(d *Decoder) (*ErrorMessage, error) {
	code, err := d.ReadString()
	if err != nil {
		return nil, err
	}

	message, err := d.ReadString()
	if err != nil {
		return nil, err
	}

	fatal, err := d.ReadBool()
	if err != nil {
		return nil, err
	}

	return &ErrorMessage{
		Code:    code,
		Message: message,
		Fatal:   fatal,
	}, nil
}

// NewError creates a non-fatal ErrorMessage from err. Registry errors keep
// their code; anything else is reported as a malformed frame.
func NewError(err error) *ErrorMessage {
	var ve *verrors.VtreeError
	if errors.As(err, &ve) && ve.Code != "" {
		return &ErrorMessage{Code: ve.Code, Message: ve.Message}
	}
	return &ErrorMessage{Code: "E201", Message: err.Error()}
}

// NewFatalError creates a fatal ErrorMessage.
func NewFatalError(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Code:    code,
		Message: message,
		Fatal:   true,
	}
}

// Error implements the error interface.
func (em *ErrorMessage) Error() string {
	if em.Fatal {
		return "fatal: " + em.Code + ": " + em.Message
	}
	return em.Code + ": " + em.Message
}

// IsFatal returns true if this error should close the connection.
func (em *ErrorMessage) IsFatal() bool {
	return em.Fatal
}
