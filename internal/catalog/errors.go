// Package catalog holds the business rules for the reference entities and
// books. Services are stateless apart from their injected dependencies.
package catalog

import (
	"errors"
	"strings"
)

// ValidationError lists every rule the input broke. Nothing is written when
// it is returned.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, " ")
}

// Add appends msg unless it is already present.
func (e *ValidationError) Add(msg string) {
	for _, m := range e.Messages {
		if m == msg {
			return
		}
	}
	e.Messages = append(e.Messages, msg)
}

// Err returns e if it holds any message, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Messages) == 0 {
		return nil
	}
	return e
}

// Invalid returns a ValidationError with the given messages.
func Invalid(messages ...string) error {
	return &ValidationError{Messages: messages}
}

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("registro no encontrado")
	// ErrInUse is returned when a row cannot be deleted because other rows
	// reference it.
	ErrInUse = errors.New("el registro está en uso y no se puede eliminar")
)

// ConflictError is a business rule refusing an otherwise valid request,
// such as lending a book with no copies left. Message is shown as is.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// Conflict returns a ConflictError carrying msg.
func Conflict(msg string) *ConflictError {
	return &ConflictError{Message: msg}
}

// Fixed user-facing messages.
const (
	MsgUnexpected       = "Ocurrió un error inesperado."
	MsgInvalidReference = "La referencia seleccionada no existe."
	MsgInvalidCover     = "La portada debe ser una imagen JPG o PNG de hasta 5 MB."
)

// UserMessage returns the text to show for err and whether err is a known
// business error. Unknown errors map to MsgUnexpected and should be logged.
func UserMessage(err error) (string, bool) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Error(), true
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInUse):
		return capitalize(err.Error()), true
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Message, true
	}
	return MsgUnexpected, false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:]) + "."
}
