package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is wrapped by every lookup that misses.
	ErrNotFound = errors.New("no encontrado")
	// ErrAlreadyClosed is returned when a register day is already closed.
	ErrAlreadyClosed = errors.New("el día ya está cerrado")
)

// ValidationError reports input the domain rejects. Nothing is written when
// it is returned.
type ValidationError struct {
	Campo   string
	Mensaje string
}

func (e *ValidationError) Error() string {
	if e.Campo == "" {
		return e.Mensaje
	}
	return e.Campo + ": " + e.Mensaje
}

func validacion(campo, format string, args ...any) error {
	return &ValidationError{Campo: campo, Mensaje: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func noEncontrado(entidad string) error {
	return fmt.Errorf("%s %w", entidad, ErrNotFound)
}

// traducirNoEncontrado maps gorm.ErrRecordNotFound to ErrNotFound and leaves
// every other error untouched.
func traducirNoEncontrado(err error, entidad string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return noEncontrado(entidad)
	}
	return err
}

func diaCerrado(fecha string) error {
	return fmt.Errorf("caja del %s: %w", fecha, ErrAlreadyClosed)
}
