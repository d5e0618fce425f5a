package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// Cada error expuesto al caller pertenece a una de cuatro familias: ErrInvalidInput,
// ErrNotFound, ErrForbidden o ErrConflict. Los errores más específicos las envuelven,
// así que los handlers pueden clasificarlos con errors.Is.
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
	ErrDuplicate    = errors.New("recurso duplicado")

	ErrInsufficientStock = fmt.Errorf("%w: stock insuficiente", ErrConflict)
	ErrInvalidSaleState  = fmt.Errorf("%w: la venta no está en estado COMPLETED", ErrInvalidInput)
	ErrNoFranchise       = fmt.Errorf("%w: el usuario no tiene franquicia asignada", ErrForbidden)
)

// Invalid construye un error de validación con detalle, conservando ErrInvalidInput.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Forbidden construye un error de autorización con detalle, conservando ErrForbidden.
func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}
