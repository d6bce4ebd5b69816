package loans

import "github.com/erazemk/biblioteca/internal/catalog"

// User-facing messages of the loan workflow.
const (
	MsgSelectTeacher  = "Debe seleccionar un docente."
	MsgSelectBook     = "Debe seleccionar un libro."
	MsgSelectLoanType = "Debe seleccionar el tipo de préstamo."
	MsgSelectStatus   = "Debe seleccionar el estado de la reserva."
	MsgEmailRequired  = "El correo es obligatorio."
	MsgDatesRequired  = "Debe seleccionar las fechas."
	MsgBothDates      = "Debes asignar ambas fechas."
	MsgStartBeforeEnd = "La fecha inicio debe ser menor a la fecha cierre."
	MsgNameTooLong    = "El nombre no puede superar los 200 caracteres."

	msgEndNotExtended = "La nueva fecha cierre debe ser mayor a la anterior: %s"
)

// ErrOutOfStock is returned when a loan is requested for a book with no
// copies left, or for a book that does not exist.
var ErrOutOfStock = catalog.Conflict("No hay suficientes ejemplares.")
