package errors

import (
	"fmt"
	"net/http"
)

// AppError es la interfaz central para todos los errores tipados de la aplicación.
// Permite que el código externo (Handler) acceda a la categoría del error y al
// status HTTP sugerido sin conocer el tipo concreto.
type AppError interface {
	Error() string    // Implementa la interfaz error estándar de Go
	Category() string // Categoría del error (e.g. "VALIDATION_ERROR", "NOT_FOUND")
	HTTPStatus() int  // Código HTTP sugerido para el Handler
	Unwrap() error    // Permite encapsular el error subyacente
}

// --- Errores de dominio ---

// ValidationError representa entradas malformadas o violaciones de reglas de
// negocio (lista de ítems vacía, devolución mayor a lo prestado, código duplicado).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return e.Msg }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError crea un nuevo error de validación.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa la ausencia de un recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return e.Msg }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound }
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError crea un nuevo error de recurso no encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// InvalidStateError representa una operación no permitida en el estado actual
// de la entidad (e.g. registrar devoluciones sobre un préstamo ya cerrado).
type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string    { return e.Msg }
func (e *InvalidStateError) Category() string { return "INVALID_STATE" }
func (e *InvalidStateError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *InvalidStateError) Unwrap() error    { return nil }

// NewInvalidStateError crea un nuevo error de estado inválido.
func NewInvalidStateError(msg string) AppError {
	return &InvalidStateError{Msg: msg}
}

// --- Errores de negocio con datos estructurados ---
// Estos tipos cargan la información adicional que la respuesta HTTP debe
// exponer junto al mensaje (ítems pendientes, stock disponible, etc.).

// CamposError agrupa las fallas de validación campo a campo detectadas por la
// capa de validación, antes de llegar al dominio.
type CamposError struct {
	Campos map[string]string
}

func (e *CamposError) Error() string    { return "La petición contiene campos inválidos" }
func (e *CamposError) Category() string { return "VALIDATION_ERROR" }
func (e *CamposError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *CamposError) Unwrap() error    { return nil }

// NewCamposError crea un error de validación de campos.
func NewCamposError(campos map[string]string) AppError {
	return &CamposError{Campos: campos}
}

// ItemPendiente describe un ítem con devolución incompleta al intentar cerrar
// un préstamo.
type ItemPendiente struct {
	ID        int64  `json:"id"`
	Nombre    string `json:"nombre"`
	Pendiente int    `json:"pendiente"`
}

// DevolucionIncompletaError se produce al intentar cerrar un préstamo cuando
// al menos un ítem no tiene devolución completa.
type DevolucionIncompletaError struct {
	ItemsPendientes []ItemPendiente
}

func (e *DevolucionIncompletaError) Error() string {
	return "No se puede cerrar el préstamo porque hay ítems pendientes de devolver"
}
func (e *DevolucionIncompletaError) Category() string { return "VALIDATION_ERROR" }
func (e *DevolucionIncompletaError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *DevolucionIncompletaError) Unwrap() error    { return nil }

// NewDevolucionIncompletaError crea el error de cierre con ítems pendientes.
func NewDevolucionIncompletaError(items []ItemPendiente) AppError {
	return &DevolucionIncompletaError{ItemsPendientes: items}
}

// StockInsuficienteError se produce cuando una salida de stock excede la
// cantidad disponible del producto.
type StockInsuficienteError struct {
	Disponible int
	Solicitada int
}

func (e *StockInsuficienteError) Error() string    { return "Stock insuficiente" }
func (e *StockInsuficienteError) Category() string { return "VALIDATION_ERROR" }
func (e *StockInsuficienteError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *StockInsuficienteError) Unwrap() error    { return nil }

// NewStockInsuficienteError crea el error de stock insuficiente.
func NewStockInsuficienteError(disponible, solicitada int) AppError {
	return &StockInsuficienteError{Disponible: disponible, Solicitada: solicitada}
}

// PrestamosActivosError se produce al intentar desactivar un trabajador que
// todavía tiene préstamos sin cerrar.
type PrestamosActivosError struct {
	Cantidad int
}

func (e *PrestamosActivosError) Error() string {
	return "No se puede desactivar el trabajador porque tiene préstamos activos"
}
func (e *PrestamosActivosError) Category() string { return "VALIDATION_ERROR" }
func (e *PrestamosActivosError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *PrestamosActivosError) Unwrap() error    { return nil }

// NewPrestamosActivosError crea el error de trabajador con préstamos abiertos.
func NewPrestamosActivosError(cantidad int) AppError {
	return &PrestamosActivosError{Cantidad: cantidad}
}

// --- Errores de infraestructura ---

// InternalError representa fallas inesperadas en el servidor, servicio o repositorio.
type InternalError struct {
	Msg string
	Err error // Error original subyacente (e.g. error del driver SQL)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Error interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError }
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError crea un error de servidor.
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError es un atajo para crear un InternalError específico de fallas del DB.
func NewDBError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (DB): %s", msg, err.Error()), err)
}

// --- Helper para el Handler ---

// MapToHTTPStatus recibe un error y lo traduce a código HTTP, categoría y mensaje.
func MapToHTTPStatus(err error) (int, string, string) {
	if appErr, ok := err.(AppError); ok {
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Error no tipado: tratarlo como interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocurrió un error inesperado."
}
