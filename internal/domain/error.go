package domain

// ErrorResponse es la estructura estandarizada para respuestas de error en la API.
// Los campos adicionales solo se serializan cuando el error los trae.
type ErrorResponse struct {
	Mensaje            string            `json:"mensaje"`
	Errores            map[string]string `json:"errores,omitempty"`
	ItemsPendientes    interface{}       `json:"itemsPendientes,omitempty"`
	StockDisponible    *int              `json:"stockDisponible,omitempty"`
	CantidadSolicitada *int              `json:"cantidadSolicitada,omitempty"`
	PrestamosActivos   *int              `json:"prestamosActivos,omitempty"`
	Detalle            string            `json:"detalle,omitempty"`
}
