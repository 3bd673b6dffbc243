// Package respond centraliza la escritura de respuestas JSON y la traducción
// de errores tipados a los payloads estructurados que expone la API.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"gobodega/internal/domain"
	apperror "gobodega/internal/errors"
	"gobodega/internal/pkg/logger"
)

// Writer escribe respuestas de la API. En producción los errores internos no
// exponen el detalle subyacente.
type Writer struct {
	logger     logger.Logger
	produccion bool
}

// NewWriter crea el escritor de respuestas.
func NewWriter(logger logger.Logger, produccion bool) *Writer {
	return &Writer{logger: logger, produccion: produccion}
}

// JSON serializa v con el status indicado.
func (wr *Writer) JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		wr.logger.Error("No se pudo serializar la respuesta", err)
	}
}

// Error traduce un error tipado al payload {mensaje, ...extras} con el status
// HTTP que corresponda. Los errores de negocio estructurados agregan sus
// campos adicionales (errores, itemsPendientes, stockDisponible, etc.).
func (wr *Writer) Error(w http.ResponseWriter, r *http.Request, err error) {
	status, _, mensaje := apperror.MapToHTTPStatus(err)
	respuesta := domain.ErrorResponse{Mensaje: mensaje}

	var camposErr *apperror.CamposError
	var devolucionErr *apperror.DevolucionIncompletaError
	var stockErr *apperror.StockInsuficienteError
	var prestamosErr *apperror.PrestamosActivosError

	switch {
	case errors.As(err, &camposErr):
		respuesta.Errores = camposErr.Campos
	case errors.As(err, &devolucionErr):
		respuesta.ItemsPendientes = devolucionErr.ItemsPendientes
	case errors.As(err, &stockErr):
		respuesta.StockDisponible = &stockErr.Disponible
		respuesta.CantidadSolicitada = &stockErr.Solicitada
	case errors.As(err, &prestamosErr):
		respuesta.PrestamosActivos = &prestamosErr.Cantidad
	}

	if status >= http.StatusInternalServerError {
		wr.logger.Error("Error interno atendiendo la petición", err)
		respuesta.Mensaje = "Error interno del servidor"
		if !wr.produccion {
			respuesta.Detalle = err.Error()
		}
	}

	wr.JSON(w, status, respuesta)
}
