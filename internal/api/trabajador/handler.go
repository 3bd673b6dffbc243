package trabajador

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"gobodega/internal/api/respond"
	"gobodega/internal/domain"
	apperror "gobodega/internal/errors"
	"gobodega/internal/pkg/logger"
	"gobodega/internal/pkg/validation"
)

// TrabajadorService define el contrato que el handler espera de la capa de servicio.
type TrabajadorService interface {
	CrearTrabajador(ctx context.Context, trabajador domain.Trabajador) (domain.Trabajador, error)
	ObtenerTrabajadores(ctx context.Context, filtro domain.TrabajadorFiltro) ([]domain.Trabajador, error)
	ObtenerTrabajadorPorID(ctx context.Context, id int64) (domain.Trabajador, error)
	ActualizarTrabajador(ctx context.Context, id int64, cambios domain.ActualizacionTrabajador) (domain.Trabajador, error)
	DesactivarTrabajador(ctx context.Context, id int64) (string, error)
	Estadisticas(ctx context.Context) (domain.EstadisticasTrabajadores, error)
}

// PrestamoLister expone el historial de préstamos de un trabajador; lo
// implementa el servicio de préstamos.
type PrestamoLister interface {
	ObtenerPrestamosTrabajador(ctx context.Context, trabajadorID int64, estado domain.EstadoPrestamo) ([]domain.Prestamo, error)
}

// Handler agrupa los endpoints del padrón de trabajadores.
type Handler struct {
	service   TrabajadorService
	prestamos PrestamoLister
	respond   *respond.Writer
	logger    logger.Logger
}

// NewHandler crea el handler de trabajadores.
func NewHandler(service TrabajadorService, prestamos PrestamoLister, respond *respond.Writer, logger logger.Logger) *Handler {
	return &Handler{service: service, prestamos: prestamos, respond: respond, logger: logger}
}

// Crear atiende POST /api/trabajadores.
func (h *Handler) Crear(w http.ResponseWriter, r *http.Request) {
	var trabajador domain.Trabajador
	if err := json.NewDecoder(r.Body).Decode(&trabajador); err != nil {
		h.respond.Error(w, r, apperror.NewValidationError("Cuerpo de la petición inválido"))
		return
	}

	v := validation.Nuevo()
	v.Requerido("codigo", trabajador.Codigo, "El código es obligatorio")
	v.Requerido("nombre", trabajador.Nombre, "El nombre es obligatorio")
	if v.TieneErrores() {
		h.respond.Error(w, r, apperror.NewCamposError(v.Errores()))
		return
	}

	creado, err := h.service.CrearTrabajador(r.Context(), trabajador)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusCreated, creado)
}

// Listar atiende GET /api/trabajadores con búsqueda y filtro por activo.
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filtro := domain.TrabajadorFiltro{Busqueda: q.Get("busqueda")}

	if raw := q.Get("activo"); raw != "" {
		activo, err := strconv.ParseBool(raw)
		if err != nil {
			h.respond.Error(w, r, apperror.NewValidationError("El filtro activo debe ser true o false"))
			return
		}
		filtro.Activo = &activo
	}

	trabajadores, err := h.service.ObtenerTrabajadores(r.Context(), filtro)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, trabajadores)
}

// Obtener atiende GET /api/trabajadores/{id}.
func (h *Handler) Obtener(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	trabajador, err := h.service.ObtenerTrabajadorPorID(r.Context(), id)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, trabajador)
}

// Actualizar atiende PUT /api/trabajadores/{id}.
func (h *Handler) Actualizar(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	var cambios domain.ActualizacionTrabajador
	if err := json.NewDecoder(r.Body).Decode(&cambios); err != nil {
		h.respond.Error(w, r, apperror.NewValidationError("Cuerpo de la petición inválido"))
		return
	}

	actualizado, err := h.service.ActualizarTrabajador(r.Context(), id, cambios)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, actualizado)
}

// Desactivar atiende DELETE /api/trabajadores/{id}: baja lógica, rechazada si
// el trabajador tiene préstamos sin cerrar.
func (h *Handler) Desactivar(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	mensaje, err := h.service.DesactivarTrabajador(r.Context(), id)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, struct {
		Mensaje string `json:"mensaje"`
	}{Mensaje: mensaje})
}

// Prestamos atiende GET /api/trabajadores/{id}/prestamos: historial del
// trabajador, incluso desactivado, con filtro opcional por estado.
func (h *Handler) Prestamos(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	if _, err := h.service.ObtenerTrabajadorPorID(r.Context(), id); err != nil {
		h.respond.Error(w, r, err)
		return
	}

	estado := domain.EstadoPrestamo(r.URL.Query().Get("estado"))
	prestamos, err := h.prestamos.ObtenerPrestamosTrabajador(r.Context(), id, estado)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, prestamos)
}

// Estadisticas atiende GET /api/trabajadores/estadisticas.
func (h *Handler) Estadisticas(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Estadisticas(r.Context())
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, stats)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.NewValidationError("El ID del trabajador debe ser un número positivo")
	}
	return id, nil
}
