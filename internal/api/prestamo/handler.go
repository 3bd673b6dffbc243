package prestamo

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"gobodega/internal/api/respond"
	"gobodega/internal/domain"
	apperror "gobodega/internal/errors"
	"gobodega/internal/pkg/logger"
	"gobodega/internal/pkg/validation"
)

// PrestamoService define el contrato que el handler espera de la capa de servicio.
type PrestamoService interface {
	CrearPrestamo(ctx context.Context, nuevo domain.NuevoPrestamo) (domain.Prestamo, error)
	ObtenerPrestamos(ctx context.Context, filtro domain.PrestamoFiltro) ([]domain.Prestamo, error)
	ObtenerPrestamoPorID(ctx context.Context, id int64) (domain.Prestamo, error)
	ActualizarDevolucion(ctx context.Context, id int64, devoluciones []domain.DevolucionItem, cerrar bool) (domain.Prestamo, string, error)
	ReporteMorosos(ctx context.Context) ([]domain.ReporteMoroso, error)
	Estadisticas(ctx context.Context, fechaInicio, fechaFin *time.Time) (domain.EstadisticasPrestamos, error)
}

// Handler agrupa los endpoints de préstamos.
type Handler struct {
	service PrestamoService
	respond *respond.Writer
	logger  logger.Logger
}

// NewHandler crea el handler de préstamos.
func NewHandler(service PrestamoService, respond *respond.Writer, logger logger.Logger) *Handler {
	return &Handler{service: service, respond: respond, logger: logger}
}

// Crear atiende POST /api/prestamos.
func (h *Handler) Crear(w http.ResponseWriter, r *http.Request) {
	var nuevo domain.NuevoPrestamo
	if err := json.NewDecoder(r.Body).Decode(&nuevo); err != nil {
		h.respond.Error(w, r, apperror.NewValidationError("Cuerpo de la petición inválido"))
		return
	}

	v := validation.Nuevo()
	v.IDPositivo("trabajadorId", nuevo.TrabajadorID, "El trabajadorId es obligatorio")
	if len(nuevo.Items) == 0 {
		v.Campo("items", "Debe incluir al menos un ítem en el préstamo")
	}
	for i, item := range nuevo.Items {
		if item.Nombre == "" {
			v.CampoIndice("items", i, "nombre", "El nombre del ítem es obligatorio")
		}
		if item.CantidadPrestada < 1 {
			v.CampoIndice("items", i, "cantidadPrestada", "La cantidad prestada debe ser mayor a cero")
		}
	}
	if v.TieneErrores() {
		h.respond.Error(w, r, apperror.NewCamposError(v.Errores()))
		return
	}

	prestamo, err := h.service.CrearPrestamo(r.Context(), nuevo)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusCreated, prestamo)
}

// Listar atiende GET /api/prestamos con filtros opcionales por estado,
// trabajador y rango de fechas de entrega.
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v := validation.Nuevo()

	estado := q.Get("estado")
	v.EnumOpcional("estado", estado, domain.EstadosValidos(), "Estado no válido")

	var trabajadorID int64
	if raw := q.Get("trabajadorId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			v.Campo("trabajadorId", "El trabajadorId debe ser un número positivo")
		} else {
			trabajadorID = id
		}
	}

	fechaInicio := v.FechaOpcional("fechaInicio", q.Get("fechaInicio"), "La fecha de inicio debe tener formato YYYY-MM-DD")
	fechaFin := v.FechaOpcional("fechaFin", q.Get("fechaFin"), "La fecha de fin debe tener formato YYYY-MM-DD")

	if v.TieneErrores() {
		h.respond.Error(w, r, apperror.NewCamposError(v.Errores()))
		return
	}

	prestamos, err := h.service.ObtenerPrestamos(r.Context(), domain.PrestamoFiltro{
		Estado:       domain.EstadoPrestamo(estado),
		TrabajadorID: trabajadorID,
		FechaInicio:  fechaInicio,
		FechaFin:     fechaFin,
	})
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, prestamos)
}

// Obtener atiende GET /api/prestamos/{id}.
func (h *Handler) Obtener(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	prestamo, err := h.service.ObtenerPrestamoPorID(r.Context(), id)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, prestamo)
}

// Devolucion atiende PUT /api/prestamos/{id}/devolucion: registra cantidades
// devueltas (valores absolutos) y opcionalmente cierra el préstamo.
func (h *Handler) Devolucion(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	var peticion struct {
		Items  []domain.DevolucionItem `json:"items"`
		Cerrar bool                    `json:"cerrarPrestamo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&peticion); err != nil {
		h.respond.Error(w, r, apperror.NewValidationError("Cuerpo de la petición inválido"))
		return
	}

	prestamo, mensaje, err := h.service.ActualizarDevolucion(r.Context(), id, peticion.Items, peticion.Cerrar)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, struct {
		Mensaje  string          `json:"mensaje"`
		Prestamo domain.Prestamo `json:"prestamo"`
	}{Mensaje: mensaje, Prestamo: prestamo})
}

// Morosos atiende GET /api/prestamos/reportes/morosos.
func (h *Handler) Morosos(w http.ResponseWriter, r *http.Request) {
	reporte, err := h.service.ReporteMorosos(r.Context())
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, reporte)
}

// Estadisticas atiende GET /api/prestamos/estadisticas con rango opcional.
func (h *Handler) Estadisticas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v := validation.Nuevo()
	fechaInicio := v.FechaOpcional("fechaInicio", q.Get("fechaInicio"), "La fecha de inicio debe tener formato YYYY-MM-DD")
	fechaFin := v.FechaOpcional("fechaFin", q.Get("fechaFin"), "La fecha de fin debe tener formato YYYY-MM-DD")
	if v.TieneErrores() {
		h.respond.Error(w, r, apperror.NewCamposError(v.Errores()))
		return
	}

	stats, err := h.service.Estadisticas(r.Context(), fechaInicio, fechaFin)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, stats)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.NewValidationError("El ID del préstamo debe ser un número positivo")
	}
	return id, nil
}
