package producto

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

// ProductoService define el contrato que el handler espera de la capa de servicio.
type ProductoService interface {
	CrearProducto(ctx context.Context, producto domain.Producto) (domain.Producto, error)
	ObtenerProductos(ctx context.Context, filtro domain.ProductoFiltro) ([]domain.Producto, error)
	ObtenerProductoPorID(ctx context.Context, id int64) (domain.Producto, error)
	ObtenerProductosPorEstante(ctx context.Context, estante string) ([]domain.Producto, error)
	ActualizarProducto(ctx context.Context, id int64, cambios domain.ActualizacionProducto) (domain.Producto, error)
	EliminarProducto(ctx context.Context, id int64) error
	AjustarStock(ctx context.Context, id int64, ajuste domain.AjusteStock) (domain.Producto, string, error)
	Estadisticas(ctx context.Context) (domain.EstadisticasInventario, error)
}

// Handler agrupa los endpoints del catálogo de productos.
type Handler struct {
	service ProductoService
	respond *respond.Writer
	logger  logger.Logger
}

// NewHandler crea el handler de productos.
func NewHandler(service ProductoService, respond *respond.Writer, logger logger.Logger) *Handler {
	return &Handler{service: service, respond: respond, logger: logger}
}

// Crear atiende POST /api/productos.
func (h *Handler) Crear(w http.ResponseWriter, r *http.Request) {
	var producto domain.Producto
	if err := json.NewDecoder(r.Body).Decode(&producto); err != nil {
		h.respond.Error(w, r, apperror.NewValidationError("Cuerpo de la petición inválido"))
		return
	}

	v := validation.Nuevo()
	v.Requerido("codigo", producto.Codigo, "El código es obligatorio")
	v.Requerido("nombre", producto.Nombre, "El nombre es obligatorio")
	v.Requerido("unidadMedida", producto.UnidadMedida, "La unidad de medida es obligatoria")
	v.Requerido("clasificacion", producto.Clasificacion, "La clasificación es obligatoria")
	v.EnteroMinimo("cantidad", producto.Cantidad, 0, "La cantidad no puede ser negativa")
	if v.TieneErrores() {
		h.respond.Error(w, r, apperror.NewCamposError(v.Errores()))
		return
	}

	creado, err := h.service.CrearProducto(r.Context(), producto)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusCreated, creado)
}

// Listar atiende GET /api/productos con búsqueda y filtros opcionales.
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productos, err := h.service.ObtenerProductos(r.Context(), domain.ProductoFiltro{
		Busqueda:         q.Get("busqueda"),
		Clasificacion:    q.Get("clasificacion"),
		Subclasificacion: q.Get("subclasificacion"),
		Estante:          q.Get("estante"),
	})
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, productos)
}

// Obtener atiende GET /api/productos/{id}.
func (h *Handler) Obtener(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	producto, err := h.service.ObtenerProductoPorID(r.Context(), id)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, producto)
}

// PorEstante atiende GET /api/productos/estante/{estante}.
func (h *Handler) PorEstante(w http.ResponseWriter, r *http.Request) {
	productos, err := h.service.ObtenerProductosPorEstante(r.Context(), r.PathValue("estante"))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, productos)
}

// Actualizar atiende PUT /api/productos/{id}: actualización parcial, los
// campos ausentes del payload conservan su valor.
func (h *Handler) Actualizar(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	var cambios domain.ActualizacionProducto
	if err := json.NewDecoder(r.Body).Decode(&cambios); err != nil {
		h.respond.Error(w, r, apperror.NewValidationError("Cuerpo de la petición inválido"))
		return
	}

	actualizado, err := h.service.ActualizarProducto(r.Context(), id, cambios)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, actualizado)
}

// Eliminar atiende DELETE /api/productos/{id}.
func (h *Handler) Eliminar(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	if err := h.service.EliminarProducto(r.Context(), id); err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, struct {
		Mensaje string `json:"mensaje"`
	}{Mensaje: "Producto eliminado correctamente"})
}

// AjustarStock atiende POST /api/productos/{id}/stock: registra una entrada o
// salida sobre la cantidad actual.
func (h *Handler) AjustarStock(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	var ajuste domain.AjusteStock
	if err := json.NewDecoder(r.Body).Decode(&ajuste); err != nil {
		h.respond.Error(w, r, apperror.NewValidationError("Cuerpo de la petición inválido"))
		return
	}

	producto, mensaje, err := h.service.AjustarStock(r.Context(), id, ajuste)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, struct {
		Mensaje  string          `json:"mensaje"`
		Producto domain.Producto `json:"producto"`
	}{Mensaje: mensaje, Producto: producto})
}

// Estadisticas atiende GET /api/productos/estadisticas.
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
		return 0, apperror.NewValidationError("El ID del producto debe ser un número positivo")
	}
	return id, nil
}
