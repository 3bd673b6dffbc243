package productoservice

import (
	"context"
	"fmt"

	"gobodega/internal/domain"
	apperror "gobodega/internal/errors"
	"gobodega/internal/pkg/logger"
)

// ProductoRepository define el contrato que el servicio de inventario espera
// de la capa de persistencia.
type ProductoRepository interface {
	Crear(ctx context.Context, producto domain.Producto) (domain.Producto, error)
	FindByID(ctx context.Context, id int64) (domain.Producto, error)
	FindAll(ctx context.Context, filtro domain.ProductoFiltro) ([]domain.Producto, error)
	FindByEstante(ctx context.Context, estante string) ([]domain.Producto, error)
	Actualizar(ctx context.Context, producto domain.Producto) (domain.Producto, error)
	Eliminar(ctx context.Context, id int64) error
	AjustarStock(ctx context.Context, id int64, ajuste domain.AjusteStock) (domain.Producto, error)
	Estadisticas(ctx context.Context) (domain.EstadisticasInventario, error)
}

// Service orquesta las operaciones sobre el catálogo y el stock de productos.
type Service struct {
	repo   ProductoRepository
	logger logger.Logger
}

// NewService crea el servicio de productos.
func NewService(repo ProductoRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CrearProducto valida y da de alta un producto en el catálogo.
func (s *Service) CrearProducto(ctx context.Context, producto domain.Producto) (domain.Producto, error) {
	if err := validarProducto(producto); err != nil {
		return domain.Producto{}, err
	}
	creado, err := s.repo.Crear(ctx, producto)
	if err != nil {
		return domain.Producto{}, err
	}
	s.logger.Info("Producto creado", map[string]interface{}{
		"producto_id": creado.ID,
		"codigo":      creado.Codigo,
	})
	return creado, nil
}

// ObtenerProductos lista el catálogo aplicando el filtro de búsqueda.
func (s *Service) ObtenerProductos(ctx context.Context, filtro domain.ProductoFiltro) ([]domain.Producto, error) {
	return s.repo.FindAll(ctx, filtro)
}

// ObtenerProductoPorID recupera un producto del catálogo.
func (s *Service) ObtenerProductoPorID(ctx context.Context, id int64) (domain.Producto, error) {
	if id < 1 {
		return domain.Producto{}, apperror.NewValidationError("El ID del producto debe ser un número positivo")
	}
	return s.repo.FindByID(ctx, id)
}

// ObtenerProductosPorEstante lista los productos almacenados en un estante.
func (s *Service) ObtenerProductosPorEstante(ctx context.Context, estante string) ([]domain.Producto, error) {
	if estante == "" {
		return nil, apperror.NewValidationError("El estante es obligatorio")
	}
	productos, err := s.repo.FindByEstante(ctx, estante)
	if err != nil {
		return nil, err
	}
	if len(productos) == 0 {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("No se encontraron productos en el estante %s", estante))
	}
	return productos, nil
}

// ActualizarProducto aplica los campos presentes de la actualización sobre el
// producto existente. Los campos ausentes conservan su valor.
func (s *Service) ActualizarProducto(ctx context.Context, id int64, cambios domain.ActualizacionProducto) (domain.Producto, error) {
	if id < 1 {
		return domain.Producto{}, apperror.NewValidationError("El ID del producto debe ser un número positivo")
	}
	producto, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Producto{}, err
	}

	if cambios.Codigo != nil {
		producto.Codigo = *cambios.Codigo
	}
	if cambios.Nombre != nil {
		producto.Nombre = *cambios.Nombre
	}
	if cambios.Cantidad != nil {
		producto.Cantidad = *cambios.Cantidad
	}
	if cambios.UnidadMedida != nil {
		producto.UnidadMedida = *cambios.UnidadMedida
	}
	if cambios.Clasificacion != nil {
		producto.Clasificacion = *cambios.Clasificacion
	}
	if cambios.Subclasificacion != nil {
		producto.Subclasificacion = *cambios.Subclasificacion
	}
	if cambios.UbicacionEstante != nil {
		producto.UbicacionEstante = *cambios.UbicacionEstante
	}

	if err := validarProducto(producto); err != nil {
		return domain.Producto{}, err
	}
	return s.repo.Actualizar(ctx, producto)
}

// EliminarProducto borra definitivamente un producto del catálogo.
func (s *Service) EliminarProducto(ctx context.Context, id int64) error {
	if id < 1 {
		return apperror.NewValidationError("El ID del producto debe ser un número positivo")
	}
	if err := s.repo.Eliminar(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Producto eliminado", map[string]interface{}{"producto_id": id})
	return nil
}

// AjustarStock registra una entrada o salida de stock y devuelve el producto
// actualizado junto con el mensaje de confirmación.
func (s *Service) AjustarStock(ctx context.Context, id int64, ajuste domain.AjusteStock) (domain.Producto, string, error) {
	if id < 1 {
		return domain.Producto{}, "", apperror.NewValidationError("El ID del producto debe ser un número positivo")
	}
	if !ajuste.Tipo.EsValido() {
		return domain.Producto{}, "", apperror.NewValidationError(`Tipo de operación no válido. Use "entrada" o "salida"`)
	}
	if ajuste.Cantidad <= 0 {
		return domain.Producto{}, "", apperror.NewValidationError("La cantidad debe ser un número positivo")
	}

	producto, err := s.repo.AjustarStock(ctx, id, ajuste)
	if err != nil {
		return domain.Producto{}, "", err
	}

	mensaje := fmt.Sprintf("Stock actualizado correctamente (%s de %d %s)", ajuste.Tipo, ajuste.Cantidad, producto.UnidadMedida)
	s.logger.Info("Stock ajustado", map[string]interface{}{
		"producto_id": producto.ID,
		"tipo":        string(ajuste.Tipo),
		"cantidad":    ajuste.Cantidad,
		"nuevo_stock": producto.Cantidad,
	})
	return producto, mensaje, nil
}

// Estadisticas agrega los indicadores del inventario.
func (s *Service) Estadisticas(ctx context.Context) (domain.EstadisticasInventario, error) {
	return s.repo.Estadisticas(ctx)
}

func validarProducto(producto domain.Producto) error {
	campos := map[string]string{}
	if producto.Codigo == "" {
		campos["codigo"] = "El código es obligatorio"
	}
	if producto.Nombre == "" {
		campos["nombre"] = "El nombre es obligatorio"
	}
	if producto.UnidadMedida == "" {
		campos["unidadMedida"] = "La unidad de medida es obligatoria"
	}
	if producto.Clasificacion == "" {
		campos["clasificacion"] = "La clasificación es obligatoria"
	}
	if producto.Cantidad < 0 {
		campos["cantidad"] = "La cantidad no puede ser negativa"
	}
	if len(campos) > 0 {
		return apperror.NewCamposError(campos)
	}
	return nil
}
