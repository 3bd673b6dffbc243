package productorepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gobodega/internal/domain"
	apperror "gobodega/internal/errors"
	"gobodega/internal/pkg/cache"
	"gobodega/internal/pkg/logger"
)

// uniqueViolation es el código SQLSTATE de violación de restricción única.
const uniqueViolation = "23505"

// productoCacheKey es el formato de clave de cache para productos por id.
const productoCacheKey = "producto:%d"

// ProductoRepository implementa el acceso a datos del catálogo de productos,
// con estrategia cache-aside sobre Redis para las lecturas por id.
type ProductoRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	CacheTTL  time.Duration
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewProductoRepository crea y retorna una nueva instancia del repositorio.
func NewProductoRepository(db *sql.DB, cacheClient cache.Client, cacheTTL, dbTimeout time.Duration, logger logger.Logger) *ProductoRepository {
	return &ProductoRepository{
		DB:        db,
		Cache:     cacheClient,
		CacheTTL:  cacheTTL,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const columnasProducto = `id, codigo, nombre, cantidad, unidad_medida, clasificacion,
	COALESCE(subclasificacion, ''), COALESCE(ubicacion_estante, ''), fecha_registro`

// esCodigoDuplicado detecta la violación del índice único de código.
func esCodigoDuplicado(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}

// Crear inserta un nuevo producto. Un código repetido produce un error de
// validación, detectado por la restricción única del DB.
func (r *ProductoRepository) Crear(ctx context.Context, producto domain.Producto) (domain.Producto, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	err := r.DB.QueryRowContext(ctxTimeout, `
		INSERT INTO productos (codigo, nombre, cantidad, unidad_medida, clasificacion, subclasificacion, ubicacion_estante, fecha_registro)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NOW())
		RETURNING id, fecha_registro`,
		producto.Codigo, producto.Nombre, producto.Cantidad, producto.UnidadMedida,
		producto.Clasificacion, producto.Subclasificacion, producto.UbicacionEstante,
	).Scan(&producto.ID, &producto.FechaRegistro)

	if esCodigoDuplicado(err) {
		return domain.Producto{}, apperror.NewValidationError("Ya existe un producto con este código")
	}
	if err != nil {
		return domain.Producto{}, apperror.NewDBError("Falla al insertar el producto", err)
	}

	return producto, nil
}

// FindByID busca un producto por id con estrategia cache-aside.
func (r *ProductoRepository) FindByID(ctx context.Context, id int64) (domain.Producto, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productoCacheKey, id)
	var producto domain.Producto

	// 1. Intentar el cache. Una falla de cache nunca tumba la lectura: se
	//    degrada al DB.
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		if json.Unmarshal([]byte(cachedData), &producto) == nil {
			return producto, nil
		}
	} else if err != cache.ErrCacheMiss {
		r.logger.Warn("Falla al leer el cache de productos", map[string]interface{}{"error": err.Error()})
	}

	// 2. Buscar en el DB.
	err = r.DB.QueryRowContext(ctxTimeout,
		`SELECT `+columnasProducto+` FROM productos WHERE id = $1`, id,
	).Scan(&producto.ID, &producto.Codigo, &producto.Nombre, &producto.Cantidad,
		&producto.UnidadMedida, &producto.Clasificacion, &producto.Subclasificacion,
		&producto.UbicacionEstante, &producto.FechaRegistro)

	if err == sql.ErrNoRows {
		return domain.Producto{}, apperror.NewNotFoundError("Producto no encontrado")
	}
	if err != nil {
		return domain.Producto{}, apperror.NewDBError("Falla al buscar el producto", err)
	}

	// 3. Poblar el cache para próximas lecturas.
	if productoJSON, marshalErr := json.Marshal(producto); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, productoJSON, r.CacheTTL)
	}

	return producto, nil
}

// FindAll lista productos con búsqueda parcial por código o nombre y filtros
// exactos, ordenados por nombre ascendente.
func (r *ProductoRepository) FindAll(ctx context.Context, filtro domain.ProductoFiltro) ([]domain.Producto, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + columnasProducto + ` FROM productos WHERE 1=1`
	var args []interface{}

	if filtro.Busqueda != "" {
		args = append(args, "%"+filtro.Busqueda+"%")
		query += fmt.Sprintf(" AND (codigo ILIKE $%d OR nombre ILIKE $%d)", len(args), len(args))
	}
	if filtro.Clasificacion != "" {
		args = append(args, filtro.Clasificacion)
		query += fmt.Sprintf(" AND clasificacion = $%d", len(args))
	}
	if filtro.Subclasificacion != "" {
		args = append(args, filtro.Subclasificacion)
		query += fmt.Sprintf(" AND subclasificacion = $%d", len(args))
	}
	if filtro.Estante != "" {
		args = append(args, filtro.Estante)
		query += fmt.Sprintf(" AND ubicacion_estante = $%d", len(args))
	}

	query += " ORDER BY nombre ASC"

	return r.consultarProductos(ctxTimeout, query, args...)
}

// FindByEstante lista los productos de una ubicación de estante.
func (r *ProductoRepository) FindByEstante(ctx context.Context, estante string) ([]domain.Producto, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	return r.consultarProductos(ctxTimeout,
		`SELECT `+columnasProducto+` FROM productos WHERE ubicacion_estante = $1 ORDER BY nombre ASC`,
		estante)
}

// Actualizar persiste el producto completo (el servicio ya aplicó la
// actualización parcial) e invalida el cache.
func (r *ProductoRepository) Actualizar(ctx context.Context, producto domain.Producto) (domain.Producto, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `
		UPDATE productos
		SET codigo = $1, nombre = $2, cantidad = $3, unidad_medida = $4,
		    clasificacion = $5, subclasificacion = NULLIF($6, ''), ubicacion_estante = NULLIF($7, '')
		WHERE id = $8`,
		producto.Codigo, producto.Nombre, producto.Cantidad, producto.UnidadMedida,
		producto.Clasificacion, producto.Subclasificacion, producto.UbicacionEstante, producto.ID)

	if esCodigoDuplicado(err) {
		return domain.Producto{}, apperror.NewValidationError("Ya existe un producto con este código")
	}
	if err != nil {
		return domain.Producto{}, apperror.NewDBError("Falla al actualizar el producto", err)
	}

	afectadas, err := result.RowsAffected()
	if err != nil {
		return domain.Producto{}, apperror.NewDBError("Falla al verificar la actualización", err)
	}
	if afectadas == 0 {
		return domain.Producto{}, apperror.NewNotFoundError("Producto no encontrado")
	}

	r.invalidar(ctxTimeout, producto.ID)
	return producto, nil
}

// Eliminar borra físicamente un producto del catálogo.
func (r *ProductoRepository) Eliminar(ctx context.Context, id int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM productos WHERE id = $1`, id)
	if err != nil {
		return apperror.NewDBError("Falla al eliminar el producto", err)
	}

	afectadas, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falla al verificar la eliminación", err)
	}
	if afectadas == 0 {
		return apperror.NewNotFoundError("Producto no encontrado")
	}

	r.invalidar(ctxTimeout, id)
	return nil
}

// AjustarStock aplica una entrada o salida de stock dentro de una
// transacción, bloqueando la fila del producto. La salida que excede el stock
// disponible falla sin dejar la cantidad negativa.
func (r *ProductoRepository) AjustarStock(ctx context.Context, id int64, ajuste domain.AjusteStock) (domain.Producto, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Producto{}, apperror.NewDBError("Falla al iniciar la transacción", err)
	}
	defer tx.Rollback()

	var producto domain.Producto
	err = tx.QueryRowContext(ctxTimeout,
		`SELECT `+columnasProducto+` FROM productos WHERE id = $1 FOR UPDATE`, id,
	).Scan(&producto.ID, &producto.Codigo, &producto.Nombre, &producto.Cantidad,
		&producto.UnidadMedida, &producto.Clasificacion, &producto.Subclasificacion,
		&producto.UbicacionEstante, &producto.FechaRegistro)

	if err == sql.ErrNoRows {
		return domain.Producto{}, apperror.NewNotFoundError("Producto no encontrado")
	}
	if err != nil {
		return domain.Producto{}, apperror.NewDBError("Falla al buscar el producto", err)
	}

	nuevaCantidad := producto.Cantidad + ajuste.Cantidad
	if ajuste.Tipo == domain.MovimientoSalida {
		if producto.Cantidad < ajuste.Cantidad {
			return domain.Producto{}, apperror.NewStockInsuficienteError(producto.Cantidad, ajuste.Cantidad)
		}
		nuevaCantidad = producto.Cantidad - ajuste.Cantidad
	}

	err = tx.QueryRowContext(ctxTimeout, `
		UPDATE productos
		SET cantidad = $1, fecha_registro = NOW()
		WHERE id = $2
		RETURNING fecha_registro`,
		nuevaCantidad, id,
	).Scan(&producto.FechaRegistro)
	if err != nil {
		return domain.Producto{}, apperror.NewDBError("Falla al actualizar el stock", err)
	}
	producto.Cantidad = nuevaCantidad

	if err := tx.Commit(); err != nil {
		return domain.Producto{}, apperror.NewDBError("Falla al confirmar la transacción", err)
	}

	r.invalidar(ctxTimeout, id)
	r.logger.Info("Stock ajustado", map[string]interface{}{
		"producto_id":    id,
		"tipo":           ajuste.Tipo,
		"cantidad":       ajuste.Cantidad,
		"nueva_cantidad": nuevaCantidad,
	})
	return producto, nil
}

// Estadisticas agrega los indicadores del inventario de productos.
func (r *ProductoRepository) Estadisticas(ctx context.Context) (domain.EstadisticasInventario, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var stats domain.EstadisticasInventario

	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT COUNT(*), COALESCE(SUM(cantidad), 0) FROM productos`,
	).Scan(&stats.TotalProductos, &stats.TotalStock)
	if err != nil {
		return stats, apperror.NewDBError("Falla al totalizar el inventario", err)
	}

	rows, err := r.DB.QueryContext(ctxTimeout, `
		SELECT clasificacion, COUNT(*)
		FROM productos
		GROUP BY clasificacion
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return stats, apperror.NewDBError("Falla al contar productos por clasificación", err)
	}
	for rows.Next() {
		var c domain.ConteoClasificacion
		if err := rows.Scan(&c.Clasificacion, &c.Cantidad); err != nil {
			rows.Close()
			return stats, apperror.NewDBError("Falla al leer el conteo por clasificación", err)
		}
		stats.ProductosPorClasificacion = append(stats.ProductosPorClasificacion, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, apperror.NewDBError("Falla al leer el conteo por clasificación", err)
	}

	// Productos con stock bajo: menos de cinco unidades, máximo diez filas.
	bajos, err := r.consultarProductos(ctxTimeout,
		`SELECT `+columnasProducto+` FROM productos WHERE cantidad < 5 ORDER BY cantidad ASC LIMIT 10`)
	if err != nil {
		return stats, err
	}
	stats.StockBajo = domain.StockBajo{Cantidad: len(bajos), Productos: bajos}

	return stats, nil
}

// invalidar elimina la entrada de cache del producto tras una mutación.
func (r *ProductoRepository) invalidar(ctx context.Context, id int64) {
	if err := r.Cache.Delete(ctx, fmt.Sprintf(productoCacheKey, id)); err != nil {
		r.logger.Warn("Falla al invalidar el cache del producto", map[string]interface{}{
			"producto_id": id,
			"error":       err.Error(),
		})
	}
}

// consultarProductos ejecuta un query de productos y mapea las filas.
func (r *ProductoRepository) consultarProductos(ctx context.Context, query string, args ...interface{}) ([]domain.Producto, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewDBError("Falla al consultar los productos", err)
	}
	defer rows.Close()

	productos := []domain.Producto{}
	for rows.Next() {
		var p domain.Producto
		if err := rows.Scan(&p.ID, &p.Codigo, &p.Nombre, &p.Cantidad,
			&p.UnidadMedida, &p.Clasificacion, &p.Subclasificacion,
			&p.UbicacionEstante, &p.FechaRegistro); err != nil {
			return nil, apperror.NewDBError("Falla al leer los productos", err)
		}
		productos = append(productos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falla al leer los productos", err)
	}

	return productos, nil
}
