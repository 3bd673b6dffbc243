package prestamorepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gobodega/internal/domain"
	apperror "gobodega/internal/errors"
	"gobodega/internal/pkg/logger"
)

// PrestamoRepository implementa el acceso a datos del agregado Prestamo.
// Cada operación de escritura corre dentro de una única transacción con
// commit-al-éxito / rollback-ante-cualquier-error, incluidas las fallas de
// reglas de negocio detectadas a mitad de la transacción.
type PrestamoRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewPrestamoRepository crea y retorna una nueva instancia del repositorio.
func NewPrestamoRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *PrestamoRepository {
	return &PrestamoRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Crear persiste un préstamo junto a todos sus ítems de forma atómica.
// Falla con NotFound si el trabajador no existe o está inactivo; la
// verificación ocurre dentro de la misma transacción que las inserciones.
func (r *PrestamoRepository) Crear(ctx context.Context, nuevo domain.NuevoPrestamo) (domain.Prestamo, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Prestamo{}, apperror.NewDBError("Falla al iniciar la transacción", err)
	}
	defer tx.Rollback()

	// 1. Verificar que el trabajador existe y está activo.
	var trabajador domain.TrabajadorResumen
	err = tx.QueryRowContext(ctxTimeout,
		`SELECT id, codigo, nombre FROM trabajadores WHERE id = $1 AND activo = true`,
		nuevo.TrabajadorID,
	).Scan(&trabajador.ID, &trabajador.Codigo, &trabajador.Nombre)

	if err == sql.ErrNoRows {
		return domain.Prestamo{}, apperror.NewNotFoundError("Trabajador no encontrado o inactivo")
	}
	if err != nil {
		return domain.Prestamo{}, apperror.NewDBError("Falla al verificar el trabajador", err)
	}

	// 2. Insertar el préstamo en estado inicial.
	prestamo := domain.Prestamo{
		TrabajadorID:  nuevo.TrabajadorID,
		Trabajador:    trabajador,
		Estado:        domain.EstadoPendiente,
		Observaciones: nuevo.Observaciones,
	}

	err = tx.QueryRowContext(ctxTimeout,
		`INSERT INTO prestamos_herramientas (trabajador_id, fecha_entrega, estado, observaciones)
		 VALUES ($1, NOW(), $2, $3)
		 RETURNING id, fecha_entrega`,
		nuevo.TrabajadorID, domain.EstadoPendiente, nuevo.Observaciones,
	).Scan(&prestamo.ID, &prestamo.FechaEntrega)
	if err != nil {
		return domain.Prestamo{}, apperror.NewDBError("Falla al insertar el préstamo", err)
	}

	// 3. Insertar los ítems. Cualquier falla aborta toda la escritura: no
	//    quedan préstamos parciales ni ítems huérfanos.
	for _, it := range nuevo.Items {
		item := domain.ItemPrestamo{
			Nombre:            it.Nombre,
			CantidadPrestada:  it.CantidadPrestada,
			CantidadDevuelta:  0,
			ComentarioDetalle: it.ComentarioDetalle,
			PrestamoID:        prestamo.ID,
		}
		err = tx.QueryRowContext(ctxTimeout,
			`INSERT INTO items_prestamo (prestamo_id, nombre, cantidad_prestada, cantidad_devuelta, comentario_detalle)
			 VALUES ($1, $2, $3, 0, $4)
			 RETURNING id`,
			prestamo.ID, it.Nombre, it.CantidadPrestada, it.ComentarioDetalle,
		).Scan(&item.ID)
		if err != nil {
			return domain.Prestamo{}, apperror.NewDBError("Falla al insertar los ítems del préstamo", err)
		}
		prestamo.Items = append(prestamo.Items, item)
	}

	if err = tx.Commit(); err != nil {
		return domain.Prestamo{}, apperror.NewDBError("Falla al confirmar la transacción", err)
	}

	r.logger.Info("Préstamo creado", map[string]interface{}{
		"prestamo_id":   prestamo.ID,
		"trabajador_id": prestamo.TrabajadorID,
		"items":         len(prestamo.Items),
	})
	return prestamo, nil
}

// FindByID busca un préstamo por id con su trabajador e ítems. No aplica el
// filtro de trabajador activo: la búsqueda directa siempre resuelve.
func (r *PrestamoRepository) FindByID(ctx context.Context, id int64) (domain.Prestamo, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	prestamo, err := r.scanPrestamo(r.DB.QueryRowContext(ctxTimeout, `
		SELECT p.id, p.trabajador_id, p.fecha_entrega, p.fecha_devolucion_final,
		       p.estado, p.observaciones, t.id, t.codigo, t.nombre
		FROM prestamos_herramientas p
		JOIN trabajadores t ON t.id = p.trabajador_id
		WHERE p.id = $1`, id))
	if err == sql.ErrNoRows {
		return domain.Prestamo{}, apperror.NewNotFoundError("Préstamo no encontrado")
	}
	if err != nil {
		return domain.Prestamo{}, apperror.NewDBError("Falla al buscar el préstamo", err)
	}

	items, err := r.cargarItems(ctxTimeout, []int64{prestamo.ID})
	if err != nil {
		return domain.Prestamo{}, err
	}
	prestamo.Items = items[prestamo.ID]

	return prestamo, nil
}

// FindAll lista préstamos filtrando por estado, trabajador y rango de fechas
// de entrega. Solo retorna préstamos de trabajadores activos, ordenados por
// fecha de entrega descendente.
func (r *PrestamoRepository) FindAll(ctx context.Context, filtro domain.PrestamoFiltro) ([]domain.Prestamo, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
		SELECT p.id, p.trabajador_id, p.fecha_entrega, p.fecha_devolucion_final,
		       p.estado, p.observaciones, t.id, t.codigo, t.nombre
		FROM prestamos_herramientas p
		JOIN trabajadores t ON t.id = p.trabajador_id AND t.activo = true
		WHERE 1=1`
	var args []interface{}

	if filtro.Estado != "" {
		args = append(args, filtro.Estado)
		query += fmt.Sprintf(" AND p.estado = $%d", len(args))
	}
	if filtro.TrabajadorID > 0 {
		args = append(args, filtro.TrabajadorID)
		query += fmt.Sprintf(" AND p.trabajador_id = $%d", len(args))
	}
	if filtro.FechaInicio != nil {
		args = append(args, *filtro.FechaInicio)
		query += fmt.Sprintf(" AND p.fecha_entrega >= $%d", len(args))
	}
	if filtro.FechaFin != nil {
		// Sumar un día completo para que la fecha de fin sea inclusiva.
		args = append(args, filtro.FechaFin.AddDate(0, 0, 1))
		query += fmt.Sprintf(" AND p.fecha_entrega < $%d", len(args))
	}

	query += " ORDER BY p.fecha_entrega DESC"

	return r.consultarPrestamos(ctxTimeout, query, args...)
}

// FindByTrabajador lista los préstamos de un trabajador, con filtro opcional
// de estado, sin exigir que el trabajador siga activo.
func (r *PrestamoRepository) FindByTrabajador(ctx context.Context, trabajadorID int64, estado domain.EstadoPrestamo) ([]domain.Prestamo, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
		SELECT p.id, p.trabajador_id, p.fecha_entrega, p.fecha_devolucion_final,
		       p.estado, p.observaciones, t.id, t.codigo, t.nombre
		FROM prestamos_herramientas p
		JOIN trabajadores t ON t.id = p.trabajador_id
		WHERE p.trabajador_id = $1`
	args := []interface{}{trabajadorID}

	if estado != "" {
		args = append(args, estado)
		query += fmt.Sprintf(" AND p.estado = $%d", len(args))
	}
	query += " ORDER BY p.fecha_entrega DESC"

	return r.consultarPrestamos(ctxTimeout, query, args...)
}

// ActualizarDevolucion ejecuta la reconciliación de devoluciones dentro de
// una única transacción: carga el agregado con bloqueo de fila, aplica las
// cantidades vía las reglas del dominio, y cierra el préstamo si se solicitó.
func (r *PrestamoRepository) ActualizarDevolucion(ctx context.Context, id int64, devoluciones []domain.DevolucionItem, cerrar bool) (domain.Prestamo, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Prestamo{}, apperror.NewDBError("Falla al iniciar la transacción", err)
	}
	defer tx.Rollback()

	// 1. Cargar el préstamo con bloqueo de fila.
	var prestamo domain.Prestamo
	var fechaFinal sql.NullTime
	err = tx.QueryRowContext(ctxTimeout, `
		SELECT id, trabajador_id, fecha_entrega, fecha_devolucion_final, estado, observaciones
		FROM prestamos_herramientas
		WHERE id = $1
		FOR UPDATE`, id,
	).Scan(&prestamo.ID, &prestamo.TrabajadorID, &prestamo.FechaEntrega,
		&fechaFinal, &prestamo.Estado, &prestamo.Observaciones)

	if err == sql.ErrNoRows {
		return domain.Prestamo{}, apperror.NewNotFoundError("Préstamo no encontrado")
	}
	if err != nil {
		return domain.Prestamo{}, apperror.NewDBError("Falla al buscar el préstamo", err)
	}
	if fechaFinal.Valid {
		prestamo.FechaDevolucionFinal = &fechaFinal.Time
	}

	err = tx.QueryRowContext(ctxTimeout,
		`SELECT id, codigo, nombre FROM trabajadores WHERE id = $1`,
		prestamo.TrabajadorID,
	).Scan(&prestamo.Trabajador.ID, &prestamo.Trabajador.Codigo, &prestamo.Trabajador.Nombre)
	if err != nil {
		return domain.Prestamo{}, apperror.NewDBError("Falla al buscar el trabajador del préstamo", err)
	}

	// 2. Cargar los ítems con bloqueo de fila.
	rows, err := tx.QueryContext(ctxTimeout, `
		SELECT id, nombre, cantidad_prestada, cantidad_devuelta, comentario_detalle, prestamo_id
		FROM items_prestamo
		WHERE prestamo_id = $1
		ORDER BY id
		FOR UPDATE`, id)
	if err != nil {
		return domain.Prestamo{}, apperror.NewDBError("Falla al buscar los ítems del préstamo", err)
	}
	for rows.Next() {
		var item domain.ItemPrestamo
		if err := rows.Scan(&item.ID, &item.Nombre, &item.CantidadPrestada,
			&item.CantidadDevuelta, &item.ComentarioDetalle, &item.PrestamoID); err != nil {
			rows.Close()
			return domain.Prestamo{}, apperror.NewDBError("Falla al leer los ítems del préstamo", err)
		}
		prestamo.Items = append(prestamo.Items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.Prestamo{}, apperror.NewDBError("Falla al leer los ítems del préstamo", err)
	}

	// 3. Aplicar las reglas del dominio sobre el agregado. Cualquier entrada
	//    inválida retorna antes de persistir nada: el rollback diferido
	//    garantiza que no queda ítem alguno mutado.
	if err := prestamo.AplicarDevoluciones(devoluciones); err != nil {
		return domain.Prestamo{}, err
	}

	// 4. Persistir las cantidades actualizadas.
	for _, dev := range devoluciones {
		if _, err := tx.ExecContext(ctxTimeout,
			`UPDATE items_prestamo SET cantidad_devuelta = $1 WHERE id = $2`,
			dev.CantidadDevuelta, dev.ID); err != nil {
			return domain.Prestamo{}, apperror.NewDBError("Falla al actualizar la devolución del ítem", err)
		}
	}

	// 5. Cierre o transición de estado.
	if cerrar {
		if err := prestamo.Cerrar(time.Now().UTC()); err != nil {
			return domain.Prestamo{}, err
		}
		if _, err := tx.ExecContext(ctxTimeout,
			`UPDATE prestamos_herramientas SET estado = $1, fecha_devolucion_final = $2 WHERE id = $3`,
			prestamo.Estado, *prestamo.FechaDevolucionFinal, prestamo.ID); err != nil {
			return domain.Prestamo{}, apperror.NewDBError("Falla al cerrar el préstamo", err)
		}
	} else if prestamo.Estado == domain.EstadoPendiente {
		// Primera devolución parcial: el préstamo pasa a en_progreso.
		prestamo.Estado = domain.EstadoEnProgreso
		if _, err := tx.ExecContext(ctxTimeout,
			`UPDATE prestamos_herramientas SET estado = $1 WHERE id = $2`,
			prestamo.Estado, prestamo.ID); err != nil {
			return domain.Prestamo{}, apperror.NewDBError("Falla al actualizar el estado del préstamo", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Prestamo{}, apperror.NewDBError("Falla al confirmar la transacción", err)
	}

	r.logger.Info("Devolución registrada", map[string]interface{}{
		"prestamo_id": prestamo.ID,
		"cerrado":     cerrar,
	})
	return prestamo, nil
}

// Morosos retorna las filas planas del reporte de morosos: ítems con
// devolución incompleta de préstamos abiertos de trabajadores activos,
// ordenados por nombre de trabajador y fecha de entrega ascendentes.
func (r *PrestamoRepository) Morosos(ctx context.Context) ([]domain.FilaMoroso, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `
		SELECT t.id, t.codigo, t.nombre,
		       i.id, i.nombre, i.cantidad_prestada, i.cantidad_devuelta,
		       i.comentario_detalle, p.fecha_entrega
		FROM prestamos_herramientas p
		JOIN trabajadores t ON t.id = p.trabajador_id AND t.activo = true
		JOIN items_prestamo i ON i.prestamo_id = p.id AND i.cantidad_devuelta < i.cantidad_prestada
		WHERE p.estado = ANY($1)
		ORDER BY t.nombre ASC, p.fecha_entrega ASC, i.id ASC`,
		pq.Array([]domain.EstadoPrestamo{domain.EstadoPendiente, domain.EstadoEnProgreso}))
	if err != nil {
		return nil, apperror.NewDBError("Falla al consultar los morosos", err)
	}
	defer rows.Close()

	var filas []domain.FilaMoroso
	for rows.Next() {
		var f domain.FilaMoroso
		if err := rows.Scan(&f.Trabajador.ID, &f.Trabajador.Codigo, &f.Trabajador.Nombre,
			&f.Item.ID, &f.Item.Nombre, &f.Item.CantidadPrestada, &f.Item.CantidadDevuelta,
			&f.Item.ComentarioDetalle, &f.Item.FechaPrestamo); err != nil {
			return nil, apperror.NewDBError("Falla al leer las filas de morosos", err)
		}
		f.Item.Pendiente = f.Item.CantidadPrestada - f.Item.CantidadDevuelta
		filas = append(filas, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falla al leer las filas de morosos", err)
	}

	return filas, nil
}

// Estadisticas agrega los indicadores de préstamos dentro de un rango
// opcional de fechas de entrega (fin inclusivo por día calendario).
func (r *PrestamoRepository) Estadisticas(ctx context.Context, fechaInicio, fechaFin *time.Time) (domain.EstadisticasPrestamos, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	condicion := " WHERE 1=1"
	var args []interface{}
	if fechaInicio != nil {
		args = append(args, *fechaInicio)
		condicion += fmt.Sprintf(" AND p.fecha_entrega >= $%d", len(args))
	}
	if fechaFin != nil {
		args = append(args, fechaFin.AddDate(0, 0, 1))
		condicion += fmt.Sprintf(" AND p.fecha_entrega < $%d", len(args))
	}

	var stats domain.EstadisticasPrestamos

	// 1. Conteo de préstamos por estado.
	rows, err := r.DB.QueryContext(ctxTimeout,
		`SELECT p.estado, COUNT(*) FROM prestamos_herramientas p`+condicion+` GROUP BY p.estado`, args...)
	if err != nil {
		return stats, apperror.NewDBError("Falla al contar préstamos por estado", err)
	}
	for rows.Next() {
		var c domain.ConteoEstado
		if err := rows.Scan(&c.Estado, &c.Total); err != nil {
			rows.Close()
			return stats, apperror.NewDBError("Falla al leer el conteo por estado", err)
		}
		stats.ConteoPorEstado = append(stats.ConteoPorEstado, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, apperror.NewDBError("Falla al leer el conteo por estado", err)
	}

	// 2. Préstamos abiertos: total y los cinco más antiguos.
	argsAbiertos := append(append([]interface{}{}, args...), pq.Array(domain.EstadosAbiertos))
	estadoAbierto := fmt.Sprintf(" AND p.estado = ANY($%d)", len(argsAbiertos))

	err = r.DB.QueryRowContext(ctxTimeout,
		`SELECT COUNT(*) FROM prestamos_herramientas p`+condicion+estadoAbierto, argsAbiertos...,
	).Scan(&stats.PrestamosAbiertos.Total)
	if err != nil {
		return stats, apperror.NewDBError("Falla al contar los préstamos abiertos", err)
	}

	detalles, err := r.consultarPrestamos(ctxTimeout, `
		SELECT p.id, p.trabajador_id, p.fecha_entrega, p.fecha_devolucion_final,
		       p.estado, p.observaciones, t.id, t.codigo, t.nombre
		FROM prestamos_herramientas p
		JOIN trabajadores t ON t.id = p.trabajador_id`+condicion+estadoAbierto+`
		ORDER BY p.fecha_entrega ASC
		LIMIT 5`, argsAbiertos...)
	if err != nil {
		return stats, err
	}
	stats.PrestamosAbiertos.Detalles = detalles

	// 3. Totales de ítems prestados y devueltos en el rango.
	err = r.DB.QueryRowContext(ctxTimeout, `
		SELECT COALESCE(SUM(i.cantidad_prestada), 0), COALESCE(SUM(i.cantidad_devuelta), 0)
		FROM items_prestamo i
		JOIN prestamos_herramientas p ON p.id = i.prestamo_id`+condicion, args...,
	).Scan(&stats.TotalItems.Prestados, &stats.TotalItems.Devueltos)
	if err != nil {
		return stats, apperror.NewDBError("Falla al sumar los ítems del período", err)
	}
	stats.TotalItems.Pendientes = stats.TotalItems.Prestados - stats.TotalItems.Devueltos

	return stats, nil
}

// --- Helpers de lectura ---

// rowScanner permite que scanPrestamo sirva tanto para QueryRow como para Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanPrestamo mapea una fila préstamo+trabajador a la struct del dominio.
func (r *PrestamoRepository) scanPrestamo(row rowScanner) (domain.Prestamo, error) {
	var p domain.Prestamo
	var fechaFinal sql.NullTime

	err := row.Scan(&p.ID, &p.TrabajadorID, &p.FechaEntrega, &fechaFinal,
		&p.Estado, &p.Observaciones,
		&p.Trabajador.ID, &p.Trabajador.Codigo, &p.Trabajador.Nombre)
	if err != nil {
		return domain.Prestamo{}, err
	}
	if fechaFinal.Valid {
		p.FechaDevolucionFinal = &fechaFinal.Time
	}
	return p, nil
}

// consultarPrestamos ejecuta un query de préstamos y ensambla los agregados
// completos, cargando los ítems de todos los préstamos en un solo viaje.
func (r *PrestamoRepository) consultarPrestamos(ctx context.Context, query string, args ...interface{}) ([]domain.Prestamo, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewDBError("Falla al consultar los préstamos", err)
	}
	defer rows.Close()

	prestamos := []domain.Prestamo{}
	var ids []int64
	for rows.Next() {
		p, err := r.scanPrestamo(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falla al leer los préstamos", err)
		}
		prestamos = append(prestamos, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falla al leer los préstamos", err)
	}

	if len(ids) == 0 {
		return prestamos, nil
	}

	items, err := r.cargarItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range prestamos {
		prestamos[i].Items = items[prestamos[i].ID]
	}

	return prestamos, nil
}

// cargarItems trae los ítems de un conjunto de préstamos agrupados por id.
func (r *PrestamoRepository) cargarItems(ctx context.Context, prestamoIDs []int64) (map[int64][]domain.ItemPrestamo, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, nombre, cantidad_prestada, cantidad_devuelta, comentario_detalle, prestamo_id
		FROM items_prestamo
		WHERE prestamo_id = ANY($1)
		ORDER BY id`, pq.Array(prestamoIDs))
	if err != nil {
		return nil, apperror.NewDBError("Falla al consultar los ítems de los préstamos", err)
	}
	defer rows.Close()

	items := make(map[int64][]domain.ItemPrestamo, len(prestamoIDs))
	for rows.Next() {
		var item domain.ItemPrestamo
		if err := rows.Scan(&item.ID, &item.Nombre, &item.CantidadPrestada,
			&item.CantidadDevuelta, &item.ComentarioDetalle, &item.PrestamoID); err != nil {
			return nil, apperror.NewDBError("Falla al leer los ítems de los préstamos", err)
		}
		items[item.PrestamoID] = append(items[item.PrestamoID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falla al leer los ítems de los préstamos", err)
	}

	return items, nil
}
