package trabajadorrepo

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

// uniqueViolation es el código SQLSTATE de violación de restricción única.
const uniqueViolation = "23505"

// TrabajadorRepository implementa el acceso a datos del padrón de trabajadores.
type TrabajadorRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewTrabajadorRepository crea y retorna una nueva instancia del repositorio.
func NewTrabajadorRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *TrabajadorRepository {
	return &TrabajadorRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

func esCodigoDuplicado(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}

// Crear registra un nuevo trabajador activo. Un código repetido produce un
// error de validación.
func (r *TrabajadorRepository) Crear(ctx context.Context, trabajador domain.Trabajador) (domain.Trabajador, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	err := r.DB.QueryRowContext(ctxTimeout, `
		INSERT INTO trabajadores (codigo, nombre, activo, fecha_registro)
		VALUES ($1, $2, true, NOW())
		RETURNING id, activo, fecha_registro`,
		trabajador.Codigo, trabajador.Nombre,
	).Scan(&trabajador.ID, &trabajador.Activo, &trabajador.FechaRegistro)

	if esCodigoDuplicado(err) {
		return domain.Trabajador{}, apperror.NewValidationError("Ya existe un trabajador con este código")
	}
	if err != nil {
		return domain.Trabajador{}, apperror.NewDBError("Falla al insertar el trabajador", err)
	}

	return trabajador, nil
}

// FindByID busca un trabajador por id, activo o no.
func (r *TrabajadorRepository) FindByID(ctx context.Context, id int64) (domain.Trabajador, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var t domain.Trabajador
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT id, codigo, nombre, activo, fecha_registro FROM trabajadores WHERE id = $1`, id,
	).Scan(&t.ID, &t.Codigo, &t.Nombre, &t.Activo, &t.FechaRegistro)

	if err == sql.ErrNoRows {
		return domain.Trabajador{}, apperror.NewNotFoundError("Trabajador no encontrado")
	}
	if err != nil {
		return domain.Trabajador{}, apperror.NewDBError("Falla al buscar el trabajador", err)
	}

	return t, nil
}

// FindAll lista trabajadores con búsqueda parcial por código o nombre y
// filtro opcional por estado activo, ordenados por nombre ascendente.
func (r *TrabajadorRepository) FindAll(ctx context.Context, filtro domain.TrabajadorFiltro) ([]domain.Trabajador, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT id, codigo, nombre, activo, fecha_registro FROM trabajadores WHERE 1=1`
	var args []interface{}

	if filtro.Busqueda != "" {
		args = append(args, "%"+filtro.Busqueda+"%")
		query += fmt.Sprintf(" AND (codigo ILIKE $%d OR nombre ILIKE $%d)", len(args), len(args))
	}
	if filtro.Activo != nil {
		args = append(args, *filtro.Activo)
		query += fmt.Sprintf(" AND activo = $%d", len(args))
	}

	query += " ORDER BY nombre ASC"

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		return nil, apperror.NewDBError("Falla al consultar los trabajadores", err)
	}
	defer rows.Close()

	trabajadores := []domain.Trabajador{}
	for rows.Next() {
		var t domain.Trabajador
		if err := rows.Scan(&t.ID, &t.Codigo, &t.Nombre, &t.Activo, &t.FechaRegistro); err != nil {
			return nil, apperror.NewDBError("Falla al leer los trabajadores", err)
		}
		trabajadores = append(trabajadores, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falla al leer los trabajadores", err)
	}

	return trabajadores, nil
}

// Actualizar persiste el trabajador completo (el servicio ya aplicó la
// actualización parcial).
func (r *TrabajadorRepository) Actualizar(ctx context.Context, trabajador domain.Trabajador) (domain.Trabajador, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout,
		`UPDATE trabajadores SET codigo = $1, nombre = $2, activo = $3 WHERE id = $4`,
		trabajador.Codigo, trabajador.Nombre, trabajador.Activo, trabajador.ID)

	if esCodigoDuplicado(err) {
		return domain.Trabajador{}, apperror.NewValidationError("Ya existe un trabajador con este código")
	}
	if err != nil {
		return domain.Trabajador{}, apperror.NewDBError("Falla al actualizar el trabajador", err)
	}

	afectadas, err := result.RowsAffected()
	if err != nil {
		return domain.Trabajador{}, apperror.NewDBError("Falla al verificar la actualización", err)
	}
	if afectadas == 0 {
		return domain.Trabajador{}, apperror.NewNotFoundError("Trabajador no encontrado")
	}

	return trabajador, nil
}

// Desactivar marca al trabajador como inactivo dentro de una transacción,
// verificando antes que no tenga préstamos sin cerrar. Nunca borra la fila.
func (r *TrabajadorRepository) Desactivar(ctx context.Context, id int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return apperror.NewDBError("Falla al iniciar la transacción", err)
	}
	defer tx.Rollback()

	var existe bool
	err = tx.QueryRowContext(ctxTimeout,
		`SELECT EXISTS (SELECT 1 FROM trabajadores WHERE id = $1)`, id,
	).Scan(&existe)
	if err != nil {
		return apperror.NewDBError("Falla al buscar el trabajador", err)
	}
	if !existe {
		return apperror.NewNotFoundError("Trabajador no encontrado")
	}

	var abiertos int
	err = tx.QueryRowContext(ctxTimeout, `
		SELECT COUNT(*)
		FROM prestamos_herramientas
		WHERE trabajador_id = $1 AND estado <> $2`,
		id, domain.EstadoCompletado,
	).Scan(&abiertos)
	if err != nil {
		return apperror.NewDBError("Falla al contar los préstamos abiertos", err)
	}
	if abiertos > 0 {
		return apperror.NewPrestamosActivosError(abiertos)
	}

	if _, err := tx.ExecContext(ctxTimeout,
		`UPDATE trabajadores SET activo = false WHERE id = $1`, id); err != nil {
		return apperror.NewDBError("Falla al desactivar el trabajador", err)
	}

	if err := tx.Commit(); err != nil {
		return apperror.NewDBError("Falla al confirmar la transacción", err)
	}

	r.logger.Info("Trabajador desactivado", map[string]interface{}{"trabajador_id": id})
	return nil
}

// Estadisticas agrega los totales del padrón y el top cinco de trabajadores
// por cantidad de préstamos.
func (r *TrabajadorRepository) Estadisticas(ctx context.Context) (domain.EstadisticasTrabajadores, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var stats domain.EstadisticasTrabajadores

	err := r.DB.QueryRowContext(ctxTimeout, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE activo)
		FROM trabajadores`,
	).Scan(&stats.TotalTrabajadores, &stats.TrabajadoresActivos)
	if err != nil {
		return stats, apperror.NewDBError("Falla al totalizar los trabajadores", err)
	}
	stats.TrabajadoresInactivos = stats.TotalTrabajadores - stats.TrabajadoresActivos

	rows, err := r.DB.QueryContext(ctxTimeout, `
		SELECT t.id, t.codigo, t.nombre, COUNT(p.id) AS total_prestamos
		FROM trabajadores t
		JOIN prestamos_herramientas p ON p.trabajador_id = t.id
		GROUP BY t.id, t.codigo, t.nombre
		ORDER BY total_prestamos DESC
		LIMIT 5`)
	if err != nil {
		return stats, apperror.NewDBError("Falla al consultar el top de trabajadores", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.TrabajadorConPrestamos
		if err := rows.Scan(&t.ID, &t.Codigo, &t.Nombre, &t.TotalPrestamos); err != nil {
			return stats, apperror.NewDBError("Falla al leer el top de trabajadores", err)
		}
		stats.TrabajadoresTopPrestamos = append(stats.TrabajadoresTopPrestamos, t)
	}
	if err := rows.Err(); err != nil {
		return stats, apperror.NewDBError("Falla al leer el top de trabajadores", err)
	}

	return stats, nil
}
