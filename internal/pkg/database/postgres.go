package database

import (
	"database/sql"
	"fmt"
	"time"

	// Driver pq para PostgreSQL.
	_ "github.com/lib/pq"
)

// PoolConfig agrupa los parámetros de dimensionamiento del pool de conexiones.
// Los valores llegan desde la configuración externa (variables de entorno).
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewPostgresDB inicializa y configura el pool de conexiones con PostgreSQL.
// Retorna la conexión *sql.DB lista para usar.
func NewPostgresDB(dataSourceName string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falla al abrir la conexión con el DB: %w", err)
	}

	// Ping inmediato: garantiza que las credenciales y el servidor están bien
	// antes de que la aplicación empiece a atender requests.
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("falla en el ping inicial al DB: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	// Las conexiones ociosas mueren antes que las activas.
	db.SetConnMaxIdleTime(2 * time.Minute)

	return db, nil
}
