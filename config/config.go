package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config almacena todas las configuraciones de la aplicación.
// Los campos cubren servidor, base de datos, cache y reglas de negocio
// parametrizables (días para considerar un préstamo atrasado).
type Config struct {
	// General
	Port        string
	Environment string
	LogLevel    string

	// Base de datos (PostgreSQL)
	DatabaseURL       string
	DBTimeout         time.Duration
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Cache (Redis)
	RedisAddr string
	CacheTTL  time.Duration

	// Rate limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Reglas de negocio
	PrestamoDiasAtraso int
}

// LoadConfig carga las configuraciones a partir de las variables de entorno.
func LoadConfig() *Config {
	cfg := &Config{
		// 1. General
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// 2. Base de datos (PostgreSQL)
		// mustGetEnv garantiza que la aplicación no arranque sin credenciales de DB.
		DatabaseURL:       mustGetEnv("DATABASE_URL"),
		DBTimeout:         getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,
		DBMaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME_MIN", 5) * time.Minute,

		// 3. Cache (Redis)
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTTL:  getDurationEnv("CACHE_TTL_SEC", 300) * time.Second,

		// 4. Rate limiting
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		// 5. Reglas de negocio
		PrestamoDiasAtraso: getIntEnv("PRESTAMO_DIAS_ATRASO", 15),
	}

	return cfg
}

// IsProduction indica si la aplicación corre en modo producción.
// Los handlers lo usan para suprimir el detalle de los errores 500.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv lee la variable de entorno o retorna un valor por defecto.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lee la variable de entorno, fatal si no está presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("Error de configuración: la variable de entorno %s debe estar definida.", key)
	return ""
}

// getDurationEnv lee una variable de entorno numérica y la retorna como time.Duration.
func getDurationEnv(key string, defaultValue int) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return time.Duration(defaultValue)
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Aviso: el valor de %s ('%s') no es un entero válido. Usando el valor por defecto (%d).", key, valueStr, defaultValue)
		return time.Duration(defaultValue)
	}
	return time.Duration(value)
}

// getIntEnv lee una variable de entorno numérica y la retorna como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Aviso: el valor de %s ('%s') no es un entero válido. Usando el valor por defecto (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
