package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gobodega/config"
	"gobodega/internal/api/prestamo"
	"gobodega/internal/api/producto"
	"gobodega/internal/api/respond"
	"gobodega/internal/api/router"
	"gobodega/internal/api/trabajador"
	"gobodega/internal/pkg/cache"
	"gobodega/internal/pkg/database"
	"gobodega/internal/pkg/logger"
	"gobodega/internal/repository/prestamorepo"
	"gobodega/internal/repository/productorepo"
	"gobodega/internal/repository/trabajadorrepo"
	"gobodega/internal/service/prestamoservice"
	"gobodega/internal/service/productoservice"
	"gobodega/internal/service/trabajadorservice"
)

func main() {
	// .env es opcional: en producción las variables llegan del entorno.
	_ = godotenv.Load()

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)

	log.Info("Iniciando el servidor de bodega", map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Environment,
	})

	db, err := database.NewPostgresDB(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		log.Fatal("No se pudo conectar a PostgreSQL", err)
	}
	defer db.Close()
	log.Info("Conexión a PostgreSQL establecida", nil)

	// El cache no es crítico: si Redis no responde, los repositorios degradan
	// a lecturas directas del DB y el rate limiter deja pasar las peticiones.
	cacheClient, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		log.Warn("Redis no disponible, continuando en modo degradado", map[string]interface{}{
			"addr":  cfg.RedisAddr,
			"error": err.Error(),
		})
	} else {
		log.Info("Conexión a Redis establecida", nil)
	}

	// Inyección de dependencias: repositorio → servicio → handler.
	prestamoRepo := prestamorepo.NewPrestamoRepository(db, cfg.DBTimeout, log)
	productoRepo := productorepo.NewProductoRepository(db, cacheClient, cfg.CacheTTL, cfg.DBTimeout, log)
	trabajadorRepo := trabajadorrepo.NewTrabajadorRepository(db, cfg.DBTimeout, log)

	prestamoSvc := prestamoservice.NewService(prestamoRepo, cfg.PrestamoDiasAtraso, log)
	productoSvc := productoservice.NewService(productoRepo, log)
	trabajadorSvc := trabajadorservice.NewService(trabajadorRepo, log)

	writer := respond.NewWriter(log, cfg.IsProduction())
	handler := router.New(router.Dependencias{
		Prestamos:    prestamo.NewHandler(prestamoSvc, writer, log),
		Productos:    producto.NewHandler(productoSvc, writer, log),
		Trabajadores: trabajador.NewHandler(trabajadorSvc, prestamoSvc, writer, log),
		Logger:       log,
		Cache:        cacheClient,
		RateLimit:    cfg.RateLimitMaxRequests,
		RatePer:      cfg.RateLimitPeriod,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Servidor escuchando", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("El servidor HTTP terminó con error", err)
		}
	}()

	// Apagado controlado: se drenan las peticiones en curso antes de salir.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Señal de apagado recibida, cerrando el servidor", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Apagado forzado del servidor", err)
	}
	log.Info("Servidor detenido", nil)
}
