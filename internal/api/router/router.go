// Package router arma el mux HTTP de la API y la cadena de middlewares.
package router

import (
	"net/http"
	"time"

	"github.com/rs/cors"

	"gobodega/internal/api/prestamo"
	"gobodega/internal/api/producto"
	"gobodega/internal/api/trabajador"
	"gobodega/internal/pkg/cache"
	"gobodega/internal/pkg/logger"
	"gobodega/internal/pkg/middleware"
)

// Dependencias agrupa lo que el router necesita para montar la API.
type Dependencias struct {
	Prestamos    *prestamo.Handler
	Productos    *producto.Handler
	Trabajadores *trabajador.Handler

	Logger    logger.Logger
	Cache     cache.Client
	RateLimit int
	RatePer   time.Duration
}

// New construye el handler raíz: rutas de la API bajo /api más el healthcheck,
// envuelto en request-ID, CORS y rate limiting.
func New(deps Dependencias) http.Handler {
	mux := http.NewServeMux()

	// Préstamos. Las rutas literales van antes que {id} en precedencia del mux.
	mux.HandleFunc("POST /api/prestamos", deps.Prestamos.Crear)
	mux.HandleFunc("GET /api/prestamos", deps.Prestamos.Listar)
	mux.HandleFunc("GET /api/prestamos/reportes/morosos", deps.Prestamos.Morosos)
	mux.HandleFunc("GET /api/prestamos/estadisticas", deps.Prestamos.Estadisticas)
	mux.HandleFunc("GET /api/prestamos/{id}", deps.Prestamos.Obtener)
	mux.HandleFunc("PUT /api/prestamos/{id}/devolucion", deps.Prestamos.Devolucion)

	// Productos.
	mux.HandleFunc("POST /api/productos", deps.Productos.Crear)
	mux.HandleFunc("GET /api/productos", deps.Productos.Listar)
	mux.HandleFunc("GET /api/productos/estadisticas", deps.Productos.Estadisticas)
	mux.HandleFunc("GET /api/productos/estante/{estante}", deps.Productos.PorEstante)
	mux.HandleFunc("GET /api/productos/{id}", deps.Productos.Obtener)
	mux.HandleFunc("PUT /api/productos/{id}", deps.Productos.Actualizar)
	mux.HandleFunc("DELETE /api/productos/{id}", deps.Productos.Eliminar)
	mux.HandleFunc("POST /api/productos/{id}/stock", deps.Productos.AjustarStock)

	// Trabajadores.
	mux.HandleFunc("POST /api/trabajadores", deps.Trabajadores.Crear)
	mux.HandleFunc("GET /api/trabajadores", deps.Trabajadores.Listar)
	mux.HandleFunc("GET /api/trabajadores/estadisticas", deps.Trabajadores.Estadisticas)
	mux.HandleFunc("GET /api/trabajadores/{id}", deps.Trabajadores.Obtener)
	mux.HandleFunc("PUT /api/trabajadores/{id}", deps.Trabajadores.Actualizar)
	mux.HandleFunc("DELETE /api/trabajadores/{id}", deps.Trabajadores.Desactivar)
	mux.HandleFunc("GET /api/trabajadores/{id}/prestamos", deps.Trabajadores.Prestamos)

	// Healthcheck.
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"mensaje":"pong"}`))
	})

	var handler http.Handler = mux
	if deps.Cache != nil && deps.RateLimit > 0 {
		handler = middleware.RateLimiter(deps.Cache, deps.RateLimit, deps.RatePer)(handler)
	}
	handler = cors.AllowAll().Handler(handler)
	handler = middleware.RequestID(deps.Logger)(handler)
	return handler
}
