package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"gobodega/internal/pkg/logger"
)

// RequestIDHeader es el nombre del header HTTP para el ID de la petición.
const RequestIDHeader = "X-Request-ID"

// contextKey es un tipo propio para las claves de contexto del middleware,
// evitando colisiones con claves string de otros paquetes.
type contextKey int

const requestIDKey contextKey = iota

// RequestID extrae el header X-Request-ID o genera uno nuevo, lo anexa al
// contexto de la petición y lo devuelve en la respuesta.
func RequestID(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
				log.Debug("ID de petición generado", map[string]interface{}{
					"request_id": requestID,
					"path":       r.URL.Path,
					"method":     r.Method,
				})
			}

			ctx := context.WithValue(r.Context(), requestIDKey, requestID)
			w.Header().Set(RequestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID recupera el ID de la petición desde el contexto.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
