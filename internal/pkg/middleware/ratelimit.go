package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"gobodega/internal/pkg/cache"
)

// RateLimiter limita la cantidad de peticiones por IP dentro de una ventana
// de tiempo, usando el cache Redis como contador compartido.
func RateLimiter(client cache.Client, limit int, duration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, _ := net.SplitHostPort(r.RemoteAddr)
			key := "rate-limit:" + ip
			ctx := context.Background()

			count, err := client.GetInt(ctx, key)
			if err == cache.ErrCacheMiss {
				client.Set(ctx, key, 1, duration)
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-1))
				next.ServeHTTP(w, r)
				return
			} else if err != nil {
				// El cache no está disponible: dejamos pasar la petición en
				// vez de bloquear todo el tráfico.
				next.ServeHTTP(w, r)
				return
			}

			if count >= limit {
				http.Error(w, "Demasiadas peticiones", http.StatusTooManyRequests)
				return
			}

			client.Incr(ctx, key)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-count-1))
			next.ServeHTTP(w, r)
		})
	}
}
