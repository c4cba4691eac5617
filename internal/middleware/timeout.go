package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout limita a duração de cada request cancelando o context; handlers que
// respeitam ctx (repo, chamadas externas) param sozinhos. Zero ou negativo
// desliga o limite.
func Timeout(seconds int) func(http.Handler) http.Handler {
	if seconds <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	d := time.Duration(seconds) * time.Second
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
