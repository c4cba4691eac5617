package middleware

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
)

// Recover converte panics de handler em 500 JSON. O stack completo vai para o
// log do servidor junto com o request id; a resposta carrega só o id, para que
// o suporte consiga correlacionar sem expor detalhes internos.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			reqID := RequestIDFromContext(r.Context())
			if reqID == "" {
				reqID = r.Header.Get("X-Request-ID")
			}
			log.Printf("[panic] request_id=%s %s %s err=%v\n%s", reqID, r.Method, r.URL.Path, rec, debug.Stack())
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, `{"error":"internal","request_id":%q}`, reqID)
		}()
		next.ServeHTTP(w, r)
	})
}
