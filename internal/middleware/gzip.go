package middleware

import (
	"compress/gzip"
	"net/http"
	"strings"
)

type gzipResponse struct {
	http.ResponseWriter
	zw      *gzip.Writer
	started bool
}

func (g *gzipResponse) WriteHeader(code int) {
	if g.started {
		return
	}
	g.started = true
	h := g.ResponseWriter.Header()
	h.Set("Content-Encoding", "gzip")
	// o tamanho comprimido não é conhecido de antemão
	h.Del("Content-Length")
	g.ResponseWriter.WriteHeader(code)
	g.zw = gzip.NewWriter(g.ResponseWriter)
}

func (g *gzipResponse) Write(p []byte) (int, error) {
	if !g.started {
		g.WriteHeader(http.StatusOK)
	}
	return g.zw.Write(p)
}

func (g *gzipResponse) close() {
	if g.zw != nil {
		_ = g.zw.Close()
	}
}

// Gzip comprime a resposta quando o cliente anuncia Accept-Encoding: gzip.
// Importa para as listagens de sessões, cujo conteúdo HTML comprime bem.
func Gzip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		g := &gzipResponse{ResponseWriter: w}
		defer g.close()
		next.ServeHTTP(g, r)
	})
}
