//go:build integration

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/narapsi/backend/internal/auth"
	"github.com/narapsi/backend/internal/config"
	"github.com/narapsi/backend/internal/middleware"
	"github.com/narapsi/backend/internal/repo"
	"github.com/narapsi/backend/internal/testutil"
	"gorm.io/gorm"
)

func newRouterForSessoes(h *Handler, jwtSecret []byte) http.Handler {
	r := mux.NewRouter()
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuthMiddleware(jwtSecret))
	protected.HandleFunc("/pacientes/{pacienteId}/sessoes", h.ListSessoes).Methods(http.MethodGet)
	protected.HandleFunc("/pacientes/{pacienteId}/sessoes", h.CreateSessao).Methods(http.MethodPost)
	protected.HandleFunc("/pacientes/{pacienteId}/sessoes/{sessaoId}", h.UpdateSessao).Methods(http.MethodPut)
	protected.HandleFunc("/pacientes/{pacienteId}/sessoes/{sessaoId}", h.DeleteSessao).Methods(http.MethodDelete)
	protected.HandleFunc("/pacientes/{pacienteId}/sessoes/{sessaoId}/concluir", h.ConcluirSessao).Methods(http.MethodPatch)
	protected.HandleFunc("/pacientes/{pacienteId}/sessoes/{sessaoId}/download", h.DownloadSessao).Methods(http.MethodGet)
	return middleware.RequestID(r)
}

func mustCreateProfissionalEPaciente(ctx context.Context, t *testing.T, db *gorm.DB) (int64, int64) {
	t.Helper()
	email := fmt.Sprintf("prof-sessoes-%d@narapsi.local", time.Now().UnixNano())
	profID, err := repo.CreateProfissional(ctx, db, "Prof Sessões", email, "x", auth.RoleProfessional)
	if err != nil {
		t.Fatalf("create profissional: %v", err)
	}
	pacienteID, err := repo.CreatePaciente(ctx, db, &repo.Paciente{ProfissionalID: profID, Nome: "Paciente Sessões"})
	if err != nil {
		t.Fatalf("create paciente: %v", err)
	}
	return profID, pacienteID
}

func doJSON(t *testing.T, srv http.Handler, method, path, authz string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", authz)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	return rr
}

func TestIntegration_SessaoLifecycle(t *testing.T) {
	ctx := context.Background()
	db, _ := testutil.OpenDB(ctx)
	if db == nil {
		t.Skip("DATABASE_URL not set for integration tests")
		return
	}
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		defer sqlDB.Close()
	}
	if err := testutil.MustMigrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := config.Load()
	jwtSecret := []byte("test-jwt-secret-min-32-chars-xxxxxxxxxxxx")
	cfg.JWTSecret = jwtSecret
	cfg.DataEncryptionKeys = "v1:MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY"
	cfg.CurrentDataKeyVer = "v1"
	h := &Handler{DB: db, Cfg: cfg}

	profID, pacienteID := mustCreateProfissionalEPaciente(ctx, t, db)
	tok, err := auth.BuildJWT(jwtSecret, profID, "prof@narapsi.local", auth.RoleProfessional, 2*time.Hour)
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}
	authz := "Bearer " + tok
	srv := newRouterForSessoes(h, jwtSecret)
	base := fmt.Sprintf("/api/pacientes/%d/sessoes", pacienteID)

	// conteúdo vazio não cria sessão
	rr := doJSON(t, srv, http.MethodPost, base, authz, map[string]string{"conteudo": "   ", "data_sessao": "2026-03-01"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty content, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodPost, base, authz, map[string]string{"conteudo": "<p>Primeira sessão</p>", "data_sessao": "2026-03-01"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var created SessaoResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if created.Situacao != repo.SituacaoEditando {
		t.Fatalf("new session should start as draft, got %q", created.Situacao)
	}
	if created.Conteudo != "<p>Primeira sessão</p>" {
		t.Fatalf("content round-trip failed: %q", created.Conteudo)
	}

	itemPath := fmt.Sprintf("%s/%d", base, created.IDSessao)

	// rascunho aceita edição
	rr = doJSON(t, srv, http.MethodPut, itemPath, authz, map[string]string{"conteudo": "<p>Editado</p>", "data_sessao": "2026-03-01"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on draft update, got %d body=%s", rr.Code, rr.Body.String())
	}

	// conclusão é terminal
	rr = doJSON(t, srv, http.MethodPatch, itemPath+"/concluir", authz, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on finalize, got %d body=%s", rr.Code, rr.Body.String())
	}
	var concluida SessaoResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &concluida)
	if concluida.Situacao != repo.SituacaoConcluido {
		t.Fatalf("expected CONCLUIDO, got %q", concluida.Situacao)
	}

	rr = doJSON(t, srv, http.MethodPut, itemPath, authz, map[string]string{"conteudo": "<p>Não deveria</p>", "data_sessao": "2026-03-01"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 updating finalized session, got %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodDelete, itemPath, authz, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 deleting finalized session, got %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodPatch, itemPath+"/concluir", authz, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 finalizing twice, got %d", rr.Code)
	}

	// download funciona para sessão concluída
	rr = doJSON(t, srv, http.MethodGet, itemPath+"/download", authz, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on download, got %d", rr.Code)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("download did not return a PDF")
	}
	cd := rr.Header().Get("Content-Disposition")
	if !strings.Contains(cd, fmt.Sprintf("sessao_%d.pdf", created.IDSessao)) {
		t.Fatalf("unexpected content disposition %q", cd)
	}

	// lista ordenada da mais recente para a mais antiga
	rr = doJSON(t, srv, http.MethodPost, base, authz, map[string]string{"conteudo": "<p>Segunda</p>"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, base, authz, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on list, got %d", rr.Code)
	}
	var list []SessaoResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(list) < 2 || list[0].IDSessao < list[1].IDSessao {
		t.Fatalf("expected newest-first ordering, got %+v", list)
	}

	// rascunho pode ser excluído
	draftPath := fmt.Sprintf("%s/%d", base, list[0].IDSessao)
	rr = doJSON(t, srv, http.MethodDelete, draftPath, authz, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 deleting draft, got %d", rr.Code)
	}
}

func TestIntegration_SessaoOwnership(t *testing.T) {
	ctx := context.Background()
	db, _ := testutil.OpenDB(ctx)
	if db == nil {
		t.Skip("DATABASE_URL not set for integration tests")
		return
	}
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		defer sqlDB.Close()
	}
	if err := testutil.MustMigrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := config.Load()
	jwtSecret := []byte("test-jwt-secret-min-32-chars-xxxxxxxxxxxx")
	cfg.JWTSecret = jwtSecret
	cfg.DataEncryptionKeys = "v1:MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY"
	h := &Handler{DB: db, Cfg: cfg}
	srv := newRouterForSessoes(h, jwtSecret)

	_, pacienteA := mustCreateProfissionalEPaciente(ctx, t, db)
	profB, _ := mustCreateProfissionalEPaciente(ctx, t, db)
	tokB, err := auth.BuildJWT(jwtSecret, profB, "profb@narapsi.local", auth.RoleProfessional, 2*time.Hour)
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	// profissional B não enxerga sessões do paciente de A
	rr := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/pacientes/%d/sessoes", pacienteA), "Bearer "+tokB,
		map[string]string{"conteudo": "<p>Invasão</p>"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for cross-professional access, got %d", rr.Code)
	}
}
