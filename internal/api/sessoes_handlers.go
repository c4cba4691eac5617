package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/narapsi/backend/internal/crypto"
	"github.com/narapsi/backend/internal/pdf"
	"github.com/narapsi/backend/internal/repo"
	"gorm.io/gorm"
)

type SessaoRequest struct {
	DataSessao string `json:"data_sessao"`
	Conteudo   string `json:"conteudo"`
}

type SessaoResponse struct {
	IDSessao   int64  `json:"id_sessao"`
	Conteudo   string `json:"conteudo"`
	DataSessao string `json:"data_sessao"`
	Situacao   string `json:"situacao"`
}

func (h *Handler) sessaoResponse(s *repo.Sessao, keysMap map[string][]byte) SessaoResponse {
	conteudo := ""
	if plain, err := crypto.Decrypt(s.ConteudoEncrypted, s.ConteudoNonce, s.ConteudoKeyVersion, keysMap); err == nil {
		conteudo = string(plain)
	}
	return SessaoResponse{
		IDSessao:   s.IDSessao,
		Conteudo:   conteudo,
		DataSessao: s.DataSessao,
		Situacao:   s.Situacao,
	}
}

// ListSessoes devolve todas as sessões do paciente, mais recente primeiro.
func (h *Handler) ListSessoes(w http.ResponseWriter, r *http.Request) {
	pacienteID := pathID(r, "pacienteId")
	if _, ok := h.pacienteDoProfissional(r, pacienteID); !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	list, err := repo.SessoesByPaciente(r.Context(), h.DB, pacienteID)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	keysMap, _, err := h.dataKeys()
	if err != nil {
		http.Error(w, `{"error":"config"}`, http.StatusInternalServerError)
		return
	}
	out := make([]SessaoResponse, 0, len(list))
	for i := range list {
		out = append(out, h.sessaoResponse(&list[i], keysMap))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *Handler) CreateSessao(w http.ResponseWriter, r *http.Request) {
	pacienteID := pathID(r, "pacienteId")
	if _, ok := h.pacienteDoProfissional(r, pacienteID); !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	var req SessaoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if err := ValidateConteudoSessao(req.Conteudo); err != nil {
		http.Error(w, `{"error":"conteudo é obrigatório"}`, http.StatusBadRequest)
		return
	}
	dataSessao, err := normalizeDataSessao(req.DataSessao)
	if err != nil {
		http.Error(w, `{"error":"data_sessao inválida (use YYYY-MM-DD)"}`, http.StatusBadRequest)
		return
	}
	keysMap, keyVer, err := h.dataKeys()
	if err != nil {
		http.Error(w, `{"error":"config"}`, http.StatusInternalServerError)
		return
	}
	enc, nonce, err := crypto.Encrypt([]byte(req.Conteudo), keyVer, keysMap)
	if err != nil {
		http.Error(w, `{"error":"encryption"}`, http.StatusInternalServerError)
		return
	}
	id, err := repo.CreateSessao(r.Context(), h.DB, pacienteID, dataSessao, enc, nonce, keyVer)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	s, err := repo.SessaoByID(r.Context(), h.DB, id, pacienteID)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(h.sessaoResponse(s, keysMap))
}

func (h *Handler) UpdateSessao(w http.ResponseWriter, r *http.Request) {
	pacienteID := pathID(r, "pacienteId")
	sessaoID := pathID(r, "sessaoId")
	if _, ok := h.pacienteDoProfissional(r, pacienteID); !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	var req SessaoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if err := ValidateConteudoSessao(req.Conteudo); err != nil {
		http.Error(w, `{"error":"conteudo é obrigatório"}`, http.StatusBadRequest)
		return
	}
	dataSessao, err := normalizeDataSessao(req.DataSessao)
	if err != nil {
		http.Error(w, `{"error":"data_sessao inválida (use YYYY-MM-DD)"}`, http.StatusBadRequest)
		return
	}
	keysMap, keyVer, err := h.dataKeys()
	if err != nil {
		http.Error(w, `{"error":"config"}`, http.StatusInternalServerError)
		return
	}
	enc, nonce, err := crypto.Encrypt([]byte(req.Conteudo), keyVer, keysMap)
	if err != nil {
		http.Error(w, `{"error":"encryption"}`, http.StatusInternalServerError)
		return
	}
	if err := repo.UpdateSessao(r.Context(), h.DB, sessaoID, pacienteID, dataSessao, enc, nonce, keyVer); err != nil {
		writeSessaoWriteError(w, err)
		return
	}
	s, err := repo.SessaoByID(r.Context(), h.DB, sessaoID, pacienteID)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.sessaoResponse(s, keysMap))
}

func (h *Handler) DeleteSessao(w http.ResponseWriter, r *http.Request) {
	pacienteID := pathID(r, "pacienteId")
	sessaoID := pathID(r, "sessaoId")
	if _, ok := h.pacienteDoProfissional(r, pacienteID); !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	if err := repo.DeleteSessao(r.Context(), h.DB, sessaoID, pacienteID); err != nil {
		writeSessaoWriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConcluirSessao aplica a transição EDITANDO -> CONCLUIDO. Depois disso a sessão
// só admite leitura e download.
func (h *Handler) ConcluirSessao(w http.ResponseWriter, r *http.Request) {
	pacienteID := pathID(r, "pacienteId")
	sessaoID := pathID(r, "sessaoId")
	if _, ok := h.pacienteDoProfissional(r, pacienteID); !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	if err := repo.ConcluirSessao(r.Context(), h.DB, sessaoID, pacienteID); err != nil {
		writeSessaoWriteError(w, err)
		return
	}
	s, err := repo.SessaoByID(r.Context(), h.DB, sessaoID, pacienteID)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	keysMap, _, err := h.dataKeys()
	if err != nil {
		http.Error(w, `{"error":"config"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.sessaoResponse(s, keysMap))
}

// DownloadSessao gera o PDF da sessão. Vale para qualquer situação (EDITANDO ou CONCLUIDO).
func (h *Handler) DownloadSessao(w http.ResponseWriter, r *http.Request) {
	pacienteID := pathID(r, "pacienteId")
	sessaoID := pathID(r, "sessaoId")
	paciente, ok := h.pacienteDoProfissional(r, pacienteID)
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	s, err := repo.SessaoByID(r.Context(), h.DB, sessaoID, pacienteID)
	if err != nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	keysMap, _, err := h.dataKeys()
	if err != nil {
		http.Error(w, `{"error":"config"}`, http.StatusInternalServerError)
		return
	}
	conteudo := ""
	if plain, errDec := crypto.Decrypt(s.ConteudoEncrypted, s.ConteudoNonce, s.ConteudoKeyVersion, keysMap); errDec == nil {
		conteudo = string(plain)
	}
	b, err := pdf.BuildSessaoPDF(pdf.SessaoPDFData{
		PacienteNome: paciente.Nome,
		DataSessao:   formatDateBR(s.DataSessao),
		Situacao:     s.Situacao,
		ConteudoHTML: conteudo,
	})
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="sessao_%d.pdf"`, s.IDSessao))
	_, _ = w.Write(b)
}

// writeSessaoWriteError mapeia os erros do repo para status HTTP: sessão concluída
// vira 409 (o cliente deve tratar como rejeição definitiva), inexistente vira 404.
func writeSessaoWriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrSessaoConcluida):
		http.Error(w, `{"error":"sessão concluída não pode ser alterada"}`, http.StatusConflict)
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	default:
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}
}

// normalizeDataSessao valida YYYY-MM-DD; vazio vira a data de hoje.
func normalizeDataSessao(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now().Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", err
	}
	return s, nil
}
