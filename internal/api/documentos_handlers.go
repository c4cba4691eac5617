package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/narapsi/backend/internal/auth"
	"github.com/narapsi/backend/internal/pdf"
	"github.com/narapsi/backend/internal/repo"
	"gorm.io/gorm"
)

type DocumentoRequest struct {
	Nome     string `json:"nome"`
	Conteudo string `json:"conteudo"`
}

type DocumentoResponse struct {
	IDDocumento     int64  `json:"id_documento"`
	IDPaciente      int64  `json:"id_paciente"`
	Nome            string `json:"nome"`
	Conteudo        string `json:"conteudo"`
	DataCriacao     string `json:"data_criacao"`
	DataAtualizacao string `json:"data_atualizacao"`
}

func documentoResponse(d *repo.Documento) DocumentoResponse {
	return DocumentoResponse{
		IDDocumento:     d.IDDocumento,
		IDPaciente:      d.IDPaciente,
		Nome:            d.Nome,
		Conteudo:        d.Conteudo,
		DataCriacao:     d.DataCriacao,
		DataAtualizacao: d.DataAtualizacao,
	}
}

func (h *Handler) ListDocumentos(w http.ResponseWriter, r *http.Request) {
	pacienteID := pathID(r, "pacienteId")
	if _, ok := h.pacienteDoProfissional(r, pacienteID); !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	list, err := repo.DocumentosByPaciente(r.Context(), h.DB, pacienteID)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	out := make([]DocumentoResponse, 0, len(list))
	for i := range list {
		out = append(out, documentoResponse(&list[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *Handler) CreateDocumento(w http.ResponseWriter, r *http.Request) {
	pacienteID := pathID(r, "pacienteId")
	if _, ok := h.pacienteDoProfissional(r, pacienteID); !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	var req DocumentoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Nome = strings.TrimSpace(req.Nome)
	if req.Nome == "" {
		http.Error(w, `{"error":"nome é obrigatório"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Conteudo) == "" {
		http.Error(w, `{"error":"conteudo é obrigatório"}`, http.StatusBadRequest)
		return
	}
	token := uuid.NewString()
	id, err := repo.CreateDocumento(r.Context(), h.DB, pacienteID, req.Nome, req.Conteudo, token)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	d, err := repo.DocumentoByID(r.Context(), h.DB, id, auth.UserIDFrom(r.Context()))
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(documentoResponse(d))
}

// DownloadDocumento gera o PDF do documento com token e QR code de verificação.
func (h *Handler) DownloadDocumento(w http.ResponseWriter, r *http.Request) {
	documentoID := pathID(r, "documentoId")
	profID := auth.UserIDFrom(r.Context())
	if profID == 0 || documentoID == 0 {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	d, err := repo.DocumentoByID(r.Context(), h.DB, documentoID, profID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	p, err := repo.PacienteByID(r.Context(), h.DB, d.IDPaciente, profID)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	raw, err := pdf.BuildDocumentoPDF(pdf.DocumentoPDFData{
		Titulo:            d.Nome,
		PacienteNome:      p.Nome,
		ConteudoHTML:      d.Conteudo,
		VerificationToken: d.VerificationToken,
		VerificationURL:   pdf.VerificationURLFor(h.Cfg.AppPublicURL, d.VerificationToken),
		EmitidoEm:         time.Now().Format("02/01/2006"),
	})
	if err != nil {
		http.Error(w, `{"error":"falha ao gerar PDF"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sanitizeFilename(d.Nome)+".pdf"))
	_, _ = w.Write(raw)
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "documento"
	}
	repl := strings.NewReplacer("/", "_", "\\", "_", "\"", "_", "\n", " ", "\r", " ")
	return repl.Replace(name)
}
