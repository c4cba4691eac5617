package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/narapsi/backend/internal/auth"
	"github.com/narapsi/backend/internal/repo"
	"gorm.io/gorm"
)

const maxAnexoBytes = 20 << 20 // 20 MiB

type AnexoResponse struct {
	IDAnexo      int64  `json:"id_anexo"`
	IDPaciente   int64  `json:"id_paciente"`
	Descricao    string `json:"descricao"`
	NomeArquivo  string `json:"nome_arquivo"`
	Extensao     string `json:"extensao"`
	TamanhoBytes int64  `json:"tamanho_bytes"`
	DataEnvio    string `json:"data_envio"`
}

func anexoResponse(a *repo.Anexo) AnexoResponse {
	return AnexoResponse{
		IDAnexo:      a.IDAnexo,
		IDPaciente:   a.IDPaciente,
		Descricao:    a.Descricao,
		NomeArquivo:  a.NomeArquivo,
		Extensao:     a.Extensao,
		TamanhoBytes: a.TamanhoBytes,
		DataEnvio:    a.DataEnvio,
	}
}

func (h *Handler) ListAnexos(w http.ResponseWriter, r *http.Request) {
	pacienteID := pathID(r, "pacienteId")
	if _, ok := h.pacienteDoProfissional(r, pacienteID); !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	list, err := repo.AnexosByPaciente(r.Context(), h.DB, pacienteID)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	out := make([]AnexoResponse, 0, len(list))
	for i := range list {
		out = append(out, anexoResponse(&list[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// UploadAnexo recebe multipart/form-data com campos "arquivo" e "descricao".
// O arquivo é gravado em disco sob uma chave opaca; o nome original fica só no banco.
func (h *Handler) UploadAnexo(w http.ResponseWriter, r *http.Request) {
	pacienteID := pathID(r, "pacienteId")
	if _, ok := h.pacienteDoProfissional(r, pacienteID); !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	if err := r.ParseMultipartForm(maxAnexoBytes); err != nil {
		http.Error(w, `{"error":"arquivo inválido ou grande demais"}`, http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("arquivo")
	if err != nil {
		http.Error(w, `{"error":"campo arquivo é obrigatório"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	nomeArquivo := filepath.Base(header.Filename)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(nomeArquivo), "."))
	storageKey := uuid.NewString()
	if ext != "" {
		storageKey += "." + ext
	}
	if err := os.MkdirAll(h.Cfg.AnexosDir, 0o755); err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	dst, err := os.Create(filepath.Join(h.Cfg.AnexosDir, storageKey))
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	size, err := io.Copy(dst, io.LimitReader(file, maxAnexoBytes+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil || size > maxAnexoBytes {
		_ = os.Remove(filepath.Join(h.Cfg.AnexosDir, storageKey))
		http.Error(w, `{"error":"falha ao gravar arquivo"}`, http.StatusBadRequest)
		return
	}

	a := &repo.Anexo{
		IDPaciente:   pacienteID,
		Descricao:    strings.TrimSpace(r.FormValue("descricao")),
		NomeArquivo:  nomeArquivo,
		Extensao:     ext,
		TamanhoBytes: size,
		StorageKey:   storageKey,
	}
	id, err := repo.CreateAnexo(r.Context(), h.DB, a)
	if err != nil {
		_ = os.Remove(filepath.Join(h.Cfg.AnexosDir, storageKey))
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	a.IDAnexo = id
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(anexoResponse(a))
}

func (h *Handler) DownloadAnexo(w http.ResponseWriter, r *http.Request) {
	anexoID := pathID(r, "anexoId")
	profID := auth.UserIDFrom(r.Context())
	if profID == 0 || anexoID == 0 {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	a, err := repo.AnexoByID(r.Context(), h.DB, anexoID, profID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	path := filepath.Join(h.Cfg.AnexosDir, filepath.Base(a.StorageKey))
	f, err := os.Open(path)
	if err != nil {
		http.Error(w, `{"error":"arquivo não encontrado"}`, http.StatusNotFound)
		return
	}
	defer f.Close()

	ct := mime.TypeByExtension("." + a.Extensao)
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.NomeArquivo))
	_, _ = io.Copy(w, f)
}
