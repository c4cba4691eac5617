package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/narapsi/backend/internal/auth"
	"github.com/narapsi/backend/internal/crypto"
	"github.com/narapsi/backend/internal/repo"
	"gorm.io/gorm"
)

type PacienteRequest struct {
	Nome           string          `json:"nome"`
	DataNascimento *string         `json:"data_nascimento"`
	Sexo           *string         `json:"sexo"`
	Email          *string         `json:"email"`
	RG             *string         `json:"rg"`
	CPF            *string         `json:"cpf"`
	Anotacoes      string          `json:"anotacoes"`
	Telefones      json.RawMessage `json:"telefones"`
	Enderecos      json.RawMessage `json:"enderecos"`
	Familiares     json.RawMessage `json:"familiares"`
}

func (h *Handler) pacienteResponse(p *repo.Paciente, keysMap map[string][]byte) map[string]interface{} {
	out := map[string]interface{}{
		"id_paciente":        p.IDPaciente,
		"nome":               p.Nome,
		"data_nascimento":    p.DataNascimento,
		"idade":              idadeFrom(p.DataNascimento),
		"sexo":               p.Sexo,
		"email":              p.Email,
		"rg":                 p.RG,
		"anotacoes":          p.Anotacoes,
		"telefones":          json.RawMessage(jsonArrayOrEmpty(p.Telefones)),
		"enderecos":          json.RawMessage(jsonArrayOrEmpty(p.Enderecos)),
		"familiares":         json.RawMessage(jsonArrayOrEmpty(p.Familiares)),
		"ultima_data_sessao": p.UltimaSessao,
	}
	var cpf *string
	if p.CPFKeyVersion != nil && *p.CPFKeyVersion != "" && len(p.CPFEncrypted) > 0 && len(p.CPFNonce) > 0 {
		if dec, err := crypto.Decrypt(p.CPFEncrypted, p.CPFNonce, *p.CPFKeyVersion, keysMap); err == nil && len(dec) > 0 {
			s := string(dec)
			cpf = &s
		}
	}
	out["cpf"] = cpf
	return out
}

func jsonArrayOrEmpty(b []byte) []byte {
	if len(b) == 0 {
		return []byte("[]")
	}
	return b
}

// idadeFrom calcula a idade em anos a partir de YYYY-MM-DD; nil se desconhecida.
func idadeFrom(dataNascimento *string) *int {
	if dataNascimento == nil || *dataNascimento == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", *dataNascimento)
	if err != nil {
		return nil
	}
	now := time.Now()
	anos := now.Year() - t.Year()
	if now.Month() < t.Month() || (now.Month() == t.Month() && now.Day() < t.Day()) {
		anos--
	}
	return &anos
}

func (h *Handler) ListPacientes(w http.ResponseWriter, r *http.Request) {
	profID := auth.UserIDFrom(r.Context())
	if profID == 0 {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	if h.Cache != nil {
		if cached := h.Cache.Get(pacientesCacheKey(profID)); cached != nil {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(cached)
			return
		}
	}
	list, err := repo.PacientesByProfissional(r.Context(), h.DB, profID)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	keysMap, _, err := h.dataKeys()
	if err != nil {
		http.Error(w, `{"error":"config"}`, http.StatusInternalServerError)
		return
	}
	out := make([]map[string]interface{}, 0, len(list))
	for i := range list {
		out = append(out, h.pacienteResponse(&list[i], keysMap))
	}
	raw, err := json.Marshal(out)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if h.Cache != nil {
		h.Cache.Set(pacientesCacheKey(profID), raw)
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

func pacientesCacheKey(profID int64) string {
	return "pacientes:" + strconv.FormatInt(profID, 10)
}

func (h *Handler) GetPaciente(w http.ResponseWriter, r *http.Request) {
	pacienteID := pathID(r, "pacienteId")
	p, ok := h.pacienteDoProfissional(r, pacienteID)
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	keysMap, _, err := h.dataKeys()
	if err != nil {
		http.Error(w, `{"error":"config"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.pacienteResponse(p, keysMap))
}

func (h *Handler) CreatePaciente(w http.ResponseWriter, r *http.Request) {
	profID := auth.UserIDFrom(r.Context())
	if profID == 0 {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	var req PacienteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Nome = strings.TrimSpace(req.Nome)
	if req.Nome == "" {
		http.Error(w, `{"error":"nome é obrigatório"}`, http.StatusBadRequest)
		return
	}
	if req.Email != nil && *req.Email != "" {
		if err := ValidateEmailRegex(*req.Email); err != nil {
			http.Error(w, `{"error":"e-mail inválido"}`, http.StatusBadRequest)
			return
		}
	}
	p := &repo.Paciente{
		ProfissionalID: profID,
		Nome:           req.Nome,
		DataNascimento: req.DataNascimento,
		Sexo:           req.Sexo,
		Email:          req.Email,
		RG:             req.RG,
		Anotacoes:      req.Anotacoes,
		Telefones:      req.Telefones,
		Enderecos:      req.Enderecos,
		Familiares:     req.Familiares,
	}
	id, err := repo.CreatePaciente(r.Context(), h.DB, p)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if req.CPF != nil && strings.TrimSpace(*req.CPF) != "" {
		if err := h.setCPF(r, id, profID, *req.CPF); err != nil {
			writeCPFError(w, err)
			return
		}
	}
	if h.Cache != nil {
		h.Cache.Delete(pacientesCacheKey(profID))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]int64{"id_paciente": id})
}

func (h *Handler) UpdatePaciente(w http.ResponseWriter, r *http.Request) {
	pacienteID := pathID(r, "pacienteId")
	p, ok := h.pacienteDoProfissional(r, pacienteID)
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	var req PacienteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Nome = strings.TrimSpace(req.Nome)
	if req.Nome == "" {
		http.Error(w, `{"error":"nome é obrigatório"}`, http.StatusBadRequest)
		return
	}
	upd := &repo.Paciente{
		IDPaciente:     pacienteID,
		ProfissionalID: p.ProfissionalID,
		Nome:           req.Nome,
		DataNascimento: req.DataNascimento,
		Sexo:           req.Sexo,
		Email:          req.Email,
		RG:             req.RG,
		Anotacoes:      req.Anotacoes,
		Telefones:      req.Telefones,
		Enderecos:      req.Enderecos,
		Familiares:     req.Familiares,
	}
	if err := repo.UpdatePaciente(r.Context(), h.DB, upd); err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if req.CPF != nil {
		cpf := strings.TrimSpace(*req.CPF)
		if cpf == "" {
			if err := repo.ClearPacienteCPF(r.Context(), h.DB, pacienteID, p.ProfissionalID); err != nil {
				http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
				return
			}
		} else if err := h.setCPF(r, pacienteID, p.ProfissionalID, cpf); err != nil {
			writeCPFError(w, err)
			return
		}
	}
	if h.Cache != nil {
		h.Cache.Delete(pacientesCacheKey(p.ProfissionalID))
	}
	atualizado, err := repo.PacienteByID(r.Context(), h.DB, pacienteID, p.ProfissionalID)
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
	_ = json.NewEncoder(w).Encode(h.pacienteResponse(atualizado, keysMap))
}

func (h *Handler) SoftDeletePaciente(w http.ResponseWriter, r *http.Request) {
	pacienteID := pathID(r, "pacienteId")
	p, ok := h.pacienteDoProfissional(r, pacienteID)
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	if err := repo.SoftDeletePaciente(r.Context(), h.DB, pacienteID, p.ProfissionalID); err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if h.Cache != nil {
		h.Cache.Delete(pacientesCacheKey(p.ProfissionalID))
	}
	w.WriteHeader(http.StatusNoContent)
}

// setCPF criptografa e grava o CPF do paciente. O índice único por profissional
// detecta duplicidade (código 23505 do Postgres).
func (h *Handler) setCPF(r *http.Request, pacienteID, profID int64, cpf string) error {
	normalized := crypto.NormalizeCPF(cpf)
	if len(normalized) != 11 {
		return errInvalidCPF
	}
	keysMap, keyVer, err := h.dataKeys()
	if err != nil {
		return err
	}
	enc, nonce, err := crypto.Encrypt([]byte(normalized), keyVer, keysMap)
	if err != nil {
		return err
	}
	return repo.SetPacienteCPF(r.Context(), h.DB, pacienteID, profID, enc, nonce, keyVer, crypto.CPFHash(normalized))
}

var errInvalidCPF = errors.New("cpf inválido")

func writeCPFError(w http.ResponseWriter, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, errInvalidCPF):
		http.Error(w, `{"error":"cpf inválido"}`, http.StatusBadRequest)
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		http.Error(w, `{"error":"já existe paciente com este CPF"}`, http.StatusConflict)
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	default:
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}
}
