package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/narapsi/backend/internal/repo"
	"gorm.io/gorm"
)

type AnamneseRequest struct {
	EstruturaFamiliar string `json:"estrutura_familiar"`
	Profissao         string `json:"profissao"`
	Religiao          string `json:"religiao"`
	Escolaridade      string `json:"escolaridade"`
	QualidadeSono     string `json:"qualidade_sono"`
	Medicamentos      string `json:"medicamentos"`
	HistoricoFamiliar string `json:"historico_familiar"`
	TraumaRelevante   string `json:"trauma_relevante"`
	Hobbies           string `json:"hobbies"`
	QueixaPrincipal   string `json:"queixa_principal"`
	EvolucaoQueixa    string `json:"evolucao_queixa"`
	HistoriaPregressa string `json:"historia_pregressa"`
	AnotacoesGerais   string `json:"anotacoes_gerais"`
}

type AnamneseResponse struct {
	IDAnamneses int64 `json:"id_anamneses"`
	IDPaciente  int64 `json:"id_paciente"`
	AnamneseRequest
}

func anamneseResponse(a *repo.Anamnese) AnamneseResponse {
	return AnamneseResponse{
		IDAnamneses: a.IDAnamneses,
		IDPaciente:  a.IDPaciente,
		AnamneseRequest: AnamneseRequest{
			EstruturaFamiliar: a.EstruturaFamiliar,
			Profissao:         a.Profissao,
			Religiao:          a.Religiao,
			Escolaridade:      a.Escolaridade,
			QualidadeSono:     a.QualidadeSono,
			Medicamentos:      a.Medicamentos,
			HistoricoFamiliar: a.HistoricoFamiliar,
			TraumaRelevante:   a.TraumaRelevante,
			Hobbies:           a.Hobbies,
			QueixaPrincipal:   a.QueixaPrincipal,
			EvolucaoQueixa:    a.EvolucaoQueixa,
			HistoriaPregressa: a.HistoriaPregressa,
			AnotacoesGerais:   a.AnotacoesGerais,
		},
	}
}

func (h *Handler) GetAnamnese(w http.ResponseWriter, r *http.Request) {
	pacienteID := pathID(r, "pacienteId")
	if _, ok := h.pacienteDoProfissional(r, pacienteID); !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	a, err := repo.AnamneseByPaciente(r.Context(), h.DB, pacienteID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, `{"error":"anamnese não preenchida"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(anamneseResponse(a))
}

// SaveAnamnese cria ou atualiza a anamnese do paciente (uma por paciente).
func (h *Handler) SaveAnamnese(w http.ResponseWriter, r *http.Request) {
	pacienteID := pathID(r, "pacienteId")
	if _, ok := h.pacienteDoProfissional(r, pacienteID); !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	var req AnamneseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	a := &repo.Anamnese{
		IDPaciente:        pacienteID,
		EstruturaFamiliar: req.EstruturaFamiliar,
		Profissao:         req.Profissao,
		Religiao:          req.Religiao,
		Escolaridade:      req.Escolaridade,
		QualidadeSono:     req.QualidadeSono,
		Medicamentos:      req.Medicamentos,
		HistoricoFamiliar: req.HistoricoFamiliar,
		TraumaRelevante:   req.TraumaRelevante,
		Hobbies:           req.Hobbies,
		QueixaPrincipal:   req.QueixaPrincipal,
		EvolucaoQueixa:    req.EvolucaoQueixa,
		HistoriaPregressa: req.HistoriaPregressa,
		AnotacoesGerais:   req.AnotacoesGerais,
	}
	id, err := repo.UpsertAnamnese(r.Context(), h.DB, a)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	a.IDAnamneses = id
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(anamneseResponse(a))
}
