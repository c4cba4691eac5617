package repo

import (
	"context"

	"gorm.io/gorm"
)

type Anamnese struct {
	IDAnamneses       int64
	IDPaciente        int64
	EstruturaFamiliar string
	Profissao         string
	Religiao          string
	Escolaridade      string
	QualidadeSono     string
	Medicamentos      string
	HistoricoFamiliar string
	TraumaRelevante   string
	Hobbies           string
	QueixaPrincipal   string
	EvolucaoQueixa    string
	HistoriaPregressa string
	AnotacoesGerais   string
}

func AnamneseByPaciente(ctx context.Context, db *gorm.DB, pacienteID int64) (*Anamnese, error) {
	var a Anamnese
	err := db.WithContext(ctx).Raw(`
		SELECT id_anamneses, id_paciente, estrutura_familiar, profissao, religiao, escolaridade,
		       qualidade_sono, medicamentos, historico_familiar, trauma_relevante, hobbies,
		       queixa_principal, evolucao_queixa, historia_pregressa, anotacoes_gerais
		FROM anamneses
		WHERE id_paciente = ?
	`, pacienteID).Scan(&a).Error
	if err != nil {
		return nil, err
	}
	if a.IDAnamneses == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

// UpsertAnamnese cria ou substitui a anamnese do paciente (uma por paciente).
func UpsertAnamnese(ctx context.Context, db *gorm.DB, a *Anamnese) (int64, error) {
	var res struct{ IDAnamneses int64 }
	err := db.WithContext(ctx).Raw(`
		INSERT INTO anamneses (
			id_paciente, estrutura_familiar, profissao, religiao, escolaridade, qualidade_sono,
			medicamentos, historico_familiar, trauma_relevante, hobbies, queixa_principal,
			evolucao_queixa, historia_pregressa, anotacoes_gerais
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id_paciente) DO UPDATE SET
			estrutura_familiar = EXCLUDED.estrutura_familiar,
			profissao = EXCLUDED.profissao,
			religiao = EXCLUDED.religiao,
			escolaridade = EXCLUDED.escolaridade,
			qualidade_sono = EXCLUDED.qualidade_sono,
			medicamentos = EXCLUDED.medicamentos,
			historico_familiar = EXCLUDED.historico_familiar,
			trauma_relevante = EXCLUDED.trauma_relevante,
			hobbies = EXCLUDED.hobbies,
			queixa_principal = EXCLUDED.queixa_principal,
			evolucao_queixa = EXCLUDED.evolucao_queixa,
			historia_pregressa = EXCLUDED.historia_pregressa,
			anotacoes_gerais = EXCLUDED.anotacoes_gerais,
			updated_at = now()
		RETURNING id_anamneses
	`, a.IDPaciente, a.EstruturaFamiliar, a.Profissao, a.Religiao, a.Escolaridade, a.QualidadeSono,
		a.Medicamentos, a.HistoricoFamiliar, a.TraumaRelevante, a.Hobbies, a.QueixaPrincipal,
		a.EvolucaoQueixa, a.HistoriaPregressa, a.AnotacoesGerais).Scan(&res).Error
	return res.IDAnamneses, err
}
