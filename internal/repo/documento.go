package repo

import (
	"context"

	"gorm.io/gorm"
)

type Documento struct {
	IDDocumento       int64
	IDPaciente        int64
	Nome              string
	Conteudo          string
	VerificationToken string
	DataCriacao       string
	DataAtualizacao   string
}

func DocumentosByPaciente(ctx context.Context, db *gorm.DB, pacienteID int64) ([]Documento, error) {
	var list []Documento
	err := db.WithContext(ctx).Raw(`
		SELECT id_documento, id_paciente, nome, conteudo, verification_token, data_criacao::text, data_atualizacao::text
		FROM documentos
		WHERE id_paciente = ?
		ORDER BY id_documento DESC
	`, pacienteID).Scan(&list).Error
	return list, err
}

func DocumentoByID(ctx context.Context, db *gorm.DB, documentoID, profissionalID int64) (*Documento, error) {
	var d Documento
	err := db.WithContext(ctx).Raw(`
		SELECT d.id_documento, d.id_paciente, d.nome, d.conteudo, d.verification_token, d.data_criacao::text, d.data_atualizacao::text
		FROM documentos d
		JOIN pacientes p ON p.id_paciente = d.id_paciente
		WHERE d.id_documento = ? AND p.profissional_id = ? AND p.deleted_at IS NULL
	`, documentoID, profissionalID).Scan(&d).Error
	if err != nil {
		return nil, err
	}
	if d.IDDocumento == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &d, nil
}

func CreateDocumento(ctx context.Context, db *gorm.DB, pacienteID int64, nome, conteudo, verificationToken string) (int64, error) {
	var res struct{ IDDocumento int64 }
	err := db.WithContext(ctx).Raw(`
		INSERT INTO documentos (id_paciente, nome, conteudo, verification_token)
		VALUES (?, ?, ?, ?)
		RETURNING id_documento
	`, pacienteID, nome, conteudo, verificationToken).Scan(&res).Error
	return res.IDDocumento, err
}
