package repo

import (
	"context"

	"gorm.io/gorm"
)

type Anexo struct {
	IDAnexo      int64
	IDPaciente   int64
	Descricao    string
	NomeArquivo  string
	Extensao     string
	TamanhoBytes int64
	StorageKey   string
	DataEnvio    string
}

func AnexosByPaciente(ctx context.Context, db *gorm.DB, pacienteID int64) ([]Anexo, error) {
	var list []Anexo
	err := db.WithContext(ctx).Raw(`
		SELECT id_anexo, id_paciente, descricao, nome_arquivo, extensao, tamanho_bytes, storage_key, data_envio::text
		FROM anexos
		WHERE id_paciente = ?
		ORDER BY id_anexo DESC
	`, pacienteID).Scan(&list).Error
	return list, err
}

// AnexoByID busca um anexo junto com o profissional dono do paciente, para checagem de acesso.
func AnexoByID(ctx context.Context, db *gorm.DB, anexoID, profissionalID int64) (*Anexo, error) {
	var a Anexo
	err := db.WithContext(ctx).Raw(`
		SELECT a.id_anexo, a.id_paciente, a.descricao, a.nome_arquivo, a.extensao, a.tamanho_bytes, a.storage_key, a.data_envio::text
		FROM anexos a
		JOIN pacientes p ON p.id_paciente = a.id_paciente
		WHERE a.id_anexo = ? AND p.profissional_id = ? AND p.deleted_at IS NULL
	`, anexoID, profissionalID).Scan(&a).Error
	if err != nil {
		return nil, err
	}
	if a.IDAnexo == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func CreateAnexo(ctx context.Context, db *gorm.DB, a *Anexo) (int64, error) {
	var res struct{ IDAnexo int64 }
	err := db.WithContext(ctx).Raw(`
		INSERT INTO anexos (id_paciente, descricao, nome_arquivo, extensao, tamanho_bytes, storage_key)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id_anexo
	`, a.IDPaciente, a.Descricao, a.NomeArquivo, a.Extensao, a.TamanhoBytes, a.StorageKey).Scan(&res).Error
	return res.IDAnexo, err
}
