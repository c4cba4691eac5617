package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

const (
	SituacaoEditando  = "EDITANDO"
	SituacaoConcluido = "CONCLUIDO"
)

// ErrSessaoConcluida é retornado quando uma escrita atinge uma sessão já concluída.
// Sessões concluídas são imutáveis: apenas leitura e download.
var ErrSessaoConcluida = errors.New("sessão concluída não pode ser alterada")

type Sessao struct {
	IDSessao           int64
	IDPaciente         int64
	DataSessao         string
	ConteudoEncrypted  []byte
	ConteudoNonce      []byte
	ConteudoKeyVersion string
	Situacao           string
}

// SessoesByPaciente retorna as sessões do paciente em ordem de criação, mais recente primeiro.
func SessoesByPaciente(ctx context.Context, db *gorm.DB, pacienteID int64) ([]Sessao, error) {
	var list []Sessao
	err := db.WithContext(ctx).Raw(`
		SELECT id_sessao, id_paciente, data_sessao::text, conteudo_encrypted, conteudo_nonce, conteudo_key_version, situacao
		FROM sessoes
		WHERE id_paciente = ?
		ORDER BY id_sessao DESC
	`, pacienteID).Scan(&list).Error
	return list, err
}

func SessaoByID(ctx context.Context, db *gorm.DB, sessaoID, pacienteID int64) (*Sessao, error) {
	var s Sessao
	err := db.WithContext(ctx).Raw(`
		SELECT id_sessao, id_paciente, data_sessao::text, conteudo_encrypted, conteudo_nonce, conteudo_key_version, situacao
		FROM sessoes
		WHERE id_sessao = ? AND id_paciente = ?
	`, sessaoID, pacienteID).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.IDSessao == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func CreateSessao(ctx context.Context, db *gorm.DB, pacienteID int64, dataSessao string, enc, nonce []byte, keyVersion string) (int64, error) {
	var res struct{ IDSessao int64 }
	err := db.WithContext(ctx).Raw(`
		INSERT INTO sessoes (id_paciente, data_sessao, conteudo_encrypted, conteudo_nonce, conteudo_key_version)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id_sessao
	`, pacienteID, dataSessao, enc, nonce, keyVersion).Scan(&res).Error
	return res.IDSessao, err
}

// UpdateSessao altera data e conteúdo de uma sessão em edição. O filtro por situação
// faz o banco ser o árbitro final: sessão concluída resulta em zero linhas afetadas.
func UpdateSessao(ctx context.Context, db *gorm.DB, sessaoID, pacienteID int64, dataSessao string, enc, nonce []byte, keyVersion string) error {
	result := db.WithContext(ctx).Exec(`
		UPDATE sessoes
		SET data_sessao = ?, conteudo_encrypted = ?, conteudo_nonce = ?, conteudo_key_version = ?, updated_at = now()
		WHERE id_sessao = ? AND id_paciente = ? AND situacao = ?
	`, dataSessao, enc, nonce, keyVersion, sessaoID, pacienteID, SituacaoEditando)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return writeBlockReason(ctx, db, sessaoID, pacienteID)
	}
	return nil
}

// DeleteSessao remove uma sessão em edição. Sessões concluídas não são removíveis.
func DeleteSessao(ctx context.Context, db *gorm.DB, sessaoID, pacienteID int64) error {
	result := db.WithContext(ctx).Exec(`
		DELETE FROM sessoes WHERE id_sessao = ? AND id_paciente = ? AND situacao = ?
	`, sessaoID, pacienteID, SituacaoEditando)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return writeBlockReason(ctx, db, sessaoID, pacienteID)
	}
	return nil
}

// ConcluirSessao faz a transição EDITANDO -> CONCLUIDO. A transição é unidirecional;
// concluir uma sessão já concluída retorna ErrSessaoConcluida.
func ConcluirSessao(ctx context.Context, db *gorm.DB, sessaoID, pacienteID int64) error {
	result := db.WithContext(ctx).Exec(`
		UPDATE sessoes SET situacao = ?, updated_at = now()
		WHERE id_sessao = ? AND id_paciente = ? AND situacao = ?
	`, SituacaoConcluido, sessaoID, pacienteID, SituacaoEditando)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return writeBlockReason(ctx, db, sessaoID, pacienteID)
	}
	return nil
}

// writeBlockReason distingue "não existe" de "existe mas está concluída" após
// uma escrita que afetou zero linhas.
func writeBlockReason(ctx context.Context, db *gorm.DB, sessaoID, pacienteID int64) error {
	var situacao string
	err := db.WithContext(ctx).Raw(`
		SELECT situacao FROM sessoes WHERE id_sessao = ? AND id_paciente = ?
	`, sessaoID, pacienteID).Scan(&situacao).Error
	if err != nil {
		return err
	}
	if situacao == SituacaoConcluido {
		return ErrSessaoConcluida
	}
	return gorm.ErrRecordNotFound
}
