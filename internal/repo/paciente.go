package repo

import (
	"context"

	"gorm.io/gorm"
)

type Paciente struct {
	IDPaciente     int64
	ProfissionalID int64
	Nome           string
	DataNascimento *string
	Sexo           *string
	Email          *string
	RG             *string `gorm:"column:rg"`
	Anotacoes      string
	Telefones      []byte
	Enderecos      []byte
	Familiares     []byte
	CPFEncrypted   []byte
	CPFNonce       []byte
	CPFKeyVersion  *string
	CPFHash        *string
	UltimaSessao   *string
}

const pacienteCols = `
	p.id_paciente, p.profissional_id, p.nome, p.data_nascimento::text, p.sexo, p.email, p.rg,
	p.anotacoes, p.telefones, p.enderecos, p.familiares,
	p.cpf_encrypted, p.cpf_nonce, p.cpf_key_version, p.cpf_hash
`

// PacientesByProfissional lista pacientes ativos do profissional com a data da última
// sessão registrada (para a listagem da tela de pacientes).
func PacientesByProfissional(ctx context.Context, db *gorm.DB, profissionalID int64) ([]Paciente, error) {
	var list []Paciente
	err := db.WithContext(ctx).Raw(`
		SELECT `+pacienteCols+`,
		       (SELECT max(s.data_sessao)::text FROM sessoes s WHERE s.id_paciente = p.id_paciente) AS ultima_sessao
		FROM pacientes p
		WHERE p.profissional_id = ? AND p.deleted_at IS NULL
		ORDER BY p.nome
	`, profissionalID).Scan(&list).Error
	return list, err
}

func PacienteByID(ctx context.Context, db *gorm.DB, id, profissionalID int64) (*Paciente, error) {
	var p Paciente
	err := db.WithContext(ctx).Raw(`
		SELECT `+pacienteCols+`,
		       (SELECT max(s.data_sessao)::text FROM sessoes s WHERE s.id_paciente = p.id_paciente) AS ultima_sessao
		FROM pacientes p
		WHERE p.id_paciente = ? AND p.profissional_id = ? AND p.deleted_at IS NULL
	`, id, profissionalID).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.IDPaciente == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func CreatePaciente(ctx context.Context, db *gorm.DB, p *Paciente) (int64, error) {
	var res struct{ IDPaciente int64 }
	err := db.WithContext(ctx).Raw(`
		INSERT INTO pacientes (profissional_id, nome, data_nascimento, sexo, email, rg, anotacoes, telefones, enderecos, familiares)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id_paciente
	`, p.ProfissionalID, p.Nome, p.DataNascimento, p.Sexo, p.Email, p.RG, p.Anotacoes,
		jsonOrEmptyArray(p.Telefones), jsonOrEmptyArray(p.Enderecos), jsonOrEmptyArray(p.Familiares)).Scan(&res).Error
	return res.IDPaciente, err
}

func UpdatePaciente(ctx context.Context, db *gorm.DB, p *Paciente) error {
	result := db.WithContext(ctx).Exec(`
		UPDATE pacientes
		SET nome = ?, data_nascimento = ?, sexo = ?, email = ?, rg = ?, anotacoes = ?,
		    telefones = ?, enderecos = ?, familiares = ?, updated_at = now()
		WHERE id_paciente = ? AND profissional_id = ? AND deleted_at IS NULL
	`, p.Nome, p.DataNascimento, p.Sexo, p.Email, p.RG, p.Anotacoes,
		jsonOrEmptyArray(p.Telefones), jsonOrEmptyArray(p.Enderecos), jsonOrEmptyArray(p.Familiares),
		p.IDPaciente, p.ProfissionalID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func SoftDeletePaciente(ctx context.Context, db *gorm.DB, id, profissionalID int64) error {
	result := db.WithContext(ctx).Exec(`
		UPDATE pacientes SET deleted_at = now(), updated_at = now()
		WHERE id_paciente = ? AND profissional_id = ? AND deleted_at IS NULL
	`, id, profissionalID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func SetPacienteCPF(ctx context.Context, db *gorm.DB, id, profissionalID int64, cpfEnc, cpfNonce []byte, cpfKeyVersion, cpfHash string) error {
	result := db.WithContext(ctx).Exec(`
		UPDATE pacientes
		SET cpf_encrypted = ?, cpf_nonce = ?, cpf_key_version = ?::text, cpf_hash = ?::text, updated_at = now()
		WHERE id_paciente = ? AND profissional_id = ? AND deleted_at IS NULL
	`, cpfEnc, cpfNonce, cpfKeyVersion, cpfHash, id, profissionalID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func ClearPacienteCPF(ctx context.Context, db *gorm.DB, id, profissionalID int64) error {
	result := db.WithContext(ctx).Exec(`
		UPDATE pacientes
		SET cpf_encrypted = NULL, cpf_nonce = NULL, cpf_key_version = NULL, cpf_hash = NULL, updated_at = now()
		WHERE id_paciente = ? AND profissional_id = ? AND deleted_at IS NULL
	`, id, profissionalID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// jsonOrEmptyArray evita NULL em colunas JSONB quando o chamador não envia o campo.
func jsonOrEmptyArray(b []byte) string {
	if len(b) == 0 {
		return "[]"
	}
	return string(b)
}
