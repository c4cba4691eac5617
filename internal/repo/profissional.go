package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

type Profissional struct {
	ID           int64
	Nome         string
	Email        string
	PasswordHash string
	Role         string
}

func ProfissionalByEmail(ctx context.Context, db *gorm.DB, email string) (*Profissional, error) {
	var p Profissional
	err := db.WithContext(ctx).Raw(`
		SELECT id, nome, email, password_hash, role
		FROM profissionais
		WHERE lower(email) = lower(?)
	`, strings.TrimSpace(email)).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func ProfissionalByID(ctx context.Context, db *gorm.DB, id int64) (*Profissional, error) {
	var p Profissional
	err := db.WithContext(ctx).Raw(`
		SELECT id, nome, email, password_hash, role FROM profissionais WHERE id = ?
	`, id).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func CreateProfissional(ctx context.Context, db *gorm.DB, nome, email, passwordHash, role string) (int64, error) {
	var res struct{ ID int64 }
	err := db.WithContext(ctx).Raw(`
		INSERT INTO profissionais (nome, email, password_hash, role)
		VALUES (?, lower(?), ?, ?)
		RETURNING id
	`, nome, strings.TrimSpace(email), passwordHash, role).Scan(&res).Error
	return res.ID, err
}

func UpdateProfissionalPassword(ctx context.Context, db *gorm.DB, id int64, passwordHash string) error {
	result := db.WithContext(ctx).Exec(`
		UPDATE profissionais SET password_hash = ?, updated_at = now() WHERE id = ?
	`, passwordHash, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
