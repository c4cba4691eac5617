package repo

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"gorm.io/gorm"
)

func CreatePasswordResetToken(ctx context.Context, db *gorm.DB, profissionalID int64, exp time.Duration) (token string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token = hex.EncodeToString(b)
	expiresAt := time.Now().Add(exp)
	err = db.WithContext(ctx).Exec(`
		INSERT INTO password_reset_tokens (token, profissional_id, expires_at)
		VALUES (?, ?, ?)
	`, token, profissionalID, expiresAt).Error
	return token, err
}

// ConsumePasswordResetToken marca o token como usado e devolve o profissional dono.
// Token inexistente, expirado ou já usado retorna gorm.ErrRecordNotFound.
func ConsumePasswordResetToken(ctx context.Context, db *gorm.DB, token string) (int64, error) {
	var res struct{ ProfissionalID int64 }
	err := db.WithContext(ctx).Raw(`
		UPDATE password_reset_tokens SET used_at = now()
		WHERE token = ? AND used_at IS NULL AND expires_at > now()
		RETURNING profissional_id
	`, token).Scan(&res).Error
	if err != nil {
		return 0, err
	}
	if res.ProfissionalID == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return res.ProfissionalID, nil
}
