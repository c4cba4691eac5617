package seed

import (
	"context"
	"log"

	"github.com/narapsi/backend/internal/auth"
	"gorm.io/gorm"
)

// Run garante um profissional padrão em bancos recém-criados, para que o app
// suba utilizável em dev. Não faz nada se já existir qualquer profissional.
func Run(ctx context.Context, db *gorm.DB) error {
	var n int
	if err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM profissionais").Scan(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := auth.HashPassword("ChangeMe123!")
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Exec(`
		INSERT INTO profissionais (nome, email, password_hash, role)
		VALUES (?, ?, ?, ?)
	`, "Profissional Padrão", "profissional@narapsi.local", hash, auth.RoleProfessional).Error; err != nil {
		return err
	}
	log.Printf("seed: profissional padrão criado (profissional@narapsi.local / ChangeMe123!)")
	return nil
}
