package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/narapsi/backend/internal/migrate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OpenDB abre conexão GORM a partir de DATABASE_URL. Se não houver, retorna nil
// e os testes de integração devem pular.
func OpenDB(ctx context.Context) (*gorm.DB, string) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, ""
	}
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{})
	if err != nil {
		return nil, url
	}
	if _, err := db.DB(); err != nil {
		return nil, url
	}
	return db, url
}

func MustMigrate(ctx context.Context, db *gorm.DB) error {
	migrationsDir, err := findMigrationsDir()
	if err != nil {
		return err
	}
	return migrate.Run(ctx, db, migrationsDir)
}

// findMigrationsDir sobe a partir do diretório do teste até achar migrations/
// (os testes rodam dentro de internal/..., a pasta fica na raiz do módulo).
func findMigrationsDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "migrations")
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("migrations dir not found above working directory")
		}
		dir = parent
	}
}
