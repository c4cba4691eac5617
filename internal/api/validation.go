package api

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// emailRegex valida formato de e-mail (uma @ e domínio com ponto).
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidateEmailRegex(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !emailRegex.MatchString(email) {
		return errors.New("e-mail inválido")
	}
	return nil
}

// ValidateConteudoSessao rejeita conteúdo vazio ou só espaços. O mesmo critério vale
// no cliente; o servidor revalida porque é o árbitro final.
func ValidateConteudoSessao(conteudo string) error {
	if strings.TrimSpace(conteudo) == "" {
		return errors.New("conteúdo da sessão é obrigatório")
	}
	return nil
}

// formatDateBR converte YYYY-MM-DD em DD/MM/YYYY; retorna "" se inválido.
func formatDateBR(iso string) string {
	if iso == "" {
		return ""
	}
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return ""
	}
	return t.Format("02/01/2006")
}
