package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeCPF descarta máscara e espaços, sobrando só os 11 dígitos.
func NormalizeCPF(cpf string) string {
	var b strings.Builder
	b.Grow(11)
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CPFHash é o SHA-256 (hex) do CPF normalizado. O hash vai para o índice de
// unicidade por profissional; o CPF em si só existe cifrado.
func CPFHash(cpfNormalized string) string {
	sum := sha256.Sum256([]byte(cpfNormalized))
	return hex.EncodeToString(sum[:])
}
