package auth

import "golang.org/x/crypto/bcrypt"

// Custo de bcrypt acima do default: senhas de profissionais protegem dados
// clínicos e o login é raro o bastante para pagar o custo extra.
const bcryptCost = 12

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	return string(hash), err
}

// CheckPassword compara em tempo constante; qualquer erro conta como senha errada.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
