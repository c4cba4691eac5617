package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/narapsi/backend/internal/auth"
	"github.com/narapsi/backend/internal/cache"
	"github.com/narapsi/backend/internal/config"
	"github.com/narapsi/backend/internal/crypto"
	"github.com/narapsi/backend/internal/repo"
	"gorm.io/gorm"
)

type Handler struct {
	DB                     *gorm.DB
	Cfg                    *config.Config
	Cache                  *cache.TTL
	hashPassword           func(string) (string, error)
	sendPasswordResetEmail func(to, token string) error
}

func (h *Handler) SetHashPassword(fn func(string) (string, error)) { h.hashPassword = fn }
func (h *Handler) SetSendPasswordResetEmail(fn func(to, token string) error) {
	h.sendPasswordResetEmail = fn
}

// dataKeys retorna o mapa de chaves de criptografia e a versão corrente.
func (h *Handler) dataKeys() (map[string][]byte, string, error) {
	keysMap, err := crypto.ParseKeysEnv(h.Cfg.DataEncryptionKeys)
	if err != nil {
		return nil, "", err
	}
	keyVer := h.Cfg.CurrentDataKeyVer
	if keyVer == "" {
		keyVer = "v1"
	}
	return keysMap, keyVer, nil
}

// pathID lê um path var numérico (ex.: pacienteId). Retorna 0 se inválido.
func pathID(r *http.Request, name string) int64 {
	n, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// pacienteDoProfissional carrega o paciente garantindo que pertence ao profissional
// autenticado. Todo acesso a dados clínicos passa por aqui.
func (h *Handler) pacienteDoProfissional(r *http.Request, pacienteID int64) (*repo.Paciente, bool) {
	profID := auth.UserIDFrom(r.Context())
	if profID == 0 || pacienteID == 0 {
		return nil, false
	}
	p, err := repo.PacienteByID(r.Context(), h.DB, pacienteID, profID)
	if err != nil {
		return nil, false
	}
	return p, true
}
