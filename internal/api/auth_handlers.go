package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/narapsi/backend/internal/auth"
	"github.com/narapsi/backend/internal/repo"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

type UserInfo struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Nome  string `json:"nome"`
	Role  string `json:"role"`
}

const tokenTTL = 24 * time.Hour

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, `{"error":"email and password required"}`, http.StatusBadRequest)
		return
	}
	prof, err := repo.ProfissionalByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		genericLoginError(w)
		return
	}
	if !auth.CheckPassword(prof.PasswordHash, req.Password) {
		genericLoginError(w)
		return
	}
	tok, err := auth.BuildJWT(h.Cfg.JWTSecret, prof.ID, prof.Email, prof.Role, tokenTTL)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(LoginResponse{
		Token:     tok,
		ExpiresAt: time.Now().Add(tokenTTL),
		User: UserInfo{
			ID:    prof.ID,
			Email: prof.Email,
			Nome:  prof.Nome,
			Role:  prof.Role,
		},
	})
}

// genericLoginError mantém a resposta idêntica para e-mail inexistente e senha errada.
func genericLoginError(w http.ResponseWriter) {
	http.Error(w, `{"error":"credenciais inválidas"}`, http.StatusUnauthorized)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	profID := auth.UserIDFrom(r.Context())
	prof, err := repo.ProfissionalByID(r.Context(), h.DB, profID)
	if err != nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(UserInfo{ID: prof.ID, Email: prof.Email, Nome: prof.Nome, Role: prof.Role})
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ForgotPassword sempre responde 200 com a mesma mensagem, exista o e-mail ou não.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		forgotPasswordOK(w)
		return
	}
	const exp = time.Hour
	if prof, err := repo.ProfissionalByEmail(r.Context(), h.DB, req.Email); err == nil {
		tok, errTok := repo.CreatePasswordResetToken(r.Context(), h.DB, prof.ID, exp)
		if errTok != nil {
			log.Printf("[password-reset] falha ao criar token para %s: %v", prof.Email, errTok)
		} else {
			if h.sendPasswordResetEmail != nil {
				if errSend := h.sendPasswordResetEmail(prof.Email, tok); errSend != nil {
					log.Printf("[password-reset] falha ao enviar e-mail para %s: %v", prof.Email, errSend)
				}
			} else {
				log.Printf("[password-reset] email desativado (enviaria para %s)", prof.Email)
			}
		}
	}
	forgotPasswordOK(w)
}

func forgotPasswordOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"message":"Se o e-mail existir, você receberá instruções."}`))
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if req.Token == "" || len(req.NewPassword) < 8 {
		http.Error(w, `{"error":"token e senha (mínimo 8 caracteres) são obrigatórios"}`, http.StatusBadRequest)
		return
	}
	profID, err := repo.ConsumePasswordResetToken(r.Context(), h.DB, req.Token)
	if err != nil {
		http.Error(w, `{"error":"token inválido ou expirado"}`, http.StatusBadRequest)
		return
	}
	if h.hashPassword == nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	hash, err := h.hashPassword(req.NewPassword)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if err := repo.UpdateProfissionalPassword(r.Context(), h.DB, profID, hash); err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"message":"Senha redefinida com sucesso."}`))
}
