package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/narapsi/backend/internal/api"
	"github.com/narapsi/backend/internal/auth"
	"github.com/narapsi/backend/internal/cache"
	"github.com/narapsi/backend/internal/config"
	"github.com/narapsi/backend/internal/email"
	"github.com/narapsi/backend/internal/middleware"
	"github.com/narapsi/backend/internal/migrate"
	"github.com/narapsi/backend/internal/seed"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			log.Fatalf("conexão postgres: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("conexão postgres: %v", err)
		}
		if cfg.DBMaxConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.DBMaxConns)
		}
		if cfg.DBMinConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.DBMinConns)
		}
		if cfg.DBMaxConnLifetime > 0 {
			sqlDB.SetConnMaxLifetime(cfg.DBMaxConnLifetime)
		}
		if err := sqlDB.Ping(); err != nil {
			log.Fatalf("ping postgres: %v", err)
		}
		if err := migrate.Run(context.Background(), db, "migrations"); err != nil {
			log.Fatalf("migrations: %v", err)
		}
		if err := seed.Run(context.Background(), db); err != nil {
			log.Printf("seed (ignored if already applied): %v", err)
		}
	}

	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	r.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"no database"}`))
			return
		}
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"db unhealthy"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	h := &api.Handler{DB: db, Cfg: cfg, Cache: cache.New(30 * time.Second)}
	h.SetHashPassword(auth.HashPassword)
	if cfg.AppPublicURL != "" {
		mailCfg := &email.Config{
			Host:     cfg.SMTPHost,
			Port:     email.PortFromString(cfg.SMTPPort),
			User:     cfg.SMTPUser,
			Pass:     cfg.SMTPPass,
			FromName: cfg.SMTPFromName,
			FromAddr: cfg.SMTPFromEmail,
		}
		mailCfg.LogConfigSummary()
		h.SetSendPasswordResetEmail(func(to, token string) error {
			resetURL := cfg.AppPublicURL + "/reset-password?token=" + token
			return mailCfg.SendPasswordReset(to, resetURL)
		})
	} else {
		log.Printf("[email] Envio de e-mail desativado: APP_PUBLIC_URL vazio. Defina APP_PUBLIC_URL para habilitar reset de senha por e-mail.")
	}

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	apiRouter.HandleFunc("/auth/password/forgot", h.ForgotPassword).Methods(http.MethodPost)
	apiRouter.HandleFunc("/auth/password/reset", h.ResetPassword).Methods(http.MethodPost)

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuthMiddleware(cfg.JWTSecret))
	protected.HandleFunc("/me", h.Me).Methods(http.MethodGet)
	protected.HandleFunc("/pacientes", h.ListPacientes).Methods(http.MethodGet)
	protected.HandleFunc("/pacientes", h.CreatePaciente).Methods(http.MethodPost)
	protected.HandleFunc("/pacientes/{pacienteId}", h.GetPaciente).Methods(http.MethodGet)
	protected.HandleFunc("/pacientes/{pacienteId}", h.UpdatePaciente).Methods(http.MethodPut)
	protected.HandleFunc("/pacientes/{pacienteId}", h.SoftDeletePaciente).Methods(http.MethodDelete)
	protected.HandleFunc("/pacientes/{pacienteId}/sessoes", h.ListSessoes).Methods(http.MethodGet)
	protected.HandleFunc("/pacientes/{pacienteId}/sessoes", h.CreateSessao).Methods(http.MethodPost)
	protected.HandleFunc("/pacientes/{pacienteId}/sessoes/{sessaoId}", h.UpdateSessao).Methods(http.MethodPut)
	protected.HandleFunc("/pacientes/{pacienteId}/sessoes/{sessaoId}", h.DeleteSessao).Methods(http.MethodDelete)
	protected.HandleFunc("/pacientes/{pacienteId}/sessoes/{sessaoId}/concluir", h.ConcluirSessao).Methods(http.MethodPatch)
	protected.HandleFunc("/pacientes/{pacienteId}/sessoes/{sessaoId}/download", h.DownloadSessao).Methods(http.MethodGet)
	protected.HandleFunc("/pacientes/{pacienteId}/anamnese", h.GetAnamnese).Methods(http.MethodGet)
	protected.HandleFunc("/pacientes/{pacienteId}/anamnese", h.SaveAnamnese).Methods(http.MethodPost)
	protected.HandleFunc("/pacientes/{pacienteId}/anexos", h.ListAnexos).Methods(http.MethodGet)
	protected.HandleFunc("/pacientes/{pacienteId}/anexos", h.UploadAnexo).Methods(http.MethodPost)
	protected.HandleFunc("/anexos/{anexoId}/download", h.DownloadAnexo).Methods(http.MethodGet)
	protected.HandleFunc("/pacientes/{pacienteId}/documentos", h.ListDocumentos).Methods(http.MethodGet)
	protected.HandleFunc("/pacientes/{pacienteId}/documentos", h.CreateDocumento).Methods(http.MethodPost)
	protected.HandleFunc("/documentos/{documentoId}/download", h.DownloadDocumento).Methods(http.MethodGet)

	chain := middleware.Recover(middleware.RequestID(middleware.Timeout(cfg.RequestTimeoutSec)(middleware.CORS(cfg.CORSOrigins)(middleware.Gzip(r)))))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      chain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("backend listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("backend stopped")
}
