package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	flagBaseURL  string
	flagToken    string
	flagPaciente int64
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "prontcli",
		Short: "Cliente de terminal do prontuário NaraPsi",
		Long: `prontcli opera o prontuário pela linha de comando: lista, cria, edita,
conclui, exclui e baixa sessões de um paciente. Ações irreversíveis pedem
confirmação explícita.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flagBaseURL, "base-url", envOr("NARAPSI_API", "http://localhost:8080/api"), "URL base da API")
	root.PersistentFlags().StringVar(&flagToken, "token", os.Getenv("NARAPSI_TOKEN"), "JWT do profissional (ou NARAPSI_TOKEN)")

	root.AddCommand(newSessoesCmd())
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
