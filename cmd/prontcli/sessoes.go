package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/narapsi/backend/pkg/sessoes"
	"github.com/spf13/cobra"
)

func newSessoesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessoes",
		Short: "Sessões do paciente",
	}
	cmd.PersistentFlags().Int64Var(&flagPaciente, "paciente", 0, "id do paciente")
	_ = cmd.MarkPersistentFlagRequired("paciente")

	cmd.AddCommand(newSessoesListCmd())
	cmd.AddCommand(newSessoesNovaCmd())
	cmd.AddCommand(newSessoesEditarCmd())
	cmd.AddCommand(newSessoesExcluirCmd())
	cmd.AddCommand(newSessoesConcluirCmd())
	cmd.AddCommand(newSessoesBaixarCmd())
	return cmd
}

func newStore() *sessoes.Store {
	return sessoes.NewStore(sessoes.NewClient(flagBaseURL, flagToken), flagPaciente)
}

func parseSessaoArg(args []string) (int64, error) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id de sessão inválido: %q", args[0])
	}
	return id, nil
}

// fetchInto carrega o cache do Store; todos os comandos partem de uma listagem
// fresca para que os gates validem a situação atual da sessão.
func fetchInto(cmd *cobra.Command, st *sessoes.Store) error {
	_, err := st.Fetch(cmd.Context())
	return err
}

func newSessoesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lista as sessões, mais recente primeiro",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := newStore()
			if err := fetchInto(cmd, st); err != nil {
				return err
			}
			list := st.Sessoes()
			if len(list) == 0 {
				cmd.Println("nenhuma sessão registrada")
				return nil
			}
			for _, s := range list {
				marker := " "
				if !s.Editavel() {
					marker = "*"
				}
				cmd.Printf("%s %6d  %s  %-9s  %s\n", marker, s.IDSessao, s.DataSessao, s.Situacao, resumo(s.Conteudo))
			}
			cmd.Println("\n* = concluída (não aceita edição nem exclusão)")
			return nil
		},
	}
}

// resumo tira as tags HTML e corta o texto para caber em uma linha da listagem.
func resumo(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	s := strings.Join(strings.Fields(b.String()), " ")
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}

func newSessoesNovaCmd() *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "nova",
		Short: "Cria uma sessão em rascunho com o conteúdo da entrada padrão",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := newStore()
			ed := sessoes.NewEditor(st)
			ed.AbrirNova()
			if data != "" {
				ed.DataSessao = data
			}
			conteudo, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			ed.Conteudo = string(conteudo)
			s, err := ed.Submit(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("sessão %d criada (%s, %s)\n", s.IDSessao, s.DataSessao, s.Situacao)
			return nil
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "data da sessão (YYYY-MM-DD, padrão hoje)")
	return cmd
}

func newSessoesEditarCmd() *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "editar <sessao>",
		Short: "Regrava data e conteúdo de um rascunho (conteúdo pela entrada padrão)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessaoArg(args)
			if err != nil {
				return err
			}
			st := newStore()
			if err := fetchInto(cmd, st); err != nil {
				return err
			}
			alvo, ok := st.Sessao(id)
			if !ok {
				return fmt.Errorf("sessão %d não encontrada para o paciente %d", id, flagPaciente)
			}
			if !alvo.Editavel() {
				return errors.New("sessão concluída não aceita edição")
			}
			ed := sessoes.NewEditor(st)
			ed.AbrirEdicao(alvo)
			if data != "" {
				ed.DataSessao = data
			}
			conteudo, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			ed.Conteudo = string(conteudo)
			s, err := ed.Submit(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("sessão %d atualizada (%s)\n", s.IDSessao, s.DataSessao)
			return nil
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "nova data da sessão (YYYY-MM-DD)")
	return cmd
}

// confirmar lê a resposta do terminal para um gate armado. Só "sim" confirma.
func confirmar(cmd *cobra.Command, aviso string) bool {
	cmd.Printf("%s\nDigite \"sim\" para confirmar: ", aviso)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, _ := reader.ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(line), "sim")
}

func newSessoesExcluirCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "excluir <sessao>",
		Short: "Exclui um rascunho (pede confirmação)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessaoArg(args)
			if err != nil {
				return err
			}
			st := newStore()
			if err := fetchInto(cmd, st); err != nil {
				return err
			}
			alvo, ok := st.Sessao(id)
			if !ok {
				return fmt.Errorf("sessão %d não encontrada para o paciente %d", id, flagPaciente)
			}
			gate := sessoes.NewExcluirGate(st)
			if err := gate.Abrir(alvo); err != nil {
				return err
			}
			if !force && !confirmar(cmd, fmt.Sprintf("A sessão %d (%s) será excluída em definitivo.", id, alvo.DataSessao)) {
				gate.Cancelar()
				cmd.Println("cancelado")
				return nil
			}
			if err := gate.Confirmar(cmd.Context()); err != nil {
				return err
			}
			cmd.Printf("sessão %d excluída\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "sim", false, "confirma sem perguntar")
	return cmd
}

func newSessoesConcluirCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "concluir <sessao>",
		Short: "Conclui um rascunho; depois disso a sessão fica imutável",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessaoArg(args)
			if err != nil {
				return err
			}
			st := newStore()
			if err := fetchInto(cmd, st); err != nil {
				return err
			}
			alvo, ok := st.Sessao(id)
			if !ok {
				return fmt.Errorf("sessão %d não encontrada para o paciente %d", id, flagPaciente)
			}
			gate := sessoes.NewConcluirGate(st)
			if err := gate.Abrir(alvo); err != nil {
				return err
			}
			aviso := fmt.Sprintf("Concluir a sessão %d é irreversível: ela não aceitará mais edição nem exclusão.", id)
			if !force && !confirmar(cmd, aviso) {
				gate.Cancelar()
				cmd.Println("cancelado")
				return nil
			}
			if err := gate.Confirmar(cmd.Context()); err != nil {
				return err
			}
			cmd.Printf("sessão %d concluída\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "sim", false, "confirma sem perguntar")
	return cmd
}

func newSessoesBaixarCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "baixar <sessao>",
		Short: "Baixa o PDF da sessão (rascunho ou concluída)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessaoArg(args)
			if err != nil {
				return err
			}
			st := newStore()
			ex := sessoes.NewExporter(st, dir)
			path, err := ex.Exportar(cmd.Context(), id)
			if err != nil {
				return err
			}
			cmd.Printf("gravado em %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "diretório de destino")
	return cmd
}
