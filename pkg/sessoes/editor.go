package sessoes

import (
	"context"
	"strings"
	"time"
)

// Editor é a superfície única de formulário para criar uma sessão nova ou
// editar um rascunho existente, distinguidas pelo id alvo no momento da
// abertura. Em falha ele permanece aberto com o que foi digitado; só fecha e
// limpa depois de um sucesso.
type Editor struct {
	store *Store

	aberto   bool
	sessaoID int64 // 0 = sessão nova

	DataSessao string
	Conteudo   string
}

func NewEditor(store *Store) *Editor {
	return &Editor{store: store}
}

func (e *Editor) Aberto() bool { return e.aberto }

// Editando informa se o editor está em modo edição (true) ou criação (false).
func (e *Editor) Editando() bool { return e.sessaoID != 0 }

// AbrirNova abre o editor em modo criação: data de hoje, conteúdo vazio.
func (e *Editor) AbrirNova() {
	e.aberto = true
	e.sessaoID = 0
	e.DataSessao = time.Now().Format("2006-01-02")
	e.Conteudo = ""
}

// AbrirEdicao abre o editor carregado com um rascunho existente. Quem chama só
// deve oferecer edição para rascunhos; ainda assim, um submit contra uma sessão
// concluída volta como PersistError porque o servidor reexecuta a checagem.
func (e *Editor) AbrirEdicao(s Sessao) {
	e.aberto = true
	e.sessaoID = s.IDSessao
	e.DataSessao = s.DataSessao
	e.Conteudo = s.Conteudo
}

// Submit valida e delega ao Store (create ou update conforme o modo). Conteúdo
// vazio bloqueia o envio antes de qualquer chamada de rede.
func (e *Editor) Submit(ctx context.Context) (*Sessao, error) {
	if !e.aberto {
		return nil, &ValidationError{Campo: "editor", Msg: "editor não está aberto"}
	}
	if strings.TrimSpace(e.Conteudo) == "" {
		return nil, &ValidationError{Campo: "conteudo", Msg: "o conteúdo da sessão é obrigatório"}
	}

	var (
		s   *Sessao
		err error
	)
	if e.sessaoID == 0 {
		s, err = e.store.Create(ctx, e.DataSessao, e.Conteudo)
	} else {
		s, err = e.store.Update(ctx, e.sessaoID, e.DataSessao, e.Conteudo)
	}
	if err != nil {
		return nil, err
	}
	e.Fechar()
	return s, nil
}

// Fechar descarta o formulário. Uma requisição já em voo não é cancelada; o
// Store aplica o resultado ao cache mesmo assim.
func (e *Editor) Fechar() {
	e.aberto = false
	e.sessaoID = 0
	e.DataSessao = ""
	e.Conteudo = ""
}
