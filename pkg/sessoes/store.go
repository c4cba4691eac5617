package sessoes

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// opClass é a classe de operação cujo andamento bloqueia repetições. Espelha o
// desabilitar de controle da interface: no máximo uma chamada em voo por classe.
type opClass string

const (
	opListar   opClass = "listar"
	opSalvar   opClass = "salvar"
	opExcluir  opClass = "excluir"
	opConcluir opClass = "concluir"
	opExportar opClass = "exportar"
)

// Store é o cache em memória das sessões de um paciente e a superfície de
// comandos sobre ele. O backend é dono da cópia durável; o cache só muda depois
// de uma resposta de sucesso (replace-on-success) e fica intacto em falha.
type Store struct {
	client     *Client
	pacienteID int64

	mu      sync.Mutex
	sessoes []Sessao
	pending map[opClass]bool
}

func NewStore(client *Client, pacienteID int64) *Store {
	return &Store{
		client:     client,
		pacienteID: pacienteID,
		pending:    make(map[opClass]bool),
	}
}

func (st *Store) PacienteID() int64 { return st.pacienteID }

// Sessoes devolve uma cópia do cache, da mais recente para a mais antiga.
func (st *Store) Sessoes() []Sessao {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]Sessao, len(st.sessoes))
	copy(out, st.sessoes)
	return out
}

// Sessao busca uma sessão do cache pelo id.
func (st *Store) Sessao(sessaoID int64) (Sessao, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, s := range st.sessoes {
		if s.IDSessao == sessaoID {
			return s, true
		}
	}
	return Sessao{}, false
}

// Pendente informa se há operação da classe dada em andamento.
func (st *Store) Pendente(class string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.pending[opClass(class)]
}

func (st *Store) begin(class opClass) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.pending[class] {
		return ErrOperacaoPendente
	}
	st.pending[class] = true
	return nil
}

func (st *Store) end(class opClass) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.pending, class)
}

// Fetch recarrega o cache do backend. A lista substitui a anterior por inteiro;
// nunca é mesclada. Em falha o cache anterior fica intacto.
func (st *Store) Fetch(ctx context.Context) ([]Sessao, error) {
	if err := st.begin(opListar); err != nil {
		return nil, &FetchError{Err: err}
	}
	defer st.end(opListar)

	list, err := st.client.ListSessoes(ctx, st.pacienteID)
	if err != nil {
		return nil, &FetchError{StatusCode: statusOf(err), Err: err}
	}
	st.mu.Lock()
	st.sessoes = list
	st.mu.Unlock()
	return st.Sessoes(), nil
}

// Create cria uma sessão em rascunho e a insere no topo do cache. Conteúdo
// vazio é rejeitado localmente, sem chamada de rede.
func (st *Store) Create(ctx context.Context, dataSessao, conteudo string) (*Sessao, error) {
	if strings.TrimSpace(conteudo) == "" {
		return nil, &ValidationError{Campo: "conteudo", Msg: "o conteúdo da sessão é obrigatório"}
	}
	if err := st.begin(opSalvar); err != nil {
		return nil, &PersistError{Err: err}
	}
	defer st.end(opSalvar)

	s, err := st.client.CreateSessao(ctx, st.pacienteID, dataSessao, conteudo)
	if err != nil {
		return nil, &PersistError{StatusCode: statusOf(err), Err: err}
	}
	st.mu.Lock()
	st.sessoes = append([]Sessao{*s}, st.sessoes...)
	st.mu.Unlock()
	return s, nil
}

// Update grava nova data e conteúdo de um rascunho. O servidor é o árbitro
// final do estado: rejeição (409 em sessão concluída) vira PersistError e o
// cache não muda.
func (st *Store) Update(ctx context.Context, sessaoID int64, dataSessao, conteudo string) (*Sessao, error) {
	if strings.TrimSpace(conteudo) == "" {
		return nil, &ValidationError{Campo: "conteudo", Msg: "o conteúdo da sessão é obrigatório"}
	}
	if err := st.begin(opSalvar); err != nil {
		return nil, &PersistError{Err: err}
	}
	defer st.end(opSalvar)

	s, err := st.client.UpdateSessao(ctx, st.pacienteID, sessaoID, dataSessao, conteudo)
	if err != nil {
		return nil, &PersistError{StatusCode: statusOf(err), Err: err}
	}
	st.replace(*s)
	return s, nil
}

// Delete remove um rascunho. O cache só perde o registro depois da confirmação
// do backend; nunca remove de forma otimista.
func (st *Store) Delete(ctx context.Context, sessaoID int64) error {
	if err := st.begin(opExcluir); err != nil {
		return &PersistError{Err: err}
	}
	defer st.end(opExcluir)

	if err := st.client.DeleteSessao(ctx, st.pacienteID, sessaoID); err != nil {
		return &PersistError{StatusCode: statusOf(err), Err: err}
	}
	st.mu.Lock()
	for i, s := range st.sessoes {
		if s.IDSessao == sessaoID {
			st.sessoes = append(st.sessoes[:i], st.sessoes[i+1:]...)
			break
		}
	}
	st.mu.Unlock()
	return nil
}

// Concluir move um rascunho para CONCLUIDO em uma única chamada atômica. Não há
// estado intermediário visível; em falha o registro segue EDITANDO, intacto.
func (st *Store) Concluir(ctx context.Context, sessaoID int64) (*Sessao, error) {
	if err := st.begin(opConcluir); err != nil {
		return nil, &PersistError{Err: err}
	}
	defer st.end(opConcluir)

	s, err := st.client.ConcluirSessao(ctx, st.pacienteID, sessaoID)
	if err != nil {
		return nil, &PersistError{StatusCode: statusOf(err), Err: err}
	}
	st.replace(*s)
	return s, nil
}

// Download baixa o PDF da sessão, em qualquer estado, e devolve os bytes e o
// nome de arquivo resolvido.
func (st *Store) Download(ctx context.Context, sessaoID int64) ([]byte, string, error) {
	if err := st.begin(opExportar); err != nil {
		return nil, "", &ExportError{Err: err}
	}
	defer st.end(opExportar)

	raw, nome, err := st.client.DownloadSessao(ctx, st.pacienteID, sessaoID)
	if err != nil {
		return nil, "", &ExportError{StatusCode: statusOf(err), Err: err}
	}
	return raw, nome, nil
}

func (st *Store) replace(s Sessao) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.sessoes {
		if st.sessoes[i].IDSessao == s.IDSessao {
			st.sessoes[i] = s
			return
		}
	}
}

func statusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
