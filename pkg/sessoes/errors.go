package sessoes

import (
	"errors"
	"fmt"
)

// ErrOperacaoPendente indica que já existe uma chamada em andamento da mesma
// classe de operação (listar, salvar, excluir, concluir, exportar). O chamador
// deve aguardar a conclusão antes de repetir o comando.
var ErrOperacaoPendente = errors.New("operação da mesma classe ainda pendente")

// ErrSessaoConcluida indica uma tentativa de mutação sobre sessão concluída.
var ErrSessaoConcluida = errors.New("sessão concluída não aceita edição nem exclusão")

// ErrSituacaoDesconhecida indica que o backend devolveu uma situação fora do
// tipo fechado (EDITANDO, CONCLUIDO). O registro não entra no cache.
var ErrSituacaoDesconhecida = errors.New("situação de sessão desconhecida")

// ValidationError é um erro local, anterior a qualquer chamada de rede: o
// conteúdo submetido está vazio ou só tem espaços.
type ValidationError struct {
	Campo string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validação: %s: %s", e.Campo, e.Msg)
}

// FetchError é uma falha ao listar sessões; o cache anterior fica intacto.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("falha ao listar sessões (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("falha ao listar sessões: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistError é uma rejeição do backend para criar, editar, excluir ou
// concluir. O comando é sempre repetível; o cache só muda após sucesso.
type PersistError struct {
	StatusCode int
	Err        error
}

func (e *PersistError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("falha ao gravar sessão (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("falha ao gravar sessão: %v", e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// ExportError é uma falha ao baixar o PDF de uma sessão; nenhum arquivo é salvo.
type ExportError struct {
	StatusCode int
	Err        error
}

func (e *ExportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("falha ao exportar sessão (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("falha ao exportar sessão: %v", e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
