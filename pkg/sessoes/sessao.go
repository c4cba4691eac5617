// Package sessoes implementa o núcleo de sessões do prontuário: o cache por
// paciente (Store), o formulário de criação/edição (Editor), as confirmações de
// ações irreversíveis (Gate) e a exportação em PDF (Exporter), sobre a API REST
// do backend.
package sessoes

// Situacao é o estado do ciclo de vida de uma sessão. Tipo fechado: os únicos
// valores válidos são os dois abaixo.
type Situacao string

const (
	SituacaoEditando  Situacao = "EDITANDO"
	SituacaoConcluido Situacao = "CONCLUIDO"
)

// Valida informa se o valor é um dos estados conhecidos.
func (s Situacao) Valida() bool {
	return s == SituacaoEditando || s == SituacaoConcluido
}

// Sessao é uma anotação clínica de um paciente em uma data. Depois de concluída
// ela é imutável: só leitura e exportação.
type Sessao struct {
	IDSessao   int64    `json:"id_sessao"`
	Conteudo   string   `json:"conteudo"`
	DataSessao string   `json:"data_sessao"`
	Situacao   Situacao `json:"situacao"`
}

// Editavel informa se a sessão ainda aceita edição e exclusão.
func (s Sessao) Editavel() bool {
	return s.Situacao == SituacaoEditando
}
