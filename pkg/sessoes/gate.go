package sessoes

import "context"

// GateAcao é a ação irreversível que um Gate protege.
type GateAcao string

const (
	GateExcluir  GateAcao = "excluir"
	GateConcluir GateAcao = "concluir"
)

// Gate é uma confirmação explícita antes de um comando irreversível. Excluir e
// concluir têm cada um o seu Gate, independentes entre si. Enquanto o comando
// está em voo a confirmação fica desabilitada; em falha o gate permanece aberto
// para repetir ou cancelar; só fecha em sucesso.
type Gate struct {
	store *Store
	acao  GateAcao

	aberto      bool
	confirmando bool
	sessaoID    int64
}

func NewExcluirGate(store *Store) *Gate {
	return &Gate{store: store, acao: GateExcluir}
}

func NewConcluirGate(store *Store) *Gate {
	return &Gate{store: store, acao: GateConcluir}
}

func (g *Gate) Acao() GateAcao  { return g.acao }
func (g *Gate) Aberto() bool    { return g.aberto }
func (g *Gate) SessaoID() int64 { return g.sessaoID }

// Confirmando informa se o comando está em voo; a UI desabilita o botão.
func (g *Gate) Confirmando() bool { return g.confirmando }

// Abrir arma o gate para uma sessão alvo. O alvo deve ser um rascunho; sessões
// concluídas não têm ação irreversível pendente a confirmar.
func (g *Gate) Abrir(s Sessao) error {
	if !s.Editavel() {
		return &PersistError{StatusCode: 409, Err: ErrSessaoConcluida}
	}
	g.aberto = true
	g.sessaoID = s.IDSessao
	return nil
}

// Confirmar executa o comando protegido. Um segundo Confirmar com o primeiro
// ainda em voo é rejeitado com PersistError embrulhando ErrOperacaoPendente.
func (g *Gate) Confirmar(ctx context.Context) error {
	if !g.aberto {
		return &ValidationError{Campo: "gate", Msg: "confirmação não está aberta"}
	}
	if g.confirmando {
		return &PersistError{Err: ErrOperacaoPendente}
	}
	g.confirmando = true
	defer func() { g.confirmando = false }()

	var err error
	switch g.acao {
	case GateExcluir:
		err = g.store.Delete(ctx, g.sessaoID)
	case GateConcluir:
		_, err = g.store.Concluir(ctx, g.sessaoID)
	}
	if err != nil {
		return err
	}
	g.Cancelar()
	return nil
}

// Cancelar fecha o gate sem executar nada.
func (g *Gate) Cancelar() {
	g.aberto = false
	g.sessaoID = 0
}
