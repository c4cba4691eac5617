package sessoes

import (
	"context"
	"errors"
	"testing"
)

func TestGateAbrirRejeitaConcluida(t *testing.T) {
	fb := newFakeBackend()
	st, _ := newStoreFor(t, fb, 7)
	g := NewExcluirGate(st)

	err := g.Abrir(Sessao{IDSessao: 1, Situacao: SituacaoConcluido})
	var pe *PersistError
	if !errors.As(err, &pe) || !errors.Is(err, ErrSessaoConcluida) {
		t.Fatalf("expected PersistError wrapping ErrSessaoConcluida, got %v", err)
	}
	if g.Aberto() {
		t.Fatal("gate must not arm for a finalized session")
	}
}

func TestExcluirGateLifecycle(t *testing.T) {
	fb := newFakeBackend(Sessao{IDSessao: 55, Conteudo: "<p>x</p>", DataSessao: "2026-03-01", Situacao: SituacaoEditando})
	st, _ := newStoreFor(t, fb, 7)
	if _, err := st.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	g := NewExcluirGate(st)
	s, _ := st.Sessao(55)
	if err := g.Abrir(s); err != nil {
		t.Fatalf("abrir: %v", err)
	}

	// falha: o gate continua aberto, pronto para repetir ou cancelar
	fb.mu.Lock()
	fb.failAll = true
	fb.mu.Unlock()
	if err := g.Confirmar(context.Background()); err == nil {
		t.Fatal("expected error from failing backend")
	}
	if !g.Aberto() {
		t.Fatal("gate must stay open after failure")
	}
	if g.Confirmando() {
		t.Fatal("pending flag must reset after failure")
	}
	if _, ok := st.Sessao(55); !ok {
		t.Fatal("record must survive a failed delete")
	}

	// sucesso: gate fecha e o registro some do cache
	fb.mu.Lock()
	fb.failAll = false
	fb.mu.Unlock()
	if err := g.Confirmar(context.Background()); err != nil {
		t.Fatalf("confirmar: %v", err)
	}
	if g.Aberto() {
		t.Fatal("gate must close after success")
	}
	if _, ok := st.Sessao(55); ok {
		t.Fatal("record still cached after confirmed delete")
	}
}

func TestConcluirGateLifecycle(t *testing.T) {
	fb := newFakeBackend(Sessao{IDSessao: 101, Conteudo: "<p>x</p>", DataSessao: "2026-03-01", Situacao: SituacaoEditando})
	st, _ := newStoreFor(t, fb, 7)
	if _, err := st.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	g := NewConcluirGate(st)
	s, _ := st.Sessao(101)
	if err := g.Abrir(s); err != nil {
		t.Fatalf("abrir: %v", err)
	}
	if err := g.Confirmar(context.Background()); err != nil {
		t.Fatalf("confirmar: %v", err)
	}
	if g.Aberto() {
		t.Fatal("gate must close after success")
	}
	cached, _ := st.Sessao(101)
	if cached.Situacao != SituacaoConcluido {
		t.Fatalf("expected CONCLUIDO in cache, got %q", cached.Situacao)
	}

	// rearmar contra a mesma sessão agora falha: ela virou terminal
	if err := g.Abrir(cached); err == nil {
		t.Fatal("expected error arming gate for finalized session")
	}
}

func TestGateConfirmarSemAbrir(t *testing.T) {
	fb := newFakeBackend()
	st, _ := newStoreFor(t, fb, 7)
	g := NewConcluirGate(st)

	err := g.Confirmar(context.Background())
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
