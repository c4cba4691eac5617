package sessoes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// fakeBackend é um backend de sessões em memória com as mesmas regras do real:
// criação em EDITANDO, mutação só em rascunho (senão 409), conclusão terminal.
type fakeBackend struct {
	mu      sync.Mutex
	nextID  int64
	sessoes []Sessao

	failAll        bool // responde 500 para tudo
	requests       int
	omitDisposicao bool

	// quando setados, o POST de criação avisa em criacaoChegou e só responde
	// depois que criacaoLibera fechar. Setar antes de subir o servidor.
	criacaoChegou chan struct{}
	criacaoLibera chan struct{}
}

func newFakeBackend(seed ...Sessao) *fakeBackend {
	fb := &fakeBackend{nextID: 100}
	for _, s := range seed {
		if s.IDSessao >= fb.nextID {
			fb.nextID = s.IDSessao + 1
		}
		fb.sessoes = append(fb.sessoes, s)
	}
	return fb
}

func (fb *fakeBackend) find(id int64) int {
	for i := range fb.sessoes {
		if fb.sessoes[i].IDSessao == id {
			return i
		}
	}
	return -1
}

func (fb *fakeBackend) handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/pacientes/{pacienteId}/sessoes", fb.list).Methods(http.MethodGet)
	r.HandleFunc("/pacientes/{pacienteId}/sessoes", fb.create).Methods(http.MethodPost)
	r.HandleFunc("/pacientes/{pacienteId}/sessoes/{sessaoId}", fb.update).Methods(http.MethodPut)
	r.HandleFunc("/pacientes/{pacienteId}/sessoes/{sessaoId}", fb.remove).Methods(http.MethodDelete)
	r.HandleFunc("/pacientes/{pacienteId}/sessoes/{sessaoId}/concluir", fb.concluir).Methods(http.MethodPatch)
	r.HandleFunc("/pacientes/{pacienteId}/sessoes/{sessaoId}/download", fb.download).Methods(http.MethodGet)
	return r
}

func (fb *fakeBackend) gate(w http.ResponseWriter) bool {
	fb.requests++
	if fb.failAll {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return false
	}
	return true
}

func (fb *fakeBackend) list(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if !fb.gate(w) {
		return
	}
	out := make([]Sessao, len(fb.sessoes))
	copy(out, fb.sessoes)
	_ = json.NewEncoder(w).Encode(out)
}

func (fb *fakeBackend) create(w http.ResponseWriter, r *http.Request) {
	if fb.criacaoChegou != nil {
		fb.criacaoChegou <- struct{}{}
		<-fb.criacaoLibera
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if !fb.gate(w) {
		return
	}
	var req struct {
		DataSessao string `json:"data_sessao"`
		Conteudo   string `json:"conteudo"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	s := Sessao{IDSessao: fb.nextID, Conteudo: req.Conteudo, DataSessao: req.DataSessao, Situacao: SituacaoEditando}
	fb.nextID++
	fb.sessoes = append([]Sessao{s}, fb.sessoes...)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(s)
}

func sessaoIDVar(r *http.Request) int64 {
	n, _ := strconv.ParseInt(mux.Vars(r)["sessaoId"], 10, 64)
	return n
}

func (fb *fakeBackend) update(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if !fb.gate(w) {
		return
	}
	i := fb.find(sessaoIDVar(r))
	if i < 0 {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	if fb.sessoes[i].Situacao != SituacaoEditando {
		http.Error(w, `{"error":"sessão concluída"}`, http.StatusConflict)
		return
	}
	var req struct {
		DataSessao string `json:"data_sessao"`
		Conteudo   string `json:"conteudo"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	fb.sessoes[i].DataSessao = req.DataSessao
	fb.sessoes[i].Conteudo = req.Conteudo
	_ = json.NewEncoder(w).Encode(fb.sessoes[i])
}

func (fb *fakeBackend) remove(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if !fb.gate(w) {
		return
	}
	i := fb.find(sessaoIDVar(r))
	if i < 0 {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	if fb.sessoes[i].Situacao != SituacaoEditando {
		http.Error(w, `{"error":"sessão concluída"}`, http.StatusConflict)
		return
	}
	fb.sessoes = append(fb.sessoes[:i], fb.sessoes[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (fb *fakeBackend) concluir(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if !fb.gate(w) {
		return
	}
	i := fb.find(sessaoIDVar(r))
	if i < 0 {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	if fb.sessoes[i].Situacao != SituacaoEditando {
		http.Error(w, `{"error":"sessão concluída"}`, http.StatusConflict)
		return
	}
	fb.sessoes[i].Situacao = SituacaoConcluido
	_ = json.NewEncoder(w).Encode(fb.sessoes[i])
}

func (fb *fakeBackend) download(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if !fb.gate(w) {
		return
	}
	id := sessaoIDVar(r)
	if fb.find(id) < 0 {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	if !fb.omitDisposicao {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("sessao_%d.pdf", id)))
	}
	_, _ = w.Write([]byte("%PDF-1.4 fake"))
}

func newStoreFor(t *testing.T, fb *fakeBackend, pacienteID int64) (*Store, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(fb.handler())
	t.Cleanup(srv.Close)
	return NewStore(NewClient(srv.URL, "test-token"), pacienteID), srv
}

func TestFetchReplacesCache(t *testing.T) {
	fb := newFakeBackend(
		Sessao{IDSessao: 2, Conteudo: "<p>b</p>", DataSessao: "2026-03-02", Situacao: SituacaoEditando},
		Sessao{IDSessao: 1, Conteudo: "<p>a</p>", DataSessao: "2026-03-01", Situacao: SituacaoConcluido},
	)
	st, _ := newStoreFor(t, fb, 7)

	list, err := st.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(list) != 2 || list[0].IDSessao != 2 {
		t.Fatalf("unexpected list %+v", list)
	}

	// segunda resposta sem a sessão 1: o cache substitui, não mescla
	fb.mu.Lock()
	fb.sessoes = fb.sessoes[:1]
	fb.mu.Unlock()
	list, err = st.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(list) != 1 || list[0].IDSessao != 2 {
		t.Fatalf("stale record survived refetch: %+v", list)
	}
}

func TestFetchFailureKeepsCache(t *testing.T) {
	fb := newFakeBackend(Sessao{IDSessao: 1, Conteudo: "<p>a</p>", DataSessao: "2026-03-01", Situacao: SituacaoEditando})
	st, _ := newStoreFor(t, fb, 7)
	if _, err := st.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	fb.mu.Lock()
	fb.failAll = true
	fb.mu.Unlock()
	before := st.Sessoes()
	_, err := st.Fetch(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected FetchError 500, got %v", err)
	}
	if !reflect.DeepEqual(before, st.Sessoes()) {
		t.Fatal("cache changed after failed fetch")
	}
}

func TestCreateInsertsAtHead(t *testing.T) {
	fb := newFakeBackend(Sessao{IDSessao: 1, Conteudo: "<p>antiga</p>", DataSessao: "2026-02-01", Situacao: SituacaoConcluido})
	st, _ := newStoreFor(t, fb, 7)
	if _, err := st.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	s, err := st.Create(context.Background(), "2026-03-01", "<p>Paciente relatou melhora.</p>")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.Situacao != SituacaoEditando {
		t.Fatalf("new session should be draft, got %q", s.Situacao)
	}
	list := st.Sessoes()
	if list[0].IDSessao != s.IDSessao {
		t.Fatalf("created session not at head: %+v", list)
	}
}

func TestCreateEmptyContentIsLocal(t *testing.T) {
	fb := newFakeBackend()
	st, _ := newStoreFor(t, fb, 7)

	for _, conteudo := range []string{"", "   ", "\n\t "} {
		before := st.Sessoes()
		_, err := st.Create(context.Background(), "2026-03-01", conteudo)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("conteudo=%q: expected ValidationError, got %v", conteudo, err)
		}
		if !reflect.DeepEqual(before, st.Sessoes()) {
			t.Fatal("cache changed on validation failure")
		}
	}
	fb.mu.Lock()
	n := fb.requests
	fb.mu.Unlock()
	if n != 0 {
		t.Fatalf("validation must happen before any network call, saw %d requests", n)
	}
}

func TestUpdateRejectedOnConcluida(t *testing.T) {
	fb := newFakeBackend(Sessao{IDSessao: 101, Conteudo: "<p>x</p>", DataSessao: "2026-03-01", Situacao: SituacaoConcluido})
	st, _ := newStoreFor(t, fb, 7)
	if _, err := st.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	before := st.Sessoes()
	_, err := st.Update(context.Background(), 101, "2026-03-02", "<p>mutação</p>")
	var pe *PersistError
	if !errors.As(err, &pe) || pe.StatusCode != http.StatusConflict {
		t.Fatalf("expected PersistError 409, got %v", err)
	}
	if !reflect.DeepEqual(before, st.Sessoes()) {
		t.Fatal("cache reflected a mutation on a finalized record")
	}

	err = st.Delete(context.Background(), 101)
	if !errors.As(err, &pe) || pe.StatusCode != http.StatusConflict {
		t.Fatalf("expected PersistError 409 on delete, got %v", err)
	}
	if !reflect.DeepEqual(before, st.Sessoes()) {
		t.Fatal("finalized record vanished from cache after rejected delete")
	}
}

func TestConcluirIsTerminal(t *testing.T) {
	fb := newFakeBackend(Sessao{IDSessao: 101, Conteudo: "<p>x</p>", DataSessao: "2026-03-01", Situacao: SituacaoEditando})
	st, _ := newStoreFor(t, fb, 7)
	if _, err := st.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	s, err := st.Concluir(context.Background(), 101)
	if err != nil {
		t.Fatalf("concluir: %v", err)
	}
	if s.Situacao != SituacaoConcluido {
		t.Fatalf("expected CONCLUIDO, got %q", s.Situacao)
	}
	cached, ok := st.Sessao(101)
	if !ok || cached.Situacao != SituacaoConcluido {
		t.Fatalf("cache not updated after finalize: %+v", cached)
	}

	// não existe caminho de volta para rascunho
	if _, err := st.Concluir(context.Background(), 101); err == nil {
		t.Fatal("expected error finalizing twice")
	}
	if _, err := st.Update(context.Background(), 101, "2026-03-02", "<p>y</p>"); err == nil {
		t.Fatal("expected error updating finalized session")
	}
	cached, _ = st.Sessao(101)
	if cached.Situacao != SituacaoConcluido {
		t.Fatalf("record left CONCLUIDO state: %q", cached.Situacao)
	}
}

func TestDeleteOnlyAfterConfirmation(t *testing.T) {
	fb := newFakeBackend(Sessao{IDSessao: 55, Conteudo: "<p>x</p>", DataSessao: "2026-03-01", Situacao: SituacaoEditando})
	st, _ := newStoreFor(t, fb, 7)
	if _, err := st.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	fb.mu.Lock()
	fb.failAll = true
	fb.mu.Unlock()
	before := st.Sessoes()
	err := st.Delete(context.Background(), 55)
	var pe *PersistError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistError, got %v", err)
	}
	if !reflect.DeepEqual(before, st.Sessoes()) {
		t.Fatal("record removed optimistically on failed delete")
	}

	// a mesma chamada repetida funciona após o backend se recuperar
	fb.mu.Lock()
	fb.failAll = false
	fb.mu.Unlock()
	if err := st.Delete(context.Background(), 55); err != nil {
		t.Fatalf("retry delete: %v", err)
	}
	if _, ok := st.Sessao(55); ok {
		t.Fatal("record still cached after confirmed delete")
	}
}

func TestDownloadFilenameFallback(t *testing.T) {
	fb := newFakeBackend(Sessao{IDSessao: 42, Conteudo: "", DataSessao: "2026-03-01", Situacao: SituacaoEditando})
	fb.omitDisposicao = true
	st, _ := newStoreFor(t, fb, 7)

	raw, nome, err := st.Download(context.Background(), 42)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if nome != "sessao_42.pdf" {
		t.Fatalf("expected fallback sessao_42.pdf, got %q", nome)
	}
	if len(raw) == 0 {
		t.Fatal("empty body")
	}
}

func TestDownloadFailure(t *testing.T) {
	fb := newFakeBackend()
	fb.failAll = true
	st, _ := newStoreFor(t, fb, 7)

	_, _, err := st.Download(context.Background(), 42)
	var ee *ExportError
	if !errors.As(err, &ee) || ee.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected ExportError 500, got %v", err)
	}
}

func TestPendingBlocksSameClass(t *testing.T) {
	fb := newFakeBackend()
	st, _ := newStoreFor(t, fb, 7)

	if err := st.begin(opSalvar); err != nil {
		t.Fatalf("begin: %v", err)
	}
	// a rejeição sai na taxonomia da operação, com o sentinel por baixo
	_, err := st.Create(context.Background(), "2026-03-01", "<p>x</p>")
	var pe *PersistError
	if !errors.As(err, &pe) || !errors.Is(err, ErrOperacaoPendente) {
		t.Fatalf("expected PersistError wrapping ErrOperacaoPendente, got %v", err)
	}
	// classes diferentes podem voar em paralelo
	if _, err := st.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch should not be blocked by a pending save: %v", err)
	}
	st.end(opSalvar)
	if _, err := st.Create(context.Background(), "2026-03-01", "<p>x</p>"); err != nil {
		t.Fatalf("create after end: %v", err)
	}
}
