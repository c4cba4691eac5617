package sessoes

import (
	"context"
	"os"
	"path/filepath"
)

// Exporter grava o PDF de uma sessão em disco, o "salvar como" do terminal.
// Sessões em rascunho e concluídas são igualmente exportáveis; conteúdo vazio
// vira um documento vazio, não um erro.
type Exporter struct {
	store *Store
	dir   string
}

func NewExporter(store *Store, dir string) *Exporter {
	return &Exporter{store: store, dir: dir}
}

// Exportar baixa o PDF e grava no diretório de destino com o nome resolvido
// pelo backend (ou o fallback sessao_{id}.pdf). Devolve o caminho gravado.
func (e *Exporter) Exportar(ctx context.Context, sessaoID int64) (string, error) {
	raw, nome, err := e.store.Download(ctx, sessaoID)
	if err != nil {
		return "", err
	}
	dir := e.dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &ExportError{Err: err}
	}
	path := filepath.Join(dir, filepath.Base(nome))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", &ExportError{Err: err}
	}
	return path, nil
}
