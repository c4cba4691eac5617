package sessoes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestExporterGravaArquivo(t *testing.T) {
	fb := newFakeBackend(Sessao{IDSessao: 42, Conteudo: "<p>x</p>", DataSessao: "2026-03-01", Situacao: SituacaoConcluido})
	st, _ := newStoreFor(t, fb, 7)
	dir := t.TempDir()
	ex := NewExporter(st, dir)

	path, err := ex.Exportar(context.Background(), 42)
	if err != nil {
		t.Fatalf("exportar: %v", err)
	}
	if filepath.Base(path) != "sessao_42.pdf" {
		t.Fatalf("unexpected filename %q", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("exported file is empty")
	}
}

func TestExporterFalhaNaoGravaNada(t *testing.T) {
	fb := newFakeBackend()
	fb.failAll = true
	st, _ := newStoreFor(t, fb, 7)
	dir := t.TempDir()
	ex := NewExporter(st, dir)

	_, err := ex.Exportar(context.Background(), 42)
	var ee *ExportError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExportError, got %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("no file should be written on failure, found %d", len(entries))
	}
}
