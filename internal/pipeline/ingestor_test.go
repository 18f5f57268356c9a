package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	text string
	err  error
	seen []string
}

func (f *fakeExtractor) ExtractText(_ context.Context, r io.Reader, name string) (string, error) {
	_, _ = io.ReadAll(r)
	f.seen = append(f.seen, name)
	return f.text, f.err
}

func writeDocx(t *testing.T, path string, paragraphs ...string) {
	t.Helper()
	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write(body.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestScan_ReadsSupportedFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("  second  "), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.TXT"), []byte("first"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank.txt"), []byte(" \n\t "), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0o755))
	writeDocx(t, filepath.Join(dir, "c.docx"), "Hello", "World")

	docs, skipped := NewIngestor(nil).Scan(context.Background(), dir)
	assert.Empty(t, skipped)
	require.Len(t, docs, 3)
	assert.Equal(t, "a.TXT", docs[0].ID)
	assert.Equal(t, "first", docs[0].Text)
	assert.Equal(t, "b.txt", docs[1].ID)
	assert.Equal(t, "second", docs[1].Text)
	assert.Equal(t, "c.docx", docs[2].ID)
	assert.Equal(t, "Hello\nWorld", docs[2].Text)
}

func TestScan_SkipsCorruptFilesAndContinues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.docx"), []byte("not a zip"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.txt"), []byte("fine"), 0o644))

	docs, skipped := NewIngestor(nil).Scan(context.Background(), dir)
	require.Len(t, docs, 1)
	assert.Equal(t, "ok.txt", docs[0].ID)
	require.Len(t, skipped, 1)
	assert.Equal(t, filepath.Join(dir, "broken.docx"), skipped[0].Path)
}

func TestScan_PDFNeedsExtractor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "paper.pdf"), []byte("%PDF-1.4"), 0o644))

	docs, skipped := NewIngestor(nil).Scan(context.Background(), dir)
	assert.Empty(t, docs)
	require.Len(t, skipped, 1)
	assert.ErrorIs(t, skipped[0], ErrNoExtractor)

	ex := &fakeExtractor{text: "extracted pdf text"}
	docs, skipped = NewIngestor(ex).Scan(context.Background(), dir)
	assert.Empty(t, skipped)
	require.Len(t, docs, 1)
	assert.Equal(t, "extracted pdf text", docs[0].Text)
	assert.Equal(t, []string{"paper.pdf"}, ex.seen)
}

func TestScan_ExtractorFailureIsSkipped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "paper.pdf"), []byte("%PDF-1.4"), 0o644))
	boom := errors.New("tika down")

	docs, skipped := NewIngestor(&fakeExtractor{err: boom}).Scan(context.Background(), dir)
	assert.Empty(t, docs)
	require.Len(t, skipped, 1)
	assert.ErrorIs(t, skipped[0], boom)
}

func TestScan_MissingDirectory(t *testing.T) {
	docs, skipped := NewIngestor(nil).Scan(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Empty(t, docs)
	assert.Empty(t, skipped)
}

func TestExtractDocx_MissingBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = extractDocx(buf.Bytes())
	assert.ErrorIs(t, err, errNoDocumentXML)
}
