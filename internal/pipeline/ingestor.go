package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"agentic-rag-go/internal/model"
	"agentic-rag-go/pkg/log"
)

// ErrNoExtractor is recorded for PDFs when no extraction server is configured.
var ErrNoExtractor = errors.New("no text extractor configured for pdf")

// SupportedExtensions are the file types the ingestor reads. Matching is case-insensitive.
var SupportedExtensions = []string{".pdf", ".txt", ".docx"}

// TextExtractor turns a binary document into plain text. *tika.Client implements it.
type TextExtractor interface {
	ExtractText(ctx context.Context, r io.Reader, fileName string) (string, error)
}

// SkippedFile records a supported file that produced no Document.
type SkippedFile struct {
	Path string
	Err  error
}

func (s SkippedFile) Error() string {
	return fmt.Sprintf("skip %s: %v", s.Path, s.Err)
}

func (s SkippedFile) Unwrap() error { return s.Err }

// Ingestor reads every supported file at the top level of a directory.
type Ingestor struct {
	pdf TextExtractor
}

// NewIngestor returns an ingestor; pdf may be nil, in which case PDFs are skipped.
func NewIngestor(pdf TextExtractor) *Ingestor {
	return &Ingestor{pdf: pdf}
}

// IsSupported reports whether name has one of SupportedExtensions.
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Scan loads the supported files directly under dir in lexical order. It never fails: a
// missing directory yields no documents and unreadable files are reported as skipped.
func (in *Ingestor) Scan(ctx context.Context, dir string) ([]model.Document, []SkippedFile) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warnf("[Ingestor] cannot read document dir '%s': %v", dir, err)
		return nil, nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var (
		docs    []model.Document
		skipped []SkippedFile
	)
	for _, e := range entries {
		if e.IsDir() || !IsSupported(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		text, err := in.read(ctx, path)
		if err != nil {
			log.Warnf("[Ingestor] skipping '%s': %v", path, err)
			skipped = append(skipped, SkippedFile{Path: path, Err: err})
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			log.Infof("[Ingestor] '%s' has no text, ignored", path)
			continue
		}
		docs = append(docs, model.Document{ID: e.Name(), Path: path, Text: text})
	}
	log.Infof("[Ingestor] scanned '%s': %d documents, %d skipped", dir, len(docs), len(skipped))
	return docs, skipped
}

func (in *Ingestor) read(ctx context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return string(content), nil
	case ".docx":
		return extractDocx(content)
	case ".pdf":
		if in.pdf == nil {
			return "", ErrNoExtractor
		}
		return in.pdf.ExtractText(ctx, bytes.NewReader(content), filepath.Base(path))
	}
	return "", fmt.Errorf("unsupported extension %q", filepath.Ext(path))
}
