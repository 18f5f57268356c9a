package service

import (
	"context"
	"sync"
	"time"

	"agentic-rag-go/internal/index"
	"agentic-rag-go/internal/model"
	"agentic-rag-go/internal/pipeline"
	"agentic-rag-go/pkg/log"
	"agentic-rag-go/pkg/tasks"

	"github.com/google/uuid"
)

// Scanner lists the documents of a source directory.
type Scanner interface {
	Scan(ctx context.Context, dir string) ([]model.Document, []pipeline.SkippedFile)
}

// IndexBuilder turns documents into an index; a nil index means nothing was embeddable.
type IndexBuilder interface {
	Build(ctx context.Context, docs []model.Document) (index.VectorIndex, pipeline.BuildStats, error)
}

// DocumentMirror copies remote documents into dir before a scan.
type DocumentMirror interface {
	Mirror(ctx context.Context, dir string) (int, error)
}

// RebuildPublisher queues rebuild tasks for a background worker.
type RebuildPublisher interface {
	PublishRebuild(ctx context.Context, task tasks.IndexRebuildTask) error
}

// IndexStatus describes the index currently served.
type IndexStatus struct {
	Present      bool                `json:"present"`
	Backend      string              `json:"backend,omitempty"`
	Chunks       int                 `json:"chunks"`
	Building     bool                `json:"building"`
	LastBuiltAt  time.Time           `json:"lastBuiltAt,omitempty"`
	LastStats    pipeline.BuildStats `json:"lastStats"`
	SkippedFiles []string            `json:"skippedFiles,omitempty"`
	LastError    string              `json:"lastError,omitempty"`
}

// IndexService owns index construction. Rebuilds are serialized; the served index is replaced
// in one atomic swap and the previous one is closed once the last query using it has finished.
type IndexService struct {
	dir       string
	scanner   Scanner
	builder   IndexBuilder
	holder    *index.Holder
	mirror    DocumentMirror
	publisher RebuildPublisher

	buildMu  sync.Mutex
	retiring sync.WaitGroup

	mu     sync.RWMutex
	status IndexStatus
}

// NewIndexService wires the service. mirror and publisher may be nil.
func NewIndexService(dir string, scanner Scanner, builder IndexBuilder, holder *index.Holder, mirror DocumentMirror, publisher RebuildPublisher) *IndexService {
	return &IndexService{
		dir:       dir,
		scanner:   scanner,
		builder:   builder,
		holder:    holder,
		mirror:    mirror,
		publisher: publisher,
	}
}

// Rebuild scans, embeds and swaps in a fresh index. On failure the served index is untouched.
func (s *IndexService) Rebuild(ctx context.Context) (pipeline.BuildStats, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	s.setBuilding(true)
	defer s.setBuilding(false)

	if s.mirror != nil {
		n, err := s.mirror.Mirror(ctx, s.dir)
		if err != nil {
			log.Warnf("[IndexService] document mirror failed, building from local files: %v", err)
		} else {
			log.Infof("[IndexService] mirrored %d documents into '%s'", n, s.dir)
		}
	}

	docs, skipped := s.scanner.Scan(ctx, s.dir)
	idx, stats, err := s.builder.Build(ctx, docs)
	if err != nil {
		log.Errorf("[IndexService] index build failed: %v", err)
		s.mu.Lock()
		s.status.LastError = err.Error()
		s.mu.Unlock()
		return stats, err
	}

	if old, drained := s.holder.Swap(idx); old != nil {
		s.retiring.Add(1)
		go s.closeWhenDrained(old, drained)
	}

	skippedPaths := make([]string, 0, len(skipped))
	for _, f := range skipped {
		skippedPaths = append(skippedPaths, f.Path)
	}
	s.mu.Lock()
	s.status.Present = idx != nil
	s.status.Backend = stats.Backend
	s.status.Chunks = stats.Indexed
	s.status.LastBuiltAt = time.Now()
	s.status.LastStats = stats
	s.status.SkippedFiles = skippedPaths
	s.status.LastError = ""
	s.mu.Unlock()
	return stats, nil
}

// TriggerRebuild queues a rebuild and returns its task id. Without a queue the rebuild runs in
// a background goroutine.
func (s *IndexService) TriggerRebuild(ctx context.Context, reason string) (string, error) {
	task := tasks.IndexRebuildTask{
		TaskID:      uuid.NewString(),
		Reason:      reason,
		RequestedAt: time.Now(),
	}
	if s.publisher != nil {
		if err := s.publisher.PublishRebuild(ctx, task); err != nil {
			return "", err
		}
		log.Infof("[IndexService] rebuild task %s queued (%s)", task.TaskID, reason)
		return task.TaskID, nil
	}
	go func() {
		if err := s.Process(context.Background(), task); err != nil {
			log.Errorf("[IndexService] background rebuild %s failed: %v", task.TaskID, err)
		}
	}()
	return task.TaskID, nil
}

// Process handles one rebuild task from the queue.
func (s *IndexService) Process(ctx context.Context, task tasks.IndexRebuildTask) error {
	log.Infof("[IndexService] running rebuild task %s (%s)", task.TaskID, task.Reason)
	_, err := s.Rebuild(ctx)
	return err
}

// Status returns a snapshot of the served index.
func (s *IndexService) Status() IndexStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.SkippedFiles = append([]string(nil), s.status.SkippedFiles...)
	return st
}

// Close releases the served index and waits for replaced indexes to be closed. It gives up
// when ctx ends while queries still hold an index.
func (s *IndexService) Close(ctx context.Context) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	var err error
	if old, drained := s.holder.Swap(nil); old != nil {
		select {
		case <-drained:
			err = old.Close(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	done := make(chan struct{})
	go func() {
		s.retiring.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

// closeWhenDrained closes a replaced index after its last lease is released.
func (s *IndexService) closeWhenDrained(old index.VectorIndex, drained <-chan struct{}) {
	defer s.retiring.Done()
	<-drained
	if err := old.Close(context.Background()); err != nil {
		log.Warnf("[IndexService] closing previous %s index: %v", old.Backend(), err)
	}
}

func (s *IndexService) setBuilding(b bool) {
	s.mu.Lock()
	s.status.Building = b
	s.mu.Unlock()
}
