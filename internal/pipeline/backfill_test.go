package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/studyforge/syllabd/internal/store"
)

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeEmbeddingSource struct {
	chapters []store.ChapterText
	scanErr  error
	stored   map[int64][]float32
}

func (f *fakeEmbeddingSource) ChaptersMissingEmbedding(ctx context.Context) ([]store.ChapterText, error) {
	return f.chapters, f.scanErr
}

func (f *fakeEmbeddingSource) SetChapterEmbedding(ctx context.Context, chapterID int64, embedding []float32) error {
	if f.stored == nil {
		f.stored = make(map[int64][]float32)
	}
	f.stored[chapterID] = embedding
	return nil
}

type fakeEmbedder struct {
	inputs  []string
	failFor string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.inputs = append(f.inputs, text)
	if f.failFor != "" && strings.Contains(text, f.failFor) {
		return nil, errors.New("embedding backend down")
	}
	return []float32{0.1, 0.2}, nil
}

func TestBackfillEmbeddings_EmbedsPendingChapters(t *testing.T) {
	src := &fakeEmbeddingSource{chapters: []store.ChapterText{
		{ID: 1, FullText: "chapter one text"},
		{ID: 2, FullText: "chapter two text"},
	}}
	emb := &fakeEmbedder{}

	n := backfillEmbeddings(context.Background(), src, emb, 8000, discardLog())
	if n != 2 {
		t.Fatalf("embedded %d chapters, want 2", n)
	}
	if len(src.stored) != 2 || src.stored[1] == nil || src.stored[2] == nil {
		t.Errorf("embeddings not stored for both chapters: %v", src.stored)
	}
}

func TestBackfillEmbeddings_SkipsFailuresAndContinues(t *testing.T) {
	src := &fakeEmbeddingSource{chapters: []store.ChapterText{
		{ID: 1, FullText: "broken chapter"},
		{ID: 2, FullText: "healthy chapter"},
	}}
	emb := &fakeEmbedder{failFor: "broken"}

	n := backfillEmbeddings(context.Background(), src, emb, 8000, discardLog())
	if n != 1 {
		t.Fatalf("embedded %d chapters, want 1", n)
	}
	if src.stored[1] != nil {
		t.Errorf("failed chapter should not be stored")
	}
	if src.stored[2] == nil {
		t.Errorf("healthy chapter missing after a prior failure")
	}
}

func TestBackfillEmbeddings_TruncatesInput(t *testing.T) {
	src := &fakeEmbeddingSource{chapters: []store.ChapterText{
		{ID: 1, FullText: strings.Repeat("x", 100)},
	}}
	emb := &fakeEmbedder{}

	backfillEmbeddings(context.Background(), src, emb, 10, discardLog())
	if len(emb.inputs) != 1 || len(emb.inputs[0]) != 10 {
		t.Fatalf("embed input not capped: %d chars", len(emb.inputs[0]))
	}
}

func TestBackfillEmbeddings_NothingPending(t *testing.T) {
	src := &fakeEmbeddingSource{}
	emb := &fakeEmbedder{}

	if n := backfillEmbeddings(context.Background(), src, emb, 8000, discardLog()); n != 0 {
		t.Fatalf("embedded %d chapters, want 0", n)
	}
	if len(emb.inputs) != 0 {
		t.Errorf("embedder called with nothing pending")
	}
}

func TestBackfillEmbeddings_ScanError(t *testing.T) {
	src := &fakeEmbeddingSource{scanErr: errors.New("db down")}
	emb := &fakeEmbedder{}

	if n := backfillEmbeddings(context.Background(), src, emb, 8000, discardLog()); n != 0 {
		t.Fatalf("embedded %d chapters after scan error, want 0", n)
	}
}

func TestBackfillEmbeddings_StopsOnCancel(t *testing.T) {
	src := &fakeEmbeddingSource{chapters: []store.ChapterText{
		{ID: 1, FullText: "one"},
		{ID: 2, FullText: "two"},
	}}
	emb := &fakeEmbedder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if n := backfillEmbeddings(ctx, src, emb, 8000, discardLog()); n != 0 {
		t.Fatalf("embedded %d chapters under cancelled context, want 0", n)
	}
}
