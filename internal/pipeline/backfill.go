package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/studyforge/syllabd/internal/store"
)

// embeddingSource is the slice of the store the backfill needs.
type embeddingSource interface {
	ChaptersMissingEmbedding(ctx context.Context) ([]store.ChapterText, error)
	SetChapterEmbedding(ctx context.Context, chapterID int64, embedding []float32) error
}

type embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// backfillEmbeddings embeds chapters that have stored text but no embedding:
// leftovers from jobs whose embedding phase failed, or rows ingested before
// embeddings existed. Failures are logged and skipped; the scan is repeatable
// so a skipped chapter is picked up on the next start. Returns the number of
// chapters embedded.
func backfillEmbeddings(ctx context.Context, src embeddingSource, emb embedder, maxChars int, log *slog.Logger) int {
	chapters, err := src.ChaptersMissingEmbedding(ctx)
	if err != nil {
		log.Error("embedding backfill scan failed", "error", err)
		return 0
	}
	if len(chapters) == 0 {
		return 0
	}
	log.Info("embedding backfill", "chapters", len(chapters))

	done := 0
	for _, ch := range chapters {
		if ctx.Err() != nil {
			return done
		}
		text := ch.FullText
		if maxChars > 0 && len(text) > maxChars {
			text = text[:maxChars]
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		vec, err := emb.Embed(ctx, text)
		if err != nil {
			log.Warn("backfill embedding failed", "chapter_id", ch.ID, "error", err)
			continue
		}
		if err := src.SetChapterEmbedding(ctx, ch.ID, vec); err != nil {
			log.Warn("backfill store failed", "chapter_id", ch.ID, "error", err)
			continue
		}
		done++
	}
	log.Info("embedding backfill done", "embedded", done)
	return done
}
