package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/studyforge/syllabd/internal/config"
	"github.com/studyforge/syllabd/internal/layout"
	"github.com/studyforge/syllabd/internal/llm"
	"github.com/studyforge/syllabd/internal/parser"
	"github.com/studyforge/syllabd/internal/segment"
	"github.com/studyforge/syllabd/internal/store"
	"github.com/studyforge/syllabd/internal/tutor"
)

type worker struct {
	cfg   *config.Config
	store *store.Store
	llm   *llm.Client
	log   *slog.Logger
}

// process runs one chapter ingestion end to end:
// parse -> segment -> store -> embed.
func (w *worker) process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing job", "panic", r)
			job.AddError(fmt.Sprintf("internal error: %v", r))
			job.SetStatus(StatusFailed, "panic")
		}
	}()

	start := time.Now()
	log.Info("job started", "subject", job.Subject, "chapter", job.ChapterNumber)

	job.SetStatus(StatusParsing, "parsing "+job.Filename)
	pages, err := w.parse(job)
	if err != nil {
		w.fail(job, log, "parse", err)
		return
	}
	job.SetPagesParsed(len(pages))
	job.SetFileData(nil)

	subjectID, err := w.store.UpsertSubject(ctx, job.Subject)
	if err != nil {
		w.fail(job, log, "store subject", err)
		return
	}
	chapterID, err := w.store.UpsertChapter(ctx, store.Chapter{
		SubjectID:     subjectID,
		Name:          job.ChapterName,
		ClassNumber:   job.ClassNumber,
		ChapterNumber: job.ChapterNumber,
	})
	if err != nil {
		w.fail(job, log, "store chapter", err)
		return
	}

	job.SetStatus(StatusSegmenting, "segmenting chapter "+job.ChapterNumber)
	topics, fuzzy := w.segmentPages(ctx, pages, chapterID, job, log)
	if len(topics) == 0 {
		log.Warn("no topics detected", "pages", len(pages))
		job.AddError("no topics detected")
	}

	job.SetStatus(StatusStoring, "storing topics")
	lines := flattenLines(pages)
	if err := w.store.SetChapterText(ctx, chapterID, strings.Join(lines, "\n")); err != nil {
		job.AddError(err.Error())
		log.Error("store chapter text failed", "error", err)
	}

	stored := 0
	for _, t := range topics {
		if fuzzy {
			// Topic rows already exist; only fill in content.
			rows, err := w.store.UpdateTopicText(ctx, chapterID, t.Number, t.Content)
			if err != nil {
				job.AddError(err.Error())
				continue
			}
			if rows == 0 {
				log.Warn("no topic row for matched heading", "number", t.Number)
				continue
			}
		} else {
			err := w.store.UpsertTopic(ctx, store.Topic{
				ChapterID: chapterID,
				Number:    t.Number,
				Name:      t.Heading,
				FullText:  t.Content,
			})
			if err != nil {
				job.AddError(err.Error())
				continue
			}
		}
		stored++
	}
	job.AddTopics(len(topics), stored)

	if questions := tutor.ExtractQuestions(lines); len(questions) > 0 {
		if err := w.store.ReplaceQuestions(ctx, chapterID, questions); err != nil {
			job.AddError(err.Error())
			log.Error("store questions failed", "error", err)
		} else {
			job.SetQuestionsStored(len(questions))
		}
	}

	job.SetStatus(StatusEmbedding, "embedding chapter text")
	if err := w.embedChapter(ctx, chapterID, lines); err != nil {
		job.AddError(err.Error())
		log.Warn("chapter embedding failed", "error", err)
	} else {
		job.SetEmbedded()
	}

	snap := job.Snapshot()
	if len(snap.Progress.Errors) > 0 {
		job.SetStatus(StatusPartial, "done with errors")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("job finished",
		"status", string(job.Snapshot().Status),
		"topics_found", snap.Progress.TopicsFound,
		"topics_stored", snap.Progress.TopicsStored,
		"duration", time.Since(start).Round(time.Millisecond).String())
}

func (w *worker) parse(job *Job) ([]layout.Page, error) {
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		return nil, err
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = w.cfg.PDFFallbackPdftotext
	}
	pages, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages extracted from %s", job.Filename)
	}
	return pages, nil
}

// segmentPages picks between the style/blacklist detector and the
// reference-matching path. When the document carries no font metadata and
// topic rows for this chapter already exist (from a previous styled upload),
// the known headings are fuzzy-matched against the new text instead of
// re-detected. The second return reports which path ran.
func (w *worker) segmentPages(ctx context.Context, pages []layout.Page, chapterID int64, job *Job, log *slog.Logger) ([]segment.Topic, bool) {
	segCfg := segment.DefaultConfig()
	segCfg.PageTimeout = w.cfg.PageTimeout
	segCfg.FuzzyThreshold = w.cfg.FuzzyThreshold

	styled := false
	for _, pg := range pages {
		if pg.Styled() {
			styled = true
			break
		}
	}

	if !styled {
		existing, err := w.store.Topics(ctx, chapterID)
		if err != nil {
			log.Warn("loading existing topics failed", "error", err)
		}
		if len(existing) > 0 {
			refs := make([]segment.ReferenceHeading, 0, len(existing))
			for _, t := range existing {
				refs = append(refs, segment.ReferenceHeading{Number: t.Number, Text: t.Name})
			}
			lines := flattenLines(pages)
			matches := segment.MatchReference(lines, refs, segCfg, log)
			log.Info("reference matching", "known_topics", len(refs), "matched", len(matches))
			return segment.SegmentLines(matches, lines), true
		}
	}

	return segment.Run(ctx, pages, job.ChapterNumber, segCfg, log), false
}

func (w *worker) embedChapter(ctx context.Context, chapterID int64, lines []string) error {
	text := strings.Join(lines, "\n")
	if len(text) > w.cfg.EmbedMaxChars {
		text = text[:w.cfg.EmbedMaxChars]
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("empty chapter text")
	}

	var vec []float32
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := Backoff(attempt - 1)
			w.log.Warn("retrying embedding", "attempt", attempt, "delay", delay.String())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		vec, err = w.llm.Embed(ctx, text)
		if err == nil {
			break
		}
		if !IsRetryable(err) {
			return err
		}
	}
	if err != nil {
		return fmt.Errorf("embedding after %d retries: %w", maxRetries, err)
	}
	return w.store.SetChapterEmbedding(ctx, chapterID, vec)
}

func (w *worker) fail(job *Job, log *slog.Logger, phase string, err error) {
	log.Error("job failed", "phase", phase, "error", err)
	job.AddError(fmt.Sprintf("%s: %v", phase, err))
	job.SetStatus(StatusFailed, phase)
}

func flattenLines(pages []layout.Page) []string {
	var lines []string
	for _, pg := range pages {
		for _, ln := range pg.Lines {
			lines = append(lines, ln.Text)
		}
	}
	return lines
}
