// Package store persists the subjects → chapters → topics syllabus schema
// plus the per-chapter question bank.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS subjects (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS chapters (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	subject_id BIGINT NOT NULL REFERENCES subjects(id),
	name TEXT NOT NULL,
	class_number TEXT NOT NULL,
	chapter_number TEXT NOT NULL,
	full_text TEXT,
	embedding REAL[],
	UNIQUE (subject_id, class_number, name)
);
CREATE TABLE IF NOT EXISTS topics (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	chapter_id BIGINT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
	topic_number TEXT NOT NULL,
	name TEXT NOT NULL,
	full_text TEXT,
	UNIQUE (chapter_id, topic_number)
);
CREATE TABLE IF NOT EXISTS question_bank (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	chapter_id BIGINT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
	question_text TEXT NOT NULL
);
`)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Subject is one syllabus subject (Physics, Chemistry, Maths).
type Subject struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Chapter is one textbook chapter within a subject and class.
type Chapter struct {
	ID            int64  `json:"id"`
	SubjectID     int64  `json:"subject_id"`
	Name          string `json:"name"`
	ClassNumber   string `json:"class_number"`
	ChapterNumber string `json:"chapter_number"`
}

// Topic is one numbered sub-heading of a chapter with its content span.
type Topic struct {
	ID        int64  `json:"id"`
	ChapterID int64  `json:"chapter_id"`
	Number    string `json:"topic_number"`
	Name      string `json:"name"`
	FullText  string `json:"full_text,omitempty"`
}

func (s *Store) UpsertSubject(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO subjects (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert subject %q: %w", name, err)
	}
	return id, nil
}

func (s *Store) UpsertChapter(ctx context.Context, c Chapter) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO chapters (subject_id, name, class_number, chapter_number)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subject_id, class_number, name) DO UPDATE SET
			chapter_number = EXCLUDED.chapter_number
		RETURNING id
	`, c.SubjectID, c.Name, c.ClassNumber, c.ChapterNumber).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert chapter %q: %w", c.Name, err)
	}
	return id, nil
}

func (s *Store) SetChapterText(ctx context.Context, chapterID int64, text string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE chapters SET full_text = $1 WHERE id = $2`, text, chapterID)
	if err != nil {
		return fmt.Errorf("set chapter text: %w", err)
	}
	return nil
}

func (s *Store) UpsertTopic(ctx context.Context, t Topic) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO topics (chapter_id, topic_number, name, full_text)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chapter_id, topic_number) DO UPDATE SET
			name = EXCLUDED.name,
			full_text = EXCLUDED.full_text
	`, t.ChapterID, t.Number, t.Name, t.FullText)
	if err != nil {
		return fmt.Errorf("upsert topic %s: %w", t.Number, err)
	}
	return nil
}

// UpdateTopicText fills in content for an already-known topic. Returns the
// number of rows touched so callers can log misses.
func (s *Store) UpdateTopicText(ctx context.Context, chapterID int64, number, text string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE topics SET full_text = $1
		WHERE chapter_id = $2 AND topic_number = $3
	`, text, chapterID, number)
	if err != nil {
		return 0, fmt.Errorf("update topic text %s: %w", number, err)
	}
	return tag.RowsAffected(), nil
}

// ReplaceQuestions swaps a chapter's question bank atomically.
func (s *Store) ReplaceQuestions(ctx context.Context, chapterID int64, questions []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM question_bank WHERE chapter_id = $1`, chapterID); err != nil {
		return fmt.Errorf("clear question bank: %w", err)
	}
	for _, q := range questions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO question_bank (chapter_id, question_text) VALUES ($1, $2)`,
			chapterID, q); err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) Subjects(ctx context.Context) ([]Subject, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM subjects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var out []Subject
	for rows.Next() {
		var sub Subject
		if err := rows.Scan(&sub.ID, &sub.Name); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *Store) Chapters(ctx context.Context) ([]Chapter, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, subject_id, name, class_number, chapter_number
		FROM chapters ORDER BY subject_id, class_number, chapter_number
	`)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	var out []Chapter
	for rows.Next() {
		var c Chapter
		if err := rows.Scan(&c.ID, &c.SubjectID, &c.Name, &c.ClassNumber, &c.ChapterNumber); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Topics lists a chapter's topics without their full text.
func (s *Store) Topics(ctx context.Context, chapterID int64) ([]Topic, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, chapter_id, topic_number, name
		FROM topics WHERE chapter_id = $1 ORDER BY topic_number
	`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var out []Topic
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.ID, &t.ChapterID, &t.Number, &t.Name); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SyllabusContent returns the text to use as tutoring context: the named
// topic's full text when present, otherwise the chapter's full text.
// Empty string means nothing is known for the request.
func (s *Store) SyllabusContent(ctx context.Context, subject, chapter, topic string) (string, error) {
	if topic != "" {
		var text *string
		err := s.pool.QueryRow(ctx, `
			SELECT t.full_text FROM topics t
			JOIN chapters c ON c.id = t.chapter_id
			JOIN subjects s ON s.id = c.subject_id
			WHERE s.name = $1 AND c.name = $2 AND t.name = $3
			LIMIT 1
		`, subject, chapter, topic).Scan(&text)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("topic content: %w", err)
		}
		if text != nil && *text != "" {
			return *text, nil
		}
	}

	var text *string
	err := s.pool.QueryRow(ctx, `
		SELECT c.full_text FROM chapters c
		JOIN subjects s ON s.id = c.subject_id
		WHERE s.name = $1 AND c.name = $2
		LIMIT 1
	`, subject, chapter).Scan(&text)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("chapter content: %w", err)
	}
	if text == nil {
		return "", nil
	}
	return *text, nil
}

// ChapterText holds a chapter's id and stored full text.
type ChapterText struct {
	ID       int64
	FullText string
}

// ChaptersMissingEmbedding returns chapters with text but no embedding yet,
// so embedding runs are safely repeatable.
func (s *Store) ChaptersMissingEmbedding(ctx context.Context) ([]ChapterText, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, full_text FROM chapters
		WHERE embedding IS NULL AND full_text IS NOT NULL AND full_text <> ''
	`)
	if err != nil {
		return nil, fmt.Errorf("chapters missing embedding: %w", err)
	}
	defer rows.Close()

	var out []ChapterText
	for rows.Next() {
		var ct ChapterText
		if err := rows.Scan(&ct.ID, &ct.FullText); err != nil {
			return nil, fmt.Errorf("scan chapter text: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

func (s *Store) SetChapterEmbedding(ctx context.Context, chapterID int64, embedding []float32) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE chapters SET embedding = $1 WHERE id = $2`, embedding, chapterID)
	if err != nil {
		return fmt.Errorf("set chapter embedding: %w", err)
	}
	return nil
}
