package pipeline

import (
	"sync"
	"time"
)

// JobStatus represents the state of a chapter ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusSegmenting JobStatus = "segmenting"
	StatusStoring    JobStatus = "storing"
	StatusEmbedding  JobStatus = "embedding"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// Job tracks the state of a single chapter ingestion.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Filename      string `json:"filename"`
	Subject       string `json:"subject"`
	ClassNumber   string `json:"class_number"`
	ChapterName   string `json:"chapter_name"`
	ChapterNumber string `json:"chapter_number"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	PagesParsed     int      `json:"pages_parsed"`
	TopicsFound     int      `json:"topics_found"`
	TopicsStored    int      `json:"topics_stored"`
	QuestionsStored int      `json:"questions_stored"`
	Embedded        bool     `json:"embedded"`
	Errors          []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetPagesParsed records the parsed page count.
func (j *Job) SetPagesParsed(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.PagesParsed = n
	j.UpdatedAt = time.Now()
}

// AddTopics records found/stored topic counts.
func (j *Job) AddTopics(found, stored int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TopicsFound += found
	j.Progress.TopicsStored += stored
	j.UpdatedAt = time.Now()
}

// SetQuestionsStored records the question bank size.
func (j *Job) SetQuestionsStored(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.QuestionsStored = n
	j.UpdatedAt = time.Now()
}

// SetEmbedded marks the chapter embedding as written.
func (j *Job) SetEmbedded() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Embedded = true
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID            string    `json:"job_id"`
	Status        JobStatus `json:"status"`
	Phase         string    `json:"phase"`
	Filename      string    `json:"filename"`
	Subject       string    `json:"subject"`
	ClassNumber   string    `json:"class_number"`
	ChapterName   string    `json:"chapter_name"`
	ChapterNumber string    `json:"chapter_number"`
	Progress      Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:            j.ID,
		Status:        j.Status,
		Phase:         j.Phase,
		Filename:      j.Filename,
		Subject:       j.Subject,
		ClassNumber:   j.ClassNumber,
		ChapterName:   j.ChapterName,
		ChapterNumber: j.ChapterNumber,
		Progress: Progress{
			PagesParsed:     j.Progress.PagesParsed,
			TopicsFound:     j.Progress.TopicsFound,
			TopicsStored:    j.Progress.TopicsStored,
			QuestionsStored: j.Progress.QuestionsStored,
			Embedded:        j.Progress.Embedded,
			Errors:          errs,
		},
	}
}
