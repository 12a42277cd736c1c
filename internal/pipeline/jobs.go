package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docusum/internal/doctree"
)

// JobStatus represents the state of a summarization job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusExtracting  JobStatus = "extracting"
	StatusSegmenting  JobStatus = "segmenting"
	StatusSummarizing JobStatus = "summarizing"
	StatusExporting   JobStatus = "exporting"
	StatusCompleted   JobStatus = "completed"
	StatusCached      JobStatus = "cached"
	StatusFailed      JobStatus = "failed"
)

// Done reports whether the job has stopped changing.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusCached || s == StatusFailed
}

// Job tracks the state of a single document summarization.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"document_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	doc      *doctree.Document
	result   *doctree.Result
	errors   []string
}

// Progress counts chapters by outcome.
type Progress struct {
	TotalChapters int      `json:"total_chapters"`
	ChaptersDone  int      `json:"chapters_done"`
	Succeeded     int      `json:"succeeded"`
	FallbackUsed  int      `json:"fallback_used"`
	Skipped       int      `json:"skipped"`
	Errors        []string `json:"errors"`
}

// NewJob returns a queued job for an uploaded file.
func NewJob(filename string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.NewString(),
		DocID:       uuid.NewString(),
		Status:      StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
	}
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
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
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

// SetDocument attaches the segmented document so chapter states can be
// reported while summarization runs.
func (j *Job) SetDocument(doc *doctree.Document) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.doc = doc
	j.Progress.TotalChapters = len(doc.Chapters)
	j.UpdatedAt = time.Now()
}

// ChapterDone counts a chapter that reached a terminal state.
func (j *Job) ChapterDone(ch *doctree.Chapter) {
	state := ch.State()
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChaptersDone++
	switch state {
	case doctree.StateSucceeded:
		j.Progress.Succeeded++
	case doctree.StateFallbackUsed:
		j.Progress.FallbackUsed++
	case doctree.StateSkipped:
		j.Progress.Skipped++
	}
	j.UpdatedAt = time.Now()
}

// SetResult stores the finished result.
func (j *Job) SetResult(res *doctree.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	if res != nil && res.DocumentID != "" {
		j.DocID = res.DocumentID
	}
	j.UpdatedAt = time.Now()
}

// Result returns the finished result, or nil.
func (j *Job) Result() *doctree.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFile drops the upload bytes once they are on disk.
func (j *Job) releaseFile() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string                    `json:"job_id"`
	DocID    string                    `json:"document_id"`
	Status   JobStatus                 `json:"status"`
	Phase    string                    `json:"phase"`
	Filename string                    `json:"filename"`
	Progress Progress                  `json:"progress"`
	Chapters []doctree.ChapterSnapshot `json:"chapters"`
	Result   *doctree.Result           `json:"result,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	snap := JobSnapshot{
		ID:       j.ID,
		DocID:    j.DocID,
		Status:   j.Status,
		Phase:    j.Phase,
		Filename: j.Filename,
		Progress: j.Progress,
		Chapters: []doctree.ChapterSnapshot{},
		Result:   j.result,
	}
	snap.Progress.Errors = append([]string{}, errs...)
	if j.doc != nil {
		for _, ch := range j.doc.Chapters {
			snap.Chapters = append(snap.Chapters, ch.Snapshot())
		}
	}
	return snap
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
