package doctree

import "sync"

// TaskState is the lifecycle position of one chapter's summarization task.
type TaskState string

const (
	StatePending      TaskState = "pending"
	StateCompressing  TaskState = "compressing"
	StateCalling      TaskState = "calling"
	StateRetrying     TaskState = "retrying"
	StateSucceeded    TaskState = "succeeded"
	StateFallbackUsed TaskState = "fallback_used"
	StateSkipped      TaskState = "skipped" // fewer than two qualifying paragraphs
)

// Terminal reports whether no further transitions can happen.
func (s TaskState) Terminal() bool {
	return s == StateSucceeded || s == StateFallbackUsed || s == StateSkipped
}

// Document is one uploaded thesis after extraction and segmentation.
type Document struct {
	ID       string     // Stable document ID (also used for artifact names)
	Filename string     // Sanitized upload filename
	RawText  string     // Normalized full text
	Chapters []*Chapter // Document order
}

// Chapter is a titled block of a Document. Title and RawBody are fixed after
// segmentation; the remaining fields are written by exactly one summarization
// task and may be read concurrently through Snapshot.
type Chapter struct {
	Index   int
	Title   string
	RawBody string

	mu             sync.Mutex
	cleanedBody    string
	compressedBody string
	summary        string
	state          TaskState
	attempts       int
}

// NewChapter returns a pending chapter.
func NewChapter(index int, title, body string) *Chapter {
	return &Chapter{Index: index, Title: title, RawBody: body, state: StatePending}
}

// SetState records a transition. attempts is the 1-based call count so far.
func (c *Chapter) SetState(s TaskState, attempts int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
	c.attempts = attempts
}

func (c *Chapter) SetBodies(cleaned, compressed string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanedBody = cleaned
	c.compressedBody = compressed
}

// Finish records the terminal state together with the final summary.
func (c *Chapter) Finish(s TaskState, summary string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
	c.summary = summary
}

func (c *Chapter) State() TaskState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Chapter) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

func (c *Chapter) CleanedBody() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleanedBody
}

// ChapterSnapshot is a JSON-safe copy of chapter state.
type ChapterSnapshot struct {
	Index          int       `json:"index"`
	Title          string    `json:"title"`
	State          TaskState `json:"state"`
	Attempts       int       `json:"attempts"`
	CompressedSize int       `json:"compressed_chars"`
	SummarySize    int       `json:"summary_chars"`
}

func (c *Chapter) Snapshot() ChapterSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ChapterSnapshot{
		Index:          c.Index,
		Title:          c.Title,
		State:          c.state,
		Attempts:       c.attempts,
		CompressedSize: len(c.compressedBody),
		SummarySize:    len(c.summary),
	}
}

// ExtractionAttempt records one extractor's outcome for logging.
type ExtractionAttempt struct {
	Extractor string
	Chars     int
	Accepted  bool
	Err       error
}

// Section is one chapter of a finished Result.
type Section struct {
	Title   string    `json:"title"`
	Summary string    `json:"summary"`
	State   TaskState `json:"state"`
}

// Artifacts names the exported files (basenames under the output dir).
type Artifacts struct {
	DOCX string `json:"docx,omitempty"`
	PDF  string `json:"pdf,omitempty"`
}

// Result is the ordered per-chapter summary of a Document.
type Result struct {
	DocumentID  string    `json:"document_id"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash"`
	Sections    []Section `json:"sections"`
	Artifacts   Artifacts `json:"artifacts"`
}

// BuildResult collects chapter summaries in document order.
func BuildResult(doc *Document, contentHash string) *Result {
	res := &Result{
		DocumentID:  doc.ID,
		Filename:    doc.Filename,
		ContentHash: contentHash,
		Sections:    make([]Section, 0, len(doc.Chapters)),
	}
	for _, ch := range doc.Chapters {
		res.Sections = append(res.Sections, Section{
			Title:   ch.Title,
			Summary: ch.Summary(),
			State:   ch.State(),
		})
	}
	return res
}
