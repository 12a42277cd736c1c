package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth (optional; empty disables bearer auth)
	APIKey string

	// Remote summarizer
	LLMProvider   string // "gemini" or "openai"
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	LLMRateLimit  float64 // requests per second, 0 = unlimited

	// Summarization
	MaxConcurrency    int
	MaxAttempts       int
	RetryBaseDelay    time.Duration
	RetryMaxDelay     time.Duration
	CallTimeout       time.Duration
	MaxInputChars     int
	MinSummaryChars   int
	MinSentenceChars  int
	FallbackSentences int
	SmoothingEnabled  bool

	// Extraction
	MinExtractedChars    int
	PDFFallbackPdftotext bool
	OCREnabled           bool
	OCRLanguage          string
	OCRDPI               float64
	TesseractCmd         string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Storage
	DataDir        string
	CachePath      string
	CommentsDBPath string
	RulesFile      string

	// Job state
	JobTTL time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real env vars take precedence.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8000"),

		APIKey: os.Getenv("DOCUSUM_API_KEY"),

		LLMProvider:   strings.ToLower(envOr("LLM_PROVIDER", "gemini")),
		GeminiAPIKey:  envOr("GOOGLE_API_KEY", os.Getenv("GEMINI_API_KEY")),
		GeminiModel:   envOr("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL: envOr("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		LLMRateLimit:  envFloat("LLM_RATE_LIMIT", 0),

		MaxConcurrency:    envInt("MAX_CONCURRENCY", 10),
		MaxAttempts:       envInt("MAX_RETRIES", 4),
		RetryBaseDelay:    envDuration("RETRY_BASE_DELAY", 800*time.Millisecond),
		RetryMaxDelay:     envDuration("RETRY_MAX_DELAY", 8*time.Second),
		CallTimeout:       envDuration("LLM_TIMEOUT", 60*time.Second),
		MaxInputChars:     envInt("MAX_INPUT_CHARS", 30000),
		MinSummaryChars:   envInt("MIN_SUMMARY_CHARS", 120),
		MinSentenceChars:  envInt("MIN_SENTENCE_CHARS", 40),
		FallbackSentences: envInt("FALLBACK_SENTENCES", 7),
		SmoothingEnabled:  envBool("SMOOTHING_ENABLED", false),

		MinExtractedChars:    envInt("MIN_EXTRACTED_CHARS", 200),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
		OCREnabled:           envBool("OCR_ENABLED", true),
		OCRLanguage:          envOr("OCR_LANGUAGE", "eng+ind"),
		OCRDPI:               envFloat("OCR_DPI", 300),
		TesseractCmd:         envOr("TESSERACT_CMD", "tesseract"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		DataDir:        envOr("DATA_DIR", "data"),
		CachePath:      os.Getenv("CACHE_PATH"),
		CommentsDBPath: os.Getenv("COMMENTS_DB_PATH"),
		RulesFile:      os.Getenv("RULES_FILE"),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 10
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 4
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 800 * time.Millisecond
	}
	if cfg.RetryMaxDelay < cfg.RetryBaseDelay {
		cfg.RetryMaxDelay = 8 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = 30000
	}
	if cfg.MinSummaryChars <= 0 {
		cfg.MinSummaryChars = 120
	}
	if cfg.MinSentenceChars <= 0 {
		cfg.MinSentenceChars = 40
	}
	if cfg.FallbackSentences <= 0 {
		cfg.FallbackSentences = 7
	}
	if cfg.MinExtractedChars <= 0 {
		cfg.MinExtractedChars = 200
	}
	if cfg.OCRDPI <= 0 {
		cfg.OCRDPI = 300
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.CachePath == "" {
		cfg.CachePath = cfg.DataDir + "/cache.db"
	}
	if cfg.CommentsDBPath == "" {
		cfg.CommentsDBPath = cfg.DataDir + "/comments.db"
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.LLMProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required for provider gemini")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider openai")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (want gemini or openai)", c.LLMProvider)
	}
	if c.RetryMaxDelay < c.RetryBaseDelay {
		return fmt.Errorf("RETRY_MAX_DELAY (%s) must not be below RETRY_BASE_DELAY (%s)", c.RetryMaxDelay, c.RetryBaseDelay)
	}
	return nil
}

// UploadDir is where uploaded PDFs are kept while a job runs.
func (c Config) UploadDir() string { return c.DataDir + "/uploads" }

// OutputDir is where exported DOCX and PDF artifacts are written.
func (c Config) OutputDir() string { return c.DataDir + "/outputs" }

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("800ms") or plain seconds ("0.8").
func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(f * float64(time.Second))
		}
	}
	return fallback
}
