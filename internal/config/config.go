package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

type Config struct {
	Port string

	ModelSource   string // local path or http(s) URL of the .onnx artifact
	MetadataPath  string // local path or http(s) URL of model_metadata.json
	ModelLazy     bool   // load on first request instead of at startup
	ModelServeDir string // served under /models/ when set
	ONNXLibPath   string

	UploadDir   string
	LogDir      string
	CORSOrigins []string

	AdviceProvider string
	GroqAPIKey     string
	GroqModel      string
	GroqURL        string
	GeminiAPIKey   string
	GeminiModel    string
	AdviceTimeout  time.Duration

	GoogleAPIKey  string
	GoogleCSEID   string
	SearchTimeout time.Duration
}

// MissingKeyError reports a required setting that was empty when a client needed it.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing required env %s", e.Key)
}

// Require returns a *MissingKeyError when value is blank.
func Require(key, value string) error {
	if strings.TrimSpace(value) == "" {
		return &MissingKeyError{Key: key}
	}
	return nil
}

// Load reads an optional .env file and then the process environment.
// API keys are not validated here; clients report them at call time.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	modelSource := getEnv("MODEL_SOURCE", filepath.Join("models", "model.onnx"))

	cfg := &Config{
		Port: getEnv("PORT", "5000"),

		ModelSource:   modelSource,
		MetadataPath:  getEnv("MODEL_METADATA", SiblingSource(modelSource, "model_metadata.json")),
		ModelLazy:     getEnvAsBool("MODEL_LAZY", false),
		ModelServeDir: getEnv("MODEL_SERVE_DIR", ""),
		ONNXLibPath:   getEnv("ONNXRUNTIME_LIB", ""),

		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
		LogDir:      getEnv("LOG_DIR", ""),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		AdviceProvider: strings.ToLower(getEnv("ADVICE_PROVIDER", ProviderGroq)),
		GroqAPIKey:     os.Getenv("GROQ_API_KEY"),
		GroqModel:      getEnv("GROQ_MODEL", "llama3-70b-8192"),
		GroqURL:        getEnv("GROQ_URL", "https://api.groq.com/openai/v1/chat/completions"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		AdviceTimeout:  getEnvAsDuration("ADVICE_TIMEOUT", 60*time.Second),

		GoogleAPIKey:  os.Getenv("GOOGLE_API_KEY"),
		GoogleCSEID:   os.Getenv("GOOGLE_CSE_ID"),
		SearchTimeout: getEnvAsDuration("SEARCH_TIMEOUT", 15*time.Second),
	}

	switch cfg.AdviceProvider {
	case ProviderGroq, ProviderGemini:
	default:
		return nil, fmt.Errorf("unknown ADVICE_PROVIDER %q (want %s or %s)", cfg.AdviceProvider, ProviderGroq, ProviderGemini)
	}
	if len(cfg.CORSOrigins) == 0 {
		return nil, errors.New("CORS_ORIGINS must list at least one origin")
	}

	return cfg, nil
}

// IsURL reports whether source should be fetched over HTTP rather than read from disk.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// SiblingSource returns name placed next to source, keeping URL sources as URLs.
func SiblingSource(source, name string) string {
	if IsURL(source) {
		if i := strings.LastIndex(source, "/"); i >= 0 {
			return source[:i+1] + name
		}
		return name
	}
	return filepath.Join(filepath.Dir(source), name)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
