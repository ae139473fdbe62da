package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"taxdoc/internal/logger"
)

type Config struct {
	// Vision model inference (Ollama)
	OllamaBaseURL        string  `validate:"required,url"`
	OllamaModel          string  `validate:"required"`
	InferenceTimeoutSecs int     `validate:"gt=0"`
	InferenceTemperature float64 `validate:"gte=0,lte=2"`
	ExtractionProvider   string  `validate:"oneof=ollama openai documentai"`

	// OpenAI-compatible endpoint, used when ExtractionProvider is "openai"
	OpenAIAPIKey  string `validate:"required_if=ExtractionProvider openai"`
	OpenAIBaseURL string `validate:"omitempty,url"`
	OpenAIModel   string

	// OCR and page preparation
	OCREngine         string   `validate:"oneof=tesseract google"`
	OCRLanguage       string   `validate:"required"`
	TesseractPath     string   `validate:"required"`
	PdftoppmPath      string   `validate:"required"`
	RenderScale       int      `validate:"gte=1,lte=8"`
	AllowedExtensions []string `validate:"min=1"`
	MaxFileSizeMB     int      `validate:"gt=0"`

	// Normalization
	PreferredLanguage string `validate:"required"`
	TaxCountry        string `validate:"required,len=2"`
	TaxIDRulesFile    string

	// Output collaborators
	ReportFontPath      string
	TranslationProvider string `validate:"oneof=none prefix google"`
	SpeechProvider      string `validate:"oneof=none google"`

	// Google Cloud Configuration
	GoogleCloudProject    string `validate:"required_if=ExtractionProvider documentai"`
	GoogleCloudLocation   string
	DocumentAIProcessorID string `validate:"required_if=ExtractionProvider documentai"`
	GoogleSheetURL        string
	GoogleSheetWorksheet  string

	// Batch processing
	BatchWorkers int `validate:"gt=0"`

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OllamaBaseURL:         strings.TrimRight(getEnv("OLLAMA_API_BASE_URL", "http://localhost:11434"), "/"),
		OllamaModel:           getEnv("OLLAMA_MODEL_NAME", "llava"),
		InferenceTimeoutSecs:  getEnvInt("INFERENCE_TIMEOUT_SECONDS", 180),
		InferenceTemperature:  getEnvFloat("INFERENCE_TEMPERATURE", 0.1),
		ExtractionProvider:    strings.ToLower(getEnv("EXTRACTION_PROVIDER", "ollama")),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OCREngine:             strings.ToLower(getEnv("OCR_ENGINE", "tesseract")),
		OCRLanguage:           getEnv("OCR_LANGUAGE", "en"),
		TesseractPath:         getEnv("TESSERACT_PATH", "tesseract"),
		PdftoppmPath:          getEnv("PDFTOPPM_PATH", "pdftoppm"),
		RenderScale:           getEnvInt("RENDER_SCALE", 2),
		AllowedExtensions:     getEnvList("ALLOWED_EXTENSIONS", []string{"png", "jpg", "jpeg", "tiff", "pdf"}),
		MaxFileSizeMB:         getEnvInt("MAX_FILE_SIZE_MB", 16),
		PreferredLanguage:     getEnv("PREFERRED_LANGUAGE", "en"),
		TaxCountry:            strings.ToUpper(getEnv("TAX_COUNTRY", "IN")),
		TaxIDRulesFile:        getEnv("TAX_ID_RULES_FILE", ""),
		ReportFontPath:        getEnv("REPORT_FONT_PATH", ""),
		TranslationProvider:   strings.ToLower(getEnv("TRANSLATION_PROVIDER", "none")),
		SpeechProvider:        strings.ToLower(getEnv("SPEECH_PROVIDER", "none")),
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:   getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		GoogleSheetURL:        getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:  getEnv("GOOGLE_SHEET_WORKSHEET", "Extractions"),
		BatchWorkers:          getEnvInt("BATCH_WORKERS", 4),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q (value: %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// InferenceTimeout returns the model request budget as a duration
func (c *Config) InferenceTimeout() time.Duration {
	return time.Duration(c.InferenceTimeoutSecs) * time.Second
}

// MaxFileSizeBytes returns the upload size limit in bytes
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			items = append(items, strings.TrimPrefix(item, "."))
		}
	}
	return items
}
