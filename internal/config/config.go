package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Log       LogConfig
	CORS      CORSConfig
	Extractor ExtractorConfig
	Report    ReportConfig
	Storage   StorageConfig
	Download  DownloadConfig
	Notify    NotifyConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProviderConfig holds settings for a single extraction provider.
type ProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
	Endpoint     string `mapstructure:"endpoint"`
}

// ExtractorConfig holds the text-extraction collaborator settings.
type ExtractorConfig struct {
	Primary   ProviderConfig `mapstructure:"primary"`
	Secondary ProviderConfig `mapstructure:"secondary"`
	Tertiary  ProviderConfig `mapstructure:"tertiary"`

	// CallTimeout bounds a single collaborator call; a timeout counts as failure.
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	// RatePerMinute caps collaborator calls across all documents. 0 disables.
	RatePerMinute int `mapstructure:"rate_per_minute"`
	// MaxInFlight is the number of documents processed concurrently.
	MaxInFlight int `mapstructure:"max_in_flight"`
	// PDFTextFallback uses the embedded PDF text layer when OCR returns nothing.
	PDFTextFallback bool `mapstructure:"pdf_text_fallback"`
	// LocalChecks runs the built-in GSTIN, date, tax and HSN checks.
	LocalChecks bool `mapstructure:"local_checks"`

	RetryMaxAttempts    int           `mapstructure:"retry_max_attempts"`
	RetryInitialBackoff time.Duration `mapstructure:"retry_initial_backoff"`
	RetryMaxBackoff     time.Duration `mapstructure:"retry_max_backoff"`
	BreakerEnabled      bool          `mapstructure:"breaker_enabled"`
	BreakerMinRequests  uint32        `mapstructure:"breaker_min_requests"`
	BreakerFailureRatio float64       `mapstructure:"breaker_failure_ratio"`
	BreakerOpenTimeout  time.Duration `mapstructure:"breaker_open_timeout"`
}

// PrimaryConfig returns the primary provider config.
func (e *ExtractorConfig) PrimaryConfig() *ProviderConfig {
	return &e.Primary
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (e *ExtractorConfig) SecondaryConfig() *ProviderConfig {
	if e.Secondary.Provider != "" {
		return &e.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary provider config, or nil if not configured.
func (e *ExtractorConfig) TertiaryConfig() *ProviderConfig {
	if e.Tertiary.Provider != "" {
		return &e.Tertiary
	}
	return nil
}

// ReportConfig holds report formatting policy.
type ReportConfig struct {
	MissingPolicy   string  `mapstructure:"missing_policy"`
	NameMode        string  `mapstructure:"name_mode"`
	NameSeparator   string  `mapstructure:"name_separator"`
	SingleLineMax   int     `mapstructure:"single_line_max"`
	PairedMax       int     `mapstructure:"paired_max"`
	BaseRowHeight   float64 `mapstructure:"base_row_height"`
	LineHeightStep  float64 `mapstructure:"line_height_step"`
	HeaderRowHeight float64 `mapstructure:"header_row_height"`
	DocumentsSheet  bool    `mapstructure:"documents_sheet"`
	LabelsFile      string  `mapstructure:"labels_file"`
	HSNMasterFile   string  `mapstructure:"hsn_master_file"`
	OutputPath      string  `mapstructure:"output_path"`
}

// StorageConfig holds artifact and upload storage settings.
type StorageConfig struct {
	Provider      string `mapstructure:"provider"`
	BasePath      string `mapstructure:"base_path"`
	UploadDir     string `mapstructure:"upload_dir"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	S3            S3Config
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// DownloadConfig holds download-token signing settings.
type DownloadConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// NotifyConfig holds report-ready notification settings.
type NotifyConfig struct {
	Provider    string   `mapstructure:"provider"`
	Region      string   `mapstructure:"region"`
	FromAddress string   `mapstructure:"from_address"`
	FromName    string   `mapstructure:"from_name"`
	Recipients  []string `mapstructure:"recipients"`
	BaseURL     string   `mapstructure:"base_url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the FINSYNC_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FINSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8000")
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "15m")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "finsync")
	v.SetDefault("db.password", "finsync_secret")
	v.SetDefault("db.name", "finsync_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:5000,http://127.0.0.1:5000,http://localhost:3000")

	// Extractor defaults
	v.SetDefault("extractor.primary.provider", "gemini")
	v.SetDefault("extractor.primary.api_key", "")
	v.SetDefault("extractor.primary.default_model", "")
	v.SetDefault("extractor.primary.timeout_secs", 120)
	v.SetDefault("extractor.primary.endpoint", "")
	v.SetDefault("extractor.secondary.provider", "")
	v.SetDefault("extractor.secondary.api_key", "")
	v.SetDefault("extractor.secondary.default_model", "")
	v.SetDefault("extractor.secondary.timeout_secs", 120)
	v.SetDefault("extractor.secondary.endpoint", "")
	v.SetDefault("extractor.tertiary.provider", "")
	v.SetDefault("extractor.tertiary.api_key", "")
	v.SetDefault("extractor.tertiary.default_model", "")
	v.SetDefault("extractor.tertiary.timeout_secs", 120)
	v.SetDefault("extractor.tertiary.endpoint", "")
	v.SetDefault("extractor.call_timeout", "90s")
	v.SetDefault("extractor.rate_per_minute", 15)
	v.SetDefault("extractor.max_in_flight", 1)
	v.SetDefault("extractor.pdf_text_fallback", false)
	v.SetDefault("extractor.local_checks", true)
	v.SetDefault("extractor.retry_max_attempts", 2)
	v.SetDefault("extractor.retry_initial_backoff", "500ms")
	v.SetDefault("extractor.retry_max_backoff", "4s")
	v.SetDefault("extractor.breaker_enabled", true)
	v.SetDefault("extractor.breaker_min_requests", 5)
	v.SetDefault("extractor.breaker_failure_ratio", 0.6)
	v.SetDefault("extractor.breaker_open_timeout", "30s")

	// Report defaults
	v.SetDefault("report.missing_policy", "sentinel")
	v.SetDefault("report.name_mode", "preserve")
	v.SetDefault("report.name_separator", ", ")
	v.SetDefault("report.single_line_max", 2)
	v.SetDefault("report.paired_max", 6)
	v.SetDefault("report.base_row_height", 20)
	v.SetDefault("report.line_height_step", 15)
	v.SetDefault("report.header_row_height", 30)
	v.SetDefault("report.documents_sheet", true)
	v.SetDefault("report.labels_file", "")
	v.SetDefault("report.hsn_master_file", "")
	v.SetDefault("report.output_path", "output/Consolidated_Invoices_Output.xlsx")

	// Storage defaults
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.base_path", "output")
	v.SetDefault("storage.upload_dir", "temp_uploads")
	v.SetDefault("storage.max_file_size_mb", 50)
	v.SetDefault("storage.s3.region", "ap-south-1")
	v.SetDefault("storage.s3.bucket", "finsync-reports")
	v.SetDefault("storage.s3.endpoint", "")

	// Download token defaults
	v.SetDefault("download.secret", "change-me-in-production")
	v.SetDefault("download.expiry", "24h")
	v.SetDefault("download.issuer", "finsync")

	// Notify defaults
	v.SetDefault("notify.provider", "noop")
	v.SetDefault("notify.region", "ap-south-1")
	v.SetDefault("notify.from_address", "reports@finsync.local")
	v.SetDefault("notify.from_name", "FinSync")
	v.SetDefault("notify.recipients", "")
	v.SetDefault("notify.base_url", "http://localhost:8000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                       "FINSYNC_SERVER_PORT",
		"server.read_timeout":               "FINSYNC_SERVER_READ_TIMEOUT",
		"server.write_timeout":              "FINSYNC_SERVER_WRITE_TIMEOUT",
		"server.environment":                "FINSYNC_SERVER_ENVIRONMENT",
		"db.host":                           "FINSYNC_DB_HOST",
		"db.port":                           "FINSYNC_DB_PORT",
		"db.user":                           "FINSYNC_DB_USER",
		"db.password":                       "FINSYNC_DB_PASSWORD",
		"db.name":                           "FINSYNC_DB_NAME",
		"db.sslmode":                        "FINSYNC_DB_SSLMODE",
		"db.max_open":                       "FINSYNC_DB_MAX_OPEN",
		"db.max_idle":                       "FINSYNC_DB_MAX_IDLE",
		"log.level":                         "FINSYNC_LOG_LEVEL",
		"log.format":                        "FINSYNC_LOG_FORMAT",
		"cors.allowed_origins":              "FINSYNC_CORS_ALLOWED_ORIGINS",
		"extractor.primary.provider":        "FINSYNC_EXTRACTOR_PRIMARY_PROVIDER",
		"extractor.primary.api_key":         "FINSYNC_EXTRACTOR_PRIMARY_API_KEY",
		"extractor.primary.default_model":   "FINSYNC_EXTRACTOR_PRIMARY_DEFAULT_MODEL",
		"extractor.primary.timeout_secs":    "FINSYNC_EXTRACTOR_PRIMARY_TIMEOUT_SECS",
		"extractor.primary.endpoint":        "FINSYNC_EXTRACTOR_PRIMARY_ENDPOINT",
		"extractor.secondary.provider":      "FINSYNC_EXTRACTOR_SECONDARY_PROVIDER",
		"extractor.secondary.api_key":       "FINSYNC_EXTRACTOR_SECONDARY_API_KEY",
		"extractor.secondary.default_model": "FINSYNC_EXTRACTOR_SECONDARY_DEFAULT_MODEL",
		"extractor.secondary.timeout_secs":  "FINSYNC_EXTRACTOR_SECONDARY_TIMEOUT_SECS",
		"extractor.secondary.endpoint":      "FINSYNC_EXTRACTOR_SECONDARY_ENDPOINT",
		"extractor.tertiary.provider":       "FINSYNC_EXTRACTOR_TERTIARY_PROVIDER",
		"extractor.tertiary.api_key":        "FINSYNC_EXTRACTOR_TERTIARY_API_KEY",
		"extractor.tertiary.default_model":  "FINSYNC_EXTRACTOR_TERTIARY_DEFAULT_MODEL",
		"extractor.tertiary.timeout_secs":   "FINSYNC_EXTRACTOR_TERTIARY_TIMEOUT_SECS",
		"extractor.tertiary.endpoint":       "FINSYNC_EXTRACTOR_TERTIARY_ENDPOINT",
		"extractor.call_timeout":            "FINSYNC_EXTRACTOR_CALL_TIMEOUT",
		"extractor.rate_per_minute":         "FINSYNC_EXTRACTOR_RATE_PER_MINUTE",
		"extractor.max_in_flight":           "FINSYNC_EXTRACTOR_MAX_IN_FLIGHT",
		"extractor.pdf_text_fallback":       "FINSYNC_EXTRACTOR_PDF_TEXT_FALLBACK",
		"extractor.local_checks":            "FINSYNC_EXTRACTOR_LOCAL_CHECKS",
		"extractor.retry_max_attempts":      "FINSYNC_EXTRACTOR_RETRY_MAX_ATTEMPTS",
		"extractor.retry_initial_backoff":   "FINSYNC_EXTRACTOR_RETRY_INITIAL_BACKOFF",
		"extractor.retry_max_backoff":       "FINSYNC_EXTRACTOR_RETRY_MAX_BACKOFF",
		"extractor.breaker_enabled":         "FINSYNC_EXTRACTOR_BREAKER_ENABLED",
		"extractor.breaker_min_requests":    "FINSYNC_EXTRACTOR_BREAKER_MIN_REQUESTS",
		"extractor.breaker_failure_ratio":   "FINSYNC_EXTRACTOR_BREAKER_FAILURE_RATIO",
		"extractor.breaker_open_timeout":    "FINSYNC_EXTRACTOR_BREAKER_OPEN_TIMEOUT",
		"report.missing_policy":             "FINSYNC_REPORT_MISSING_POLICY",
		"report.name_mode":                  "FINSYNC_REPORT_NAME_MODE",
		"report.name_separator":             "FINSYNC_REPORT_NAME_SEPARATOR",
		"report.single_line_max":            "FINSYNC_REPORT_SINGLE_LINE_MAX",
		"report.paired_max":                 "FINSYNC_REPORT_PAIRED_MAX",
		"report.base_row_height":            "FINSYNC_REPORT_BASE_ROW_HEIGHT",
		"report.line_height_step":           "FINSYNC_REPORT_LINE_HEIGHT_STEP",
		"report.header_row_height":          "FINSYNC_REPORT_HEADER_ROW_HEIGHT",
		"report.documents_sheet":            "FINSYNC_REPORT_DOCUMENTS_SHEET",
		"report.labels_file":                "FINSYNC_REPORT_LABELS_FILE",
		"report.hsn_master_file":            "FINSYNC_REPORT_HSN_MASTER_FILE",
		"report.output_path":                "FINSYNC_REPORT_OUTPUT_PATH",
		"storage.provider":                  "FINSYNC_STORAGE_PROVIDER",
		"storage.base_path":                 "FINSYNC_STORAGE_BASE_PATH",
		"storage.upload_dir":                "FINSYNC_STORAGE_UPLOAD_DIR",
		"storage.max_file_size_mb":          "FINSYNC_STORAGE_MAX_FILE_SIZE_MB",
		"storage.s3.region":                 "FINSYNC_STORAGE_S3_REGION",
		"storage.s3.bucket":                 "FINSYNC_STORAGE_S3_BUCKET",
		"storage.s3.endpoint":               "FINSYNC_STORAGE_S3_ENDPOINT",
		"storage.s3.access_key":             "FINSYNC_STORAGE_S3_ACCESS_KEY",
		"storage.s3.secret_key":             "FINSYNC_STORAGE_S3_SECRET_KEY",
		"download.secret":                   "FINSYNC_DOWNLOAD_SECRET",
		"download.expiry":                   "FINSYNC_DOWNLOAD_EXPIRY",
		"download.issuer":                   "FINSYNC_DOWNLOAD_ISSUER",
		"notify.provider":                   "FINSYNC_NOTIFY_PROVIDER",
		"notify.region":                     "FINSYNC_NOTIFY_REGION",
		"notify.from_address":               "FINSYNC_NOTIFY_FROM_ADDRESS",
		"notify.from_name":                  "FINSYNC_NOTIFY_FROM_NAME",
		"notify.recipients":                 "FINSYNC_NOTIFY_RECIPIENTS",
		"notify.base_url":                   "FINSYNC_NOTIFY_BASE_URL",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set PORT. Use it if FINSYNC_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("FINSYNC_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	cfg.Extractor = ExtractorConfig{
		Primary:             providerConfig(v, "extractor.primary"),
		Secondary:           providerConfig(v, "extractor.secondary"),
		Tertiary:            providerConfig(v, "extractor.tertiary"),
		CallTimeout:         v.GetDuration("extractor.call_timeout"),
		RatePerMinute:       v.GetInt("extractor.rate_per_minute"),
		MaxInFlight:         v.GetInt("extractor.max_in_flight"),
		PDFTextFallback:     v.GetBool("extractor.pdf_text_fallback"),
		LocalChecks:         v.GetBool("extractor.local_checks"),
		RetryMaxAttempts:    v.GetInt("extractor.retry_max_attempts"),
		RetryInitialBackoff: v.GetDuration("extractor.retry_initial_backoff"),
		RetryMaxBackoff:     v.GetDuration("extractor.retry_max_backoff"),
		BreakerEnabled:      v.GetBool("extractor.breaker_enabled"),
		BreakerMinRequests:  v.GetUint32("extractor.breaker_min_requests"),
		BreakerFailureRatio: v.GetFloat64("extractor.breaker_failure_ratio"),
		BreakerOpenTimeout:  v.GetDuration("extractor.breaker_open_timeout"),
	}
	applyGoogleKeyFallback(&cfg.Extractor.Primary)
	if sc := cfg.Extractor.SecondaryConfig(); sc != nil {
		applyGoogleKeyFallback(sc)
	}
	if tc := cfg.Extractor.TertiaryConfig(); tc != nil {
		applyGoogleKeyFallback(tc)
	}

	cfg.Report = ReportConfig{
		MissingPolicy:   v.GetString("report.missing_policy"),
		NameMode:        v.GetString("report.name_mode"),
		NameSeparator:   v.GetString("report.name_separator"),
		SingleLineMax:   v.GetInt("report.single_line_max"),
		PairedMax:       v.GetInt("report.paired_max"),
		BaseRowHeight:   v.GetFloat64("report.base_row_height"),
		LineHeightStep:  v.GetFloat64("report.line_height_step"),
		HeaderRowHeight: v.GetFloat64("report.header_row_height"),
		DocumentsSheet:  v.GetBool("report.documents_sheet"),
		LabelsFile:      v.GetString("report.labels_file"),
		HSNMasterFile:   v.GetString("report.hsn_master_file"),
		OutputPath:      v.GetString("report.output_path"),
	}

	cfg.Storage = StorageConfig{
		Provider:      v.GetString("storage.provider"),
		BasePath:      v.GetString("storage.base_path"),
		UploadDir:     v.GetString("storage.upload_dir"),
		MaxFileSizeMB: v.GetInt64("storage.max_file_size_mb"),
		S3: S3Config{
			Region:    v.GetString("storage.s3.region"),
			Bucket:    v.GetString("storage.s3.bucket"),
			Endpoint:  v.GetString("storage.s3.endpoint"),
			AccessKey: v.GetString("storage.s3.access_key"),
			SecretKey: v.GetString("storage.s3.secret_key"),
		},
	}

	cfg.Download = DownloadConfig{
		Secret: v.GetString("download.secret"),
		Expiry: v.GetDuration("download.expiry"),
		Issuer: v.GetString("download.issuer"),
	}

	cfg.Notify = NotifyConfig{
		Provider:    v.GetString("notify.provider"),
		Region:      v.GetString("notify.region"),
		FromAddress: v.GetString("notify.from_address"),
		FromName:    v.GetString("notify.from_name"),
		Recipients:  splitList(v.GetString("notify.recipients")),
		BaseURL:     v.GetString("notify.base_url"),
	}

	return cfg, nil
}

func providerConfig(v *viper.Viper, prefix string) ProviderConfig {
	return ProviderConfig{
		Provider:     v.GetString(prefix + ".provider"),
		APIKey:       v.GetString(prefix + ".api_key"),
		DefaultModel: v.GetString(prefix + ".default_model"),
		TimeoutSecs:  v.GetInt(prefix + ".timeout_secs"),
		Endpoint:     v.GetString(prefix + ".endpoint"),
	}
}

// applyGoogleKeyFallback lets a Gemini provider pick up the conventional
// GOOGLE_API_KEY / GEMINI_API_KEY variables when no explicit key is set.
func applyGoogleKeyFallback(p *ProviderConfig) {
	if p.Provider != "gemini" || p.APIKey != "" {
		return
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		p.APIKey = key
		return
	}
	p.APIKey = os.Getenv("GEMINI_API_KEY")
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
