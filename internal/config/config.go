// Package config defines the pipeline configuration for evstar. A pipeline is
// loaded from a JSON or YAML file (configs/pipelines/*), overridden from
// EVSTAR_* environment variables, defaulted, and then linted by
// ValidatePipeline.
//
// Example (trimmed):
//
//	{
//	  "job":     "ev_population",
//	  "source":  { "kind": "http", "url": "https://..." },
//	  "parser":  { "kind": "csv", "options": { "trim_space": true } },
//	  "storage": { "kind": "csv", "csv": { "dir": "output" } }
//	}
package config

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job string `json:"job" yaml:"job" validate:"required"`

	Source  Source        `json:"source" yaml:"source"`
	Parser  Parser        `json:"parser" yaml:"parser"`
	Impute  Impute        `json:"impute" yaml:"impute"`
	Storage Storage       `json:"storage" yaml:"storage"`
	Export  Export        `json:"export" yaml:"export"`
	Report  Report        `json:"report" yaml:"report"`
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
	Metrics Metrics       `json:"metrics" yaml:"metrics"`
	Tracing Tracing       `json:"tracing" yaml:"tracing"`
	Logging Logging       `json:"logging" yaml:"logging"`
}

// Source identifies where the registration CSV comes from.
type Source struct {
	// Kind is "file" or "http".
	Kind string `json:"kind" yaml:"kind" validate:"required,oneof=file http"`

	// URL is required for the http kind.
	URL string `json:"url" yaml:"url" validate:"omitempty,url"`

	File SourceFile `json:"file" yaml:"file"`
	HTTP SourceHTTP `json:"http" yaml:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path" yaml:"path"`
}

// SourceHTTP tunes the http source.
type SourceHTTP struct {
	MaxRetries     int `json:"max_retries" yaml:"max_retries" split_words:"true" validate:"gte=0"`
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds" split_words:"true" validate:"gte=0"`
	// CacheDir, when set, keeps the downloaded export between runs.
	CacheDir string `json:"cache_dir" yaml:"cache_dir" split_words:"true"`
	// AppToken is sent as X-App-Token (Socrata rate limits).
	AppToken string `json:"app_token" yaml:"app_token" split_words:"true"`
	// RequestsPerSecond throttles requests, retries included. Zero disables.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" split_words:"true" validate:"gte=0"`
}

// Parser selects how the raw bytes are parsed.
type Parser struct {
	// Kind is "csv".
	Kind string `json:"kind" yaml:"kind" validate:"required,eq=csv"`

	// Options for csv: comma (string), trim_space (bool), header_map (object
	// of source header -> canonical column; merged over the built-in map).
	Options Options `json:"options" yaml:"options" ignored:"true"`
}

// Impute controls how exhausted imputation chains are treated.
type Impute struct {
	// Strict turns MissingDataExhausted warnings into a failed run.
	Strict bool `json:"strict" yaml:"strict"`
	// MaxWarningRows bounds the row numbers kept per warning.
	MaxWarningRows int `json:"max_warning_rows" yaml:"max_warning_rows" split_words:"true" validate:"gte=0"`
}

// Storage selects where the five star tables are written.
type Storage struct {
	// Kind is one of csv, sqlite, postgres, mssql, mysql.
	Kind string   `json:"kind" yaml:"kind" validate:"required,oneof=csv sqlite postgres mssql mysql"`
	CSV  CSVDir   `json:"csv" yaml:"csv"`
	DB   DBConfig `json:"db" yaml:"db"`
}

// CSVDir configures the csv storage kind.
type CSVDir struct {
	Dir string `json:"dir" yaml:"dir"`
}

// DBConfig configures the SQL storage kinds.
type DBConfig struct {
	DSN string `json:"dsn" yaml:"dsn"`

	// Schema, when set, qualifies every table name ("public" ->
	// "public.fact_vehicle").
	Schema string `json:"schema" yaml:"schema"`

	// AutoCreateTable creates each table (with its surrogate key as primary
	// key) before loading.
	AutoCreateTable bool `json:"auto_create_table" yaml:"auto_create_table" split_words:"true"`
}

// Export configures optional additional outputs.
type Export struct {
	XLSX XLSXExport `json:"xlsx" yaml:"xlsx"`
}

// XLSXExport writes all tables into one workbook when Path is set.
type XLSXExport struct {
	Path string `json:"path" yaml:"path"`
}

// Report controls the exploratory summaries.
type Report struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Path receives the text report; empty means stdout.
	Path string `json:"path" yaml:"path"`
}

// RuntimeConfig controls output concurrency and batching.
type RuntimeConfig struct {
	LoaderWorkers int `json:"loader_workers" yaml:"loader_workers" split_words:"true" validate:"gte=0"`
	BatchSize     int `json:"batch_size" yaml:"batch_size" split_words:"true" validate:"gte=0"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is none, prometheus (Pushgateway) or datadog (DogStatsD).
	Backend        string `json:"backend" yaml:"backend" validate:"omitempty,oneof=none prometheus datadog"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url" split_words:"true" validate:"omitempty,url"`
	DatadogAddr    string `json:"datadog_addr" yaml:"datadog_addr" split_words:"true"`
}

// Tracing configures OpenTelemetry spans for pipeline steps.
type Tracing struct {
	// Exporter is none or stdout.
	Exporter string `json:"exporter" yaml:"exporter" validate:"omitempty,oneof=none stdout"`
	// Path receives stdout-exporter spans; empty means stderr.
	Path        string  `json:"path" yaml:"path"`
	SampleRatio float64 `json:"sample_ratio" yaml:"sample_ratio" split_words:"true" validate:"gte=0,lte=1"`
}

// Logging configures the slog handler.
type Logging struct {
	Level  string `json:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

const (
	DefaultBatchSize      = 5000
	DefaultLoaderWorkers  = 1
	DefaultMaxWarningRows = 3
	DefaultOutputDir      = "output"
)

// ApplyDefaults fills zero values. It runs after environment overrides so an
// unset variable never masks a file value.
func (p *Pipeline) ApplyDefaults() {
	if p.Parser.Kind == "" {
		p.Parser.Kind = "csv"
	}
	if p.Parser.Options == nil {
		p.Parser.Options = Options{}
	}
	if p.Storage.Kind == "" {
		p.Storage.Kind = "csv"
	}
	if p.Storage.Kind == "csv" && p.Storage.CSV.Dir == "" {
		p.Storage.CSV.Dir = DefaultOutputDir
	}
	if p.Impute.MaxWarningRows == 0 {
		p.Impute.MaxWarningRows = DefaultMaxWarningRows
	}
	if p.Runtime.BatchSize == 0 {
		p.Runtime.BatchSize = DefaultBatchSize
	}
	if p.Runtime.LoaderWorkers == 0 {
		p.Runtime.LoaderWorkers = DefaultLoaderWorkers
	}
	if p.Metrics.Backend == "" {
		p.Metrics.Backend = "none"
	}
	if p.Tracing.Exporter == "" {
		p.Tracing.Exporter = "none"
	}
	if p.Tracing.SampleRatio == 0 {
		p.Tracing.SampleRatio = 1
	}
	if p.Logging.Level == "" {
		p.Logging.Level = "info"
	}
	if p.Logging.Format == "" {
		p.Logging.Format = "text"
	}
}

// TableName qualifies a star table name with the configured DB schema.
func (s Storage) TableName(name string) string {
	if s.Kind == "csv" || s.DB.Schema == "" {
		return name
	}
	return s.DB.Schema + "." + name
}

// Location returns the DSN for SQL kinds or the output directory for csv.
func (s Storage) Location() string {
	if s.Kind == "csv" {
		return s.CSV.Dir
	}
	return s.DB.DSN
}
