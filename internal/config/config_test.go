package config

import (
	"os"
	"path/filepath"
	"testing"
)

const jsonPipeline = `{
  "job": "ev_population",
  "source": { "kind": "http", "url": "https://data.wa.gov/api/views/f6w7-q2d2/rows.csv?accessType=DOWNLOAD",
              "http": { "max_retries": 4, "cache_dir": ".cache" } },
  "parser": { "kind": "csv", "options": { "trim_space": true, "header_map": { "Zip": "postal_code" } } },
  "impute": { "strict": true },
  "storage": { "kind": "sqlite", "db": { "dsn": "evstar.db", "auto_create_table": true } },
  "export": { "xlsx": { "path": "output/star.xlsx" } },
  "runtime": { "loader_workers": 2, "batch_size": 1000 }
}`

const yamlPipeline = `
job: ev_population
source:
  kind: file
  file:
    path: testdata/ev.csv
parser:
  kind: csv
  options:
    comma: ";"
    expected: 17
storage:
  kind: csv
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_JSON(t *testing.T) {
	p, err := Load(writeFile(t, "p.json", jsonPipeline))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Source.HTTP.MaxRetries != 4 || p.Source.HTTP.CacheDir != ".cache" {
		t.Fatalf("http = %+v", p.Source.HTTP)
	}
	if !p.Parser.Options.Bool("trim_space", false) {
		t.Fatal("trim_space not decoded")
	}
	if got := p.Parser.Options.StringMap("header_map")["Zip"]; got != "postal_code" {
		t.Fatalf("header_map[Zip] = %q", got)
	}
	if !p.Impute.Strict || p.Impute.MaxWarningRows != DefaultMaxWarningRows {
		t.Fatalf("impute = %+v", p.Impute)
	}
	if p.Runtime.LoaderWorkers != 2 || p.Runtime.BatchSize != 1000 {
		t.Fatalf("runtime = %+v", p.Runtime)
	}
	if p.Logging.Level != "info" || p.Metrics.Backend != "none" {
		t.Fatalf("defaults not applied: logging=%+v metrics=%+v", p.Logging, p.Metrics)
	}
	if issues := ValidatePipeline(p); HasErrors(issues) {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

func TestLoad_YAML(t *testing.T) {
	p, err := Load(writeFile(t, "p.yaml", yamlPipeline))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Source.File.Path != "testdata/ev.csv" {
		t.Fatalf("path = %q", p.Source.File.Path)
	}
	if got := p.Parser.Options.Rune("comma", ','); got != ';' {
		t.Fatalf("comma = %q", got)
	}
	if got := p.Parser.Options.Int("expected", 0); got != 17 {
		t.Fatalf("expected = %d", got)
	}
	if p.Storage.CSV.Dir != DefaultOutputDir || p.Runtime.BatchSize != DefaultBatchSize {
		t.Fatalf("defaults not applied: %+v %+v", p.Storage, p.Runtime)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EVSTAR_STORAGE_DB_DSN", "override.db")
	t.Setenv("EVSTAR_RUNTIME_LOADER_WORKERS", "5")
	t.Setenv("EVSTAR_IMPUTE_STRICT", "false")

	p, err := Load(writeFile(t, "p.json", jsonPipeline))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Storage.DB.DSN != "override.db" {
		t.Fatalf("dsn = %q", p.Storage.DB.DSN)
	}
	if p.Runtime.LoaderWorkers != 5 {
		t.Fatalf("loader_workers = %d", p.Runtime.LoaderWorkers)
	}
	if p.Impute.Strict {
		t.Fatal("strict should be overridden to false")
	}
	// Untouched by env.
	if p.Runtime.BatchSize != 1000 {
		t.Fatalf("batch_size = %d", p.Runtime.BatchSize)
	}
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte(`{"job":"x","sorce":{}}`), ".json"); err == nil {
		t.Fatal("expected unknown field error (json)")
	}
	if _, err := Decode([]byte("job: x\nsorce: {}\n"), ".yml"); err == nil {
		t.Fatal("expected unknown field error (yaml)")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestOptions_NullDecodesEmpty(t *testing.T) {
	t.Parallel()

	p, err := Decode([]byte(`{"parser":{"kind":"csv","options":null}}`), ".json")
	if err != nil {
		t.Fatal(err)
	}
	if p.Parser.Options == nil {
		t.Fatal("options should be non-nil")
	}
	if got := p.Parser.Options.String("comma", ","); got != "," {
		t.Fatalf("default = %q", got)
	}
}

func TestStorageNames(t *testing.T) {
	t.Parallel()

	s := Storage{Kind: "postgres", DB: DBConfig{DSN: "postgres://x", Schema: "public"}}
	if got := s.TableName("fact_vehicle"); got != "public.fact_vehicle" {
		t.Fatalf("TableName = %q", got)
	}
	if s.Location() != "postgres://x" {
		t.Fatalf("Location = %q", s.Location())
	}
	c := Storage{Kind: "csv", CSV: CSVDir{Dir: "out"}, DB: DBConfig{Schema: "ignored"}}
	if c.TableName("fact_vehicle") != "fact_vehicle" || c.Location() != "out" {
		t.Fatalf("csv names = %q %q", c.TableName("fact_vehicle"), c.Location())
	}
}

func TestShippedPipelinesAreValid(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "configs", "pipelines", "*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Skip("no shipped pipelines")
	}
	for _, path := range paths {
		p, err := Load(path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if issues := ValidatePipeline(p); HasErrors(issues) {
			t.Fatalf("%s: %v", path, issues)
		}
	}
}
