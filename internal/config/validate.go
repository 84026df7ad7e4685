package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is a dotted path into the
// config, e.g. "storage.db.dsn".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var validate = newValidator()

// newValidator reports field paths using the json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidatePipeline lints p without mutating it. Struct tag rules (required
// fields, enumerations, URLs, non-negative numbers) come first, followed by
// cross-field checks.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue
	issues = append(issues, structIssues(p)...)
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	return issues
}

func structIssues(p Pipeline) []Issue {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{Severity: SeverityError, Path: "", Message: err.Error()}}
	}
	out := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, Issue{
			Severity: SeverityError,
			Path:     fieldPath(fe),
			Message:  describe(fe),
		})
	}
	return out
}

// fieldPath drops the root type name: "Pipeline.storage.kind" -> "storage.kind".
func fieldPath(fe validator.FieldError) string {
	_, path, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		return fe.Namespace()
	}
	return path
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "oneof":
		return fmt.Sprintf("%q is not one of [%s]", fe.Value(), fe.Param())
	case "eq":
		return fmt.Sprintf("%q is not supported; want %s", fe.Value(), fe.Param())
	case "url":
		return fmt.Sprintf("%q is not a valid URL", fe.Value())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func validateSource(s Source) []Issue {
	var issues []Issue
	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "http":
		if strings.TrimSpace(s.URL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.url",
				Message:  "http source requires a url",
			})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	switch s.Kind {
	case "csv":
		if strings.TrimSpace(s.CSV.Dir) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.csv.dir",
				Message:  "csv storage requires an output directory",
			})
		}
		if s.DB.AutoCreateTable {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.auto_create_table",
				Message:  "csv storage has no tables to create",
			})
		}
	case "sqlite", "postgres", "mssql", "mysql":
		if strings.TrimSpace(s.DB.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.dsn",
				Message:  "storage.db.dsn must not be empty",
			})
		}
		if !s.DB.AutoCreateTable {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "storage.db.auto_create_table",
				Message:  "tables must already exist with matching columns",
			})
		}
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue
	if r.BatchSize > 0 && r.BatchSize < 100 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; small batches may hurt throughput", r.BatchSize),
		})
	}
	if r.LoaderWorkers > 5 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.loader_workers",
			Message:  fmt.Sprintf("loader_workers=%d; only five tables are written, extra workers stay idle", r.LoaderWorkers),
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "prometheus":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "prometheus backend requires a pushgateway_url",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires datadog_addr (host:port)",
			})
		}
	}
	return issues
}
