package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"evstar/internal/config"
	"evstar/internal/datasource"
	"evstar/internal/datasource/file"
	"evstar/internal/datasource/httpds"
	"evstar/internal/export/xlsx"
	"evstar/internal/impute"
	"evstar/internal/logging"
	"evstar/internal/metrics"
	csvparser "evstar/internal/parser/csv"
	"evstar/internal/report"
	"evstar/internal/schema"
	"evstar/internal/star"
	"evstar/internal/storage"
	"evstar/internal/table"
	"evstar/internal/tracing"
)

// newRepositoryFn is a seam for tests.
var newRepositoryFn = storage.New

// tableKeys maps each output table to its surrogate key column.
var tableKeys = map[string]string{
	star.EVTypeTable:   star.EVTypeID,
	star.CAFVTable:     star.CAFVID,
	star.VehicleTable:  star.VehicleID,
	star.LocationTable: star.LocationID,
	star.FactTable:     star.FactID,
}

// reportColumns are summarized when the report is enabled.
var reportColumns = []string{schema.ElectricRange, schema.BaseMSRP, schema.ModelYear}

// runSummary is what a run did.
type runSummary struct {
	RunID     string
	Parsed    int
	Skipped   int
	Filled    int
	Exhausted int
	Tables    map[string]int64
}

// run executes one pipeline: extract, validate, impute, model, report, load.
func run(ctx context.Context, p config.Pipeline, log *slog.Logger) (sum runSummary, err error) {
	sum = runSummary{RunID: uuid.NewString(), Tables: map[string]int64{}}
	ctx = logging.WithRunID(ctx, sum.RunID)
	start := time.Now()

	shutdown, err := setupTracing(p, sum.RunID)
	if err != nil {
		return sum, err
	}
	defer func() {
		if serr := shutdown(context.Background()); serr != nil {
			log.WarnContext(ctx, "trace shutdown failed", slog.Any("err", serr))
		}
	}()
	ctx, span := tracing.Start(ctx, "run", attribute.String("job", p.Job), attribute.String("run_id", sum.RunID))
	defer func() { tracing.End(span, err) }()

	log.InfoContext(ctx, "run started",
		slog.String("job", p.Job),
		slog.String("source", p.Source.Kind),
		slog.String("storage", p.Storage.Kind),
		slog.Int("loader_workers", p.Runtime.LoaderWorkers),
		slog.Int("batch_size", p.Runtime.BatchSize))

	raw, err := step(ctx, p.Job, metrics.StepExtract, func(ctx context.Context) (*table.Table, error) {
		t, skipped, err := extract(ctx, p, log)
		sum.Skipped = skipped
		return t, err
	})
	if err != nil {
		return sum, err
	}
	sum.Parsed = raw.Len()
	metrics.RecordRow(p.Job, "parsed", int64(sum.Parsed))
	metrics.RecordRow(p.Job, "skipped", int64(sum.Skipped))

	typed, err := step(ctx, p.Job, metrics.StepValidate, func(context.Context) (*table.Table, error) {
		if err := schema.Validate(raw); err != nil {
			return nil, err
		}
		return schema.Coerce(raw)
	})
	if err != nil {
		return sum, err
	}

	missing, err := report.MissingValues(typed, schema.SentinelColumns...)
	if err != nil {
		return sum, err
	}
	for _, c := range missing.Nulls {
		log.DebugContext(ctx, "missing values", slog.String("column", c.Column), slog.Int("nulls", c.Count))
	}

	res, err := step(ctx, p.Job, metrics.StepImpute, func(context.Context) (*impute.Result, error) {
		im := &impute.Imputer{
			Rules:   impute.DefaultRules(),
			Strict:  p.Impute.Strict,
			MaxRows: p.Impute.MaxWarningRows,
			Logger:  log,
		}
		return im.Apply(typed)
	})
	if err != nil {
		return sum, err
	}
	sum.Filled = res.FilledTotal()
	for col, steps := range res.Filled {
		for s, n := range steps {
			metrics.RecordImputed(p.Job, col, s, n)
		}
	}
	for _, w := range res.Warnings {
		sum.Exhausted += w.Count
		log.WarnContext(ctx, "imputation exhausted",
			slog.String("column", w.Column), slog.Int("count", w.Count), slog.Any("rows", w.Rows))
	}
	metrics.RecordRow(p.Job, "exhausted", int64(sum.Exhausted))

	model, err := step(ctx, p.Job, metrics.StepModel, func(context.Context) (*star.Schema, error) {
		return star.Build(res.Table, log)
	})
	if err != nil {
		return sum, err
	}

	if p.Report.Enabled {
		if _, err := step(ctx, p.Job, metrics.StepReport, func(context.Context) (struct{}, error) {
			return struct{}{}, writeReport(p.Report.Path, missing, res.Table)
		}); err != nil {
			return sum, err
		}
	}

	if _, err := step(ctx, p.Job, metrics.StepLoad, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, load(ctx, p, log, model, sum.Tables)
	}); err != nil {
		return sum, err
	}

	log.InfoContext(ctx, "run finished",
		slog.Int("parsed", sum.Parsed),
		slog.Int("skipped", sum.Skipped),
		slog.Int("filled", sum.Filled),
		slog.Int("exhausted", sum.Exhausted),
		slog.Int64("fact_rows", sum.Tables[star.FactTable]),
		slog.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)))
	return sum, nil
}

// step runs fn in its own span and records it as a pipeline step.
func step[T any](ctx context.Context, job, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := tracing.Start(ctx, name)
	start := time.Now()
	v, err := fn(ctx)
	metrics.RecordStep(job, name, err, time.Since(start))
	tracing.End(span, err)
	if err != nil {
		return v, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func setupTracing(p config.Pipeline, runID string) (func(context.Context) error, error) {
	cfg := tracing.Config{
		Exporter:    p.Tracing.Exporter,
		SampleRatio: p.Tracing.SampleRatio,
		Job:         p.Job,
		RunID:       runID,
	}
	if cfg.Exporter != "stdout" || p.Tracing.Path == "" {
		return tracing.Setup(cfg, os.Stderr)
	}
	f, err := os.Create(p.Tracing.Path)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	shutdown, err := tracing.Setup(cfg, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return func(ctx context.Context) error {
		serr := shutdown(ctx)
		if cerr := f.Close(); serr == nil {
			serr = cerr
		}
		return serr
	}, nil
}

// extract opens the source and parses it into a string table.
func extract(ctx context.Context, p config.Pipeline, log *slog.Logger) (*table.Table, int, error) {
	src, err := openSource(p, log)
	if err != nil {
		return nil, 0, err
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()

	headers := make(map[string]string, len(schema.HeaderMap))
	for k, v := range schema.HeaderMap {
		headers[k] = v
	}
	for k, v := range p.Parser.Options.StringMap("header_map") {
		headers[k] = v
	}

	parser := csvparser.NewParser(csvparser.Options{
		Comma:     p.Parser.Options.Rune("comma", ','),
		TrimSpace: p.Parser.Options.Bool("trim_space", true),
		HeaderMap: headers,
		Logger:    log,
	})
	return parser.Parse(rc)
}

func openSource(p config.Pipeline, log *slog.Logger) (datasource.Source, error) {
	switch p.Source.Kind {
	case "file":
		return file.NewLocal(p.Source.File.Path), nil
	case "http":
		h := p.Source.HTTP
		headers := http.Header{}
		if h.AppToken != "" {
			headers.Set("X-App-Token", h.AppToken)
		}
		client := httpds.NewClient(httpds.Config{
			Timeout:           time.Duration(h.TimeoutSeconds) * time.Second,
			MaxRetries:        h.MaxRetries,
			BaseHeaders:       headers,
			RequestsPerSecond: h.RequestsPerSecond,
		})
		src := httpds.NewSource(client, p.Source.URL)
		src.CacheDir = h.CacheDir
		src.Logger = log
		return src, nil
	default:
		return nil, fmt.Errorf("unsupported source.kind=%s", p.Source.Kind)
	}
}

func writeReport(path string, missing report.Missing, cleaned *table.Table) error {
	var w io.Writer = os.Stdout
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if err := report.WriteMissing(w, missing); err != nil {
		return err
	}
	sums := make([]report.Summary, 0, len(reportColumns))
	for _, c := range reportColumns {
		s, err := report.Describe(cleaned, c)
		if err != nil {
			return err
		}
		sums = append(sums, s)
	}
	fmt.Fprintln(w)
	return report.WriteSummaries(w, sums)
}

// load writes every star table through its own repository, at most
// loader_workers tables at a time, then exports the workbook if configured.
func load(ctx context.Context, p config.Pipeline, log *slog.Logger, model *star.Schema, counts map[string]int64) error {
	tables := model.Tables()
	written := make([]int64, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Runtime.LoaderWorkers, 1))
	for i, n := range tables {
		i, n := i, n
		g.Go(func() error {
			cnt, err := loadTable(gctx, p, log, n)
			written[i] = cnt
			if err != nil {
				return fmt.Errorf("load %s: %w", n.Name, err)
			}
			return nil
		})
	}
	err := g.Wait()

	var loaded int64
	for i, n := range tables {
		counts[n.Name] = written[i]
		loaded += written[i]
		metrics.RecordTableRows(p.Job, n.Name, written[i])
	}
	metrics.RecordRow(p.Job, "loaded", loaded)
	if err != nil {
		return err
	}

	if path := p.Export.XLSX.Path; path != "" {
		if err := xlsx.Write(path, tables); err != nil {
			return fmt.Errorf("xlsx export: %w", err)
		}
		log.InfoContext(ctx, "workbook written", slog.String("path", path))
	}
	return nil
}

func loadTable(ctx context.Context, p config.Pipeline, log *slog.Logger, n star.Named) (int64, error) {
	name := p.Storage.TableName(n.Name)
	repo, err := newRepositoryFn(ctx, storage.Config{
		Kind:    p.Storage.Kind,
		DSN:     p.Storage.Location(),
		Table:   name,
		Columns: n.Table.ColumnNames(),
	})
	if err != nil {
		return 0, fmt.Errorf("init repo: %w", err)
	}
	defer repo.Close()

	if p.Storage.DB.AutoCreateTable {
		if err := storage.EnsureTable(ctx, p.Storage.Kind, repo, name, n.Table, tableKeys[n.Name]); err != nil {
			return 0, fmt.Errorf("apply DDL: %w", err)
		}
	}

	cnt, err := storage.WriteTable(ctx, log, repo, n.Table, p.Runtime.BatchSize)
	if err != nil {
		return cnt, err
	}
	log.InfoContext(ctx, "table loaded", slog.String("table", name), slog.Int64("rows", cnt))
	return cnt, nil
}

// isExhausted reports whether err is a strict-mode imputation failure.
func isExhausted(err error) bool {
	return errors.Is(err, impute.ErrMissingDataExhausted)
}
