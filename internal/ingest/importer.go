package ingest

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lox/cptinterp/internal/metrics"
	"github.com/lox/cptinterp/internal/models"
	"github.com/lox/cptinterp/internal/store"
)

// Importer loads points and readings sources into the store, auditing each
// import and archiving the source content.
type Importer struct {
	store   *store.Store
	fetcher *Fetcher
	log     *zap.Logger
}

func NewImporter(s *store.Store, fetcher *Fetcher, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	if fetcher == nil {
		fetcher = NewFetcher(log)
	}
	return &Importer{store: s, fetcher: fetcher, log: log}
}

// Report is the outcome of one import.
type Report struct {
	Source  string
	Parsed  int
	Stored  int
	Skipped []string
	Flags   []models.ReadingFlag
}

func (im *Importer) ImportPoints(ctx context.Context, source string) (*Report, error) {
	run := im.startRun("points", source)
	report, err := im.importPoints(ctx, source, run)
	im.complete(run, report, err)
	return report, err
}

func (im *Importer) importPoints(ctx context.Context, source string, run *store.ImportRun) (*Report, error) {
	body, err := im.fetch(ctx, source, run)
	if err != nil {
		return nil, err
	}

	points, parsed, err := ParsePoints(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse points: %w", err)
	}

	report := &Report{Source: source, Parsed: parsed.Total, Skipped: parsed.Errors}
	for _, p := range points {
		if err := im.store.UpsertPoint(p); err != nil {
			return report, fmt.Errorf("store point %q: %w", p.PointID, err)
		}
		report.Stored++
	}

	im.log.Info("ingest: imported points",
		zap.String("source", source),
		zap.Int("parsed", report.Parsed),
		zap.Int("stored", report.Stored),
		zap.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

// ImportReadings replaces the series of every probe present in source. Every
// probe must already exist.
func (im *Importer) ImportReadings(ctx context.Context, source string) (*Report, error) {
	run := im.startRun("readings", source)
	report, err := im.importReadings(ctx, source, run)
	im.complete(run, report, err)
	return report, err
}

func (im *Importer) importReadings(ctx context.Context, source string, run *store.ImportRun) (*Report, error) {
	body, err := im.fetch(ctx, source, run)
	if err != nil {
		return nil, err
	}

	series, parsed, err := ParseReadings(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse readings: %w", err)
	}

	report := &Report{Source: source, Parsed: parsed.Total, Skipped: parsed.Errors}
	for _, s := range series {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		flags := ValidateSeries(s)
		for _, f := range flags {
			for _, name := range f.Flags {
				metrics.ReadingsFlagged.WithLabelValues(name).Inc()
			}
		}
		report.Flags = append(report.Flags, flags...)

		if err := im.store.ReplaceReadings(s.PointID, s.Readings); err != nil {
			return report, fmt.Errorf("store readings of %q: %w", s.PointID, err)
		}
		report.Stored += len(s.Readings)
		metrics.ReadingsImported.WithLabelValues(Kind(source)).Add(float64(len(s.Readings)))
	}

	im.log.Info("ingest: imported readings",
		zap.String("source", source),
		zap.Int("probes", len(series)),
		zap.Int("parsed", report.Parsed),
		zap.Int("stored", report.Stored),
		zap.Int("flagged", len(report.Flags)),
		zap.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

func (im *Importer) fetch(ctx context.Context, source string, run *store.ImportRun) ([]byte, error) {
	body, err := im.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}

	var runID *int64
	if run != nil {
		runID = &run.ID
	}
	if _, err := im.store.ArchiveSource(runID, source, body); err != nil {
		im.log.Warn("ingest: failed to archive source", zap.String("source", source), zap.Error(err))
	}
	return body, nil
}

// startRun opens the audit record of an import. The import goes ahead
// without one when the store cannot record it.
func (im *Importer) startRun(kind, source string) *store.ImportRun {
	run, err := im.store.StartImportRun(kind, source)
	if err != nil {
		im.log.Warn("ingest: failed to start import run",
			zap.String("kind", kind),
			zap.String("source", source),
			zap.Error(err),
		)
		return nil
	}
	return run
}

func (im *Importer) complete(run *store.ImportRun, report *Report, err error) {
	if run == nil {
		return
	}
	run.Success = err == nil
	if report != nil {
		run.RecordsParsed = sql.NullInt64{Int64: int64(report.Parsed), Valid: true}
		run.RecordsStored = sql.NullInt64{Int64: int64(report.Stored), Valid: true}
		run.RecordsFlagged = sql.NullInt64{Int64: int64(len(report.Flags)), Valid: true}
	}
	var msgs []string
	if err != nil {
		msgs = append(msgs, err.Error())
	}
	if report != nil && len(report.Skipped) > 0 {
		msgs = append(msgs, fmt.Sprintf("%d lines skipped, first: %s", len(report.Skipped), report.Skipped[0]))
	}
	if len(msgs) > 0 {
		run.ErrorMessage = sql.NullString{String: strings.Join(msgs, "; "), Valid: true}
	}
	if cerr := im.store.CompleteImportRun(run); cerr != nil {
		im.log.Warn("ingest: failed to complete import run", zap.Int64("run", run.ID), zap.Error(cerr))
	}
}
