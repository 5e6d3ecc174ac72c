// Package core has the coalescing pass and the command entry points built on it.
package core

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/google/uuid"
	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/internal/outwriter"
	"github.com/gwdetchar/segcoalesce/internal/segdb"
	"github.com/gwdetchar/segcoalesce/schema"
	"github.com/hashicorp/go-multierror"
	"github.com/inconshreveable/log15"
)

// ExecutorFunc defines the function signature for executing a command against a segment store.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, store contract.SegmentStore, logger log15.Logger) error

// ExecuteCoalesce runs one coalescing pass over the configured window and prints its report.
// The run is closed even when the pass fails or ctx is canceled.
func ExecuteCoalesce(ctx context.Context, cfg *contract.Config, store contract.SegmentStore, logger log15.Logger) error {
	if err := cfg.RequireWindow(); err != nil {
		return err
	}

	run, err := beginRun(ctx, cfg, store, schema.CoalesceDomain)
	if err != nil {
		return err
	}
	logger.Info("registered run", "run", run.ID, "dry_run", cfg.DryRun)

	coalescer := NewCoalescer(store, logger, cfg.TxMode, cfg.DryRun)
	report, passErr := coalescer.CoalesceWindow(ctx, run, cfg.Window, cfg.Filter)

	var errs *multierror.Error
	if passErr != nil {
		errs = multierror.Append(errs, passErr)
	}
	if !cfg.DryRun {
		if err := store.EndRun(context.WithoutCancel(ctx), run.ID, contract.NowGPS()); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("close run %s: %w", run.ID, err))
		}
	}
	if err := outwriter.WriteReport(report, cfg); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("write report: %w", err))
	}
	return errs.ErrorOrNil()
}

// PreviewWindow runs a dry pass over the configured window and returns its report.
// Nothing is written, not even a process row.
func PreviewWindow(ctx context.Context, cfg *contract.Config, store contract.SegmentStore, logger log15.Logger) (schema.Report, error) {
	if err := cfg.RequireWindow(); err != nil {
		return schema.Report{}, err
	}
	preview := cfg.Clone()
	preview.DryRun = true
	run, err := beginRun(ctx, preview, store, schema.CoalesceDomain)
	if err != nil {
		return schema.Report{}, err
	}
	return NewCoalescer(store, logger, preview.TxMode, true).CoalesceWindow(ctx, run, preview.Window, preview.Filter)
}

// beginRun registers the process row of a pass. Dry runs get an id that is never stored.
func beginRun(ctx context.Context, cfg *contract.Config, store contract.SegmentStore, domain string) (schema.Run, error) {
	info := contract.CurrentRunInfo(domain, cfg.CreatorDB)
	if cfg.DryRun {
		return schema.Run{
			ID:        "dry-run-" + uuid.NewString(),
			CreatorDB: info.CreatorDB,
			Program:   info.Program,
			Node:      info.Node,
			Username:  info.Username,
			UnixPID:   info.UnixPID,
			StartTime: info.StartTime,
			Domain:    info.Domain,
		}, nil
	}
	run, err := store.BeginRun(ctx, info)
	if err != nil {
		return schema.Run{}, fmt.Errorf("register run: %w", err)
	}
	return run, nil
}

// ExecuteLoad inserts the raw intervals of a seed CSV file under a new run.
func ExecuteLoad(ctx context.Context, cfg *contract.Config, store contract.SegmentStore, logger log15.Logger) error {
	if cfg.InputFile == "" {
		return fmt.Errorf("--file is required")
	}
	f, err := os.Open(cfg.InputFile)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	rows, err := segdb.ReadSeedCSV(f)
	if err != nil {
		return err
	}
	if cfg.DryRun {
		logger.Info("would load seed rows", "file", cfg.InputFile, "rows", len(rows))
		return nil
	}

	run, err := store.BeginRun(ctx, contract.CurrentRunInfo(schema.LoadDomain, cfg.CreatorDB))
	if err != nil {
		return fmt.Errorf("register run: %w", err)
	}
	n, loadErr := segdb.Load(ctx, store, run.ID, rows)

	var errs *multierror.Error
	if loadErr != nil {
		errs = multierror.Append(errs, fmt.Errorf("load %s: %w", cfg.InputFile, loadErr))
	}
	if err := store.EndRun(context.WithoutCancel(ctx), run.ID, contract.NowGPS()); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("close run %s: %w", run.ID, err))
	}
	if errs.ErrorOrNil() == nil {
		logger.Info("loaded seed rows", "file", cfg.InputFile, "rows", n, "run", run.ID)
	}
	return errs.ErrorOrNil()
}

// ExecuteListRuns prints every registered run.
func ExecuteListRuns(ctx context.Context, cfg *contract.Config, store contract.SegmentStore, _ log15.Logger) error {
	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	return outwriter.WriteRuns(runs, cfg)
}

// ExecuteShowSegments prints the stored rows of both tables that match the configured filter.
// Without a window every row is shown.
func ExecuteShowSegments(ctx context.Context, cfg *contract.Config, store contract.SegmentStore, _ log15.Logger) error {
	var records []schema.SegmentRecord
	for _, table := range schema.AllTables {
		all, err := store.AllIntervals(ctx, table)
		if err != nil {
			return err
		}
		records = append(records, FilterRecords(all, cfg.Filter, cfg.Window, cfg.HasWindow)...)
	}
	return outwriter.WriteSegments(records, cfg)
}

// FilterRecords keeps the records of definers matching filter whose start time lies in window.
// A zero filter version matches every version.
func FilterRecords(records []schema.SegmentRecord, filter schema.GroupFilter, window schema.Window, useWindow bool) []schema.SegmentRecord {
	var out []schema.SegmentRecord
	for _, r := range records {
		if len(filter.IFOs) > 0 && !slices.Contains(filter.IFOs, r.IFOs) {
			continue
		}
		if len(filter.Names) > 0 && !slices.Contains(filter.Names, r.Name) {
			continue
		}
		if filter.Version > 0 && r.Version != filter.Version {
			continue
		}
		if useWindow && !window.Contains(r.StartTime) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// CloseRun stamps the end time of a run left open, e.g. by a crashed pass.
func CloseRun(ctx context.Context, store contract.SegmentStore, logger log15.Logger, runID string) error {
	if err := store.EndRun(ctx, runID, contract.NowGPS()); err != nil {
		return err
	}
	logger.Info("closed run", "run", runID)
	return nil
}
