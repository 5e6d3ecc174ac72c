package core

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/gwdetchar/segcoalesce/core/algo"
	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/schema"
	"github.com/inconshreveable/log15"
)

// Coalescer runs coalescing passes against a segment store.
type Coalescer struct {
	store  contract.SegmentStore
	logger log15.Logger
	mode   schema.TxMode
	dryRun bool
	now    func() time.Time
}

// NewCoalescer returns a Coalescer. A nil logger discards all records.
func NewCoalescer(store contract.SegmentStore, logger log15.Logger, mode schema.TxMode, dryRun bool) *Coalescer {
	if logger == nil {
		logger = log15.New()
		logger.SetHandler(log15.DiscardHandler())
	}
	if mode == "" {
		mode = schema.WindowTx
	}
	return &Coalescer{
		store:  store,
		logger: logger,
		mode:   mode,
		dryRun: dryRun,
		now:    time.Now,
	}
}

// CoalesceWindow coalesces both interval tables of every group with rows in the window.
// New rows are attributed to run. The report is filled in even when an error is returned.
func (c *Coalescer) CoalesceWindow(ctx context.Context, run schema.Run, window schema.Window, filter schema.GroupFilter) (report schema.Report, err error) {
	report = schema.Report{
		RunID:     run.ID,
		Window:    window,
		Mode:      c.mode,
		DryRun:    c.dryRun,
		StartedAt: c.now(),
	}
	defer func() { report.FinishedAt = c.now() }()

	if window.Start > window.End {
		return report, &CoalesceError{
			Kind: KindInvariantViolation,
			Op:   "check window",
			Err:  fmt.Errorf("start %d is after end %d", window.Start, window.End),
		}
	}

	groups, err := c.store.ListGroups(ctx, window, filter)
	if err != nil {
		return report, wrap(err, "list groups", schema.Group{}, "")
	}
	// Locks are always taken in definer id order.
	schema.SortGroups(groups)
	c.logger.Info("starting pass", "run", run.ID, "window", window, "groups", len(groups), "mode", c.mode, "dry_run", c.dryRun)

	if len(groups) == 0 {
		return report, nil
	}

	var results []schema.GroupResult
	if c.mode == schema.GroupTx {
		results, err = c.runPerGroup(ctx, run, window, groups)
	} else {
		results, err = c.runWindow(ctx, run, window, groups)
	}
	report.Groups = results
	if err != nil {
		c.logger.Error("pass failed", "run", run.ID, "err", err)
		return report, err
	}
	c.logger.Info("pass complete", "run", run.ID,
		"succeeded", report.Count(schema.SucceededOutcome), "unchanged", report.Count(schema.UnchangedOutcome))
	return report, nil
}

// runPerGroup commits after every group and stops at the first failure.
func (c *Coalescer) runPerGroup(ctx context.Context, run schema.Run, window schema.Window, groups []schema.Group) ([]schema.GroupResult, error) {
	results := make([]schema.GroupResult, 0, len(groups))
	for i, g := range groups {
		if err := ctx.Err(); err != nil {
			return appendSkipped(results, groups[i:]), wrap(err, "check cancellation", g, "")
		}

		var res schema.GroupResult
		err := c.store.WithGroup(ctx, g, func(tx contract.SegmentTx) error {
			var err error
			res, err = c.coalesceGroup(ctx, tx, run, g, window)
			return err
		})
		if err != nil {
			err = wrap(err, "coalesce", g, "")
			res.Group = g
			res.Outcome = schema.FailedOutcome
			res.Error = err.Error()
			results = append(results, res)
			return appendSkipped(results, groups[i+1:]), err
		}
		results = append(results, res)
	}
	return results, nil
}

// runWindow runs every group inside one transaction. A failure rolls back all groups.
func (c *Coalescer) runWindow(ctx context.Context, run schema.Run, window schema.Window, groups []schema.Group) ([]schema.GroupResult, error) {
	results := make([]schema.GroupResult, 0, len(groups))
	err := c.store.WithWindow(ctx, func(tx contract.SegmentTx) error {
		for _, g := range groups {
			if err := ctx.Err(); err != nil {
				return wrap(err, "check cancellation", g, "")
			}
			if err := tx.LockGroup(ctx, g); err != nil {
				err = wrap(err, "lock", g, "")
				results = append(results, schema.GroupResult{Group: g, Outcome: schema.FailedOutcome, Error: err.Error()})
				return err
			}
			res, err := c.coalesceGroup(ctx, tx, run, g, window)
			results = append(results, res)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		return results, nil
	}

	err = wrap(err, "coalesce window", schema.Group{}, "")
	for i := range results {
		switch results[i].Outcome {
		case schema.SucceededOutcome:
			if !c.dryRun {
				results[i].Outcome = schema.RolledBackOutcome
			}
		case schema.UnchangedOutcome:
		default:
			results[i].Outcome = schema.FailedOutcome
			if results[i].Error == "" {
				results[i].Error = err.Error()
			}
		}
	}
	return appendSkipped(results, groups[len(results):]), err
}

// coalesceGroup coalesces both tables of one group inside tx.
func (c *Coalescer) coalesceGroup(ctx context.Context, tx contract.SegmentTx, run schema.Run, g schema.Group, window schema.Window) (schema.GroupResult, error) {
	res := schema.GroupResult{Group: g, Outcome: schema.UnchangedOutcome}
	for _, table := range schema.AllTables {
		tr, changed, err := c.coalesceTable(ctx, tx, run, g, window, table)
		res.Tables = append(res.Tables, tr)
		if err != nil {
			res.Outcome = schema.FailedOutcome
			res.Error = err.Error()
			c.logger.Warn("group failed", "group", g, "table", table, "err", err)
			return res, err
		}
		if changed {
			res.Outcome = schema.SucceededOutcome
		}
	}
	c.logger.Debug("group done", "group", g, "outcome", res.Outcome)
	return res, nil
}

// coalesceTable runs select, coalesce, insert, delete and read-back for one table of one group.
// It reports whether the table needed rewriting.
func (c *Coalescer) coalesceTable(ctx context.Context, tx contract.SegmentTx, run schema.Run, g schema.Group, window schema.Window, table schema.Table) (schema.TableResult, bool, error) {
	tr := schema.TableResult{Table: table}

	rows, err := tx.SelectIntervals(ctx, table, g, window, run.ID)
	if err != nil {
		return tr, false, wrap(err, "select", g, table)
	}
	raw := schema.Intervals(rows)
	if err := algo.Validate(raw); err != nil {
		return tr, false, wrap(err, "validate", g, table)
	}

	set := algo.Coalesce(raw)
	tr.RawRows = len(rows)
	tr.CoalescedRows = set.Len()
	tr.Coverage = set.Coverage()

	// Rows come back ordered by start then end, so a canonical result needs no rewrite.
	if algo.IsCanonical(raw) {
		return tr, false, nil
	}

	var stale []string
	for _, r := range rows {
		if r.RunID != run.ID {
			stale = append(stale, r.RowID)
		}
	}

	if c.dryRun {
		tr.DeletedRows = int64(len(stale))
		c.logger.Info("would coalesce", "group", g, "table", table, "raw", tr.RawRows, "coalesced", tr.CoalescedRows)
		return tr, true, nil
	}

	if err := tx.InsertIntervals(ctx, table, g, run.ID, set.Intervals()); err != nil {
		return tr, false, wrap(err, "insert", g, table)
	}
	deleted, err := tx.DeleteIntervals(ctx, table, stale, run.ID)
	if err != nil {
		return tr, false, wrap(err, "delete", g, table)
	}
	tr.DeletedRows = deleted

	if err := c.verify(ctx, tx, run, g, window, table, set); err != nil {
		return tr, false, err
	}
	c.logger.Info("coalesced", "group", g, "table", table, "raw", tr.RawRows, "coalesced", tr.CoalescedRows, "deleted", deleted)
	return tr, true, nil
}

// verify reads the group back and checks that exactly the coalesced set remains, owned by run.
func (c *Coalescer) verify(ctx context.Context, tx contract.SegmentTx, run schema.Run, g schema.Group, window schema.Window, table schema.Table, want algo.IntervalSet) error {
	after, err := tx.SelectIntervals(ctx, table, g, window, run.ID)
	if err != nil {
		return wrap(err, "read back", g, table)
	}
	got := schema.Intervals(after)
	foreign := slices.IndexFunc(after, func(r schema.IntervalRow) bool { return r.RunID != run.ID })
	if foreign >= 0 || !algo.IsCanonical(got) || !slices.Equal(got, want.Intervals()) {
		return &CoalesceError{
			Kind:  KindInvariantViolation,
			Group: g.String(),
			Table: table,
			Op:    "read back",
			Err:   fmt.Errorf("%w: want %s, found %v", contract.ErrPartialWriteObserved, want, got),
		}
	}
	return nil
}

// appendSkipped marks groups that were never reached.
func appendSkipped(results []schema.GroupResult, rest []schema.Group) []schema.GroupResult {
	for _, g := range rest {
		results = append(results, schema.GroupResult{Group: g, Outcome: schema.SkippedOutcome})
	}
	return results
}
