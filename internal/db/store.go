package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/iqinterp/internal/sweep"
)

// ResolveRun is one recorded resolve call.
type ResolveRun struct {
	RunID         string
	Module        string
	ChromatixPath string
	Trigger       json.RawMessage
	Params        json.RawMessage
	CreatedAt     time.Time
}

// RecordResolve stores a resolve call and returns its run ID.
func (db *DB) RecordResolve(ctx context.Context, module, chromatixPath string, trigger, params any) (string, error) {
	trigJSON, err := json.Marshal(trigger)
	if err != nil {
		return "", fmt.Errorf("marshal trigger: %w", err)
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}

	id := uuid.NewString()
	_, err = db.ExecContext(ctx, `
		INSERT INTO resolve_runs (run_id, module, chromatix_path, trigger_json, params_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, module, chromatixPath, string(trigJSON), string(paramsJSON), time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert resolve run: %w", err)
	}
	return id, nil
}

// GetResolve loads a resolve run by ID.
func (db *DB) GetResolve(ctx context.Context, runID string) (*ResolveRun, error) {
	row := db.QueryRowContext(ctx, `
		SELECT run_id, module, chromatix_path, trigger_json, params_json, created_at
		FROM resolve_runs WHERE run_id = ?`, runID)
	run, err := scanResolve(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resolve run %s: %w", runID, ErrNotFound)
	}
	return run, err
}

// ListResolves returns the most recent resolve runs, newest first. An empty
// module matches every module.
func (db *DB) ListResolves(ctx context.Context, module string, limit int) ([]ResolveRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, module, chromatix_path, trigger_json, params_json, created_at
		FROM resolve_runs
		WHERE (? = '' OR module = ?)
		ORDER BY created_at DESC
		LIMIT ?`, module, module, limit)
	if err != nil {
		return nil, fmt.Errorf("query resolve runs: %w", err)
	}
	defer rows.Close()

	var out []ResolveRun
	for rows.Next() {
		run, err := scanResolve(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResolve(s scanner) (*ResolveRun, error) {
	var run ResolveRun
	var trig, params string
	var created int64
	if err := s.Scan(&run.RunID, &run.Module, &run.ChromatixPath, &trig, &params, &created); err != nil {
		return nil, err
	}
	run.Trigger = json.RawMessage(trig)
	run.Params = json.RawMessage(params)
	run.CreatedAt = time.Unix(0, created)
	return &run, nil
}

// SweepRun is the header of a recorded sweep.
type SweepRun struct {
	RunID       string
	Module      string
	Axis        sweep.Axis
	BaseTrigger json.RawMessage
	Points      int
	CreatedAt   time.Time
}

// RecordSweep stores every sample of r in one transaction and returns the
// run ID. base is the trigger snapshot the sweep started from.
func (db *DB) RecordSweep(ctx context.Context, r *sweep.Result, base any) (string, error) {
	baseJSON, err := json.Marshal(base)
	if err != nil {
		return "", fmt.Errorf("marshal base trigger: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sweep_runs (run_id, module, axis, base_trigger_json, point_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, r.Module, string(r.Axis), string(baseJSON), len(r.Samples), time.Now().UnixNano()); err != nil {
		return "", fmt.Errorf("insert sweep run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sweep_samples (run_id, point_index, trigger_value, field, value)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range r.Samples {
		for field, v := range s.Fields {
			if _, err := stmt.ExecContext(ctx, id, i, s.Value, field, v); err != nil {
				return "", fmt.Errorf("insert sample %d %s: %w", i, field, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// GetSweep loads a sweep header by ID.
func (db *DB) GetSweep(ctx context.Context, runID string) (*SweepRun, error) {
	var run SweepRun
	var axis, base string
	var created int64
	err := db.QueryRowContext(ctx, `
		SELECT run_id, module, axis, base_trigger_json, point_count, created_at
		FROM sweep_runs WHERE run_id = ?`, runID).
		Scan(&run.RunID, &run.Module, &axis, &base, &run.Points, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sweep run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	run.Axis = sweep.Axis(axis)
	run.BaseTrigger = json.RawMessage(base)
	run.CreatedAt = time.Unix(0, created)
	return &run, nil
}

// SweepFields returns the distinct fields recorded for a sweep, sorted.
func (db *DB) SweepFields(ctx context.Context, runID string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT field FROM sweep_samples WHERE run_id = ? ORDER BY field`, runID)
	if err != nil {
		return nil, fmt.Errorf("query sweep fields: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// SweepSeries returns one field of a sweep in point order.
func (db *DB) SweepSeries(ctx context.Context, runID, field string) (x, y []float64, err error) {
	rows, err := db.QueryContext(ctx, `
		SELECT trigger_value, value FROM sweep_samples
		WHERE run_id = ? AND field = ?
		ORDER BY point_index`, runID, field)
	if err != nil {
		return nil, nil, fmt.Errorf("query sweep series: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tv, v float64
		if err := rows.Scan(&tv, &v); err != nil {
			return nil, nil, err
		}
		x = append(x, tv)
		y = append(y, v)
	}
	return x, y, rows.Err()
}

// DeleteSweep removes a sweep and its samples.
func (db *DB) DeleteSweep(ctx context.Context, runID string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM sweep_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete sweep run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sweep run %s: %w", runID, ErrNotFound)
	}
	return nil
}
