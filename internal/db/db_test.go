package db

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/iqinterp/internal/monitoring"
	"github.com/banshee-data/iqinterp/internal/sweep"
	"github.com/banshee-data/iqinterp/internal/testutil"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	restore := monitoring.Quiet(true)
	t.Cleanup(restore)

	db, err := NewDB(testutil.TempDBPath(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPragmasApplied(t *testing.T) {
	db := newTestDB(t)

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var synchronous int
	require.NoError(t, db.QueryRow("PRAGMA synchronous").Scan(&synchronous))
	assert.Equal(t, 1, synchronous, "NORMAL")

	var foreignKeys int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)
}

func TestOpenDBEmptyPath(t *testing.T) {
	_, err := OpenDB("")
	assert.Error(t, err)
}

func TestMigrations(t *testing.T) {
	db := newTestDB(t)
	fsys := Migrations()

	latest, err := LatestMigrationVersion(fsys)
	require.NoError(t, err)
	assert.Equal(t, uint(3), latest)

	version, dirty, err := db.MigrateVersion(fsys)
	require.NoError(t, err)
	assert.Equal(t, latest, version)
	assert.False(t, dirty)

	require.NoError(t, db.MigrateDown(fsys))
	version, _, err = db.MigrateVersion(fsys)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)

	// Running up again is a no-op once at the latest version.
	require.NoError(t, db.MigrateUp(fsys))
	require.NoError(t, db.MigrateUp(fsys))
	version, _, err = db.MigrateVersion(fsys)
	require.NoError(t, err)
	assert.Equal(t, latest, version)
}

func TestMigrateVersionFreshDB(t *testing.T) {
	db, err := OpenDB(testutil.TempDBPath(t))
	require.NoError(t, err)
	defer db.Close()

	version, dirty, err := db.MigrateVersion(Migrations())
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)
}

func TestRecordResolve(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	trig := map[string]float32{"aec_lux_index": 250}
	params := map[string][]float32{"c": {1, 0, 0}}

	id, err := db.RecordResolve(ctx, "cc13", "cc13.json", trig, params)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err, "run IDs are UUIDs")

	run, err := db.GetResolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "cc13", run.Module)
	assert.Equal(t, "cc13.json", run.ChromatixPath)
	assert.JSONEq(t, `{"aec_lux_index":250}`, string(run.Trigger))
	assert.JSONEq(t, `{"c":[1,0,0]}`, string(run.Params))
	assert.False(t, run.CreatedAt.IsZero())

	_, err = db.GetResolve(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.RecordResolve(ctx, "cc13", "", make(chan int), params)
	assert.Error(t, err)
}

func TestListResolves(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, err := db.RecordResolve(ctx, "cc13", "", 1, 2)
	require.NoError(t, err)
	b, err := db.RecordResolve(ctx, "gamma15", "", 1, 2)
	require.NoError(t, err)

	all, err := db.ListResolves(ctx, "", 0)
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.RunID
	}
	assert.ElementsMatch(t, []string{a, b}, ids)

	gamma, err := db.ListResolves(ctx, "gamma15", 10)
	require.NoError(t, err)
	require.Len(t, gamma, 1)
	assert.Equal(t, b, gamma[0].RunID)

	one, err := db.ListResolves(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestRecordSweep(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	res := &sweep.Result{
		Module: "gtm10",
		Axis:   sweep.AxisLux,
		Samples: []sweep.Sample{
			{Value: 100, Fields: map[string]float64{"a_middletone": 0.5, "max_val_th": 3000}},
			{Value: 200, Fields: map[string]float64{"a_middletone": 0.7, "max_val_th": 3000}},
			{Value: 300, Fields: map[string]float64{"a_middletone": 0.9}},
		},
	}
	id, err := db.RecordSweep(ctx, res, map[string]float32{"aec_gain": 2})
	require.NoError(t, err)

	run, err := db.GetSweep(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "gtm10", run.Module)
	assert.Equal(t, sweep.AxisLux, run.Axis)
	assert.Equal(t, 3, run.Points)
	assert.JSONEq(t, `{"aec_gain":2}`, string(run.BaseTrigger))

	fields, err := db.SweepFields(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"a_middletone", "max_val_th"}, fields)

	x, y, err := db.SweepSeries(ctx, id, "a_middletone")
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 200, 300}, x)
	assert.InDeltaSlice(t, []float64{0.5, 0.7, 0.9}, y, 1e-12)

	x, _, err = db.SweepSeries(ctx, id, "max_val_th")
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 200}, x)

	require.NoError(t, db.DeleteSweep(ctx, id))
	_, err = db.GetSweep(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	fields, err = db.SweepFields(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, fields, "samples cascade with the run")

	assert.ErrorIs(t, db.DeleteSweep(ctx, id), ErrNotFound)
}

func TestRunMigrateCommand(t *testing.T) {
	restore := monitoring.Quiet(true)
	defer restore()
	path := testutil.TempDBPath(t)

	run := func(args ...string) (string, error) {
		var buf bytes.Buffer
		err := RunMigrateCommand(&buf, args, path)
		return buf.String(), err
	}

	out, err := run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 0")
	assert.Contains(t, out, "Outstanding migrations: 3")

	out, err = run("up")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 3")

	out, err = run("down")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 2")

	out, err = run("force", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 3")

	_, err = run("force")
	assert.Error(t, err)
	_, err = run("force", "three")
	assert.Error(t, err)

	out, err = run("help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage: iqinterp migrate")

	_, err = run("sideways")
	assert.ErrorContains(t, err, "unknown migrate action")

	_, err = run()
	assert.Error(t, err)
}

func TestRecordSweepRoundTripsThroughJSON(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id, err := db.RecordResolve(ctx, "tmc12", "", struct {
		LuxIndex float32 `json:"lux_index"`
	}{LuxIndex: 175}, nil)
	require.NoError(t, err)

	run, err := db.GetResolve(ctx, id)
	require.NoError(t, err)
	var trig struct {
		LuxIndex float32 `json:"lux_index"`
	}
	require.NoError(t, json.Unmarshal(run.Trigger, &trig))
	assert.Equal(t, float32(175), trig.LuxIndex)
	assert.Equal(t, "null", string(run.Params))
}
