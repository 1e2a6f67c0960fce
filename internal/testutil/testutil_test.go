package testutil

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAssertNoError(t *testing.T) {
	t.Parallel()
	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	t.Parallel()
	AssertError(t, errors.New("boom"))
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	in := map[string]float64{"lux_index": 250}
	path := WriteJSON(t, "trigger.json", in)

	if filepath.Ext(path) != ".json" {
		t.Errorf("path %q lost its extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var out map[string]float64
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["lux_index"] != 250 {
		t.Errorf("lux_index = %v, want 250", out["lux_index"])
	}
}

func TestTempDBPath(t *testing.T) {
	t.Parallel()

	path := TempDBPath(t)
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("temp dir missing: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("db file should not exist yet, stat err = %v", err)
	}
}
