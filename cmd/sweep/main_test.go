package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/iqinterp/internal/chromatix"
	"github.com/banshee-data/iqinterp/internal/iqmodule"
	"github.com/banshee-data/iqinterp/internal/monitoring"
	"github.com/banshee-data/iqinterp/internal/testutil"
)

// writeCC13 writes a colour correction calibration with two CCT regions,
// [0,10] and [20,30], whose C[0] is 1 and 2.
func writeCC13(t *testing.T) string {
	t.Helper()
	var lo, hi iqmodule.CC13Params
	lo.C[0], hi.C[0] = 1, 2
	c := iqmodule.CC13Chromatix{
		PrivateInfo: chromatix.PrivateInformation{LEDSensitivityTrigger: chromatix.Range{End: 100}},
		Core: iqmodule.FlashCore[iqmodule.CC13Params]{{
			Trigger: chromatix.Range{End: 1000},
			Data: iqmodule.FlashHDR[iqmodule.CC13Params]{{
				Trigger: chromatix.HDRAECTrigger{ExpTimeEnd: 1000, AECSensitivityEnd: 1000, ExpGainEnd: 1000},
				Data: iqmodule.FlashLED[iqmodule.CC13Params]{{
					Data: iqmodule.FlashAEC[iqmodule.CC13Params]{{
						Trigger: chromatix.AECTrigger{LuxIdxEnd: 1000, GainEnd: 1000},
						Data: iqmodule.FlashCCT[iqmodule.CC13Params]{
							{Trigger: chromatix.Range{Start: 0, End: 10}, Data: lo},
							{Trigger: chromatix.Range{Start: 20, End: 30}, Data: hi},
						},
					}},
				}},
			}},
		}},
	}
	return testutil.WriteJSON(t, "cc13.json", c)
}

func TestRun(t *testing.T) {
	restore := monitoring.Quiet(true)
	defer restore()

	outDir := t.TempDir()
	o := options{
		module:    "cc13",
		chromatix: writeCC13(t),
		axis:      "cct",
		values:    "0:30:5",
		outDir:    outDir,
		png:       true,
		html:      true,
		record:    true,
		dbPath:    testutil.TempDBPath(t),
	}
	require.NoError(t, run(o))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Len(t, names, 4, "csv, summary, png and html: %v", names)

	var csvPath string
	for _, n := range names {
		if strings.HasSuffix(n, ".csv") && !strings.HasSuffix(n, "-summary.csv") {
			csvPath = filepath.Join(outDir, n)
		}
	}
	require.NotEmpty(t, csvPath)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 8, "header plus seven points")
	assert.True(t, strings.HasPrefix(lines[0], "cct,"))
	assert.True(t, strings.HasPrefix(lines[4], "15,1.5,"), lines[4])
}

func TestRunErrors(t *testing.T) {
	restore := monitoring.Quiet(true)
	defer restore()
	chx := writeCC13(t)

	tests := []struct {
		name string
		o    options
	}{
		{"missing flags", options{module: "cc13"}},
		{"bad axis", options{module: "cc13", chromatix: chx, axis: "zoom", values: "1"}},
		{"bad values", options{module: "cc13", chromatix: chx, axis: "cct", values: "a,b"}},
		{"bad trigger", options{module: "cc13", chromatix: chx, axis: "cct", values: "1", trigger: "{"}},
		{"unknown module", options{module: "nope", chromatix: chx, axis: "cct", values: "1"}},
		{"missing config", options{module: "cc13", chromatix: chx, axis: "cct", values: "1",
			config: filepath.Join(t.TempDir(), "missing.json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.o.outDir = t.TempDir()
			assert.Error(t, run(tt.o))
		})
	}
}
