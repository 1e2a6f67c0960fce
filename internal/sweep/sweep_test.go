package sweep

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/iqinterp/internal/iqmodule"
)

type fakeParams struct {
	Gain  float32    `json:"gain"`
	Table [3]float32 `json:"table"`
	On    bool       `json:"on"`
	Name  string     `json:"name"`
}

type fakeResolver struct {
	calls int
	fail  float32
}

func (f *fakeResolver) Name() string { return "fake" }

func (f *fakeResolver) Resolve(d *iqmodule.TriggerData) (any, error) {
	f.calls++
	if f.fail != 0 && d.AECLuxIndex == f.fail {
		return nil, errors.New("no region")
	}
	lux := d.AECLuxIndex
	return &fakeParams{
		Gain:  lux / 100,
		Table: [3]float32{1, lux, d.AWBColorTemperature},
		On:    lux > 150,
		Name:  "ignored",
	}, nil
}

func TestParseValues(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		want    []float64
		wantErr bool
	}{
		{"range", "0:100:25", []float64{0, 25, 50, 75, 100}, false},
		{"range not on step", "0:10:4", []float64{0, 4, 8}, false},
		{"single point range", "5:5:1", []float64{5}, false},
		{"list", "1, 2.5,4", []float64{1, 2.5, 4}, false},
		{"zero step", "0:10:0", nil, true},
		{"inverted", "10:0:1", nil, true},
		{"two part range", "0:10", nil, true},
		{"bad bound", "0:x:1", nil, true},
		{"empty", "", nil, true},
		{"too many", "0:1000:1", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValues(tt.expr, 100)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, 1e-9)
		})
	}
}

func TestGenerateRangeFractionalStep(t *testing.T) {
	got, err := GenerateRange(0, 1, 0.1)
	require.NoError(t, err)
	assert.Len(t, got, 11, "rounding must not drop the end point")
	assert.InDelta(t, 1, got[10], 1e-9)
}

func TestParseCSVFloat64s(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expected  []float64
		expectErr bool
	}{
		{"empty_string", "", nil, false},
		{"with_spaces", " 1.0 , 2.5 ", []float64{1.0, 2.5}, false},
		{"empty_parts", "1.0,,3.0", []float64{1.0, 3.0}, false},
		{"invalid_value", "1.0,abc", nil, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCSVFloat64s(tc.input)
			if tc.expectErr {
				if err == nil {
					t.Errorf("Expected error for input %q, got nil", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.expected, result); diff != "" {
				t.Errorf("ParseCSVFloat64s(%q) mismatch (-want +got):\n%s", tc.input, diff)
			}
		})
	}
}

func TestParseAxis(t *testing.T) {
	a, err := ParseAxis("cct")
	require.NoError(t, err)
	assert.Equal(t, AxisCCT, a)

	_, err = ParseAxis("zoom")
	assert.ErrorContains(t, err, "unknown axis")

	assert.Len(t, Axes(), len(axisSetters))
	assert.True(t, slices.IsSorted(Axes()))
}

func TestAxisApply(t *testing.T) {
	var d iqmodule.TriggerData
	for _, a := range Axes() {
		require.NoError(t, a.Apply(&d, 7))
	}
	want := iqmodule.TriggerData{
		AECLuxIndex: 7, AECGain: 7, AECSensitivity: 7, AECExposureTime: 7, AECExposureGainRatio: 7,
		AWBColorTemperature: 7, DRCGain: 7, DRCGainDark: 7, TotalScaleRatio: 7, LEDSensitivity: 7,
	}
	if diff := cmp.Diff(want, d); diff != "" {
		t.Errorf("Apply mismatch (-want +got):\n%s", diff)
	}
	assert.Error(t, Axis("zoom").Apply(&d, 1))
}

func TestFlatten(t *testing.T) {
	got, err := Flatten(&fakeParams{Gain: 2, Table: [3]float32{1, 2, 3}, On: true, Name: "x"})
	require.NoError(t, err)
	want := map[string]float64{"gain": 2, "table[0]": 1, "table[1]": 2, "table[2]": 3, "on": 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Flatten mismatch (-want +got):\n%s", diff)
	}

	nested, err := Flatten(struct {
		Layer struct {
			Clamp []int `json:"clamp"`
		} `json:"layer"`
	}{Layer: struct {
		Clamp []int `json:"clamp"`
	}{Clamp: []int{4, 5}}})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"layer.clamp[0]": 4, "layer.clamp[1]": 5}, nested)

	_, err = Flatten(func() {})
	assert.Error(t, err)
}

func TestFieldOrder(t *testing.T) {
	keys := sortedKeys(map[string]struct{}{"c[10]": {}, "c[2]": {}, "b": {}, "c[1]": {}, "a.x[3]": {}})
	assert.Equal(t, []string{"a.x[3]", "b", "c[1]", "c[2]", "c[10]"}, keys)
}

func TestRunner(t *testing.T) {
	fake := &fakeResolver{}
	r := &Runner{Resolver: fake, Axis: AxisLux, Base: iqmodule.TriggerData{AWBColorTemperature: 5000}}

	res, err := r.Run(context.Background(), []float64{100, 200, 300})
	require.NoError(t, err)
	assert.Equal(t, "fake", res.Module)
	assert.Equal(t, 3, fake.calls)
	require.Len(t, res.Samples, 3)

	assert.Equal(t, []string{"gain", "on", "table[0]", "table[1]", "table[2]"}, res.Fields())

	x, y := res.Series("gain")
	assert.Equal(t, []float64{100, 200, 300}, x)
	assert.InDeltaSlice(t, []float64{1, 2, 3}, y, 1e-6)

	_, cct := res.Series("table[2]")
	assert.Equal(t, []float64{5000, 5000, 5000}, cct, "base triggers carry through")

	assert.Equal(t, []string{"gain", "on", "table[1]"}, VaryingFields(res, 0))
	assert.Equal(t, []string{"gain"}, VaryingFields(res, 1))
}

func TestRunnerErrors(t *testing.T) {
	_, err := (&Runner{Axis: AxisLux}).Run(context.Background(), []float64{1})
	assert.Error(t, err)

	_, err = (&Runner{Resolver: &fakeResolver{}, Axis: "zoom"}).Run(context.Background(), []float64{1})
	assert.ErrorContains(t, err, "unknown axis")

	_, err = (&Runner{Resolver: &fakeResolver{fail: 20}, Axis: AxisLux}).Run(context.Background(), []float64{10, 20, 30})
	assert.ErrorContains(t, err, "lux=20")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &fakeResolver{}
	_, err = (&Runner{Resolver: fake, Axis: AxisLux}).Run(ctx, []float64{1, 2})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fake.calls)
}

func sampleResult() *Result {
	return &Result{
		Module: "fake",
		Axis:   AxisLux,
		Samples: []Sample{
			{Value: 0, Fields: map[string]float64{"a": 1, "b": 5}},
			{Value: 50, Fields: map[string]float64{"a": 3, "b": 5}},
			{Value: 100, Fields: map[string]float64{"a": 5}},
		},
	}
}

func TestSummarise(t *testing.T) {
	got := Summarise(sampleResult(), nil)
	require.Len(t, got, 2)

	a := got[0]
	assert.Equal(t, "a", a.Field)
	assert.Equal(t, 3, a.Count)
	assert.Equal(t, 1.0, a.Min)
	assert.Equal(t, 5.0, a.Max)
	assert.InDelta(t, 3, a.Mean, 1e-12)
	assert.InDelta(t, 2, a.StdDev, 1e-12)
	assert.True(t, a.Varies())

	b := got[1]
	assert.Equal(t, 2, b.Count)
	assert.False(t, b.Varies())
	assert.Zero(t, b.StdDev)

	single := Summarise(&Result{Samples: []Sample{{Fields: map[string]float64{"x": 4}}}}, nil)
	require.Len(t, single, 1)
	assert.Equal(t, 4.0, single[0].Mean)
	assert.Zero(t, single[0].StdDev)

	assert.Empty(t, Summarise(sampleResult(), []string{"missing"}))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult(), nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	want := [][]string{
		{"lux", "a", "b"},
		{"0", "1", "5"},
		{"50", "3", "5"},
		{"100", "5", ""},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("CSV mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, Summarise(sampleResult(), []string{"a"})))
	assert.Equal(t, "field,count,min,max,mean,stddev\na,3,1,5,3,2\n", buf.String())
}

func TestWritePlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "fake.png")
	require.NoError(t, WritePlot(path, sampleResult(), []string{"a", "b"}, 6, 4))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, WritePlot(path, sampleResult(), nil, 6, 4))
}

func TestWriteChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, sampleResult(), []string{"a", "b"}, ChartOptions{Theme: "dark"}))

	html := buf.String()
	assert.True(t, strings.Contains(html, "<html"), "expected an HTML page")
	assert.Contains(t, html, "fake vs lux")

	assert.Error(t, WriteChart(&buf, sampleResult(), nil, ChartOptions{}))
}

func TestGenerateColors(t *testing.T) {
	assert.Nil(t, generateColors(0))
	cs := generateColors(3)
	require.Len(t, cs, 3)
	assert.NotEqual(t, cs[0], cs[1])

	r, g, b := hslToRGB(0, 1, 0.5)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b})
	r, g, b = hslToRGB(0.3, 0, 0.5)
	assert.Equal(t, [3]uint8{128, 128, 128}, [3]uint8{r, g, b})
}
