package chromatix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blob struct {
	Regions []Region[param] `json:"regions"`
}

func (b *blob) Validate() error {
	return ValidateRegions("drc", b.Regions, func(p *param) error {
		if p.V < 0 {
			return errors.New("negative value")
		}
		return nil
	})
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "cal.json", `{"regions":[
		{"trigger":{"start":0,"end":1},"data":{"V":2}},
		{"trigger":{"start":2,"end":3},"data":{"V":4}}
	]}`)

	b, err := LoadJSON[blob](path)
	require.NoError(t, err)
	require.Len(t, b.Regions, 2)
	assert.Equal(t, float32(4), b.Regions[1].Data.V)
}

func TestLoadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"wrong extension", "cal.yaml", `{}`},
		{"bad json", "cal.json", `{`},
		{"no regions", "cal.json", `{"regions":[]}`},
		{"inverted range", "cal.json", `{"regions":[{"trigger":{"start":5,"end":1}}]}`},
		{"overlap", "cal.json", `{"regions":[{"trigger":{"start":0,"end":5}},{"trigger":{"start":4,"end":8}}]}`},
		{"payload", "cal.json", `{"regions":[{"trigger":{"start":0,"end":5},"data":{"V":-1}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadJSON[blob](writeFile(t, tt.file, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadJSON[blob](filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestValidateLEDRegions(t *testing.T) {
	assert.Error(t, ValidateLEDRegions[param](nil, nil))
	assert.Error(t, ValidateLEDRegions(make([]LEDRegion[param], 4), nil))
	assert.NoError(t, ValidateLEDRegions(make([]LEDRegion[param], 3), nil))
}
