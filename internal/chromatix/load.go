package chromatix

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/iqinterp/internal/iqutil"
)

// maxFileSize caps calibration blobs. Gamma and mesh tables make these much
// larger than tool configs.
const maxFileSize = 16 * 1024 * 1024

// Validator is implemented by calibration types that can check their own
// region layout after decoding.
type Validator interface {
	Validate() error
}

// LoadJSON reads a calibration blob of type T from a .json file.
func LoadJSON[T any](path string) (*T, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("chromatix file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat chromatix file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("chromatix file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read chromatix file: %w", err)
	}

	var c T
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse chromatix JSON: %w", err)
	}

	if v, ok := any(&c).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("invalid chromatix: %w", err)
		}
	}
	return &c, nil
}

// CheckRegions reports an axis with no regions, too many regions, or ranges
// that are inverted or out of order.
func CheckRegions(axis string, regions []Range) error {
	if len(regions) == 0 {
		return fmt.Errorf("%s: no regions", axis)
	}
	if len(regions) > iqutil.MaxRegions {
		return fmt.Errorf("%s: %d regions (max %d)", axis, len(regions), iqutil.MaxRegions)
	}
	for i, r := range regions {
		if r.Start > r.End {
			return fmt.Errorf("%s region %d: start %v after end %v", axis, i, r.Start, r.End)
		}
		if i > 0 && r.Start < regions[i-1].End {
			return fmt.Errorf("%s region %d overlaps region %d", axis, i, i-1)
		}
	}
	return nil
}

// ValidateRegions checks a plain-range axis and then each payload with next.
func ValidateRegions[T any](axis string, regions []Region[T], next func(*T) error) error {
	ranges := make([]Range, len(regions))
	for i := range regions {
		ranges[i] = regions[i].Trigger
	}
	if err := CheckRegions(axis, ranges); err != nil {
		return err
	}
	return walk(axis, len(regions), func(i int) *T { return &regions[i].Data }, next)
}

// ValidateAECRegions checks an AEC axis using the range ctrl selects.
func ValidateAECRegions[T any](axis string, regions []AECRegion[T], ctrl AECControl, next func(*T) error) error {
	ranges := make([]Range, len(regions))
	for i := range regions {
		r := regions[i].Trigger.Region(ctrl)
		ranges[i] = Range{Start: r.Start, End: r.End}
	}
	if err := CheckRegions(axis, ranges); err != nil {
		return err
	}
	return walk(axis, len(regions), func(i int) *T { return &regions[i].Data }, next)
}

// ValidateHDRAECRegions checks an HDR axis using the range ctrl selects.
func ValidateHDRAECRegions[T any](axis string, regions []HDRAECRegion[T], ctrl HDRAECControl, next func(*T) error) error {
	ranges := make([]Range, len(regions))
	for i := range regions {
		r := regions[i].Trigger.Region(ctrl)
		ranges[i] = Range{Start: r.Start, End: r.End}
	}
	if err := CheckRegions(axis, ranges); err != nil {
		return err
	}
	return walk(axis, len(regions), func(i int) *T { return &regions[i].Data }, next)
}

// ValidateLEDRegions checks the flash axis, which has no ranges but must
// hold between one and three entries.
func ValidateLEDRegions[T any](regions []LEDRegion[T], next func(*T) error) error {
	if len(regions) == 0 || len(regions) > 3 {
		return fmt.Errorf("led: %d regions (want 1 to 3)", len(regions))
	}
	return walk("led", len(regions), func(i int) *T { return &regions[i].Data }, next)
}

func walk[T any](axis string, n int, at func(int) *T, next func(*T) error) error {
	if next == nil {
		return nil
	}
	for i := 0; i < n; i++ {
		if err := next(at(i)); err != nil {
			return fmt.Errorf("%s region %d: %w", axis, i, err)
		}
	}
	return nil
}
