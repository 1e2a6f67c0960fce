package sweep

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Flatten turns a resolved parameter set into named scalar fields, keyed by
// the set's JSON names. Arrays become name[i], nested objects become
// parent.child and booleans become 0 or 1. Strings and nulls are skipped.
func Flatten(v any) (map[string]float64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal parameters: %w", err)
	}
	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode parameters: %w", err)
	}

	out := make(map[string]float64)
	flattenInto(out, "", decoded)
	return out, nil
}

func flattenInto(out map[string]float64, prefix string, v interface{}) {
	switch vv := v.(type) {
	case map[string]interface{}:
		for k, child := range vv {
			name := k
			if prefix != "" {
				name = prefix + "." + k
			}
			flattenInto(out, name, child)
		}
	case []interface{}:
		for i, child := range vv {
			flattenInto(out, prefix+"["+strconv.Itoa(i)+"]", child)
		}
	case float64:
		out[prefix] = vv
	case bool:
		if vv {
			out[prefix] = 1
		} else {
			out[prefix] = 0
		}
	}
}

// sortedKeys returns m's keys in a stable order: lexical, except that
// indexed names sort by index.
func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return fieldLess(keys[i], keys[j]) })
	return keys
}

// fieldLess orders "c[2]" before "c[10]".
func fieldLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			na, ra := leadingNumber(a)
			nb, rb := leadingNumber(b)
			if na != nb {
				return na < nb
			}
			a, b = ra, rb
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func leadingNumber(s string) (int, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	n, _ := strconv.Atoi(s[:i])
	return n, s[i:]
}
