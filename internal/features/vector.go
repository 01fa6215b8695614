// Package features defines the named feature vectors that describe one
// game matchup. Vectors are produced by an external feature service and
// consumed by the prediction ensemble; this package only validates and
// slices them, it never computes features itself.
package features

import (
	"fmt"
	"math"
	"sort"
)

// Vector maps feature names to numeric values for one matchup,
// e.g. {"elo_diff": 120, "home_field": 1}.
type Vector map[string]float64

// Validate checks that the vector is structurally usable at all.
// A nil or empty vector, an empty feature name, or a non-finite value
// makes the whole request invalid before any model is consulted.
// Features missing for a particular model are not a structural problem
// and are handled per model by the ensemble.
func (v Vector) Validate() error {
	if len(v) == 0 {
		return fmt.Errorf("feature vector is empty")
	}
	for name, val := range v {
		if name == "" {
			return fmt.Errorf("feature vector contains an empty feature name")
		}
		if math.IsNaN(val) {
			return fmt.Errorf("feature %q is NaN", name)
		}
		if math.IsInf(val, 0) {
			return fmt.Errorf("feature %q is infinite", name)
		}
	}
	return nil
}

// Missing returns the names from required that are absent from the vector,
// sorted for stable log output.
func (v Vector) Missing(required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := v[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Ordered extracts the values for the given feature names in order.
// Every name must be present; callers are expected to check Missing first.
func (v Vector) Ordered(names []string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		val, ok := v[name]
		if !ok {
			return nil, fmt.Errorf("feature %q is missing", name)
		}
		out[i] = val
	}
	return out, nil
}

// Clone returns an independent copy of the vector.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
