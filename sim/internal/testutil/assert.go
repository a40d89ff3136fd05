// Package testutil provides assertion helpers shared by the sim/ test packages.
package testutil

import (
	"fmt"
	"math"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
// Two NaNs compare equal, since empty size bins report NaN.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if math.IsNaN(want) || math.IsNaN(got) {
		if math.IsNaN(want) != math.IsNaN(got) {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
		return
	}
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertFloat64SliceEqual compares two float64 slices element-wise with
// AssertFloat64Equal.
func AssertFloat64SliceEqual(t *testing.T, name string, want, got []float64, relTol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Errorf("%s: got %d values, want %d", name, len(got), len(want))
		return
	}
	for i := range want {
		AssertFloat64Equal(t, fmt.Sprintf("%s[%d]", name, i), want[i], got[i], relTol)
	}
}
