package testutil

import (
	"fmt"
	"testing"
)

// RequireSamplesNearlyEqual fails t if got and want differ in length or if
// any sample pair differs by more than tol LSB.
func RequireSamplesNearlyEqual(t *testing.T, got, want []int16, tol int) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		diff := absInt(int(got[i]) - int(want[i]))
		if diff > tol {
			t.Fatalf("index %d: got %d, want %d (diff %d > tol %d)", i, got[i], want[i], diff, tol)
		}
	}
}

// MaxAbsDiff returns the largest sample difference between two blocks.
func MaxAbsDiff(a, b []int16) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}

	maxDiff := 0
	for i := range a {
		maxDiff = max(maxDiff, absInt(int(a[i])-int(b[i])))
	}

	return maxDiff, nil
}

// Peak returns the largest magnitude in a block.
func Peak(buf []int16) int {
	p := 0
	for _, v := range buf {
		p = max(p, absInt(int(v)))
	}

	return p
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}

	return x
}
