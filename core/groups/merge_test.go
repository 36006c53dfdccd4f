package groups

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeAppliesTargetsAndKeepsUnseenMemberships(t *testing.T) {
	// r1 belongs to {g1, g4}, the client observed {g1, g2} and targets {g2, g3}.
	result := Merge(
		[]string{"g1", "g4"},
		[]string{"g1", "g2"},
		[]string{"g2", "g3"},
	)

	// g4 was never shown to the client and must survive; g1 was observed but
	// not retargeted and is dropped; g2 and g3 are applied.
	assert.ElementsMatch(t, []string{"g2", "g3", "g4"}, result)
}

func TestMergeEmptyTargetClearsObservedMemberships(t *testing.T) {
	result := Merge(
		[]string{"g1", "g2", "g3"},
		[]string{"g1", "g2"},
		nil,
	)

	assert.ElementsMatch(t, []string{"g3"}, result)
}

func TestMergeIdenticalSetsIsStable(t *testing.T) {
	current := []string{"g1", "g2"}

	result := Merge(current, current, current)

	assert.ElementsMatch(t, current, result)
}

func TestMergeDeduplicates(t *testing.T) {
	result := Merge(
		[]string{"g1", "g1"},
		[]string{"g2"},
		[]string{"g1"},
	)

	assert.Equal(t, []string{"g1"}, result)
}

func TestMergePreservesEverythingOutsideObservedSet(t *testing.T) {
	current := []string{"a", "b", "c", "d"}

	result := Merge(current, []string{"x"}, []string{"y"})

	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "y"}, result)
}
