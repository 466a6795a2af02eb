package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dugoutapp/dugout/internal/domain"
)

func fixtures() []*domain.Item {
	return []*domain.Item{
		{ID: "1", Kind: domain.KindHat, Team: "Los Angeles Dodgers", ColorDesign: "Navy blue with gold trim", Location: "Box A"},
		{ID: "2", Kind: domain.KindHat, Team: "New York Yankees", ColorDesign: "Classic navy", Location: "Box B"},
		{ID: "3", Kind: domain.KindJersey, Team: "Boston Red Sox", Player: "Mookie Betts", ColorDesign: "Home white", Location: "Closet"},
		{ID: "4", Kind: domain.KindJersey, Team: "Los Angeles Dodgers", Player: "Shohei Ohtani", Location: "Dresser"},
	}
}

func ids(items []*domain.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestApplyNoCriteriaReturnsInputUnchanged(t *testing.T) {
	in := fixtures()
	out := Apply(in, Criteria{})
	assert.Equal(t, ids(in), ids(out))
}

func TestApplyTeamExactMatch(t *testing.T) {
	out := Apply(fixtures(), Criteria{Team: "Los Angeles Dodgers"})
	assert.Equal(t, []string{"1", "4"}, ids(out))
}

func TestApplyTeamIsCaseSensitive(t *testing.T) {
	out := Apply(fixtures(), Criteria{Team: "los angeles dodgers"})
	assert.Empty(t, out)
}

func TestApplyLocationExactMatch(t *testing.T) {
	out := Apply(fixtures(), Criteria{Location: "Box A"})
	assert.Equal(t, []string{"1"}, ids(out))
}

func TestApplyColorDesignSubstringAnyCase(t *testing.T) {
	out := Apply(fixtures(), Criteria{ColorDesign: "NAVY"})
	assert.Equal(t, []string{"1", "2"}, ids(out))
}

func TestApplyPlayerSubstringAnyCase(t *testing.T) {
	out := Apply(fixtures(), Criteria{Player: "mookie"})
	assert.Equal(t, []string{"3"}, ids(out))

	out = Apply(fixtures(), Criteria{Player: "ohtani"})
	assert.Equal(t, []string{"4"}, ids(out))
}

func TestApplyEmptyFieldNeverMatchesSubstringCriterion(t *testing.T) {
	// Item 4 has no color/design; item 1 and 2 have no player.
	out := Apply(fixtures(), Criteria{ColorDesign: "navy", Player: "x"})
	assert.Empty(t, out)

	out = Apply(fixtures(), Criteria{Player: "betts"})
	assert.Equal(t, []string{"3"}, ids(out))
}

func TestApplyCriteriaCombineWithAnd(t *testing.T) {
	out := Apply(fixtures(), Criteria{Team: "Los Angeles Dodgers", ColorDesign: "gold"})
	assert.Equal(t, []string{"1"}, ids(out))
}

func TestApplyResultIsSubsetInOriginalOrder(t *testing.T) {
	in := fixtures()
	out := Apply(in, Criteria{ColorDesign: "e"})

	assert.LessOrEqual(t, len(out), len(in))
	pos := map[string]int{}
	for i, item := range in {
		pos[item.ID] = i
	}
	for i := 1; i < len(out); i++ {
		assert.Less(t, pos[out[i-1].ID], pos[out[i].ID], "filter must be order-preserving")
	}
	for _, item := range out {
		assert.True(t, Matches(item, Criteria{ColorDesign: "e"}))
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := fixtures()
	before := ids(in)
	_ = Apply(in, Criteria{Team: "Boston Red Sox"})
	assert.Equal(t, before, ids(in))
}
