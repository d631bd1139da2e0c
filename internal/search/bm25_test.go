package search

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/gcbaptista/go-archive-search/internal/testing"
	"github.com/gcbaptista/go-archive-search/model"
)

var (
	buildIndex  = testutil.BuildIndex
	twoDocIndex = testutil.TwoDocIndex
)

func TestTermScore(t *testing.T) {
	idf := math.Log(1.2)

	assert.InDelta(t, 0.20086273206113642, TermScore(idf, 1, 2, 2.5), 1e-12)
	assert.InDelta(t, 0.16691410129024015, TermScore(idf, 1, 3, 2.5), 1e-12)

	// Higher frequency saturates but still grows
	one := TermScore(idf, 1, 3, 2.5)
	five := TermScore(idf, 5, 3, 2.5)
	assert.Greater(t, five, one)
	assert.Less(t, five, idf*(K1+1))

	assert.Equal(t, 0.0, TermScore(0, 4, 3, 2.5))
}

func TestScore_TwoDocumentScenario(t *testing.T) {
	idx := twoDocIndex(t)

	ranked := Score(idx, []string{"a"})
	require.Len(t, ranked, 2)

	assert.Equal(t, "doc_b", ranked[0].Name)
	assert.InDelta(t, 0.2009, ranked[0].Score, 1e-4)
	assert.Equal(t, "doc_a", ranked[1].Name)
	assert.InDelta(t, 0.1669, ranked[1].Score, 1e-4)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
}

func TestScore_RepeatedQueryTermsAccumulate(t *testing.T) {
	idx := twoDocIndex(t)

	once := Score(idx, []string{"a"})
	twice := Score(idx, []string{"a", "a"})
	require.Len(t, twice, 2)
	for i := range once {
		assert.Equal(t, once[i].Name, twice[i].Name)
		assert.InDelta(t, 2*once[i].Score, twice[i].Score, 1e-12)
	}
}

func TestScore_OnlyTouchedDocumentsAreReturned(t *testing.T) {
	idx := twoDocIndex(t)

	ranked := Score(idx, []string{"c"})
	require.Len(t, ranked, 1)
	assert.Equal(t, "doc_a", ranked[0].Name)
	assert.InDelta(t, math.Log(2)*2.6/2.84, ranked[0].Score, 1e-12)
}

func TestScore_AbsentTermsContributeNothing(t *testing.T) {
	idx := twoDocIndex(t)

	assert.Empty(t, Score(idx, []string{"missing"}))

	withNoise := Score(idx, []string{"missing", "a", "also-missing"})
	plain := Score(idx, []string{"a"})
	assert.Equal(t, plain, withNoise)
}

func TestScore_EmptyQueryAndNilIndex(t *testing.T) {
	idx := twoDocIndex(t)

	assert.NotNil(t, Score(idx, nil))
	assert.Empty(t, Score(idx, nil))
	assert.Empty(t, Score(idx, []string{}))
	assert.Empty(t, Score(nil, []string{"a"}))
}

func TestScore_TermInEveryDocumentStillScoresPositive(t *testing.T) {
	idx := buildIndex(t,
		model.Record{Name: "x", Files: []string{"lib"}},
		model.Record{Name: "y", Files: []string{"lib"}},
		model.Record{Name: "z", Files: []string{"lib"}},
	)

	ranked := Score(idx, []string{"lib"})
	require.Len(t, ranked, 3)
	for _, doc := range ranked {
		assert.Greater(t, doc.Score, 0.0)
	}
}

func TestScore_TiesBreakByInsertionOrder(t *testing.T) {
	idx := buildIndex(t,
		model.Record{Name: "third", Files: []string{"a"}},
		model.Record{Name: "first", Files: []string{"a"}},
		model.Record{Name: "second", Files: []string{"a"}},
	)

	for i := 0; i < 10; i++ {
		ranked := Score(idx, []string{"a"})
		require.Len(t, ranked, 3)
		assert.Equal(t, "third", ranked[0].Name)
		assert.Equal(t, "first", ranked[1].Name)
		assert.Equal(t, "second", ranked[2].Name)
	}
}

func TestScore_IsDeterministic(t *testing.T) {
	idx := buildIndex(t,
		model.Record{Name: "m1", Files: []string{"META-INF/", "META-INF/MANIFEST.MF", "a.class"}},
		model.Record{Name: "m2", Files: []string{"META-INF/", "b.class"}},
		model.Record{Name: "m3", Files: []string{"lib/", "lib/x.jar", "a.class", "b.class"}},
		model.Record{Name: "m4", Files: []string{"README"}},
	)
	query := []string{"META-INF", "", "a.class", "b.class", "b.class"}

	first := Score(idx, query)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Score(idx, query))
	}
}

func TestCompareScoredDocs_TotalOrder(t *testing.T) {
	docs := []ScoredDoc{
		{DocID: 3, Score: math.NaN()},
		{DocID: 1, Score: 0.5},
		{DocID: 2, Score: math.Inf(1)},
		{DocID: 0, Score: 0.5},
	}

	sorted := append([]ScoredDoc(nil), docs...)
	slices.SortFunc(sorted, compareScoredDocs)

	assert.Equal(t, uint32(2), sorted[0].DocID)
	assert.Equal(t, uint32(0), sorted[1].DocID)
	assert.Equal(t, uint32(1), sorted[2].DocID)
	assert.Equal(t, uint32(3), sorted[3].DocID, "NaN sorts last")
}
