package brackets

import (
	"context"
	"testing"

	"github.com/compevent/compete-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, g Generator, n int) []*BracketMatch {
	t.Helper()
	matches, err := g.Generate(context.Background(), GenerateParams{
		Tournament:   &models.Tournament{ID: 1},
		Participants: testParticipants(n),
	})
	require.NoError(t, err)
	return matches
}

func matchesByUID(matches []*BracketMatch) map[string]*BracketMatch {
	byUID := make(map[string]*BracketMatch, len(matches))
	for _, m := range matches {
		byUID[m.UID] = m
	}
	return byUID
}

func TestSingleElimination_FullField(t *testing.T) {
	matches := generate(t, NewSingleEliminationGenerator(), 8)

	// 8 participants: 4 + 2 + 1 playable matches, no byes.
	require.Len(t, matches, 7)

	byUID := matchesByUID(matches)
	r1m1 := byUID["R1M1"]
	require.NotNil(t, r1m1)
	assert.Equal(t, 1, *r1m1.Participant1ID)
	assert.Equal(t, 8, *r1m1.Participant2ID)

	// Second pairing comes from seed slots {3,4}.
	r1m2 := byUID["R1M2"]
	require.NotNil(t, r1m2)
	assert.Equal(t, 4, *r1m2.Participant1ID)
	assert.Equal(t, 5, *r1m2.Participant2ID)

	// The final is fed by the two semifinals.
	final := byUID["R3M1"]
	require.NotNil(t, final)
	assert.Nil(t, final.Participant1ID)
	assert.Nil(t, final.Participant2ID)
	assert.Equal(t, "R2M1", *final.SourceMatch1UID)
	assert.Equal(t, "R2M2", *final.SourceMatch2UID)
}

func TestSingleElimination_ByesAutoAdvance(t *testing.T) {
	matches := generate(t, NewSingleEliminationGenerator(), 5)

	// Padded to 8 with 3 byes: 7 - 3 = 4 playable matches.
	require.Len(t, matches, 4)

	round1 := 0
	for _, m := range matches {
		if m.Round == 1 {
			round1++
			// The only real first-round pairing is seed 4 vs seed 5.
			assert.Equal(t, 4, *m.Participant1ID)
			assert.Equal(t, 5, *m.Participant2ID)
		}
	}
	assert.Equal(t, 1, round1)

	// Bye recipients land directly in round 2.
	byUID := matchesByUID(matches)
	r2m1 := byUID["R2M1"]
	require.NotNil(t, r2m1)
	assert.Equal(t, 1, *r2m1.Participant1ID)
	require.NotNil(t, r2m1.SourceMatch2UID)
	assert.Equal(t, "R1M1", *r2m1.SourceMatch2UID)

	r2m2 := byUID["R2M2"]
	require.NotNil(t, r2m2)
	assert.Equal(t, 2, *r2m2.Participant1ID)
	assert.Equal(t, 3, *r2m2.Participant2ID)
}

func TestSingleElimination_MatchCountFormula(t *testing.T) {
	for _, n := range []int{2, 3, 5, 6, 8, 13, 16} {
		matches := generate(t, NewSingleEliminationGenerator(), n)

		padded := nextPowerOfTwo(n)
		byes := padded - n
		assert.Len(t, matches, padded-1-byes, "n=%d", n)
	}
}

func TestSingleElimination_TooFewParticipants(t *testing.T) {
	_, err := NewSingleEliminationGenerator().Generate(context.Background(), GenerateParams{
		Tournament:   &models.Tournament{ID: 1},
		Participants: testParticipants(1),
	})
	require.Error(t, err)
}
