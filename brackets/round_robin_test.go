package brackets

import (
	"context"
	"testing"

	"github.com/compevent/compete-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobin_EveryPairingOnce(t *testing.T) {
	for _, n := range []int{2, 4, 5, 7, 8} {
		matches := generate(t, NewRoundRobinGenerator(), n)

		assert.Len(t, matches, n*(n-1)/2, "n=%d", n)

		seen := make(map[[2]int]int)
		for _, m := range matches {
			require.NotNil(t, m.Participant1ID, "n=%d %s", n, m.UID)
			require.NotNil(t, m.Participant2ID, "n=%d %s", n, m.UID)
			seen[PairKey(*m.Participant1ID, *m.Participant2ID)]++
		}
		for pair, count := range seen {
			assert.Equal(t, 1, count, "n=%d pair %v scheduled %d times", n, pair, count)
		}
	}
}

func TestRoundRobin_AtMostOneMatchPerRound(t *testing.T) {
	matches := generate(t, NewRoundRobinGenerator(), 5)

	perRound := make(map[int]map[int]bool)
	for _, m := range matches {
		if perRound[m.Round] == nil {
			perRound[m.Round] = make(map[int]bool)
		}
		for _, pid := range []int{*m.Participant1ID, *m.Participant2ID} {
			assert.False(t, perRound[m.Round][pid], "participant %d plays twice in round %d", pid, m.Round)
			perRound[m.Round][pid] = true
		}
	}

	// Odd field: 5 rounds, two matches each, one participant idle per round.
	assert.Len(t, perRound, 5)
	for round, players := range perRound {
		assert.Len(t, players, 4, "round %d", round)
	}
}

func TestRoundRobin_FourParticipants(t *testing.T) {
	matches := generate(t, NewRoundRobinGenerator(), 4)

	require.Len(t, matches, 6)

	appearances := make(map[int]int)
	for _, m := range matches {
		appearances[*m.Participant1ID]++
		appearances[*m.Participant2ID]++
	}
	for pid := 1; pid <= 4; pid++ {
		assert.Equal(t, 3, appearances[pid], "participant %d", pid)
	}
}

func TestRoundRobin_TooFewParticipants(t *testing.T) {
	_, err := NewRoundRobinGenerator().Generate(context.Background(), GenerateParams{
		Tournament:   &models.Tournament{ID: 1},
		Participants: testParticipants(1),
	})
	require.Error(t, err)
}
