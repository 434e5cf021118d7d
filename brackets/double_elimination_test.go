package brackets

import (
	"context"
	"testing"

	"github.com/compevent/compete-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoubleElimination_FourParticipants(t *testing.T) {
	matches := generate(t, NewDoubleEliminationGenerator(), 4)

	// 3 winners matches, 2 losers matches, grand final plus reset.
	require.Len(t, matches, 7)
	byUID := matchesByUID(matches)

	wbFinal := byUID["W-R2M1"]
	require.NotNil(t, wbFinal)
	assert.Equal(t, models.SideWinners, wbFinal.Side)

	// Losers round 1 is fed by the losers of both winners-round-1 matches.
	lb1 := byUID["L-R1M1"]
	require.NotNil(t, lb1)
	assert.Equal(t, models.SideLosers, lb1.Side)
	assert.Equal(t, "W-R1M1", *lb1.LoserSource1UID)
	assert.Equal(t, "W-R1M2", *lb1.LoserSource2UID)

	// Losers round 2 pits the winners-final loser against the LB survivor.
	lb2 := byUID["L-R2M1"]
	require.NotNil(t, lb2)
	assert.Equal(t, "W-R2M1", *lb2.LoserSource1UID)
	assert.Equal(t, "L-R1M1", *lb2.SourceMatch2UID)

	gf1 := byUID["GF-M1"]
	require.NotNil(t, gf1)
	assert.Equal(t, models.SideGrandFinal, gf1.Side)
	assert.Equal(t, "W-R2M1", *gf1.SourceMatch1UID)
	assert.Equal(t, "L-R2M1", *gf1.SourceMatch2UID)

	// The reset placeholder carries no linkage; it is armed at runtime.
	gf2 := byUID["GF-M2"]
	require.NotNil(t, gf2)
	assert.Nil(t, gf2.SourceMatch1UID)
	assert.Nil(t, gf2.SourceMatch2UID)
	assert.Nil(t, gf2.LoserSource1UID)
	assert.Nil(t, gf2.LoserSource2UID)
}

func TestDoubleElimination_TwoParticipants(t *testing.T) {
	matches := generate(t, NewDoubleEliminationGenerator(), 2)

	// One winners match, no losers bracket, grand final pair.
	require.Len(t, matches, 3)
	byUID := matchesByUID(matches)

	gf1 := byUID["GF-M1"]
	require.NotNil(t, gf1)
	assert.Equal(t, "W-R1M1", *gf1.SourceMatch1UID)
	// With no losers bracket the first final's loser gets the rematch.
	assert.Equal(t, "W-R1M1", *gf1.LoserSource2UID)
}

func TestDoubleElimination_ByesLeaveNoPhantomMatches(t *testing.T) {
	matches := generate(t, NewDoubleEliminationGenerator(), 6)

	for _, m := range matches {
		if m.Side != models.SideLosers {
			continue
		}
		// Every losers match must be fed by something real on both slots.
		slot1 := m.Participant1ID != nil || m.SourceMatch1UID != nil || m.LoserSource1UID != nil
		slot2 := m.Participant2ID != nil || m.SourceMatch2UID != nil || m.LoserSource2UID != nil
		assert.True(t, slot1, "match %s slot 1 unfed", m.UID)
		assert.True(t, slot2, "match %s slot 2 unfed", m.UID)
	}
}

func TestDoubleElimination_EveryLoserRoutedOnce(t *testing.T) {
	matches := generate(t, NewDoubleEliminationGenerator(), 8)
	byUID := matchesByUID(matches)

	// Each winners-bracket match's loser must appear exactly once as a
	// loser source, and the winners-final loser feeds the losers bracket
	// (the grand final slot 2 comes from the losers bracket instead).
	loserTargets := make(map[string]int)
	for _, m := range matches {
		if m.LoserSource1UID != nil {
			loserTargets[*m.LoserSource1UID]++
		}
		if m.LoserSource2UID != nil {
			loserTargets[*m.LoserSource2UID]++
		}
	}
	for uid, m := range byUID {
		if m.Side != models.SideWinners {
			continue
		}
		assert.Equal(t, 1, loserTargets[uid], "loser of %s routed %d times", uid, loserTargets[uid])
	}
}

func TestDoubleElimination_TooFewParticipants(t *testing.T) {
	_, err := NewDoubleEliminationGenerator().Generate(context.Background(), GenerateParams{
		Tournament:   &models.Tournament{ID: 1},
		Participants: testParticipants(1),
	})
	require.Error(t, err)
}
