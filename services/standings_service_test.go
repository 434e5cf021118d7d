package services

import (
	"context"
	"testing"
	"time"

	"github.com/compevent/compete-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *matchFixture) standings() *StandingsService {
	return NewStandingsService(f.tournaments, f.participants, f.matches, DefaultScoring)
}

func TestStandings_RoundRobinTable(t *testing.T) {
	f := newMatchFixture(t, models.FormatRoundRobin, 4)

	// Rounds: 1v4 and 2v3, then 1v3 and 4v2, then 1v2 and 3v4.
	f.play(t, "RR-R1M1", 2, 0) // 1 beats 4
	f.play(t, "RR-R1M2", 1, 1) // 2 draws 3
	f.play(t, "RR-R2M1", 3, 1) // 1 beats 3
	f.play(t, "RR-R2M2", 1, 2) // 2 beats 4
	f.play(t, "RR-R3M1", 0, 2) // 2 beats 1
	f.play(t, "RR-R3M2", 2, 0) // 3 beats 4

	standings, err := f.standings().Compute(context.Background(), f.tournament.ID)
	require.NoError(t, err)
	require.Len(t, standings, 4)

	leader := standings[0]
	assert.Equal(t, 2, leader.ParticipantID)
	assert.Equal(t, 1, leader.Rank)
	assert.Equal(t, 7, leader.Points)
	assert.Equal(t, 3, leader.Played)
	assert.Equal(t, 2, leader.Wins)
	assert.Equal(t, 1, leader.Draws)
	assert.Equal(t, 0, leader.Losses)
	assert.Equal(t, 3, leader.ScoreDifference)

	runnerUp := standings[1]
	assert.Equal(t, 1, runnerUp.ParticipantID)
	assert.Equal(t, 6, runnerUp.Points)
	assert.Equal(t, 2, runnerUp.ScoreDifference)

	assert.Equal(t, 3, standings[2].ParticipantID)
	assert.Equal(t, 4, standings[2].Points)

	last := standings[3]
	assert.Equal(t, 4, last.ParticipantID)
	assert.Equal(t, 0, last.Points)
	assert.Equal(t, 3, last.Losses)
	assert.Equal(t, 4, last.Rank)
}

func TestStandings_HeadToHeadBreaksTies(t *testing.T) {
	f := newMatchFixture(t, models.FormatRoundRobin, 4)

	// 2 and 3 end level on points and score difference; their direct
	// result must decide the order even though 2 has the lower id.
	f.play(t, "RR-R1M2", 1, 2) // 3 beats 2, diff +1 / -1
	f.play(t, "RR-R2M2", 0, 2) // 2 beats 4, diff back to +1

	standings, err := f.standings().Compute(context.Background(), f.tournament.ID)
	require.NoError(t, err)
	require.Len(t, standings, 4)

	assert.Equal(t, 3, standings[0].ParticipantID)
	assert.Equal(t, 2, standings[1].ParticipantID)
	assert.Equal(t, standings[0].Points, standings[1].Points)
	assert.Equal(t, standings[0].ScoreDifference, standings[1].ScoreDifference)
}

func TestStandings_EliminationRankedByDepth(t *testing.T) {
	f := newMatchFixture(t, models.FormatSingleElimination, 4)

	f.play(t, "R1M1", 2, 0) // 1 beats 4
	f.play(t, "R1M2", 0, 2) // 3 beats 2
	f.play(t, "R2M1", 2, 1) // 1 beats 3

	standings, err := f.standings().Compute(context.Background(), f.tournament.ID)
	require.NoError(t, err)
	require.Len(t, standings, 4)

	// Finalists outrank first-round exits regardless of points.
	assert.Equal(t, 1, standings[0].ParticipantID)
	assert.Equal(t, 3, standings[1].ParticipantID)
	assert.Equal(t, 2, standings[2].ParticipantID)
	assert.Equal(t, 4, standings[3].ParticipantID)

	assert.Equal(t, 2, standings[0].DepthReached)
	assert.Equal(t, 2, standings[1].DepthReached)
	assert.Equal(t, 1, standings[2].DepthReached)
}

func TestStandings_Recompute_Identical(t *testing.T) {
	f := newMatchFixture(t, models.FormatRoundRobin, 4)

	f.play(t, "RR-R1M1", 2, 0)
	f.play(t, "RR-R1M2", 1, 1)

	service := f.standings()
	first, err := service.Compute(context.Background(), f.tournament.ID)
	require.NoError(t, err)
	second, err := service.Compute(context.Background(), f.tournament.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestStandings_ExcludesWithdrawn(t *testing.T) {
	f := newMatchFixture(t, models.FormatRoundRobin, 4)

	f.participants.Seed(&models.Participant{
		TournamentID: f.tournament.ID,
		UserID:       999,
		Level:        20,
		Status:       models.ParticipantWithdrawn,
		CreatedAt:    time.Now(),
	})

	standings, err := f.standings().Compute(context.Background(), f.tournament.ID)
	require.NoError(t, err)
	assert.Len(t, standings, 4)
}
