package brackets

import (
	"testing"
	"time"

	"github.com/compevent/compete-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParticipants(n int) []*models.Participant {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	participants := make([]*models.Participant, 0, n)
	for i := 1; i <= n; i++ {
		participants = append(participants, &models.Participant{
			ID:        i,
			UserID:    100 + i,
			Status:    models.ParticipantRegistered,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return participants
}

func TestSeedPositions(t *testing.T) {
	tests := []struct {
		size int
		want []int
	}{
		{1, []int{0}},
		{2, []int{0, 1}},
		{4, []int{0, 3, 1, 2}},
		{8, []int{0, 7, 3, 4, 1, 6, 2, 5}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, seedPositions(tt.size), "size %d", tt.size)
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := map[int]int{1: 1, 2: 2, 3: 4, 5: 8, 8: 8, 9: 16, 17: 32}
	for n, want := range tests {
		assert.Equal(t, want, nextPowerOfTwo(n), "n=%d", n)
	}
}

func TestOrderBySeed_ExplicitSeedsFirst(t *testing.T) {
	participants := testParticipants(4)
	seedTwo, seedOne := 2, 1
	participants[2].Seed = &seedTwo // id 3
	participants[3].Seed = &seedOne // id 4

	ordered := orderBySeed(participants)

	require.Len(t, ordered, 4)
	assert.Equal(t, 4, ordered[0].ID)
	assert.Equal(t, 3, ordered[1].ID)
	// Unseeded participants follow in registration order.
	assert.Equal(t, 1, ordered[2].ID)
	assert.Equal(t, 2, ordered[3].ID)
}

func TestOrderBySeed_RegistrationOrderFallback(t *testing.T) {
	participants := testParticipants(3)
	// Shuffle the input; CreatedAt decides.
	shuffled := []*models.Participant{participants[2], participants[0], participants[1]}

	ordered := orderBySeed(shuffled)

	assert.Equal(t, []int{1, 2, 3}, []int{ordered[0].ID, ordered[1].ID, ordered[2].ID})
}
