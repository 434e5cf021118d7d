package brackets

import (
	"context"
	"errors"
	"fmt"

	"github.com/compevent/compete-system/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "round_robin"
}

// Generate schedules every pairing exactly once using the circle method:
// one participant stays fixed while the rest rotate, producing n-1 rounds
// (n for odd fields, where the dummy slot gives one participant an idle
// round) with each participant playing at most once per round.
func (g *RoundRobinGenerator) Generate(ctx context.Context, params GenerateParams) ([]*BracketMatch, error) {
	participants := orderBySeed(params.Participants)
	n := len(participants)
	if n < 2 {
		return nil, errors.New("round robin requires at least 2 participants")
	}

	ids := make([]int, 0, n+1)
	for _, p := range participants {
		ids = append(ids, p.ID)
	}

	// Dummy id 0 marks the idle slot for odd fields.
	if len(ids)%2 != 0 {
		ids = append(ids, 0)
	}
	size := len(ids)
	rounds := size - 1
	half := size / 2

	matches := make([]*BracketMatch, 0, n*(n-1)/2)
	for r := 1; r <= rounds; r++ {
		order := 0
		for i := 0; i < half; i++ {
			p1, p2 := ids[i], ids[size-1-i]
			if p1 == 0 || p2 == 0 {
				continue
			}
			order++
			id1, id2 := p1, p2
			matches = append(matches, &BracketMatch{
				UID:            fmt.Sprintf("RR-R%dM%d", r, order),
				Round:          r,
				OrderInRound:   order,
				Side:           models.SideWinners,
				Participant1ID: &id1,
				Participant2ID: &id2,
			})
		}

		// Rotate everyone but the first slot.
		rotated := make([]int, 0, size)
		rotated = append(rotated, ids[0], ids[size-1])
		rotated = append(rotated, ids[1:size-1]...)
		ids = rotated
	}

	return matches, nil
}
