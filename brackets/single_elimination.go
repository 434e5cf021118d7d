package brackets

import (
	"context"
	"errors"
	"fmt"

	"github.com/compevent/compete-system/models"
)

// node is one feed into a bracket slot: a known participant, the winner of
// an earlier match, or a bye placeholder used to pad the field to a power
// of two.
type node struct {
	participantID  *int
	sourceMatchUID *string
	isBye          bool
}

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "single_elimination"
}

// Generate builds the complete single-elimination structure. Participants
// are placed by seed so top seeds meet late, byes auto-advance their
// opponent without producing a playable match, and every later round is
// emitted as a placeholder whose slots reference the feeding matches.
func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]*BracketMatch, error) {
	n := len(params.Participants)
	if n < 2 {
		return nil, errors.New("single elimination requires at least 2 participants")
	}

	ordered := orderBySeed(params.Participants)
	bracketSize := nextPowerOfTwo(n)
	numRounds := 0
	for 1<<numRounds < bracketSize {
		numRounds++
	}

	slots := make([]*node, bracketSize)
	for i, seedIdx := range seedPositions(bracketSize) {
		if seedIdx < n {
			pid := ordered[seedIdx].ID
			slots[i] = &node{participantID: &pid}
		} else {
			slots[i] = &node{isBye: true}
		}
	}

	matches := make([]*BracketMatch, 0, bracketSize-1)
	current := slots

	for r := 1; r <= numRounds; r++ {
		next := make([]*node, 0, len(current)/2)
		order := 0

		for i := 0; i < len(current); i += 2 {
			a, b := current[i], current[i+1]

			switch {
			case a.isBye && b.isBye:
				return nil, fmt.Errorf("round %d: two byes paired, padding exceeds half the bracket", r)

			case a.isBye || b.isBye:
				// Byes only occur in round 1, where placement pairs each
				// one against a seeded participant.
				real := a
				if a.isBye {
					real = b
				}
				if real.participantID == nil {
					return nil, fmt.Errorf("round %d: bye paired against an undetermined slot", r)
				}
				next = append(next, &node{participantID: real.participantID})

			default:
				order++
				uid := fmt.Sprintf("R%dM%d", r, order)
				bm := &BracketMatch{
					UID:          uid,
					Round:        r,
					OrderInRound: order,
					Side:         models.SideWinners,
				}
				bm.Participant1ID = a.participantID
				bm.SourceMatch1UID = a.sourceMatchUID
				bm.Participant2ID = b.participantID
				bm.SourceMatch2UID = b.sourceMatchUID

				matches = append(matches, bm)
				next = append(next, &node{sourceMatchUID: &bm.UID})
			}
		}
		current = next
	}

	if len(current) != 1 {
		return nil, fmt.Errorf("bracket did not converge to a single winner slot (got %d)", len(current))
	}
	return matches, nil
}
