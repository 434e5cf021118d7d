package brackets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/compevent/compete-system/models"
)

// SwissRoundCount returns the number of swiss rounds for a field of n,
// defaulting to ceil(log2(n)) unless the tournament declares an override.
func SwissRoundCount(n int, override *int) int {
	if override != nil && *override > 0 {
		return *override
	}
	if n < 2 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(n))))
}

type SwissGenerator struct{}

func NewSwissGenerator() Generator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) Name() string {
	return "swiss"
}

// Generate emits only the first round: the top half of the seed order
// against the bottom half. Later rounds depend on cumulative scores and are
// paired on demand by SwissPairer as each round completes. An odd field
// leaves the lowest-seeded participant idle for the round.
func (g *SwissGenerator) Generate(ctx context.Context, params GenerateParams) ([]*BracketMatch, error) {
	ordered := orderBySeed(params.Participants)
	n := len(ordered)
	if n < 2 {
		return nil, errors.New("swiss requires at least 2 participants")
	}

	half := n / 2
	matches := make([]*BracketMatch, 0, half)
	for i := 0; i < half; i++ {
		p1 := ordered[i].ID
		p2 := ordered[i+half].ID
		matches = append(matches, &BracketMatch{
			UID:            fmt.Sprintf("S-R1M%d", i+1),
			Round:          1,
			OrderInRound:   i + 1,
			Side:           models.SideWinners,
			Participant1ID: &p1,
			Participant2ID: &p2,
		})
	}
	return matches, nil
}

// SwissScore is a participant's cumulative score going into a pairing.
type SwissScore struct {
	ParticipantID int
	Points        int
}

// SwissPairer pairs one subsequent swiss round. Participants are ranked by
// cumulative points; each takes the nearest-ranked opponent they have not
// met yet, falling back to a repeat pairing when every remaining opponent
// has been played. An odd field leaves the lowest-ranked unpaired
// participant idle for the round.
type SwissPairer struct{}

// PairKey normalizes a pairing for repeat detection.
func PairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func (p *SwissPairer) PairRound(round int, scores []SwissScore, played map[[2]int]bool) ([]*BracketMatch, error) {
	if round < 2 {
		return nil, errors.New("swiss pairer handles rounds after the first")
	}

	ranked := make([]SwissScore, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Points != ranked[j].Points {
			return ranked[i].Points > ranked[j].Points
		}
		return ranked[i].ParticipantID < ranked[j].ParticipantID
	})

	paired := make([]bool, len(ranked))
	matches := make([]*BracketMatch, 0, len(ranked)/2)
	order := 0

	for i := range ranked {
		if paired[i] {
			continue
		}

		opponent := -1
		for j := i + 1; j < len(ranked); j++ {
			if !paired[j] && !played[PairKey(ranked[i].ParticipantID, ranked[j].ParticipantID)] {
				opponent = j
				break
			}
		}
		if opponent == -1 {
			// Every remaining opponent has been met; allow the repeat
			// against the nearest-ranked one.
			for j := i + 1; j < len(ranked); j++ {
				if !paired[j] {
					opponent = j
					break
				}
			}
		}
		if opponent == -1 {
			break // odd participant out, idle this round
		}

		paired[i], paired[opponent] = true, true
		order++
		p1 := ranked[i].ParticipantID
		p2 := ranked[opponent].ParticipantID
		matches = append(matches, &BracketMatch{
			UID:            fmt.Sprintf("S-R%dM%d", round, order),
			Round:          round,
			OrderInRound:   order,
			Side:           models.SideWinners,
			Participant1ID: &p1,
			Participant2ID: &p2,
		})
	}

	return matches, nil
}
