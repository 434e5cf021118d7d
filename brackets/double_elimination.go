package brackets

import (
	"context"
	"errors"
	"fmt"

	"github.com/compevent/compete-system/models"
)

// lbNode is one feed into a losers-bracket slot. It either awaits the loser
// of a winners-bracket match, the winner of an earlier losers-bracket match,
// or nothing at all (a phantom left behind by a first-round bye).
type lbNode struct {
	loserSourceUID  *string
	winnerSourceUID *string
	phantom         bool
}

type DoubleEliminationGenerator struct{}

func NewDoubleEliminationGenerator() Generator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) Name() string {
	return "double_elimination"
}

// Generate builds a winners bracket, a losers bracket fed by winners-bracket
// losers, and a grand final pair. First-round losers meet in losers round 1;
// the loser of winners round r (r >= 2) enters losers round 2(r-1). The
// second grand-final match is a reset placeholder, activated only when the
// losers-bracket finalist takes the first grand final.
func (g *DoubleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]*BracketMatch, error) {
	n := len(params.Participants)
	if n < 2 {
		return nil, errors.New("double elimination requires at least 2 participants")
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

	matches := make([]*BracketMatch, 0, 2*bracketSize)

	// Winners bracket. Identical walk to single elimination, but every
	// pairing also records where its loser goes: a real match contributes a
	// loser feed, a bye contributes a phantom.
	loserFeeds := make([][]*lbNode, numRounds+1)
	current := slots
	var wbFinalUID string

	for r := 1; r <= numRounds; r++ {
		next := make([]*node, 0, len(current)/2)
		order := 0

		for i := 0; i < len(current); i += 2 {
			a, b := current[i], current[i+1]

			switch {
			case a.isBye && b.isBye:
				return nil, fmt.Errorf("winners round %d: two byes paired", r)

			case a.isBye || b.isBye:
				real := a
				if a.isBye {
					real = b
				}
				if real.participantID == nil {
					return nil, fmt.Errorf("winners round %d: bye paired against an undetermined slot", r)
				}
				next = append(next, &node{participantID: real.participantID})
				loserFeeds[r] = append(loserFeeds[r], &lbNode{phantom: true})

			default:
				order++
				uid := fmt.Sprintf("W-R%dM%d", r, order)
				bm := &BracketMatch{
					UID:             uid,
					Round:           r,
					OrderInRound:    order,
					Side:            models.SideWinners,
					Participant1ID:  a.participantID,
					SourceMatch1UID: a.sourceMatchUID,
					Participant2ID:  b.participantID,
					SourceMatch2UID: b.sourceMatchUID,
				}
				matches = append(matches, bm)
				next = append(next, &node{sourceMatchUID: &bm.UID})
				loserFeeds[r] = append(loserFeeds[r], &lbNode{loserSourceUID: &bm.UID})
				wbFinalUID = uid
			}
		}
		current = next
	}

	// Losers bracket. Round 1 pairs winners-round-1 losers; even rounds
	// inject the losers of winners round (j/2 + 1) against the survivors;
	// odd rounds pair survivors among themselves. Phantom feeds collapse:
	// a node paired against a phantom advances without a match.
	var lbCurrent []*lbNode
	lbRounds := 0
	if numRounds >= 2 {
		lbRounds = 2 * (numRounds - 1)
	}

	for j := 1; j <= lbRounds; j++ {
		var feeds []*lbNode
		switch {
		case j == 1:
			feeds = loserFeeds[1]
		case j%2 == 0:
			wbLosers := loserFeeds[j/2+1]
			if len(wbLosers) != len(lbCurrent) {
				return nil, fmt.Errorf("losers round %d: %d survivors vs %d winners-bracket losers", j, len(lbCurrent), len(wbLosers))
			}
			feeds = make([]*lbNode, 0, len(wbLosers)*2)
			for i := range wbLosers {
				feeds = append(feeds, wbLosers[i], lbCurrent[i])
			}
		default:
			feeds = lbCurrent
		}

		next := make([]*lbNode, 0, len(feeds)/2)
		order := 0
		for i := 0; i < len(feeds); i += 2 {
			a, b := feeds[i], feeds[i+1]

			switch {
			case a.phantom && b.phantom:
				next = append(next, &lbNode{phantom: true})

			case a.phantom || b.phantom:
				real := a
				if a.phantom {
					real = b
				}
				next = append(next, real)

			default:
				order++
				uid := fmt.Sprintf("L-R%dM%d", j, order)
				bm := &BracketMatch{
					UID:          uid,
					Round:        j,
					OrderInRound: order,
					Side:         models.SideLosers,
				}
				bm.SourceMatch1UID, bm.LoserSource1UID = lbNodeSources(a)
				bm.SourceMatch2UID, bm.LoserSource2UID = lbNodeSources(b)
				matches = append(matches, bm)
				next = append(next, &lbNode{winnerSourceUID: &bm.UID})
			}
		}
		lbCurrent = next
	}

	// Grand final: winners-bracket champion against whoever survives the
	// losers bracket. With only two entrants there is no losers bracket and
	// the first final's loser gets the rematch directly.
	lbChampion := &lbNode{loserSourceUID: &wbFinalUID}
	if lbRounds > 0 {
		if len(lbCurrent) != 1 {
			return nil, fmt.Errorf("losers bracket did not converge (got %d nodes)", len(lbCurrent))
		}
		lbChampion = lbCurrent[0]
		if lbChampion.phantom {
			return nil, errors.New("losers bracket collapsed to a phantom feed")
		}
	}

	gf1 := &BracketMatch{
		UID:             "GF-M1",
		Round:           1,
		OrderInRound:    1,
		Side:            models.SideGrandFinal,
		SourceMatch1UID: &wbFinalUID,
	}
	gf1.SourceMatch2UID, gf1.LoserSource2UID = lbNodeSources(lbChampion)

	// Reset match: slots are filled by the match state machine only when
	// the losers-bracket finalist wins GF-M1, so no static linkage here.
	gf2 := &BracketMatch{
		UID:          "GF-M2",
		Round:        2,
		OrderInRound: 1,
		Side:         models.SideGrandFinal,
	}

	matches = append(matches, gf1, gf2)
	return matches, nil
}

func lbNodeSources(n *lbNode) (winnerSource, loserSource *string) {
	return n.winnerSourceUID, n.loserSourceUID
}
