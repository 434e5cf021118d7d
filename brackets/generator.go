package brackets

import (
	"context"
	"fmt"

	"github.com/compevent/compete-system/models"
)

// BracketMatch is the generator's persistence-agnostic output record.
// Round-linkage is expressed through UIDs; the bracket service resolves
// them to database ids after the matches are stored.
type BracketMatch struct {
	UID          string
	Round        int
	OrderInRound int
	Side         models.BracketSide

	Participant1ID *int
	Participant2ID *int

	// Winner of the referenced match fills the corresponding slot.
	SourceMatch1UID *string
	SourceMatch2UID *string

	// Loser of the referenced match fills the corresponding slot
	// (double-elimination only).
	LoserSource1UID *string
	LoserSource2UID *string
}

type GenerateParams struct {
	Tournament   *models.Tournament
	Participants []*models.Participant
}

// Generator produces the full initial match set for one tournament format.
// Generation happens exactly once, at registration closure; the output is
// immutable afterwards.
type Generator interface {
	Generate(ctx context.Context, params GenerateParams) ([]*BracketMatch, error)

	Name() string
}

// ForFormat selects the generator for a declared tournament format.
func ForFormat(format models.TournamentFormat) (Generator, error) {
	switch format {
	case models.FormatSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.FormatDoubleElimination:
		return NewDoubleEliminationGenerator(), nil
	case models.FormatRoundRobin:
		return NewRoundRobinGenerator(), nil
	case models.FormatSwiss:
		return NewSwissGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported tournament format %q", format)
	}
}
