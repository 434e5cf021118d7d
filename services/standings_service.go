package services

import (
	"context"
	"sort"

	"github.com/compevent/compete-system/models"
	"github.com/compevent/compete-system/repositories"
)

// ScoringConfig is the points scheme applied to completed matches.
type ScoringConfig struct {
	Win  int
	Draw int
	Loss int
}

// DefaultScoring is the standard 3/1/0 scheme.
var DefaultScoring = ScoringConfig{Win: 3, Draw: 1, Loss: 0}

// StandingsService derives the ranking table from completed matches. It is
// a pure read-side computation: nothing is persisted, so recomputing after
// no new results always yields the identical table.
type StandingsService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	scoring         ScoringConfig
}

func NewStandingsService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	scoring ScoringConfig,
) *StandingsService {
	if scoring == (ScoringConfig{}) {
		scoring = DefaultScoring
	}
	return &StandingsService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		scoring:         scoring,
	}
}

// Compute builds the current standings for a tournament. Ordering: points
// descending, then score difference, then head-to-head result, then
// participant id for a stable total order. In elimination formats the
// furthest round reached outranks points.
func (s *StandingsService) Compute(ctx context.Context, tournamentID int) ([]models.Standing, error) {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}

	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID, nil)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, repositories.ListMatchesFilter{})
	if err != nil {
		return nil, err
	}

	return s.compute(t, participants, matches), nil
}

func (s *StandingsService) compute(t *models.Tournament, participants []*models.Participant, matches []*models.Match) []models.Standing {
	rows := make(map[int]*models.Standing)
	for _, p := range participants {
		if p.Status == models.ParticipantWithdrawn {
			// Withdrew before closure, never entered the bracket.
			continue
		}
		rows[p.ID] = &models.Standing{ParticipantID: p.ID, UserID: p.UserID}
	}

	// headToHead[a][b] > 0 means a beat b more often than the reverse.
	headToHead := make(map[int]map[int]int)
	recordH2H := func(winner, loser int) {
		if headToHead[winner] == nil {
			headToHead[winner] = make(map[int]int)
		}
		if headToHead[loser] == nil {
			headToHead[loser] = make(map[int]int)
		}
		headToHead[winner][loser]++
		headToHead[loser][winner]--
	}

	for _, m := range matches {
		// Appearing in a match advances elimination depth even before the
		// match resolves; byes are encoded as depth, not as matches.
		if t.Format.IsElimination() {
			depth := eliminationDepth(t.Format, m)
			for _, pid := range []*int{m.P1ParticipantID, m.P2ParticipantID} {
				if pid == nil {
					continue
				}
				if row, ok := rows[*pid]; ok && depth > row.DepthReached {
					row.DepthReached = depth
				}
			}
		}

		if m.Status != models.MatchCompleted || !m.SlotsFilled() || m.ScoreP1 == nil || m.ScoreP2 == nil {
			continue
		}

		p1, p2 := rows[*m.P1ParticipantID], rows[*m.P2ParticipantID]
		if p1 == nil || p2 == nil {
			continue
		}

		p1.Played++
		p2.Played++
		p1.ScoreFor += *m.ScoreP1
		p1.ScoreAgainst += *m.ScoreP2
		p2.ScoreFor += *m.ScoreP2
		p2.ScoreAgainst += *m.ScoreP1

		switch {
		case m.IsDraw:
			p1.Draws++
			p2.Draws++
			p1.Points += s.scoring.Draw
			p2.Points += s.scoring.Draw
		case m.WinnerID != nil && *m.WinnerID == p1.ParticipantID:
			p1.Wins++
			p2.Losses++
			p1.Points += s.scoring.Win
			p2.Points += s.scoring.Loss
			recordH2H(p1.ParticipantID, p2.ParticipantID)
		case m.WinnerID != nil && *m.WinnerID == p2.ParticipantID:
			p2.Wins++
			p1.Losses++
			p2.Points += s.scoring.Win
			p1.Points += s.scoring.Loss
			recordH2H(p2.ParticipantID, p1.ParticipantID)
		}
	}

	standings := make([]models.Standing, 0, len(rows))
	for _, row := range rows {
		row.ScoreDifference = row.ScoreFor - row.ScoreAgainst
		standings = append(standings, *row)
	}

	elimination := t.Format.IsElimination()
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if elimination && a.DepthReached != b.DepthReached {
			return a.DepthReached > b.DepthReached
		}
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.ScoreDifference != b.ScoreDifference {
			return a.ScoreDifference > b.ScoreDifference
		}
		if h2h := headToHead[a.ParticipantID][b.ParticipantID]; h2h != 0 {
			return h2h > 0
		}
		return a.ParticipantID < b.ParticipantID
	})

	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

// eliminationDepth collapses bracket sides into one comparable scale.
// Winners rounds count double so that surviving in the winners bracket
// always outranks the losers round fed by that same winners round; the
// grand final sits above everything.
func eliminationDepth(format models.TournamentFormat, m *models.Match) int {
	if format == models.FormatSingleElimination {
		return m.Round
	}
	switch m.Side {
	case models.SideWinners:
		return 2 * m.Round
	case models.SideLosers:
		return m.Round + 1
	case models.SideGrandFinal:
		return 1000 + m.Round
	}
	return m.Round
}
