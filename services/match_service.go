package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/compevent/compete-system/brackets"
	"github.com/compevent/compete-system/metrics"
	"github.com/compevent/compete-system/models"
	"github.com/compevent/compete-system/realtime"
	"github.com/compevent/compete-system/repositories"
)

// MatchService runs the match state machine and everything downstream of a
// result: winner and loser propagation through the bracket links, the grand
// final reset, on-demand swiss rounds, and tournament completion. Result
// submission runs under the tournament lock so propagation is serialized
// per tournament.
type MatchService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	standings      *StandingsService
	pairer         brackets.SwissPairer
	hub            *realtime.Hub
	locks          *TournamentLocks
	logger         *slog.Logger
}

func NewMatchService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	standings *StandingsService,
	hub *realtime.Hub,
	locks *TournamentLocks,
	logger *slog.Logger,
) *MatchService {
	return &MatchService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		standings:      standings,
		hub:            hub,
		locks:          locks,
		logger:         logger,
	}
}

func (s *MatchService) broadcast(tournamentID int, event string, payload interface{}) {
	if s.hub != nil {
		s.hub.Broadcast(tournamentID, event, payload)
	}
}

func (s *MatchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *MatchService) ListMatches(ctx context.Context, tournamentID int, filter repositories.ListMatchesFilter) ([]*models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, mapTournamentRepoError(err)
	}
	return s.matchRepo.ListByTournament(ctx, tournamentID, filter)
}

// Start moves a scheduled match with both slots filled into in_progress.
func (s *MatchService) Start(ctx context.Context, id int) (*models.Match, error) {
	m, err := s.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MatchScheduled {
		return nil, ErrMatchNotStartable
	}
	if !m.SlotsFilled() {
		return nil, ErrMatchSlotsUnfilled
	}

	err = s.matchRepo.TransitionStatus(ctx, id, models.MatchScheduled, models.MatchInProgress)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchStateConflict) {
			return nil, ErrMatchNotStartable
		}
		return nil, err
	}

	m.Status = models.MatchInProgress
	s.broadcast(m.TournamentID, realtime.EventMatchUpdated, m)
	return m, nil
}

// Cancel voids an unresolved match, including one already in progress.
// Nothing propagates: no winner is recorded and linked slots stay empty.
// Completed and already canceled matches are final.
func (s *MatchService) Cancel(ctx context.Context, id int) (*models.Match, error) {
	m, err := s.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status.IsResolved() {
		return nil, ErrMatchNotCancelable
	}

	err = s.matchRepo.TransitionStatus(ctx, id, m.Status, models.MatchCanceled)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchStateConflict) {
			return nil, ErrMatchNotCancelable
		}
		return nil, err
	}

	m.Status = models.MatchCanceled
	s.broadcast(m.TournamentID, realtime.EventMatchUpdated, m)
	return m, nil
}

// SubmitResult records the outcome of an in-progress match and drives every
// consequence: slot fills on linked matches, the double-elimination grand
// final reset, swiss pairing of the next round, and tournament completion
// when the last playable match resolves.
func (s *MatchService) SubmitResult(ctx context.Context, id int, scoreP1, scoreP2 int) (*models.Match, error) {
	m, err := s.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(m.TournamentID)
	defer unlock()

	// Re-read under the lock; a concurrent submission may have resolved it.
	m, err = s.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}

	t, err := s.tournamentRepo.GetByID(ctx, m.TournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}

	if scoreP1 < 0 || scoreP2 < 0 {
		return nil, ErrMatchInvalidScore
	}
	if m.Status != models.MatchInProgress {
		return nil, ErrMatchNotInProgress
	}
	if !m.SlotsFilled() {
		return nil, ErrMatchSlotsUnfilled
	}

	isDraw := scoreP1 == scoreP2
	if isDraw && t.Format.IsElimination() {
		return nil, ErrMatchDrawNotAllowed
	}

	var winnerID, loserID *int
	if !isDraw {
		if scoreP1 > scoreP2 {
			winnerID, loserID = m.P1ParticipantID, m.P2ParticipantID
		} else {
			winnerID, loserID = m.P2ParticipantID, m.P1ParticipantID
		}
	}

	if err := s.matchRepo.Complete(ctx, id, scoreP1, scoreP2, winnerID, isDraw); err != nil {
		if errors.Is(err, repositories.ErrMatchStateConflict) {
			return nil, ErrMatchNotInProgress
		}
		return nil, err
	}

	m.ScoreP1, m.ScoreP2 = &scoreP1, &scoreP2
	m.WinnerID = winnerID
	m.IsDraw = isDraw
	m.Status = models.MatchCompleted

	metrics.MatchesCompleted.WithLabelValues(string(t.Format)).Inc()
	s.logger.Info("match completed",
		slog.Int("tournament_id", m.TournamentID),
		slog.Int("match_id", m.ID),
		slog.String("bracket_uid", m.BracketUID),
	)

	if err := s.propagate(ctx, t, m, winnerID, loserID); err != nil {
		return nil, err
	}

	if t.Format == models.FormatSwiss {
		if err := s.maybePairNextSwissRound(ctx, t, m.Round); err != nil {
			return nil, err
		}
	}

	if err := s.maybeCompleteTournament(ctx, t, m); err != nil {
		return nil, err
	}

	s.broadcast(m.TournamentID, realtime.EventMatchUpdated, m)
	s.broadcast(m.TournamentID, realtime.EventStandingsUpdated, map[string]interface{}{
		"tournament_id": m.TournamentID,
	})
	return m, nil
}

// propagate routes the winner and, in double elimination, the loser through
// the static links, and handles the grand final pair of matches which carry
// no static linkage.
func (s *MatchService) propagate(ctx context.Context, t *models.Tournament, m *models.Match, winnerID, loserID *int) error {
	if winnerID != nil && m.NextMatchID != nil && m.WinnerToSlot != nil {
		if err := s.advance(ctx, m.TournamentID, *m.NextMatchID, *m.WinnerToSlot, *winnerID); err != nil {
			return fmt.Errorf("failed to advance winner of match %d: %w", m.ID, err)
		}
	}
	if loserID != nil && m.LoserNextMatchID != nil && m.LoserToSlot != nil {
		if err := s.advance(ctx, m.TournamentID, *m.LoserNextMatchID, *m.LoserToSlot, *loserID); err != nil {
			return fmt.Errorf("failed to route loser of match %d: %w", m.ID, err)
		}
	}

	if m.Side == models.SideGrandFinal && m.Round == 1 {
		return s.resolveGrandFinal(ctx, t, m, winnerID)
	}
	return nil
}

func (s *MatchService) advance(ctx context.Context, tournamentID, matchID, slot, participantID int) error {
	if err := s.matchRepo.FillSlot(ctx, matchID, slot, participantID); err != nil {
		return err
	}
	scheduled, err := s.matchRepo.ScheduleIfReady(ctx, matchID)
	if err != nil {
		return err
	}
	if scheduled {
		if next, err := s.matchRepo.GetByID(ctx, matchID); err == nil {
			s.broadcast(tournamentID, realtime.EventMatchUpdated, next)
		}
	}
	return nil
}

// resolveGrandFinal decides the bracket reset after the first grand final.
// Slot 2 holds the losers-bracket champion; if they beat the
// winners-bracket champion the reset match is armed with the same pairing,
// otherwise it is voided and the tournament heads to completion.
func (s *MatchService) resolveGrandFinal(ctx context.Context, t *models.Tournament, m *models.Match, winnerID *int) error {
	side := models.SideGrandFinal
	round := 2
	resets, err := s.matchRepo.ListByTournament(ctx, m.TournamentID, repositories.ListMatchesFilter{
		Side:  &side,
		Round: &round,
	})
	if err != nil {
		return err
	}
	if len(resets) == 0 {
		return nil
	}
	reset := resets[0]

	lbChampionWon := winnerID != nil && m.P2ParticipantID != nil && *winnerID == *m.P2ParticipantID
	if !lbChampionWon {
		return s.matchRepo.TransitionStatus(ctx, reset.ID, models.MatchPending, models.MatchCanceled)
	}

	if err := s.matchRepo.SetParticipants(ctx, reset.ID, m.P1ParticipantID, m.P2ParticipantID); err != nil {
		return err
	}
	if _, err := s.matchRepo.ScheduleIfReady(ctx, reset.ID); err != nil {
		return err
	}
	s.logger.Info("grand final reset armed",
		slog.Int("tournament_id", m.TournamentID),
		slog.Int("match_id", reset.ID),
	)
	return nil
}

// maybePairNextSwissRound creates round r+1 once every match of round r has
// resolved and the declared round count is not yet exhausted. Pairing is by
// cumulative points with repeat avoidance.
func (s *MatchService) maybePairNextSwissRound(ctx context.Context, t *models.Tournament, round int) error {
	if t.SwissRounds == nil || round >= *t.SwissRounds {
		return nil
	}

	matches, err := s.matchRepo.ListByTournament(ctx, t.ID, repositories.ListMatchesFilter{})
	if err != nil {
		return err
	}
	for _, m := range matches {
		if m.Round == round && !m.Status.IsResolved() {
			return nil
		}
	}

	standings, err := s.standings.Compute(ctx, t.ID)
	if err != nil {
		return err
	}
	scores := make([]brackets.SwissScore, 0, len(standings))
	for _, row := range standings {
		scores = append(scores, brackets.SwissScore{
			ParticipantID: row.ParticipantID,
			Points:        row.Points,
		})
	}

	played := make(map[[2]int]bool)
	for _, m := range matches {
		if m.SlotsFilled() {
			played[brackets.PairKey(*m.P1ParticipantID, *m.P2ParticipantID)] = true
		}
	}

	generated, err := s.pairer.PairRound(round+1, scores, played)
	if err != nil {
		return fmt.Errorf("failed to pair swiss round %d for tournament %d: %w", round+1, t.ID, err)
	}

	matchTime := defaultMatchTime(t, time.Now())
	records := make([]*models.Match, 0, len(generated))
	for _, bm := range generated {
		records = append(records, &models.Match{
			TournamentID:    t.ID,
			Round:           bm.Round,
			OrderInRound:    bm.OrderInRound,
			Side:            bm.Side,
			BracketUID:      bm.UID,
			P1ParticipantID: bm.Participant1ID,
			P2ParticipantID: bm.Participant2ID,
			Status:          models.MatchScheduled,
			MatchTime:       matchTime,
		})
	}
	if err := s.matchRepo.CreateBatch(ctx, records); err != nil {
		return fmt.Errorf("failed to store swiss round %d: %w", round+1, err)
	}

	s.logger.Info("swiss round paired",
		slog.Int("tournament_id", t.ID),
		slog.Int("round", round+1),
		slog.Int("matches", len(records)),
	)
	s.broadcast(t.ID, realtime.EventBracketGenerated, map[string]interface{}{
		"tournament_id": t.ID,
		"round":         round + 1,
	})
	return nil
}

// maybeCompleteTournament finishes the tournament once no unresolved match
// remains and no further round will be created. The champion is the winner
// of the deciding match in elimination formats and the standings leader in
// round robin and swiss.
func (s *MatchService) maybeCompleteTournament(ctx context.Context, t *models.Tournament, last *models.Match) error {
	unresolved, err := s.matchRepo.CountUnresolvedByTournament(ctx, t.ID)
	if err != nil {
		return err
	}
	if unresolved > 0 {
		return nil
	}
	if t.Format == models.FormatSwiss && t.SwissRounds != nil && last.Round < *t.SwissRounds {
		// The declared round count is authoritative; the next round is
		// still owed even if nothing is unresolved right now.
		return nil
	}

	var championID *int
	if t.Format.IsElimination() {
		championID = last.WinnerID
	} else {
		standings, err := s.standings.Compute(ctx, t.ID)
		if err != nil {
			return err
		}
		if len(standings) > 0 {
			championID = &standings[0].ParticipantID
		}
	}

	if err := s.tournamentRepo.SetWinner(ctx, nil, t.ID, championID); err != nil {
		return mapTournamentRepoError(err)
	}
	err = s.tournamentRepo.CompareAndSwapStatus(ctx, nil, t.ID, models.StatusActive, models.StatusCompleted)
	if err != nil {
		return mapTournamentRepoError(err)
	}

	metrics.TournamentsCompleted.WithLabelValues(string(models.StatusCompleted)).Inc()
	s.logger.Info("tournament completed",
		slog.Int("tournament_id", t.ID),
		slog.Any("champion_participant_id", championID),
	)
	s.broadcast(t.ID, realtime.EventTournamentUpdated, map[string]interface{}{
		"tournament_id":         t.ID,
		"status":                models.StatusCompleted,
		"winner_participant_id": championID,
	})
	return nil
}
