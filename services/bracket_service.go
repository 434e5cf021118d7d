package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/compevent/compete-system/brackets"
	"github.com/compevent/compete-system/metrics"
	"github.com/compevent/compete-system/models"
	"github.com/compevent/compete-system/repositories"
	"golang.org/x/sync/errgroup"
)

// BracketService persists generated brackets and assembles the read-side
// bracket snapshot. Generation is driven by TournamentService, exactly once
// per tournament, guarded by the closure status swap.
type BracketService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	logger          *slog.Logger
}

func NewBracketService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	logger *slog.Logger,
) *BracketService {
	return &BracketService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		logger:          logger,
	}
}

// GenerateAndSave runs the format's generator over the final participant
// list and stores the result: first every match record, then a second pass
// resolving UID round-linkage into database ids.
func (s *BracketService) GenerateAndSave(ctx context.Context, tournament *models.Tournament, participants []*models.Participant) error {
	generator, err := brackets.ForFormat(tournament.Format)
	if err != nil {
		return fmt.Errorf("bracket generation for tournament %d: %w", tournament.ID, err)
	}

	generated, err := generator.Generate(ctx, brackets.GenerateParams{
		Tournament:   tournament,
		Participants: participants,
	})
	if err != nil {
		return fmt.Errorf("failed to generate %s bracket for tournament %d: %w", generator.Name(), tournament.ID, err)
	}

	matchTime := defaultMatchTime(tournament, time.Now())
	records := make([]*models.Match, 0, len(generated))
	byUID := make(map[string]*models.Match, len(generated))

	for _, bm := range generated {
		status := models.MatchPending
		if bm.Participant1ID != nil && bm.Participant2ID != nil {
			status = models.MatchScheduled
		}
		m := &models.Match{
			TournamentID:    tournament.ID,
			Round:           bm.Round,
			OrderInRound:    bm.OrderInRound,
			Side:            bm.Side,
			BracketUID:      bm.UID,
			P1ParticipantID: bm.Participant1ID,
			P2ParticipantID: bm.Participant2ID,
			Status:          status,
			MatchTime:       matchTime,
		}
		records = append(records, m)
		byUID[bm.UID] = m
	}

	if err := s.matchRepo.CreateBatch(ctx, records); err != nil {
		return fmt.Errorf("failed to store bracket for tournament %d: %w", tournament.ID, err)
	}

	// Second pass: each generated match knows which matches feed it; invert
	// that into winner/loser forward links on the feeding matches.
	type link struct {
		nextMatchID, winnerToSlot     *int
		loserNextMatchID, loserToSlot *int
	}
	links := make(map[string]*link)
	getLink := func(uid string) *link {
		l, ok := links[uid]
		if !ok {
			l = &link{}
			links[uid] = l
		}
		return l
	}

	for _, target := range generated {
		targetID := byUID[target.UID].ID
		slots := []struct {
			winnerSource *string
			loserSource  *string
			slot         int
		}{
			{target.SourceMatch1UID, target.LoserSource1UID, 1},
			{target.SourceMatch2UID, target.LoserSource2UID, 2},
		}
		for _, sl := range slots {
			slot := sl.slot
			if sl.winnerSource != nil {
				l := getLink(*sl.winnerSource)
				l.nextMatchID = &targetID
				l.winnerToSlot = &slot
			}
			if sl.loserSource != nil {
				l := getLink(*sl.loserSource)
				l.loserNextMatchID = &targetID
				l.loserToSlot = &slot
			}
		}
	}

	for uid, l := range links {
		source, ok := byUID[uid]
		if !ok {
			return fmt.Errorf("bracket linkage references unknown match UID %s", uid)
		}
		err := s.matchRepo.UpdateLinks(ctx, nil, source.ID,
			l.nextMatchID, l.winnerToSlot, l.loserNextMatchID, l.loserToSlot)
		if err != nil {
			return fmt.Errorf("failed to link match %s: %w", uid, err)
		}
	}

	if tournament.Format == models.FormatSwiss {
		rounds := brackets.SwissRoundCount(len(participants), tournament.SwissRounds)
		if err := s.tournamentRepo.SetSwissRounds(ctx, tournament.ID, rounds); err != nil {
			return mapTournamentRepoError(err)
		}
	}

	metrics.BracketsGenerated.WithLabelValues(string(tournament.Format)).Inc()
	s.logger.Info("bracket generated",
		slog.Int("tournament_id", tournament.ID),
		slog.String("format", string(tournament.Format)),
		slog.Int("matches", len(records)),
	)
	return nil
}

// Snapshot assembles the ordered rounds view plus the participant list,
// fetching both in parallel.
func (s *BracketService) Snapshot(ctx context.Context, tournamentID int) (*models.BracketSnapshot, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}

	var (
		participants []*models.Participant
		matchList    []*models.Match
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		participants, err = s.participantRepo.ListByTournament(gCtx, tournamentID, nil)
		return err
	})
	g.Go(func() error {
		var err error
		matchList, err = s.matchRepo.ListByTournament(gCtx, tournamentID, repositories.ListMatchesFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to assemble bracket snapshot for tournament %d: %w", tournamentID, err)
	}

	return &models.BracketSnapshot{
		TournamentID: tournamentID,
		Format:       tournament.Format,
		Rounds:       groupIntoRounds(matchList),
		Participants: participantsToValues(participants),
	}, nil
}

var sideOrder = map[models.BracketSide]int{
	models.SideWinners:    0,
	models.SideLosers:     1,
	models.SideGrandFinal: 2,
}

func groupIntoRounds(matches []*models.Match) []models.BracketRound {
	type key struct {
		side  models.BracketSide
		round int
	}
	grouped := make(map[key][]models.Match)
	for _, m := range matches {
		k := key{m.Side, m.Round}
		grouped[k] = append(grouped[k], *m)
	}

	rounds := make([]models.BracketRound, 0, len(grouped))
	for k, ms := range grouped {
		sort.Slice(ms, func(i, j int) bool { return ms[i].OrderInRound < ms[j].OrderInRound })
		completed := true
		for _, m := range ms {
			if !m.Status.IsResolved() {
				completed = false
				break
			}
		}
		rounds = append(rounds, models.BracketRound{
			Round:     k.round,
			Side:      k.side,
			Completed: completed,
			Matches:   ms,
		})
	}

	sort.Slice(rounds, func(i, j int) bool {
		if sideOrder[rounds[i].Side] != sideOrder[rounds[j].Side] {
			return sideOrder[rounds[i].Side] < sideOrder[rounds[j].Side]
		}
		return rounds[i].Round < rounds[j].Round
	})
	return rounds
}
