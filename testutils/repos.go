// Package testutils provides in-memory repository fakes backing the service
// tests. All methods are safe for concurrent use so concurrency-sensitive
// paths (registration capacity, closure) can be exercised without postgres.
package testutils

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/compevent/compete-system/models"
	"github.com/compevent/compete-system/repositories"
)

type FakeTournamentRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]*models.Tournament
}

func NewFakeTournamentRepo() *FakeTournamentRepo {
	return &FakeTournamentRepo{nextID: 1, rows: make(map[int]*models.Tournament)}
}

// Seed inserts a tournament directly, bypassing validation.
func (r *FakeTournamentRepo) Seed(t *models.Tournament) *models.Tournament {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == 0 {
		t.ID = r.nextID
		r.nextID++
	} else if t.ID >= r.nextID {
		r.nextID = t.ID + 1
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	clone := *t
	r.rows[t.ID] = &clone
	return t
}

func (r *FakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.OrganizerID == t.OrganizerID && existing.Name == t.Name {
			return repositories.ErrTournamentNameConflict
		}
	}
	t.ID = r.nextID
	r.nextID++
	t.CreatedAt = time.Now()
	clone := *t
	r.rows[t.ID] = &clone
	return nil
}

func (r *FakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *FakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]models.Tournament, 0)
	for _, t := range r.rows {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Format != nil && t.Format != *filter.Format {
			continue
		}
		if filter.OrganizerID != nil && t.OrganizerID != *filter.OrganizerID {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *FakeTournamentRepo) Update(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.rows[t.ID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	current.Name = t.Name
	current.Description = t.Description
	current.MinParticipants = t.MinParticipants
	current.MaxParticipants = t.MaxParticipants
	current.MinLevel = t.MinLevel
	current.MaxLevel = t.MaxLevel
	current.EntryFee = t.EntryFee
	current.RegistrationDeadline = t.RegistrationDeadline
	current.StartTime = t.StartTime
	return nil
}

func (r *FakeTournamentRepo) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *FakeTournamentRepo) CompareAndSwapStatus(ctx context.Context, exec repositories.SQLExecutor, id int, from, to models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok || t.Status != from {
		return repositories.ErrTournamentStatusConflict
	}
	t.Status = to
	return nil
}

func (r *FakeTournamentRepo) SetWinner(ctx context.Context, exec repositories.SQLExecutor, id int, winnerParticipantID *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.WinnerParticipantID = winnerParticipantID
	return nil
}

func (r *FakeTournamentRepo) SetSwissRounds(ctx context.Context, id int, rounds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.SwissRounds = &rounds
	return nil
}

func (r *FakeTournamentRepo) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.LogoKey = logoKey
	return nil
}

func (r *FakeTournamentRepo) ListDueForClosure(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	due := make([]*models.Tournament, 0)
	for _, t := range r.rows {
		if t.Status == models.StatusRegistration && !t.RegistrationDeadline.After(now) {
			clone := *t
			due = append(due, &clone)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

type FakeParticipantRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]*models.Participant
}

func NewFakeParticipantRepo() *FakeParticipantRepo {
	return &FakeParticipantRepo{nextID: 1, rows: make(map[int]*models.Participant)}
}

func (r *FakeParticipantRepo) Seed(p *models.Participant) *models.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	} else if p.ID >= r.nextID {
		r.nextID = p.ID + 1
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.Status == "" {
		p.Status = models.ParticipantRegistered
	}
	clone := *p
	r.rows[p.ID] = &clone
	return p
}

func (r *FakeParticipantRepo) Create(ctx context.Context, p *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.TournamentID == p.TournamentID && existing.UserID == p.UserID {
			return repositories.ErrParticipantConflict
		}
	}
	p.ID = r.nextID
	r.nextID++
	p.CreatedAt = time.Now()
	clone := *p
	r.rows[p.ID] = &clone
	return nil
}

func (r *FakeParticipantRepo) FindByID(ctx context.Context, id int) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *FakeParticipantRepo) FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.UserID == userID && p.TournamentID == tournamentID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *FakeParticipantRepo) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.ParticipantStatus) ([]*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.Participant, 0)
	for _, p := range r.rows {
		if p.TournamentID != tournamentID {
			continue
		}
		if statusFilter != nil && p.Status != *statusFilter {
			continue
		}
		clone := *p
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *FakeParticipantRepo) UpdateStatus(ctx context.Context, id int, status models.ParticipantStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Status = status
	return nil
}

func (r *FakeParticipantRepo) Reactivate(ctx context.Context, id int, level int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok || p.Status != models.ParticipantWithdrawn {
		return repositories.ErrParticipantNotFound
	}
	p.Status = models.ParticipantRegistered
	p.Level = level
	p.CreatedAt = time.Now()
	return nil
}

func (r *FakeParticipantRepo) UpdateSeed(ctx context.Context, id int, seed *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Seed = seed
	return nil
}

func (r *FakeParticipantRepo) CountActive(ctx context.Context, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, p := range r.rows {
		if p.TournamentID == tournamentID && p.Status == models.ParticipantRegistered {
			count++
		}
	}
	return count, nil
}

type FakeMatchRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]*models.Match
}

func NewFakeMatchRepo() *FakeMatchRepo {
	return &FakeMatchRepo{nextID: 1, rows: make(map[int]*models.Match)}
}

func (r *FakeMatchRepo) CreateBatch(ctx context.Context, matches []*models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range matches {
		m.ID = r.nextID
		r.nextID++
		clone := *m
		r.rows[m.ID] = &clone
	}
	return nil
}

func (r *FakeMatchRepo) UpdateLinks(ctx context.Context, exec repositories.SQLExecutor, id int, nextMatchID, winnerToSlot, loserNextMatchID, loserToSlot *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.NextMatchID = nextMatchID
	m.WinnerToSlot = winnerToSlot
	m.LoserNextMatchID = loserNextMatchID
	m.LoserToSlot = loserToSlot
	return nil
}

func (r *FakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *FakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int, filter repositories.ListMatchesFilter) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.Match, 0)
	for _, m := range r.rows {
		if m.TournamentID != tournamentID {
			continue
		}
		if filter.Round != nil && m.Round != *filter.Round {
			continue
		}
		if filter.Side != nil && m.Side != *filter.Side {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		clone := *m
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Side != result[j].Side {
			return result[i].Side < result[j].Side
		}
		if result[i].Round != result[j].Round {
			return result[i].Round < result[j].Round
		}
		return result[i].OrderInRound < result[j].OrderInRound
	})
	return result, nil
}

func (r *FakeMatchRepo) TransitionStatus(ctx context.Context, id int, from, to models.MatchStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok || m.Status != from {
		return repositories.ErrMatchStateConflict
	}
	m.Status = to
	return nil
}

func (r *FakeMatchRepo) Complete(ctx context.Context, id int, scoreP1, scoreP2 int, winnerID *int, isDraw bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok || m.Status != models.MatchInProgress {
		return repositories.ErrMatchStateConflict
	}
	m.ScoreP1, m.ScoreP2 = &scoreP1, &scoreP2
	m.WinnerID = winnerID
	m.IsDraw = isDraw
	m.Status = models.MatchCompleted
	return nil
}

func (r *FakeMatchRepo) FillSlot(ctx context.Context, id int, slot int, participantID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	switch slot {
	case 1:
		if m.P1ParticipantID != nil {
			return repositories.ErrMatchSlotOccupied
		}
		m.P1ParticipantID = &participantID
	case 2:
		if m.P2ParticipantID != nil {
			return repositories.ErrMatchSlotOccupied
		}
		m.P2ParticipantID = &participantID
	default:
		return repositories.ErrMatchSlotOccupied
	}
	return nil
}

func (r *FakeMatchRepo) ScheduleIfReady(ctx context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return false, repositories.ErrMatchNotFound
	}
	if m.Status == models.MatchPending && m.P1ParticipantID != nil && m.P2ParticipantID != nil {
		m.Status = models.MatchScheduled
		return true, nil
	}
	return false, nil
}

func (r *FakeMatchRepo) SetParticipants(ctx context.Context, id int, p1ParticipantID, p2ParticipantID *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.P1ParticipantID = p1ParticipantID
	m.P2ParticipantID = p2ParticipantID
	return nil
}

func (r *FakeMatchRepo) CancelUnresolvedByTournament(ctx context.Context, tournamentID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.TournamentID == tournamentID && !m.Status.IsResolved() {
			m.Status = models.MatchCanceled
		}
	}
	return nil
}

func (r *FakeMatchRepo) CountUnresolvedByTournament(ctx context.Context, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.rows {
		if m.TournamentID == tournamentID && !m.Status.IsResolved() {
			count++
		}
	}
	return count, nil
}
