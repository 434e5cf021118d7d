package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/compevent/compete-system/models"
	"github.com/compevent/compete-system/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type declineAllConfirmer struct{}

func (declineAllConfirmer) ConfirmDebit(ctx context.Context, userID int, amount int) (bool, error) {
	return false, nil
}

type registrationFixture struct {
	tournaments  *testutils.FakeTournamentRepo
	participants *testutils.FakeParticipantRepo
	service      *RegistrationService
	tournament   *models.Tournament
}

func newRegistrationFixture(t *testing.T, mutate func(*models.Tournament)) *registrationFixture {
	t.Helper()
	tournaments := testutils.NewFakeTournamentRepo()
	participants := testutils.NewFakeParticipantRepo()

	tournament := &models.Tournament{
		Name:                 "Spring Open",
		Format:               models.FormatSingleElimination,
		OrganizerID:          1,
		MinParticipants:      2,
		MaxParticipants:      8,
		MinLevel:             10,
		MaxLevel:             50,
		EntryFee:             0,
		RegistrationDeadline: time.Now().Add(time.Hour),
		StartTime:            time.Now().Add(2 * time.Hour),
		Status:               models.StatusRegistration,
	}
	if mutate != nil {
		mutate(tournament)
	}
	tournaments.Seed(tournament)

	service := NewRegistrationService(tournaments, participants, nil, nil, NewTournamentLocks(), testLogger())
	return &registrationFixture{
		tournaments:  tournaments,
		participants: participants,
		service:      service,
		tournament:   tournament,
	}
}

func TestRegister_Success(t *testing.T) {
	f := newRegistrationFixture(t, nil)

	participant, count, err := f.service.Register(context.Background(), RegisterParams{
		TournamentID: f.tournament.ID,
		UserID:       42,
		Level:        25,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, models.ParticipantRegistered, participant.Status)
	assert.Equal(t, 42, participant.UserID)
	assert.Equal(t, 25, participant.Level)
}

func TestRegister_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Tournament)
		level   int
		wantErr error
	}{
		{
			name:    "registration not open",
			mutate:  func(tr *models.Tournament) { tr.Status = models.StatusDraft },
			level:   25,
			wantErr: ErrRegistrationNotOpen,
		},
		{
			name:    "deadline passed",
			mutate:  func(tr *models.Tournament) { tr.RegistrationDeadline = time.Now().Add(-time.Minute) },
			level:   25,
			wantErr: ErrRegistrationDeadlinePassed,
		},
		{
			name:    "level below minimum",
			level:   5,
			wantErr: ErrLevelOutOfRange,
		},
		{
			name:    "level above maximum",
			level:   99,
			wantErr: ErrLevelOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegistrationFixture(t, tt.mutate)
			_, _, err := f.service.Register(context.Background(), RegisterParams{
				TournamentID: f.tournament.ID,
				UserID:       42,
				Level:        tt.level,
			})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	f := newRegistrationFixture(t, nil)
	params := RegisterParams{TournamentID: f.tournament.ID, UserID: 42, Level: 25}

	_, _, err := f.service.Register(context.Background(), params)
	require.NoError(t, err)

	_, _, err = f.service.Register(context.Background(), params)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegister_DuplicateCheckedBeforeLevel(t *testing.T) {
	f := newRegistrationFixture(t, nil)
	_, _, err := f.service.Register(context.Background(), RegisterParams{
		TournamentID: f.tournament.ID, UserID: 42, Level: 25,
	})
	require.NoError(t, err)

	// An already-registered user is reported as a duplicate even when the
	// retry also carries an out-of-range level.
	_, _, err = f.service.Register(context.Background(), RegisterParams{
		TournamentID: f.tournament.ID, UserID: 42, Level: 5,
	})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegister_Full(t *testing.T) {
	f := newRegistrationFixture(t, func(tr *models.Tournament) { tr.MaxParticipants = 2 })

	for userID := 1; userID <= 2; userID++ {
		_, _, err := f.service.Register(context.Background(), RegisterParams{
			TournamentID: f.tournament.ID, UserID: userID, Level: 25,
		})
		require.NoError(t, err)
	}

	_, _, err := f.service.Register(context.Background(), RegisterParams{
		TournamentID: f.tournament.ID, UserID: 3, Level: 25,
	})
	assert.ErrorIs(t, err, ErrTournamentFull)
}

func TestRegister_PaymentDeclined(t *testing.T) {
	tournaments := testutils.NewFakeTournamentRepo()
	participants := testutils.NewFakeParticipantRepo()
	tournament := tournaments.Seed(&models.Tournament{
		Name: "Paid Cup", Format: models.FormatRoundRobin, OrganizerID: 1,
		MinParticipants: 2, MaxParticipants: 8, MinLevel: 0, MaxLevel: 100,
		EntryFee:             500,
		RegistrationDeadline: time.Now().Add(time.Hour),
		StartTime:            time.Now().Add(2 * time.Hour),
		Status:               models.StatusRegistration,
	})

	service := NewRegistrationService(tournaments, participants, declineAllConfirmer{}, nil, NewTournamentLocks(), testLogger())

	_, _, err := service.Register(context.Background(), RegisterParams{
		TournamentID: tournament.ID, UserID: 42, Level: 25,
	})
	assert.ErrorIs(t, err, ErrPaymentDeclined)

	// A declined payment must leave no registration behind.
	count, err := participants.CountActive(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRegister_WithdrawnCanReenter(t *testing.T) {
	f := newRegistrationFixture(t, nil)
	params := RegisterParams{TournamentID: f.tournament.ID, UserID: 42, Level: 25}

	first, _, err := f.service.Register(context.Background(), params)
	require.NoError(t, err)

	require.NoError(t, f.service.Withdraw(context.Background(), f.tournament.ID, 42))

	params.Level = 30
	second, count, err := f.service.Register(context.Background(), params)
	require.NoError(t, err)

	// Re-entry reuses the original row with the fresh level.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 30, second.Level)
	assert.Equal(t, models.ParticipantRegistered, second.Status)
	assert.Equal(t, 1, count)
}

func TestRegister_ConcurrentAtCapacityBoundary(t *testing.T) {
	f := newRegistrationFixture(t, func(tr *models.Tournament) { tr.MaxParticipants = 5 })

	// Four seats already taken, one left.
	for userID := 1; userID <= 4; userID++ {
		_, _, err := f.service.Register(context.Background(), RegisterParams{
			TournamentID: f.tournament.ID, UserID: userID, Level: 25,
		})
		require.NoError(t, err)
	}

	const contenders = 10
	var wg sync.WaitGroup
	results := make(chan error, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			_, _, err := f.service.Register(context.Background(), RegisterParams{
				TournamentID: f.tournament.ID, UserID: userID, Level: 25,
			})
			results <- err
		}(100 + i)
	}
	wg.Wait()
	close(results)

	accepted, full := 0, 0
	for err := range results {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, ErrTournamentFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, contenders-1, full)

	count, err := f.participants.CountActive(context.Background(), f.tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestWithdraw_OnlyWhileRegistrationOpen(t *testing.T) {
	f := newRegistrationFixture(t, nil)
	_, _, err := f.service.Register(context.Background(), RegisterParams{
		TournamentID: f.tournament.ID, UserID: 42, Level: 25,
	})
	require.NoError(t, err)

	require.NoError(t, f.tournaments.UpdateStatus(context.Background(), f.tournament.ID, models.StatusActive))

	err = f.service.Withdraw(context.Background(), f.tournament.ID, 42)
	assert.ErrorIs(t, err, ErrWithdrawNotAllowed)
}

func TestDisqualify_BlocksReentry(t *testing.T) {
	f := newRegistrationFixture(t, nil)
	participant, _, err := f.service.Register(context.Background(), RegisterParams{
		TournamentID: f.tournament.ID, UserID: 42, Level: 25,
	})
	require.NoError(t, err)

	require.NoError(t, f.service.Disqualify(context.Background(), f.tournament.ID, participant.ID))

	_, _, err = f.service.Register(context.Background(), RegisterParams{
		TournamentID: f.tournament.ID, UserID: 42, Level: 25,
	})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}
