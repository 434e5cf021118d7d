package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/compevent/compete-system/models"
	"github.com/compevent/compete-system/repositories"
	"github.com/compevent/compete-system/storage"
	"github.com/compevent/compete-system/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tournamentFixture struct {
	tournaments  *testutils.FakeTournamentRepo
	participants *testutils.FakeParticipantRepo
	matches      *testutils.FakeMatchRepo
	service      *TournamentService
}

func newTournamentFixture(t *testing.T) *tournamentFixture {
	t.Helper()
	tournaments := testutils.NewFakeTournamentRepo()
	participants := testutils.NewFakeParticipantRepo()
	matches := testutils.NewFakeMatchRepo()
	logger := testLogger()

	brackets := NewBracketService(tournaments, participants, matches, logger)
	service := NewTournamentService(tournaments, participants, matches, brackets, nil, nil, NewTournamentLocks(), logger)

	return &tournamentFixture{
		tournaments:  tournaments,
		participants: participants,
		matches:      matches,
		service:      service,
	}
}

func validTournament() *models.Tournament {
	return &models.Tournament{
		Name:                 "City Championship",
		Format:               models.FormatSingleElimination,
		OrganizerID:          7,
		MinParticipants:      2,
		MaxParticipants:      16,
		MinLevel:             0,
		MaxLevel:             100,
		EntryFee:             0,
		RegistrationDeadline: time.Now().Add(time.Hour),
		StartTime:            time.Now().Add(2 * time.Hour),
	}
}

func (f *tournamentFixture) seedOpenWithParticipants(t *testing.T, format models.TournamentFormat, count int) *models.Tournament {
	t.Helper()
	tournament := validTournament()
	tournament.Format = format
	tournament.Status = models.StatusRegistration
	f.tournaments.Seed(tournament)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 1; i <= count; i++ {
		f.participants.Seed(&models.Participant{
			TournamentID: tournament.ID,
			UserID:       100 + i,
			Level:        20,
			Status:       models.ParticipantRegistered,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		})
	}
	return tournament
}

func TestCreateTournament_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Tournament)
		wantErr error
	}{
		{"missing name", func(tr *models.Tournament) { tr.Name = "" }, ErrTournamentNameRequired},
		{"unknown format", func(tr *models.Tournament) { tr.Format = "ladder" }, ErrTournamentInvalidFormat},
		{"min below two", func(tr *models.Tournament) { tr.MinParticipants = 1 }, ErrTournamentInvalidCapacity},
		{"max below min", func(tr *models.Tournament) { tr.MaxParticipants = 1 }, ErrTournamentInvalidCapacity},
		{"inverted levels", func(tr *models.Tournament) { tr.MinLevel = 50; tr.MaxLevel = 10 }, ErrTournamentInvalidLevels},
		{"negative fee", func(tr *models.Tournament) { tr.EntryFee = -1 }, ErrTournamentInvalidFee},
		{"deadline after start", func(tr *models.Tournament) {
			tr.RegistrationDeadline = tr.StartTime.Add(time.Minute)
		}, ErrTournamentInvalidDeadline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTournamentFixture(t)
			tournament := validTournament()
			tt.mutate(tournament)
			err := f.service.Create(context.Background(), tournament)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateTournament_StartsInDraft(t *testing.T) {
	f := newTournamentFixture(t)
	tournament := validTournament()

	require.NoError(t, f.service.Create(context.Background(), tournament))

	assert.NotZero(t, tournament.ID)
	assert.Equal(t, models.StatusDraft, tournament.Status)
}

func TestOpenRegistration(t *testing.T) {
	f := newTournamentFixture(t)
	tournament := validTournament()
	require.NoError(t, f.service.Create(context.Background(), tournament))

	require.NoError(t, f.service.OpenRegistration(context.Background(), tournament.ID))

	stored, err := f.tournaments.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRegistration, stored.Status)

	// Only draft tournaments can open registration.
	err = f.service.OpenRegistration(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)
}

func TestCloseRegistration_GeneratesBracketAndActivates(t *testing.T) {
	f := newTournamentFixture(t)
	tournament := f.seedOpenWithParticipants(t, models.FormatSingleElimination, 4)

	snapshot, err := f.service.CloseRegistration(context.Background(), tournament.ID)
	require.NoError(t, err)

	stored, err := f.tournaments.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, stored.Status)

	matches, err := f.matches.ListByTournament(context.Background(), tournament.ID, repositories.ListMatchesFilter{})
	require.NoError(t, err)
	assert.Len(t, matches, 3)

	require.Len(t, snapshot.Rounds, 2)
	assert.Equal(t, 1, snapshot.Rounds[0].Round)
	assert.Len(t, snapshot.Rounds[0].Matches, 2)
	assert.Len(t, snapshot.Participants, 4)
}

func TestCloseRegistration_NotEnoughParticipants(t *testing.T) {
	f := newTournamentFixture(t)
	tournament := f.seedOpenWithParticipants(t, models.FormatSingleElimination, 1)

	_, err := f.service.CloseRegistration(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrNotEnoughParticipants)

	// Nothing was generated and the window stays open.
	stored, _ := f.tournaments.GetByID(context.Background(), tournament.ID)
	assert.Equal(t, models.StatusRegistration, stored.Status)
}

func TestCloseRegistration_WrongStatus(t *testing.T) {
	f := newTournamentFixture(t)
	tournament := validTournament()
	require.NoError(t, f.service.Create(context.Background(), tournament))

	_, err := f.service.CloseRegistration(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)
}

func TestCloseRegistration_SwissStoresRoundCount(t *testing.T) {
	f := newTournamentFixture(t)
	tournament := f.seedOpenWithParticipants(t, models.FormatSwiss, 8)

	_, err := f.service.CloseRegistration(context.Background(), tournament.ID)
	require.NoError(t, err)

	stored, err := f.tournaments.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SwissRounds)
	assert.Equal(t, 3, *stored.SwissRounds)

	// Only the first round exists up front.
	matches, err := f.matches.ListByTournament(context.Background(), tournament.ID, repositories.ListMatchesFilter{})
	require.NoError(t, err)
	assert.Len(t, matches, 4)
}

func TestCancel_CascadesToMatches(t *testing.T) {
	f := newTournamentFixture(t)
	tournament := f.seedOpenWithParticipants(t, models.FormatSingleElimination, 4)
	_, err := f.service.CloseRegistration(context.Background(), tournament.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.Cancel(context.Background(), tournament.ID))

	stored, _ := f.tournaments.GetByID(context.Background(), tournament.ID)
	assert.Equal(t, models.StatusCanceled, stored.Status)

	matches, err := f.matches.ListByTournament(context.Background(), tournament.ID, repositories.ListMatchesFilter{})
	require.NoError(t, err)
	for _, m := range matches {
		assert.Equal(t, models.MatchCanceled, m.Status)
	}

	// Terminal states cannot be canceled again.
	err = f.service.Cancel(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)
}

func TestAutoCloseDueRegistrations(t *testing.T) {
	f := newTournamentFixture(t)

	filled := f.seedOpenWithParticipants(t, models.FormatSingleElimination, 4)
	underfilled := validTournament()
	underfilled.Name = "Empty Cup"
	underfilled.Status = models.StatusRegistration
	f.tournaments.Seed(underfilled)

	f.service.AutoCloseDueRegistrations(context.Background(), time.Now().Add(2*time.Hour))

	closedOut, _ := f.tournaments.GetByID(context.Background(), filled.ID)
	assert.Equal(t, models.StatusActive, closedOut.Status)

	canceled, _ := f.tournaments.GetByID(context.Background(), underfilled.ID)
	assert.Equal(t, models.StatusCanceled, canceled.Status)
}

type fakeUploader struct {
	uploads []string
	deleted []string
}

func (u *fakeUploader) Upload(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	u.uploads = append(u.uploads, key)
	return &storage.UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

func TestSetLogo_ReplacementDeletesPreviousObject(t *testing.T) {
	f := newTournamentFixture(t)
	uploader := &fakeUploader{}
	service := NewTournamentService(f.tournaments, f.participants, f.matches, nil, uploader, nil, NewTournamentLocks(), testLogger())

	tournament := validTournament()
	require.NoError(t, service.Create(context.Background(), tournament))

	location, err := service.SetLogo(context.Background(), tournament.ID, "image/png", strings.NewReader("logo-a"))
	require.NoError(t, err)
	assert.NotEmpty(t, location)
	assert.Empty(t, uploader.deleted)

	_, err = service.SetLogo(context.Background(), tournament.ID, "image/png", strings.NewReader("logo-b"))
	require.NoError(t, err)

	require.Len(t, uploader.uploads, 2)
	require.Len(t, uploader.deleted, 1)
	assert.Equal(t, uploader.uploads[0], uploader.deleted[0])

	stored, err := f.tournaments.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LogoKey)
	assert.Equal(t, uploader.uploads[1], *stored.LogoKey)
}

func TestUpdate_RejectsShrinkBelowActiveCount(t *testing.T) {
	f := newTournamentFixture(t)
	tournament := f.seedOpenWithParticipants(t, models.FormatSingleElimination, 4)

	edited := *tournament
	edited.MaxParticipants = 3
	err := f.service.Update(context.Background(), &edited)
	assert.ErrorIs(t, err, ErrTournamentInvalidCapacity)
}
