package services

import (
	"testing"

	"github.com/compevent/compete-system/models"
	"github.com/stretchr/testify/assert"
)

func TestTournamentStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from models.TournamentStatus
		to   models.TournamentStatus
		want bool
	}{
		{"draft opens", models.StatusDraft, models.StatusRegistration, true},
		{"draft cannot activate", models.StatusDraft, models.StatusActive, false},
		{"registration closes", models.StatusRegistration, models.StatusRegistrationClosed, true},
		{"registration cannot reopen draft", models.StatusRegistration, models.StatusDraft, false},
		{"closed activates", models.StatusRegistrationClosed, models.StatusActive, true},
		{"active completes", models.StatusActive, models.StatusCompleted, true},
		{"active cannot reopen", models.StatusActive, models.StatusRegistration, false},
		{"draft cancels", models.StatusDraft, models.StatusCanceled, true},
		{"registration cancels", models.StatusRegistration, models.StatusCanceled, true},
		{"closed cancels", models.StatusRegistrationClosed, models.StatusCanceled, true},
		{"active cancels", models.StatusActive, models.StatusCanceled, true},
		{"completed is terminal", models.StatusCompleted, models.StatusCanceled, false},
		{"canceled is terminal", models.StatusCanceled, models.StatusRegistration, false},
		{"no self transition", models.StatusRegistration, models.StatusRegistration, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isValidStatusTransition(tt.from, tt.to))
		})
	}
}
