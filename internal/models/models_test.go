package models_test

import (
	"testing"

	"github.com/maigenai/fingenius/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDisputeStatusCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.DisputeStatus
		want     bool
	}{
		{models.DisputeStatusDraft, models.DisputeStatusSent, true},
		{models.DisputeStatusDraft, models.DisputeStatusResolved, true},
		{models.DisputeStatusSent, models.DisputeStatusResolved, true},
		{models.DisputeStatusSent, models.DisputeStatusDraft, false},
		{models.DisputeStatusResolved, models.DisputeStatusSent, false},
		{models.DisputeStatusDraft, models.DisputeStatusDraft, false},
		{models.DisputeStatusDraft, "archived", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestDocumentIsTerminal(t *testing.T) {
	assert.False(t, (&models.Document{Status: models.DocumentStatusPending}).IsTerminal())
	assert.False(t, (&models.Document{Status: models.DocumentStatusProcessing}).IsTerminal())
	assert.True(t, (&models.Document{Status: models.DocumentStatusCompleted}).IsTerminal())
	assert.True(t, (&models.Document{Status: models.DocumentStatusFailed}).IsTerminal())
}
