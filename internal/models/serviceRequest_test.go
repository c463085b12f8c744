package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceRequest_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     ServiceRequestStatus
		to       ServiceRequestStatus
		expected bool
	}{
		{name: "pending to in progress", from: ServiceRequestStatusPending, to: ServiceRequestStatusInProgress, expected: true},
		{name: "pending to cancelled", from: ServiceRequestStatusPending, to: ServiceRequestStatusCancelled, expected: true},
		{name: "pending to completed", from: ServiceRequestStatusPending, to: ServiceRequestStatusCompleted, expected: false},
		{name: "in progress to completed", from: ServiceRequestStatusInProgress, to: ServiceRequestStatusCompleted, expected: true},
		{name: "in progress to cancelled", from: ServiceRequestStatusInProgress, to: ServiceRequestStatusCancelled, expected: true},
		{name: "in progress back to pending", from: ServiceRequestStatusInProgress, to: ServiceRequestStatusPending, expected: false},
		{name: "completed is terminal", from: ServiceRequestStatusCompleted, to: ServiceRequestStatusInProgress, expected: false},
		{name: "cancelled is terminal", from: ServiceRequestStatusCancelled, to: ServiceRequestStatusPending, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := &ServiceRequest{Status: tt.from}
			assert.Equal(t, tt.expected, sr.CanTransitionTo(tt.to))
		})
	}
}

func TestQuote_AwaitsClientDecision(t *testing.T) {
	assert.True(t, (&Quote{Status: QuoteStatusPending}).AwaitsClientDecision())
	assert.True(t, (&Quote{Status: QuoteStatusAwaitingClient}).AwaitsClientDecision())
	assert.False(t, (&Quote{Status: QuoteStatusValidated}).AwaitsClientDecision())
	assert.False(t, (&Quote{Status: QuoteStatusRejected}).AwaitsClientDecision())
}

func TestQuote_Items(t *testing.T) {
	t.Run("Empty line items", func(t *testing.T) {
		items, err := (&Quote{}).Items()
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("Line totals", func(t *testing.T) {
		q := &Quote{}
		require.NoError(t, q.SetItems([]QuoteLineItem{
			{Description: "Pose", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("12.50")},
		}))

		items, err := q.Items()
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "37.50", items[0].Total().StringFixed(2))
	})
}

func TestNewPostInterventionFollowup(t *testing.T) {
	companyID := uuid.New()
	intervention := &Intervention{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		CompanyID:     &companyID,
		ClientID:      uuid.New(),
	}
	end := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	followup := NewPostInterventionFollowup(intervention, end)

	assert.Equal(t, intervention.ID, followup.InterventionID)
	assert.Equal(t, intervention.ClientID, followup.ClientID)
	assert.Equal(t, &companyID, followup.CompanyID)
	assert.Equal(t, FollowupKindPostIntervention, followup.Kind)
	assert.Equal(t, FollowupStatusPending, followup.Status)
	assert.Equal(t, time.Date(2025, 3, 17, 14, 0, 0, 0, time.UTC), followup.NextActionDate)
}

func TestIntervention_IsFinished(t *testing.T) {
	assert.False(t, (&Intervention{Status: InterventionStatusWaiting}).IsFinished())
	assert.False(t, (&Intervention{Status: InterventionStatusInProgress}).IsFinished())
	assert.True(t, (&Intervention{Status: InterventionStatusCompleted}).IsFinished())
	assert.True(t, (&Intervention{Status: InterventionStatusClosed}).IsFinished())
}
