package model

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityRankOrdering(t *testing.T) {
	priorities := []Priority{PriorityLow, PriorityHigh, Priority("BOGUS"), PriorityMedium}
	sort.Slice(priorities, func(i, j int) bool {
		return priorities[i].Rank() < priorities[j].Rank()
	})

	assert.Equal(t, []Priority{PriorityHigh, PriorityMedium, PriorityLow, Priority("BOGUS")}, priorities)
}

func TestIsExpired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	assert.False(t, Notification{}.IsExpired(), "no expiry means never expired")
	assert.True(t, Notification{ExpiresAt: &past}.IsExpired())
	assert.False(t, Notification{ExpiresAt: &future}.IsExpired())
}

func TestIsUnread(t *testing.T) {
	assert.True(t, Notification{Status: StatusUnread}.IsUnread())
	assert.False(t, Notification{Status: StatusRead}.IsUnread())
	assert.False(t, Notification{Status: StatusDismissed}.IsUnread())
	assert.False(t, Notification{Status: StatusArchived}.IsUnread())
}

func TestDefaultTitles(t *testing.T) {
	assert.Equal(t, "CV Review Complete", TypeCVReviewComplete.DefaultTitle())
	assert.Equal(t, "Security Alert", TypeSecurityAlert.DefaultTitle())
	assert.Empty(t, Type("SOMETHING_ELSE").DefaultTitle())
}

func TestNotificationJSONRoundTrip(t *testing.T) {
	payload := []byte(`{
		"id": "n-1",
		"userId": "alice@example.com",
		"type": "CV_REVIEW_COMPLETE",
		"title": "CV Review Complete",
		"message": "Your CV review has been completed",
		"status": "UNREAD",
		"priority": "HIGH",
		"actionUrl": "https://app.example.com/reviews/77",
		"relatedEntityId": "review-77",
		"metadata": {"reviewer": "coach-9"},
		"createdAt": "2026-08-29T09:00:00Z",
		"updatedAt": "2026-08-29T09:00:00Z"
	}`)

	var n Notification
	require.NoError(t, json.Unmarshal(payload, &n))

	assert.Equal(t, "n-1", n.ID)
	assert.Equal(t, TypeCVReviewComplete, n.Type)
	assert.Equal(t, StatusUnread, n.Status)
	assert.Equal(t, PriorityHigh, n.Priority)
	assert.Equal(t, "review-77", n.RelatedEntityID)
	assert.Equal(t, "coach-9", n.Metadata["reviewer"])
	assert.Nil(t, n.ExpiresAt)
}
