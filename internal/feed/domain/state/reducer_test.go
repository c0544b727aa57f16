package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careercoach/pulse/internal/feed/domain/model"
)

func notif(id string, status model.Status) model.Notification {
	return model.Notification{
		ID:       id,
		Type:     model.TypeNewMessage,
		Title:    "New Message",
		Message:  "hello",
		Status:   status,
		Priority: model.PriorityMedium,
	}
}

func unreadOf(s State) int {
	count := 0
	for _, n := range s.Notifications {
		if n.Status == model.StatusUnread {
			count++
		}
	}
	return count
}

func TestReduceSetNotifications(t *testing.T) {
	tests := []struct {
		name       string
		prior      []model.Notification
		incoming   []model.Notification
		wantLen    int
		wantUnread int
	}{
		{
			name:       "growing list",
			prior:      []model.Notification{notif("1", model.StatusRead)},
			incoming:   []model.Notification{notif("1", model.StatusRead), notif("2", model.StatusUnread), notif("3", model.StatusUnread)},
			wantLen:    3,
			wantUnread: 2,
		},
		{
			name:       "shrinking list",
			prior:      []model.Notification{notif("1", model.StatusUnread), notif("2", model.StatusUnread), notif("3", model.StatusRead)},
			incoming:   []model.Notification{notif("9", model.StatusUnread)},
			wantLen:    1,
			wantUnread: 1,
		},
		{
			name:       "empty list",
			prior:      []model.Notification{notif("1", model.StatusUnread)},
			incoming:   []model.Notification{},
			wantLen:    0,
			wantUnread: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prior := State{Notifications: tt.prior, UnreadCount: unreadOf(State{Notifications: tt.prior})}
			next := Reduce(prior, SetNotifications{List: tt.incoming})

			assert.Len(t, next.Notifications, tt.wantLen)
			assert.Equal(t, tt.wantUnread, next.UnreadCount)
			assert.False(t, next.IsLoading)
			assert.NoError(t, next.Err)
		})
	}
}

func TestReduceAddNotificationPrepends(t *testing.T) {
	s := Reduce(State{}, AddNotification{Notification: notif("a", model.StatusUnread)})
	s = Reduce(s, AddNotification{Notification: notif("b", model.StatusUnread)})

	require.Len(t, s.Notifications, 2)
	assert.Equal(t, "b", s.Notifications[0].ID)
	assert.Equal(t, "a", s.Notifications[1].ID)
	assert.Equal(t, 2, s.UnreadCount)
}

func TestReduceAddNotificationReadDoesNotCount(t *testing.T) {
	s := Reduce(State{}, AddNotification{Notification: notif("a", model.StatusRead)})
	assert.Equal(t, 0, s.UnreadCount)
	assert.Len(t, s.Notifications, 1)
}

func TestReduceUpdateNotification(t *testing.T) {
	s := State{
		Notifications: []model.Notification{notif("1", model.StatusUnread), notif("2", model.StatusUnread)},
		UnreadCount:   2,
	}

	updated := notif("2", model.StatusRead)
	updated.Title = "edited"
	next := Reduce(s, UpdateNotification{Notification: updated})

	require.Len(t, next.Notifications, 2)
	assert.Equal(t, "edited", next.Notifications[1].Title)
	assert.Equal(t, model.StatusRead, next.Notifications[1].Status)
	assert.Equal(t, 1, next.UnreadCount)
}

func TestReduceUpdateMissingIDIsNoOp(t *testing.T) {
	s := State{
		Notifications: []model.Notification{notif("1", model.StatusUnread)},
		UnreadCount:   1,
	}

	next := Reduce(s, UpdateNotification{Notification: notif("not-present", model.StatusRead)})

	assert.Equal(t, s.Notifications, next.Notifications)
	assert.Equal(t, 1, next.UnreadCount)
}

func TestReduceRemoveNotification(t *testing.T) {
	s := State{
		Notifications: []model.Notification{notif("1", model.StatusUnread), notif("2", model.StatusRead)},
		UnreadCount:   1,
	}

	next := Reduce(s, RemoveNotification{ID: "1"})
	require.Len(t, next.Notifications, 1)
	assert.Equal(t, "2", next.Notifications[0].ID)
	assert.Equal(t, 0, next.UnreadCount)

	// Removing again is idempotent.
	again := Reduce(next, RemoveNotification{ID: "1"})
	assert.Equal(t, next.Notifications, again.Notifications)
	assert.Equal(t, next.UnreadCount, again.UnreadCount)
}

func TestReduceRemoveMissingIDIsNoOp(t *testing.T) {
	s := State{
		Notifications: []model.Notification{notif("1", model.StatusUnread)},
		UnreadCount:   1,
	}
	next := Reduce(s, RemoveNotification{ID: "ghost"})
	assert.Equal(t, s.Notifications, next.Notifications)
	assert.Equal(t, 1, next.UnreadCount)
}

func TestReduceMarkRead(t *testing.T) {
	s := State{
		Notifications: []model.Notification{notif("42", model.StatusUnread), notif("99", model.StatusUnread)},
		UnreadCount:   2,
	}

	next := Reduce(s, MarkRead{ID: "99"})
	assert.Equal(t, model.StatusRead, next.Notifications[1].Status)
	assert.Equal(t, 1, next.UnreadCount)

	// Marking an already-read notification is a no-op on the count.
	again := Reduce(next, MarkRead{ID: "99"})
	assert.Equal(t, 1, again.UnreadCount)
	assert.Equal(t, next.Notifications, again.Notifications)
}

func TestReduceMarkAllRead(t *testing.T) {
	s := State{
		Notifications: []model.Notification{notif("1", model.StatusUnread), notif("2", model.StatusUnread), notif("3", model.StatusRead)},
		UnreadCount:   2,
	}

	next := Reduce(s, MarkAllRead{})
	assert.Equal(t, 0, next.UnreadCount)
	for _, n := range next.Notifications {
		assert.Equal(t, model.StatusRead, n.Status)
	}
}

func TestReduceSetUnreadCountDivergenceWindow(t *testing.T) {
	s := State{
		Notifications: []model.Notification{notif("1", model.StatusRead)},
		UnreadCount:   0,
	}

	// The server's count may cover entries not in the visible page, so the
	// override is allowed to disagree with the list.
	next := Reduce(s, SetUnreadCount{Count: 7})
	assert.Equal(t, 7, next.UnreadCount)
	assert.NotEqual(t, unreadOf(next), next.UnreadCount)

	// The next list-mutating action closes the window.
	closed := Reduce(next, SetNotifications{List: next.Notifications})
	assert.Equal(t, unreadOf(closed), closed.UnreadCount)
}

func TestUnreadInvariantUnderActionSequences(t *testing.T) {
	actions := []Action{
		AddNotification{Notification: notif("1", model.StatusUnread)},
		AddNotification{Notification: notif("2", model.StatusRead)},
		AddNotification{Notification: notif("3", model.StatusUnread)},
		MarkRead{ID: "3"},
		UpdateNotification{Notification: notif("2", model.StatusUnread)},
		RemoveNotification{ID: "1"},
		MarkAllRead{},
		SetNotifications{List: []model.Notification{notif("x", model.StatusUnread)}},
		MarkRead{ID: "missing"},
		Clear{},
	}

	s := State{}
	for i, a := range actions {
		s = Reduce(s, a)
		assert.Equal(t, unreadOf(s), s.UnreadCount, "invariant broken after action %d (%T)", i, a)
	}
}

func TestReducePurity(t *testing.T) {
	original := State{
		Notifications: []model.Notification{notif("1", model.StatusUnread)},
		UnreadCount:   1,
	}
	before := original.Notifications[0]

	_ = Reduce(original, MarkRead{ID: "1"})
	_ = Reduce(original, MarkAllRead{})
	_ = Reduce(original, RemoveNotification{ID: "1"})

	assert.Equal(t, before, original.Notifications[0], "reducer must not mutate its input")
	assert.Equal(t, 1, original.UnreadCount)
}

func TestReduceScenarioPushThenRead(t *testing.T) {
	s := State{
		Notifications: []model.Notification{notif("42", model.StatusUnread)},
		UnreadCount:   1,
	}

	s = Reduce(s, AddNotification{Notification: notif("99", model.StatusUnread)})
	assert.Equal(t, 2, s.UnreadCount)

	s = Reduce(s, MarkRead{ID: "99"})
	assert.Equal(t, 1, s.UnreadCount)
	assert.Equal(t, "99", s.Notifications[0].ID)
	assert.Equal(t, model.StatusRead, s.Notifications[0].Status)
}

func TestReduceConnectionLoadingAndError(t *testing.T) {
	s := Reduce(State{}, SetConnected{Connected: true})
	assert.True(t, s.IsConnected)

	s = Reduce(s, SetLoading{Loading: true})
	assert.True(t, s.IsLoading)

	s = Reduce(s, SetError{Err: assert.AnError})
	assert.Error(t, s.Err)
	assert.False(t, s.IsLoading, "an error ends the loading state")

	s = Reduce(s, SetError{Err: nil})
	assert.NoError(t, s.Err)

	s = Reduce(s, Clear{})
	assert.Empty(t, s.Notifications)
	assert.Zero(t, s.UnreadCount)
	assert.True(t, s.IsConnected, "clear keeps connection status")
}
