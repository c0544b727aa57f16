// Package state holds the canonical in-memory notification feed state as a
// pure reducer plus a mutex-guarded store for concurrent callers.
package state

import "github.com/careercoach/pulse/internal/feed/domain/model"

// State is the single source of truth the UI layer reads. Notifications keep
// insertion order on arrival: push events prepend, fetches replace.
type State struct {
	Notifications []model.Notification
	UnreadCount   int
	IsConnected   bool
	IsLoading     bool
	Err           error
}

// Action is a state transition request. The concrete types below are the full
// closed set the reducer understands.
type Action interface {
	action()
}

// SetNotifications replaces the entire collection, used after a full fetch.
// UnreadCount is recomputed from the new list; loading and error are cleared.
type SetNotifications struct {
	List []model.Notification
}

// AddNotification prepends one notification, incrementing the unread count
// iff the new entry is unread. The reducer does not deduplicate: the server
// is trusted not to deliver the same id twice on the new-notification stream.
type AddNotification struct {
	Notification model.Notification
}

// UpdateNotification replaces the entry matching Notification.ID, or is a
// silent no-op if absent. The unread count is recomputed from the full list,
// not incrementally, so an unexpected status change stays correct.
type UpdateNotification struct {
	Notification model.Notification
}

// RemoveNotification deletes the matching entry; a missing id is a silent
// no-op.
type RemoveNotification struct {
	ID string
}

// MarkRead sets one entry's status to READ if present.
type MarkRead struct {
	ID string
}

// MarkAllRead sets every entry's status to READ and the unread count to zero.
type MarkAllRead struct{}

// SetUnreadCount overrides the unread count without touching the collection.
// The server's count may cover entries outside the fetched page, so the count
// is allowed to disagree with the visible list until the next list-mutating
// action. That divergence window is by contract, not a bug.
type SetUnreadCount struct {
	Count int
}

// SetConnected records the push channel connection status.
type SetConnected struct {
	Connected bool
}

// SetLoading records whether a fetch is outstanding.
type SetLoading struct {
	Loading bool
}

// SetError records the shared error the UI renders; a nil Err clears it.
type SetError struct {
	Err error
}

// Clear resets the collection and count, keeping connection status. Used on
// session teardown.
type Clear struct{}

func (SetNotifications) action()   {}
func (AddNotification) action()    {}
func (UpdateNotification) action() {}
func (RemoveNotification) action() {}
func (MarkRead) action()           {}
func (MarkAllRead) action()        {}
func (SetUnreadCount) action()     {}
func (SetConnected) action()       {}
func (SetLoading) action()         {}
func (SetError) action()           {}
func (Clear) action()              {}

// Reduce computes the next state from the current state and one action. It is
// pure: the input state and any slices hanging off it are never mutated.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case SetNotifications:
		list := make([]model.Notification, len(act.List))
		copy(list, act.List)
		s.Notifications = list
		s.UnreadCount = countUnread(list)
		s.IsLoading = false
		s.Err = nil

	case AddNotification:
		list := make([]model.Notification, 0, len(s.Notifications)+1)
		list = append(list, act.Notification)
		list = append(list, s.Notifications...)
		s.Notifications = list
		if act.Notification.IsUnread() {
			s.UnreadCount++
		}

	case UpdateNotification:
		list := make([]model.Notification, len(s.Notifications))
		copy(list, s.Notifications)
		for i := range list {
			if list[i].ID == act.Notification.ID {
				list[i] = act.Notification
			}
		}
		s.Notifications = list
		s.UnreadCount = countUnread(list)

	case RemoveNotification:
		list := make([]model.Notification, 0, len(s.Notifications))
		for _, n := range s.Notifications {
			if n.ID != act.ID {
				list = append(list, n)
			}
		}
		s.Notifications = list
		s.UnreadCount = countUnread(list)

	case MarkRead:
		list := make([]model.Notification, len(s.Notifications))
		copy(list, s.Notifications)
		for i := range list {
			if list[i].ID == act.ID {
				list[i].Status = model.StatusRead
			}
		}
		s.Notifications = list
		s.UnreadCount = countUnread(list)

	case MarkAllRead:
		list := make([]model.Notification, len(s.Notifications))
		copy(list, s.Notifications)
		for i := range list {
			list[i].Status = model.StatusRead
		}
		s.Notifications = list
		s.UnreadCount = 0

	case SetUnreadCount:
		s.UnreadCount = act.Count

	case SetConnected:
		s.IsConnected = act.Connected

	case SetLoading:
		s.IsLoading = act.Loading

	case SetError:
		s.Err = act.Err
		if act.Err != nil {
			s.IsLoading = false
		}

	case Clear:
		s.Notifications = nil
		s.UnreadCount = 0
		s.Err = nil
		s.IsLoading = false
	}

	return s
}

func countUnread(list []model.Notification) int {
	count := 0
	for _, n := range list {
		if n.IsUnread() {
			count++
		}
	}
	return count
}
