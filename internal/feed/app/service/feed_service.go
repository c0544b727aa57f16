// Package service orchestrates the notification feed for one authenticated
// session: the push channel, the REST sync client, and the shared store.
package service

import (
	"context"
	"errors"

	"github.com/careercoach/pulse/internal/feed/adapters/push"
	"github.com/careercoach/pulse/internal/feed/adapters/rest"
	"github.com/careercoach/pulse/internal/feed/domain/state"
	"github.com/careercoach/pulse/internal/feed/faults"
	"github.com/careercoach/pulse/internal/platform/config"
	"github.com/careercoach/pulse/internal/platform/logger"
	"github.com/careercoach/pulse/internal/session"
)

// FeedService is the public surface the UI layer talks to. It reads state
// through Snapshot and mutates only through the operations below.
type FeedService struct {
	cfg      *config.Config
	sessions session.Store
	store    *state.Store
	manager  *push.Manager
	api      *rest.Client
	log      logger.Logger
}

// NewFeedService wires a feed for the given session store. The notify
// callback (may be nil) fires for every pushed notification, on top of the
// store dispatch; the UI hangs its toast on it.
func NewFeedService(cfg *config.Config, sessions session.Store, log logger.Logger, notify push.NotifyFunc) *FeedService {
	store := state.NewStore()
	return &FeedService{
		cfg:      cfg,
		sessions: sessions,
		store:    store,
		manager:  push.NewManager(cfg.Push, sessions, store, log, push.WithNotifyFunc(notify)),
		api:      rest.NewClient(cfg.API, cfg.Auth, sessions, store, log),
		log:      log,
	}
}

// Start brings the feed up for the current session: it opens the push
// channel, loads the first page, and refreshes the unread count. The three
// are independent, so a failing connect does not block the initial fetch;
// all failures land in state and the joined error is returned.
func (s *FeedService) Start(ctx context.Context) error {
	sess, ok := s.sessions.Current()
	if !ok {
		err := faults.AuthRequired()
		s.store.Dispatch(state.SetError{Err: err})
		return err
	}

	connectErr := s.manager.Connect(ctx, sess.UserID)
	fetchErr := s.api.FetchPage(ctx, 0, s.cfg.API.PageSize)
	countErr := s.api.FetchUnreadCount(ctx)

	return errors.Join(connectErr, fetchErr, countErr)
}

// Stop tears the feed down completely: subscription closed, collection and
// count dropped. Nothing survives into the next user's session.
func (s *FeedService) Stop() {
	s.manager.Disconnect()
	s.store.Reset()
	s.log.Info("notification feed stopped")
}

// Snapshot returns the current feed state for rendering.
func (s *FeedService) Snapshot() state.State {
	return s.store.Snapshot()
}

// OnChange registers an observer for state changes.
func (s *FeedService) OnChange(fn func(state.State)) {
	s.store.OnChange(fn)
}

// FetchPage loads one page, replacing the visible collection.
func (s *FeedService) FetchPage(ctx context.Context, page, size int) error {
	return s.api.FetchPage(ctx, page, size)
}

// MarkAsRead marks one notification read after server confirmation.
func (s *FeedService) MarkAsRead(ctx context.Context, id string) error {
	return s.api.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks everything read.
func (s *FeedService) MarkAllAsRead(ctx context.Context) error {
	return s.api.MarkAllAsRead(ctx)
}

// DeleteNotification removes one notification.
func (s *FeedService) DeleteNotification(ctx context.Context, id string) error {
	return s.api.DeleteNotification(ctx, id)
}

// RefreshUnreadCount pulls the authoritative unread count. The count may
// cover entries outside the visible page; the next FetchPage reconciles the
// list.
func (s *FeedService) RefreshUnreadCount(ctx context.Context) error {
	return s.api.FetchUnreadCount(ctx)
}

// ClearError dismisses the shared error banner.
func (s *FeedService) ClearError() {
	s.store.Dispatch(state.SetError{Err: nil})
}
