// Package rest implements the REST sync client for the notification service.
// Every successful call is paired with a reducer dispatch so the in-memory
// feed tracks server truth.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/careercoach/pulse/internal/feed/domain/model"
	"github.com/careercoach/pulse/internal/feed/domain/state"
	"github.com/careercoach/pulse/internal/feed/faults"
	"github.com/careercoach/pulse/internal/platform/config"
	"github.com/careercoach/pulse/internal/platform/logger"
	"github.com/careercoach/pulse/internal/platform/metrics"
	"github.com/careercoach/pulse/internal/session"
)

// Client talks to the backend's notification REST surface.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   session.Store
	store      *state.Store
	log        logger.Logger
	leeway     time.Duration
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates a sync client dispatching into the given store.
func NewClient(cfg config.APIConfig, auth config.AuthConfig, sessions session.Store, store *state.Store, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		sessions: sessions,
		store:    store,
		log:      log,
		leeway:   auth.ExpiryLeeway,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPage loads one page of notifications and replaces the collection.
// Each page fetch is a full replace; callers wanting merged pages merge
// before display, not in the store.
func (c *Client) FetchPage(ctx context.Context, page, size int) error {
	sess, err := c.ensureSession()
	if err != nil {
		c.store.Dispatch(state.SetError{Err: err})
		return err
	}

	c.store.Dispatch(state.SetLoading{Loading: true})

	path := fmt.Sprintf("/api/notifications?page=%d&size=%d", page, size)
	body, err := c.do(ctx, "fetch_page", http.MethodGet, path, sess.Token)
	if err != nil {
		c.store.Dispatch(state.SetError{Err: err})
		return err
	}

	list, err := decodePage(body)
	if err != nil {
		ferr := faults.Wrap(faults.KindRequestFailed, "notification page does not parse", err)
		c.store.Dispatch(state.SetError{Err: ferr})
		return ferr
	}

	c.store.Dispatch(state.SetNotifications{List: list})
	c.log.Debug("notification page fetched", "page", page, "size", size, "count", len(list))
	return nil
}

// MarkAsRead marks one notification read. The dispatch happens only after
// server confirmation; there is no optimistic update to roll back.
func (c *Client) MarkAsRead(ctx context.Context, id string) error {
	sess, err := c.ensureSession()
	if err != nil {
		c.store.Dispatch(state.SetError{Err: err})
		return err
	}

	path := fmt.Sprintf("/api/notifications/%s/read", url.PathEscape(id))
	if _, err := c.do(ctx, "mark_read", http.MethodPut, path, sess.Token); err != nil {
		c.store.Dispatch(state.SetError{Err: err})
		return err
	}

	c.store.Dispatch(state.MarkRead{ID: id})
	return nil
}

// MarkAllAsRead marks every notification read.
func (c *Client) MarkAllAsRead(ctx context.Context) error {
	sess, err := c.ensureSession()
	if err != nil {
		c.store.Dispatch(state.SetError{Err: err})
		return err
	}

	if _, err := c.do(ctx, "mark_all_read", http.MethodPut, "/api/notifications/read-all", sess.Token); err != nil {
		c.store.Dispatch(state.SetError{Err: err})
		return err
	}

	c.store.Dispatch(state.MarkAllRead{})
	return nil
}

// DeleteNotification deletes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	sess, err := c.ensureSession()
	if err != nil {
		c.store.Dispatch(state.SetError{Err: err})
		return err
	}

	path := "/api/notifications/" + url.PathEscape(id)
	if _, err := c.do(ctx, "delete", http.MethodDelete, path, sess.Token); err != nil {
		c.store.Dispatch(state.SetError{Err: err})
		return err
	}

	c.store.Dispatch(state.RemoveNotification{ID: id})
	return nil
}

// FetchUnreadCount refreshes the unread badge from the server's
// authoritative count, which may cover entries outside the fetched page.
func (c *Client) FetchUnreadCount(ctx context.Context) error {
	sess, err := c.ensureSession()
	if err != nil {
		c.store.Dispatch(state.SetError{Err: err})
		return err
	}

	body, err := c.do(ctx, "unread_count", http.MethodGet, "/api/notifications/unread/count", sess.Token)
	if err != nil {
		c.store.Dispatch(state.SetError{Err: err})
		return err
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		ferr := faults.Wrap(faults.KindRequestFailed, "unread count response does not parse", err)
		c.store.Dispatch(state.SetError{Err: ferr})
		return ferr
	}

	c.store.Dispatch(state.SetUnreadCount{Count: resp.Count})
	return nil
}

// ensureSession checks the credential locally before any network call: no
// credential short-circuits with AuthRequired, a locally expired one purges
// the store and short-circuits with SessionExpired. The pre-check exists to
// avoid a doomed round trip, not to replace the server-side check.
func (c *Client) ensureSession() (*session.Session, error) {
	sess, ok := c.sessions.Current()
	if !ok {
		return nil, faults.AuthRequired()
	}
	if !sess.Valid(c.leeway) {
		c.sessions.Clear()
		return nil, faults.SessionExpired()
	}
	return sess, nil
}

// do issues one request and maps failures into the error taxonomy. A 401/403
// purges credentials and yields SessionExpired; other non-2xx yields
// RequestFailed with the best available server message.
func (c *Client) do(ctx context.Context, operation, method, path, token string) ([]byte, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, faults.Wrap(faults.KindRequestFailed, "invalid base URL", err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, faults.Wrap(faults.KindRequestFailed, "invalid request path", err)
	}
	target := u.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return nil, faults.Wrap(faults.KindRequestFailed, "building request failed", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPIError(operation, string(faults.KindTransport))
		return nil, faults.Wrap(faults.KindTransport, "request to notification service failed", err)
	}
	defer resp.Body.Close()
	metrics.RecordAPIRequest(operation, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.sessions.Clear()
		metrics.RecordAPIError(operation, string(faults.KindSessionExpired))
		c.log.Warn("credential rejected by notification service", "operation", operation, "status", resp.StatusCode)
		return nil, faults.SessionExpired()

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		metrics.RecordAPIError(operation, string(faults.KindRequestFailed))
		return nil, faults.New(faults.KindRequestFailed, serverMessage(resp))
	}

	var body []byte
	if resp.Body != nil {
		body, err = readAll(resp.Body)
		if err != nil {
			metrics.RecordAPIError(operation, string(faults.KindTransport))
			return nil, faults.Wrap(faults.KindTransport, "reading response failed", err)
		}
	}
	return body, nil
}

// decodePage accepts either the paginated wrapper ({"content": [...]}) or a
// bare array, matching what the backend returns across versions.
func decodePage(body []byte) ([]model.Notification, error) {
	var wrapper struct {
		Content []model.Notification `json:"content"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Content != nil {
		return wrapper.Content, nil
	}

	var list []model.Notification
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// serverMessage pulls the error message out of a non-2xx response, falling
// back to the HTTP status.
func serverMessage(resp *http.Response) string {
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if resp.Body != nil {
		if body, err := readAll(resp.Body); err == nil && len(body) > 0 {
			if err := json.Unmarshal(body, &errResp); err == nil {
				if errResp.Message != "" {
					return errResp.Message
				}
				if errResp.Error != "" {
					return errResp.Error
				}
			}
		}
	}
	return fmt.Sprintf("notification service returned %s", resp.Status)
}

// Responses are small; the limit guards against a misbehaving server.
const maxBodySize = 1 << 20

func readAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxBodySize))
}
