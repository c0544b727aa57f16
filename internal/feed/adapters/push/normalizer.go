package push

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/careercoach/pulse/internal/feed/domain/model"
	"github.com/careercoach/pulse/internal/feed/domain/state"
	"github.com/careercoach/pulse/internal/feed/faults"
)

// Stream identifies one of the three per-user push streams.
type Stream string

const (
	StreamNotifications Stream = "notifications"
	StreamUpdates       Stream = "notification-updates"
	StreamUnreadCount   Stream = "unread-count"
)

// streamOf maps a subscription channel name to its stream kind. Channels look
// like "/user/{id}/queue/notifications".
func streamOf(channel string) (Stream, bool) {
	idx := strings.LastIndex(channel, "/queue/")
	if idx < 0 {
		return "", false
	}
	switch s := Stream(channel[idx+len("/queue/"):]); s {
	case StreamNotifications, StreamUpdates, StreamUnreadCount:
		return s, true
	default:
		return "", false
	}
}

// Normalize translates one raw push payload into a reducer action. This is
// the only place push wire decoding happens. A malformed payload yields a
// normalization error that the caller logs and drops; it must never terminate
// the subscription.
func Normalize(stream Stream, payload []byte) (state.Action, error) {
	switch stream {
	case StreamNotifications:
		n, err := decodeNotification(payload)
		if err != nil {
			return nil, err
		}
		return state.AddNotification{Notification: n}, nil

	case StreamUpdates:
		n, err := decodeNotification(payload)
		if err != nil {
			return nil, err
		}
		return state.UpdateNotification{Notification: n}, nil

	case StreamUnreadCount:
		// The count arrives as a bare integer, possibly quoted.
		raw := strings.Trim(strings.TrimSpace(string(payload)), `"`)
		count, err := strconv.Atoi(raw)
		if err != nil {
			return nil, faults.Wrap(faults.KindNormalization, "unread count payload is not an integer", err)
		}
		if count < 0 {
			return nil, faults.New(faults.KindNormalization, "unread count payload is negative")
		}
		return state.SetUnreadCount{Count: count}, nil

	default:
		return nil, faults.New(faults.KindNormalization, "unknown push stream "+string(stream))
	}
}

func decodeNotification(payload []byte) (model.Notification, error) {
	var n model.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return model.Notification{}, faults.Wrap(faults.KindNormalization, "notification payload does not parse", err)
	}
	if n.ID == "" {
		return model.Notification{}, faults.New(faults.KindNormalization, "notification payload has no id")
	}
	return n, nil
}
