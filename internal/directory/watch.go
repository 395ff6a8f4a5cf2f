package directory

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ashureev/eventplanner/internal/events"
)

// Watch follows the server's change stream for userID until ctx ends or the
// connection drops. Each change invalidates the listing; deletions also
// clear a matching selection. The optional onEvent hook runs after that.
func (d *Directory) Watch(ctx context.Context, streamURL, userID string, onEvent func(events.Event)) error {
	if userID == "" {
		return fmt.Errorf("watch requires a user id")
	}
	u, err := url.Parse(streamURL)
	if err != nil {
		return fmt.Errorf("parse events url: %w", err)
	}
	q := u.Query()
	q.Set("userId", userID)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial events: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "watch ended")

	d.logger.Info("Watching session events", "user_id", userID)
	for {
		var ev events.Event
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			if errors.Is(err, context.Canceled) || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}
		if ev.UserID != "" && ev.UserID != userID {
			continue
		}

		d.Invalidate(userID)
		if ev.Type == events.TypeSessionDeleted {
			d.clearSelectionIf(ev.ChatSessionID)
		}
		d.logger.Debug("Session event", "type", ev.Type, "chat_session_id", ev.ChatSessionID)
		if onEvent != nil {
			onEvent(ev)
		}
	}
}
