package websocket

import (
	"context"

	"redline/internal/proxy"

	"github.com/google/uuid"
)

// ChannelAuthorizer gates channel subscriptions on session membership.
type ChannelAuthorizer struct {
	access *proxy.AccessControl
}

func NewChannelAuthorizer(access *proxy.AccessControl) *ChannelAuthorizer {
	return &ChannelAuthorizer{access: access}
}

// CanSubscribe checks whether a user may subscribe to a channel. Only
// session channels are requested directly; the document channel comes
// with the session subscription. Only active, approved participants
// see a session's live events.
func (a *ChannelAuthorizer) CanSubscribe(ctx context.Context, userID uuid.UUID, ch Channel) (bool, error) {
	if ch.Kind != ChannelKindSession {
		return false, nil
	}
	sessionID, err := uuid.Parse(ch.ID)
	if err != nil {
		return false, nil
	}

	if err := a.access.Authorize(ctx, sessionID, userID, proxy.ActionVersionView); err != nil {
		return false, nil
	}
	return true, nil
}
