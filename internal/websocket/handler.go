package websocket

import (
	"context"
	"net/http"
	"time"

	"redline/internal/domain"
	"redline/internal/services"
	"redline/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler upgrades session connections. A live connection doubles as
// presence: the participant goes online on connect, stays online
// through reads, and goes offline when the socket drops.
type Handler struct {
	sessions   *services.SessionService
	authorizer *ChannelAuthorizer
	hub        *Hub
}

func NewHandler(sessions *services.SessionService, authorizer *ChannelAuthorizer, hub *Hub) *Handler {
	return &Handler{sessions: sessions, authorizer: authorizer, hub: hub}
}

func (h *Handler) Connect(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid session id", "INVALID_REQUEST"))
		return
	}
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	sessionChannel := SessionChannel(sessionID.String())
	allowed, err := h.authorizer.CanSubscribe(c.Request.Context(), userID, sessionChannel)
	if err != nil || !allowed {
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("forbidden", "FORBIDDEN"))
		return
	}

	sess, err := h.sessions.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, userID.String(), sessionID.String())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	h.hub.Subscribe(client, sessionChannel)
	h.hub.Subscribe(client, DocumentChannel(sess.DocumentID.String()))
	go client.WriteLoop(ctx)

	_ = h.sessions.Heartbeat(ctx, sessionID, userID, domain.ParticipantStatusActive)

	conn.SetReadDeadline(time.Now().Add(readWait))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		conn.SetReadDeadline(time.Now().Add(readWait))
		_ = h.sessions.Heartbeat(ctx, sessionID, userID, domain.ParticipantStatusActive)
	}

	_ = h.sessions.SetOffline(ctx, sessionID, userID)
	h.hub.Unregister(client)
}
