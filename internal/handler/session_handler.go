package handler

import (
	"net/http"

	"redline/internal/domain"
	"redline/internal/domain/session"
	"redline/internal/services"
	"redline/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SessionHandler struct {
	service *services.SessionService
}

func NewSessionHandler(service *services.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req httpdto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
		return
	}

	hostID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	documentID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid document id", "INVALID_REQUEST"))
		return
	}

	sess, err := h.service.Create(c.Request.Context(), services.CreateSessionInput{
		DocumentID:      documentID,
		HostUserID:      hostID,
		Name:            req.Name,
		Type:            domain.SessionType(req.Type),
		MaxParticipants: req.MaxParticipants,
		IsPublic:        req.IsPublic,
		StartActive:     req.StartActive,
		Settings: session.Settings{
			AllowAnonymous:  req.Settings.AllowAnonymous,
			RequireApproval: req.Settings.RequireApproval,
			EnableChat:      req.Settings.EnableChat,
			EnableVoice:     req.Settings.EnableVoice,
			AutoSaveSeconds: req.Settings.AutoSaveSeconds,
		},
	})
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromSession(sess, true)))
}

func (h *SessionHandler) GetByID(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid session id", "INVALID_REQUEST"))
		return
	}
	sess, err := h.service.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}

	userID, _ := services.UserIDFromContext(c.Request.Context())
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromSession(sess, sess.HostUserID == userID)))
}

func (h *SessionHandler) ListByDocument(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("docID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid document id", "INVALID_REQUEST"))
		return
	}
	sessions, err := h.service.ListByDocument(c.Request.Context(), documentID)
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListSessionsResponse{
		Sessions: httpdto.FromSessionSlice(sessions),
	}))
}

func (h *SessionHandler) Join(c *gin.Context) {
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

	var req httpdto.JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	p, err := h.service.Join(c.Request.Context(), services.JoinSessionInput{
		SessionID:  sessionID,
		UserID:     userID,
		AccessCode: req.AccessCode,
	})
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromParticipant(p)))
}

func (h *SessionHandler) Leave(c *gin.Context) {
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
	if err := h.service.Leave(c.Request.Context(), sessionID, userID); err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"left": true}))
}

func (h *SessionHandler) Transition(c *gin.Context) {
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

	var req httpdto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
		return
	}

	sess, err := h.service.Transition(c.Request.Context(), sessionID, userID, domain.SessionStatus(req.Status))
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromSession(sess, sess.HostUserID == userID)))
}

func (h *SessionHandler) SetRole(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid session id", "INVALID_REQUEST"))
		return
	}
	actorID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	var req httpdto.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
		return
	}
	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "INVALID_REQUEST"))
		return
	}

	p, err := h.service.SetRole(c.Request.Context(), sessionID, actorID, targetID, domain.ParticipantRole(req.Role))
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromParticipant(p)))
}

func (h *SessionHandler) Approve(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid session id", "INVALID_REQUEST"))
		return
	}
	actorID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	var req httpdto.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
		return
	}
	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "INVALID_REQUEST"))
		return
	}

	p, err := h.service.Approve(c.Request.Context(), sessionID, actorID, targetID)
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromParticipant(p)))
}

func (h *SessionHandler) Heartbeat(c *gin.Context) {
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

	var req httpdto.HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
		return
	}

	if err := h.service.Heartbeat(c.Request.Context(), sessionID, userID, domain.ParticipantStatus(req.Status)); err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": req.Status}))
}

func (h *SessionHandler) GetParticipants(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid session id", "INVALID_REQUEST"))
		return
	}
	participants, err := h.service.GetParticipants(c.Request.Context(), sessionID)
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}
	out := make([]httpdto.ParticipantDTO, 0, len(participants))
	for _, p := range participants {
		out = append(out, httpdto.FromParticipant(p))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}
