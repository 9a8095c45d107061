package handler

import (
	"database/sql"
	"net/http"
	"strconv"

	"redline/internal/domain"
	"redline/internal/services"
	"redline/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func fmtInt(n int) string { return strconv.Itoa(n) }

type CommentHandler struct {
	service  *services.CommentService
	sessions *services.SessionService
}

func NewCommentHandler(service *services.CommentService, sessions *services.SessionService) *CommentHandler {
	return &CommentHandler{service: service, sessions: sessions}
}

func (h *CommentHandler) Add(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid session id", "INVALID_REQUEST"))
		return
	}
	authorID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	var req httpdto.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
		return
	}

	sess, err := h.sessions.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}

	in := services.AddCommentInput{
		DocumentID:      sess.DocumentID,
		SessionID:       sessionID,
		AuthorID:        authorID,
		Content:         req.Content,
		Type:            domain.CommentType(req.Type),
		HighlightedText: req.HighlightedText,
	}
	if req.VersionID != "" {
		versionID, err := uuid.Parse(req.VersionID)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid version id", "INVALID_REQUEST"))
			return
		}
		in.VersionID = uuid.NullUUID{UUID: versionID, Valid: true}
	}
	if req.ParentCommentID != "" {
		parentID, err := uuid.Parse(req.ParentCommentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid parent comment id", "INVALID_REQUEST"))
			return
		}
		in.ParentCommentID = uuid.NullUUID{UUID: parentID, Valid: true}
	}
	if req.PageNumber != nil {
		in.PageNumber = sql.NullInt32{Int32: int32(*req.PageNumber), Valid: true}
	}

	cm, err := h.service.Add(c.Request.Context(), in)
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromComment(cm)))
}

func (h *CommentHandler) Resolve(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid session id", "INVALID_REQUEST"))
		return
	}
	commentID, err := uuid.Parse(c.Param("commentID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid comment id", "INVALID_REQUEST"))
		return
	}
	actorID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	var req httpdto.ResolveCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
		return
	}

	cm, err := h.service.Resolve(c.Request.Context(), commentID, sessionID, actorID, domain.CommentStatus(req.Outcome))
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromComment(cm)))
}

func (h *CommentHandler) ListByDocument(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("docID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid document id", "INVALID_REQUEST"))
		return
	}

	filter := services.FilterAll
	switch c.Query("filter") {
	case "open":
		filter = services.FilterOpen
	case "resolved":
		filter = services.FilterResolved
	case "", "all":
	default:
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid filter", "INVALID_REQUEST"))
		return
	}

	comments, err := h.service.List(c.Request.Context(), documentID, filter)
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListCommentsResponse{
		Comments: httpdto.FromCommentSlice(comments),
	}))
}
