package handler

import (
	"net/http"

	"redline/internal/services"
	"redline/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VersionHandler struct {
	service  *services.VersionService
	sessions *services.SessionService
}

func NewVersionHandler(service *services.VersionService, sessions *services.SessionService) *VersionHandler {
	return &VersionHandler{service: service, sessions: sessions}
}

func (h *VersionHandler) Create(c *gin.Context) {
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

	var req httpdto.CreateVersionRequest
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

	v, err := h.service.Create(c.Request.Context(), services.CreateVersionInput{
		DocumentID:  sess.DocumentID,
		SessionID:   sessionID,
		ActorID:     actorID,
		Content:     []byte(req.Content),
		VersionName: req.VersionName,
		Description: req.Description,
		IsMajor:     req.IsMajor,
		IsPublished: req.IsPublished,
		Tags:        req.Tags,
	})
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromVersion(v)))
}

func (h *VersionHandler) Restore(c *gin.Context) {
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

	var req httpdto.RestoreVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
		return
	}
	versionID, err := uuid.Parse(req.VersionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid version id", "INVALID_REQUEST"))
		return
	}

	sess, err := h.sessions.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}

	v, err := h.service.Restore(c.Request.Context(), sess.DocumentID, sessionID, actorID, versionID)
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromVersion(v)))
}

func (h *VersionHandler) ListByDocument(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("docID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid document id", "INVALID_REQUEST"))
		return
	}
	versions, err := h.service.ListByDocument(c.Request.Context(), documentID)
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListVersionsResponse{
		Versions: httpdto.FromVersionSlice(versions),
	}))
}

func (h *VersionHandler) Latest(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("docID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid document id", "INVALID_REQUEST"))
		return
	}
	v, err := h.service.Latest(c.Request.Context(), documentID)
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromVersion(v)))
}

func (h *VersionHandler) Compare(c *gin.Context) {
	versionA, err := uuid.Parse(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid from version id", "INVALID_REQUEST"))
		return
	}
	versionB, err := uuid.Parse(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid to version id", "INVALID_REQUEST"))
		return
	}
	changes, err := h.service.Compare(c.Request.Context(), versionA, versionB)
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.CompareResponse{
		VersionA: versionA.String(),
		VersionB: versionB.String(),
		Changes:  httpdto.FromChanges(changes),
	}))
}

func (h *VersionHandler) Download(c *gin.Context) {
	versionID, err := uuid.Parse(c.Param("versionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid version id", "INVALID_REQUEST"))
		return
	}
	v, content, err := h.service.Download(c.Request.Context(), versionID)
	if err != nil {
		status, resp := httpdto.FromError(err)
		c.JSON(status, resp)
		return
	}
	c.Header("X-Version-Number", fmtInt(v.VersionNumber))
	c.Header("X-Checksum", v.Checksum)
	c.Data(http.StatusOK, "application/octet-stream", content)
}
