package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/remfix/remfix/internal/apierrors"
	"github.com/remfix/remfix/internal/middleware"
	"github.com/remfix/remfix/internal/models"
)

// ListMasters returns all masters with derived online state.
func (a *API) ListMasters(c *gin.Context) {
	views, err := a.masters.List(c.Request.Context())
	if err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, views)
}

// GetMaster returns one master.
func (a *API) GetMaster(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	view, err := a.masters.Get(c.Request.Context(), id)
	if err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, view)
}

type masterRequest struct {
	Name           string `json:"name" binding:"required"`
	Phone          string `json:"phone"`
	Region         string `json:"region"`
	TelegramChatID *int64 `json:"telegram_chat_id"`
}

// CreateMaster registers a technician.
func (a *API) CreateMaster(c *gin.Context) {
	var req masterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}
	m := &models.Master{
		Name:           req.Name,
		Phone:          req.Phone,
		Region:         req.Region,
		TelegramChatID: req.TelegramChatID,
	}
	if err := a.masters.Create(c.Request.Context(), m); err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, m)
}

// UpdateMaster rewrites a technician's profile.
func (a *API) UpdateMaster(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req masterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}
	view, err := a.masters.Get(c.Request.Context(), id)
	if err != nil {
		a.sendServiceError(c, err)
		return
	}
	m := view.Master
	m.Name = req.Name
	m.Phone = req.Phone
	m.Region = req.Region
	m.TelegramChatID = req.TelegramChatID
	if err := a.masters.Update(c.Request.Context(), m); err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, m)
}

// DeleteMaster removes a technician.
func (a *API) DeleteMaster(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := a.masters.Delete(c.Request.Context(), id); err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, nil)
}

type locationRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// UpdateMasterLocation stores a GPS fix from the field-agent app. The path
// id must match the JWT subject; a master cannot move another master's pin.
func (a *API) UpdateMasterLocation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if middleware.GetMasterID(c) != id {
		apierrors.Error(c, apierrors.CodeForbidden)
		return
	}
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}
	if err := a.masters.UpdateLocation(c.Request.Context(), id, req.Latitude, req.Longitude); err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, nil)
}
