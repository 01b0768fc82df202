package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/remfix/remfix/internal/apierrors"
	"github.com/remfix/remfix/internal/middleware"
	"github.com/remfix/remfix/internal/models"
	"github.com/remfix/remfix/internal/repository"
	"github.com/remfix/remfix/internal/service"
)

func actorID(c *gin.Context) *int64 {
	if session := middleware.GetSession(c); session != nil {
		return &session.UserID
	}
	return nil
}

// ListTickets returns a filtered, paginated ticket page. Masters only see
// their own tickets.
func (a *API) ListTickets(c *gin.Context) {
	req := &models.TicketListRequest{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}
	req.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	req.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "25"))
	req.MasterID, _ = strconv.ParseInt(c.Query("master_id"), 10, 64)

	session := middleware.GetSession(c)
	if session.Role == models.RoleMaster {
		user, err := a.auth.User(c.Request.Context(), session.UserID)
		if err != nil {
			a.sendServiceError(c, err)
			return
		}
		if user.MasterID == nil {
			sendSuccess(c, http.StatusOK, gin.H{"tickets": []*models.Ticket{}, "pagination": models.Pagination{Page: 1, PerPage: req.PerPage}})
			return
		}
		req.MasterID = *user.MasterID
	}

	resp, err := a.tickets.List(c.Request.Context(), req)
	if err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"tickets": resp.Tickets, "pagination": resp.Pagination})
}

// GetTicket returns one ticket.
func (a *API) GetTicket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := a.tickets.Get(c.Request.Context(), id)
	if err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, t)
}

type createTicketRequest struct {
	CustomerName  string     `json:"customer_name" binding:"required"`
	CustomerPhone string     `json:"customer_phone" binding:"required"`
	Address       string     `json:"address"`
	DeviceType    string     `json:"device_type"`
	DeviceModel   string     `json:"device_model"`
	Issue         string     `json:"issue"`
	Status        string     `json:"status"`
	Warranty      bool       `json:"warranty"`
	CostEstimate  float64    `json:"cost_estimate"`
	ScheduledAt   *time.Time `json:"scheduled_at"`
}

// CreateTicket registers a new ticket from the intake form.
func (a *API) CreateTicket(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}

	t, err := a.tickets.Create(c.Request.Context(), &service.CreateInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Address:       req.Address,
		DeviceType:    req.DeviceType,
		DeviceModel:   req.DeviceModel,
		Issue:         req.Issue,
		Status:        req.Status,
		Warranty:      req.Warranty,
		CostEstimate:  req.CostEstimate,
		ScheduledAt:   req.ScheduledAt,
		ActorID:       actorID(c),
	})
	if err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, t)
}

type updateTicketRequest struct {
	CustomerName  *string    `json:"customer_name"`
	CustomerPhone *string    `json:"customer_phone"`
	Address       *string    `json:"address"`
	DeviceType    *string    `json:"device_type"`
	DeviceModel   *string    `json:"device_model"`
	Issue         *string    `json:"issue"`
	Warranty      *bool      `json:"warranty"`
	CostEstimate  *float64   `json:"cost_estimate"`
	CostActual    *float64   `json:"cost_actual"`
	DistanceKm    *float64   `json:"distance_km"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
	PhotoURLs     *string    `json:"photo_urls"`
	SignatureRef  *string    `json:"signature_ref"`
	ScheduledAt   *time.Time `json:"scheduled_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

// UpdateTicket patches ticket fields. Absent fields stay untouched.
func (a *API) UpdateTicket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}

	t, err := a.tickets.Update(c.Request.Context(), id, &repository.TicketUpdate{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Address:       req.Address,
		DeviceType:    req.DeviceType,
		DeviceModel:   req.DeviceModel,
		Issue:         req.Issue,
		Warranty:      req.Warranty,
		CostEstimate:  req.CostEstimate,
		CostActual:    req.CostActual,
		DistanceKm:    req.DistanceKm,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		PhotoURLs:     req.PhotoURLs,
		SignatureRef:  req.SignatureRef,
		ScheduledAt:   req.ScheduledAt,
		CompletedAt:   req.CompletedAt,
	}, actorID(c))
	if err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, t)
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ChangeTicketStatus sets the lifecycle stage. No monotonicity guard: any
// valid stage is accepted from any current stage.
func (a *API) ChangeTicketStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}

	t, err := a.tickets.ChangeStatus(c.Request.Context(), id, req.Status, actorID(c))
	if err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, t)
}

type assignMasterRequest struct {
	MasterID int64 `json:"master_id" binding:"required"`
}

// AssignMaster proposes a master for the ticket and pushes the Telegram
// accept/reject prompt.
func (a *API) AssignMaster(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req assignMasterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}

	t, err := a.tickets.Assign(c.Request.Context(), id, req.MasterID, actorID(c))
	if err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, t)
}

// TicketHistory returns the ticket's audit trail, newest first.
func (a *API) TicketHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	entries, err := a.tickets.History(c.Request.Context(), id)
	if err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, entries)
}

// DeleteTicket removes a ticket. Routed behind CanDeleteTicket, which only
// admins hold.
func (a *API) DeleteTicket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := a.tickets.Delete(c.Request.Context(), id, actorID(c)); err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, nil)
}
