package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/remfix/remfix/internal/apierrors"
	"github.com/remfix/remfix/internal/middleware"
	"github.com/remfix/remfix/internal/models"
)

// ListCustomers returns the customer aggregation, optionally filtered by a
// name or phone substring.
func (a *API) ListCustomers(c *gin.Context) {
	customers, err := a.customers.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, customers)
}

// GetStats returns the dashboard summary.
func (a *API) GetStats(c *gin.Context) {
	stats, err := a.stats.Summary(c.Request.Context())
	if err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, stats)
}

// ListServiceCenters returns all workshop locations.
func (a *API) ListServiceCenters(c *gin.Context) {
	centers, err := a.serviceCenters.List(c.Request.Context())
	if err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, centers)
}

type serviceCenterRequest struct {
	Name      string   `json:"name" binding:"required"`
	Address   string   `json:"address"`
	Phone     string   `json:"phone"`
	Region    string   `json:"region"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// CreateServiceCenter registers a workshop.
func (a *API) CreateServiceCenter(c *gin.Context) {
	var req serviceCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}
	sc := &models.ServiceCenter{
		Name:      req.Name,
		Address:   req.Address,
		Phone:     req.Phone,
		Region:    req.Region,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := a.serviceCenters.Create(c.Request.Context(), sc); err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, sc)
}

// UpdateServiceCenter rewrites a workshop record.
func (a *API) UpdateServiceCenter(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req serviceCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}
	sc, err := a.serviceCenters.GetByID(c.Request.Context(), id)
	if err != nil {
		a.sendServiceError(c, err)
		return
	}
	sc.Name = req.Name
	sc.Address = req.Address
	sc.Phone = req.Phone
	sc.Region = req.Region
	sc.Latitude = req.Latitude
	sc.Longitude = req.Longitude
	if err := a.serviceCenters.Update(c.Request.Context(), sc); err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, sc)
}

// DeleteServiceCenter removes a workshop.
func (a *API) DeleteServiceCenter(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := a.serviceCenters.Delete(c.Request.Context(), id); err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, nil)
}

// ListFraudAlerts returns fraud alerts, unresolved only unless
// ?include_resolved=true.
func (a *API) ListFraudAlerts(c *gin.Context) {
	includeResolved, _ := strconv.ParseBool(c.Query("include_resolved"))
	alerts, err := a.fraud.List(c.Request.Context(), includeResolved)
	if err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, alerts)
}

// ResolveFraudAlert marks an alert handled by the current user.
func (a *API) ResolveFraudAlert(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	session := middleware.GetSession(c)
	if err := a.fraud.Resolve(c.Request.Context(), id, session.UserID); err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, nil)
}
