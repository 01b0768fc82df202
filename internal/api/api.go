// Package api is the HTTP layer: route registration, request binding, and
// the translation of service errors into the JSON error envelope.
package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/remfix/remfix/internal/apierrors"
	"github.com/remfix/remfix/internal/config"
	"github.com/remfix/remfix/internal/middleware"
	"github.com/remfix/remfix/internal/realtime"
	"github.com/remfix/remfix/internal/repository"
	"github.com/remfix/remfix/internal/service"
	"github.com/remfix/remfix/internal/telegram"
	"github.com/remfix/remfix/internal/telephony"
)

// API bundles the handlers' dependencies.
type API struct {
	cfg            *config.Config
	auth           *service.AuthService
	tickets        *service.TicketService
	masters        *service.MasterService
	stats          *service.StatsService
	telephony      *telephony.Service
	notifier       *telegram.Notifier
	customers      repository.CustomerRepository
	serviceCenters repository.ServiceCenterRepository
	fraud          repository.FraudRepository
	hub            *realtime.Hub
	limiter        middleware.Limiter
	logger         *log.Logger
}

// Deps carries everything New needs. Notifier may be nil when the bot is
// not configured.
type Deps struct {
	Config         *config.Config
	Auth           *service.AuthService
	Tickets        *service.TicketService
	Masters        *service.MasterService
	Stats          *service.StatsService
	Telephony      *telephony.Service
	Notifier       *telegram.Notifier
	Customers      repository.CustomerRepository
	ServiceCenters repository.ServiceCenterRepository
	Fraud          repository.FraudRepository
	Hub            *realtime.Hub
	Limiter        middleware.Limiter
	Logger         *log.Logger
}

// New creates the HTTP layer.
func New(d Deps) *API {
	logger := d.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[API] ", log.LstdFlags)
	}
	return &API{
		cfg:            d.Config,
		auth:           d.Auth,
		tickets:        d.Tickets,
		masters:        d.Masters,
		stats:          d.Stats,
		telephony:      d.Telephony,
		notifier:       d.Notifier,
		customers:      d.Customers,
		serviceCenters: d.ServiceCenters,
		fraud:          d.Fraud,
		hub:            d.Hub,
		limiter:        d.Limiter,
		logger:         logger,
	}
}

func sendSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id < 1 {
		apierrors.Error(c, apierrors.CodeInvalidID)
		return 0, false
	}
	return id, true
}

// sendServiceError maps service and repository errors onto the registered
// API error codes. Anything unrecognized collapses to a generic 500 and is
// logged server-side.
func (a *API) sendServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		apierrors.Error(c, apierrors.CodeNotFound)
	case errors.Is(err, service.ErrInvalidStatus):
		apierrors.Error(c, apierrors.CodeTicketInvalidStatus)
	case errors.Is(err, service.ErrBadCredentials):
		apierrors.Error(c, apierrors.CodeBadLogin)
	case errors.Is(err, service.ErrSessionExpired):
		apierrors.Error(c, apierrors.CodeUnauthorized)
	case errors.Is(err, telephony.ErrBadSignature):
		apierrors.Error(c, apierrors.CodeCallBadSignature)
	default:
		a.logger.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		apierrors.Error(c, apierrors.CodeInternalError)
	}
}

// Healthz is the liveness endpoint.
func (a *API) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
