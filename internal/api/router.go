package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/remfix/remfix/internal/middleware"
	"github.com/remfix/remfix/internal/permissions"
)

// Router builds the gin engine with every route registered.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics())

	r.GET("/healthz", a.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", a.ServeWS)

	// Provider callbacks authenticate by signature, not session.
	r.POST("/api/zadarma/webhook", a.ZadarmaWebhook)
	r.POST("/api/onlinepbx/webhook", a.OnlinePBXWebhook)
	r.POST("/api/calls/twilio/webhook", a.TwilioWebhook)
	r.POST("/api/telegram/webhook", a.TelegramWebhook)

	// Field-agent app, bearer JWT instead of a session.
	r.POST("/api/masters/:id/location", middleware.MasterJWT(a.cfg.Auth.JWTSecret), a.UpdateMasterLocation)

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", middleware.LoginRateLimit(a.limiter, a.cfg.RateLimit.LoginPerHour), a.Login)
		auth.POST("/logout", a.Logout)
		auth.GET("/me", middleware.SessionAuth(a.auth), a.Me)
	}

	api := r.Group("/api", middleware.SessionAuth(a.auth))
	{
		perm := func(check func(permissions.Set) bool) gin.HandlerFunc {
			return middleware.RequirePermission(check)
		}

		tickets := api.Group("/tickets")
		{
			tickets.GET("", perm(func(p permissions.Set) bool { return p.CanViewAllTickets || p.CanViewOwnTickets }), a.ListTickets)
			tickets.POST("", perm(func(p permissions.Set) bool { return p.CanCreateTicket }), a.CreateTicket)
			tickets.GET("/:id", perm(func(p permissions.Set) bool { return p.CanViewAllTickets || p.CanViewOwnTickets }), a.GetTicket)
			tickets.PATCH("/:id", perm(func(p permissions.Set) bool { return p.CanEditTicket }), a.UpdateTicket)
			tickets.DELETE("/:id", perm(func(p permissions.Set) bool { return p.CanDeleteTicket }), a.DeleteTicket)
			tickets.PATCH("/:id/status", perm(func(p permissions.Set) bool { return p.CanChangeTicketStatus }), a.ChangeTicketStatus)
			tickets.POST("/:id/assign", perm(func(p permissions.Set) bool { return p.CanAssignMaster }), a.AssignMaster)
			tickets.GET("/:id/history", perm(func(p permissions.Set) bool { return p.CanViewAllTickets }), a.TicketHistory)
		}

		masters := api.Group("/masters")
		{
			masters.GET("", perm(func(p permissions.Set) bool { return p.CanViewMasters }), a.ListMasters)
			masters.POST("", perm(func(p permissions.Set) bool { return p.CanManageMasters }), a.CreateMaster)
			masters.GET("/:id", perm(func(p permissions.Set) bool { return p.CanViewMasters }), a.GetMaster)
			masters.PATCH("/:id", perm(func(p permissions.Set) bool { return p.CanManageMasters }), a.UpdateMaster)
			masters.DELETE("/:id", perm(func(p permissions.Set) bool { return p.CanManageMasters }), a.DeleteMaster)
		}

		api.GET("/customers", perm(func(p permissions.Set) bool { return p.CanViewCustomers }), a.ListCustomers)
		api.GET("/stats", perm(func(p permissions.Set) bool { return p.CanViewStats }), a.GetStats)

		centers := api.Group("/service-centers")
		{
			centers.GET("", perm(func(p permissions.Set) bool { return p.CanViewServiceCenters }), a.ListServiceCenters)
			centers.POST("", perm(func(p permissions.Set) bool { return p.CanManageServiceCenters }), a.CreateServiceCenter)
			centers.PATCH("/:id", perm(func(p permissions.Set) bool { return p.CanManageServiceCenters }), a.UpdateServiceCenter)
			centers.DELETE("/:id", perm(func(p permissions.Set) bool { return p.CanManageServiceCenters }), a.DeleteServiceCenter)
		}

		fraud := api.Group("/fraud-alerts")
		{
			fraud.GET("", perm(func(p permissions.Set) bool { return p.CanViewFraudAlerts }), a.ListFraudAlerts)
			fraud.POST("/:id/resolve", perm(func(p permissions.Set) bool { return p.CanResolveFraudAlerts }), a.ResolveFraudAlert)
		}

		api.GET("/calls", perm(func(p permissions.Set) bool { return p.CanViewCallHistory }), a.ListCalls)
		api.GET("/zadarma/widget-config", perm(func(p permissions.Set) bool { return p.CanMakeCalls }), a.ZadarmaWidgetConfig)
	}

	return r
}
