package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/remfix/remfix/internal/apierrors"
	"github.com/remfix/remfix/internal/telephony"
)

// ZadarmaWebhook handles Zadarma PBX notifications.
func (a *API) ZadarmaWebhook(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}
	// Zadarma verifies webhook URLs with a zd_echo probe before enabling them.
	if echo := c.Request.Form.Get("zd_echo"); echo != "" {
		c.String(http.StatusOK, echo)
		return
	}

	err := a.telephony.HandleZadarma(c.Request.Context(), c.GetHeader("Signature"), c.Request.PostForm)
	a.finishWebhook(c, err)
}

// OnlinePBXWebhook handles OnlinePBX events.
func (a *API) OnlinePBXWebhook(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}
	err := a.telephony.HandleOnlinePBX(c.Request.Context(), c.GetHeader(telephony.OnlinePBXKeyHeader), c.Request.PostForm)
	a.finishWebhook(c, err)
}

// TwilioWebhook handles Twilio status callbacks.
func (a *API) TwilioWebhook(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}
	err := a.telephony.HandleTwilio(c.Request.Context(), c.GetHeader("X-Twilio-Signature"), a.requestURL(c), c.Request.PostForm)
	a.finishWebhook(c, err)
}

// requestURL rebuilds the URL Twilio signed. The configured public URL wins
// over the Host header because the service usually sits behind a proxy.
func (a *API) requestURL(c *gin.Context) string {
	if base := a.cfg.Server.PublicURL; base != "" {
		return strings.TrimSuffix(base, "/") + c.Request.URL.RequestURI()
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.RequestURI()
}

func (a *API) finishWebhook(c *gin.Context, err error) {
	switch {
	case err == nil:
		c.String(http.StatusOK, "ok")
	case errors.Is(err, telephony.ErrUnknownEvent):
		// acknowledged so the provider stops retrying an event we ignore
		c.String(http.StatusOK, "ignored")
	default:
		a.sendServiceError(c, err)
	}
}

// ZadarmaWidgetConfig returns the signed key material for the click-to-call
// widget.
func (a *API) ZadarmaWidgetConfig(c *gin.Context) {
	wc, err := a.telephony.ZadarmaWidgetConfig()
	if err != nil {
		apierrors.Error(c, apierrors.CodeServiceUnavailable)
		return
	}
	sendSuccess(c, http.StatusOK, wc)
}

// ListCalls returns the recent call log.
func (a *API) ListCalls(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	calls, err := a.telephony.Recent(c.Request.Context(), limit)
	if err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, calls)
}
