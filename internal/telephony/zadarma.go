package telephony

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/remfix/remfix/internal/models"
	"github.com/remfix/remfix/internal/realtime"
)

// Zadarma notification event names.
const (
	zadarmaNotifyStart    = "NOTIFY_START"
	zadarmaNotifyAnswer   = "NOTIFY_ANSWER"
	zadarmaNotifyEnd      = "NOTIFY_END"
	zadarmaNotifyOutStart = "NOTIFY_OUT_START"
	zadarmaNotifyOutEnd   = "NOTIFY_OUT_END"
)

// ZadarmaSignature computes the expected webhook signature: base64 of
// HMAC-SHA1 over the params sorted by key and joined as a query string.
func ZadarmaSignature(params url.Values, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params.Get(k))
	}
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyZadarma checks the Signature header against the request params.
func VerifyZadarma(signature string, params url.Values, secret string) bool {
	expected := ZadarmaSignature(params, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// WidgetConfig is the key material the frontend click-to-call widget needs.
type WidgetConfig struct {
	Key  string `json:"key"`
	Sign string `json:"sign"`
}

// ZadarmaWidgetConfig signs the configured widget key for the frontend.
func (s *Service) ZadarmaWidgetConfig() (*WidgetConfig, error) {
	if s.cfg.ZadarmaKey == "" || s.cfg.ZadarmaSecret == "" {
		return nil, fmt.Errorf("zadarma widget: key and secret are not configured")
	}
	mac := hmac.New(sha1.New, []byte(s.cfg.ZadarmaSecret))
	mac.Write([]byte(s.cfg.ZadarmaKey))
	return &WidgetConfig{
		Key:  s.cfg.ZadarmaKey,
		Sign: base64.StdEncoding.EncodeToString(mac.Sum(nil)),
	}, nil
}

// HandleZadarma verifies and applies one Zadarma notification.
func (s *Service) HandleZadarma(ctx context.Context, signature string, params url.Values) error {
	if err := s.verify(models.CallProviderZadarma, s.cfg.ZadarmaSecret, func() bool {
		return VerifyZadarma(signature, params, s.cfg.ZadarmaSecret)
	}); err != nil {
		return err
	}

	event := params.Get("event")
	pbxID := params.Get("pbx_call_id")
	caller := params.Get("caller_id")
	called := params.Get("called_did")

	switch event {
	case zadarmaNotifyStart:
		cr, err := s.open(ctx, models.CallProviderZadarma, pbxID, models.CallDirectionInbound, caller, called)
		if err != nil {
			return fmt.Errorf("zadarma start: %w", err)
		}
		s.hub.Broadcast(realtime.Event{Type: realtime.EventIncomingCall, Payload: cr})
		return nil

	case zadarmaNotifyAnswer:
		cr, err := s.open(ctx, models.CallProviderZadarma, pbxID, models.CallDirectionInbound, caller, called)
		if err != nil {
			return fmt.Errorf("zadarma answer: %w", err)
		}
		if err := s.calls.UpdateStatus(ctx, cr.ID, models.CallStatusAnswered, nil); err != nil {
			return fmt.Errorf("zadarma answer: %w", err)
		}
		cr.Status = models.CallStatusAnswered
		s.hub.Broadcast(realtime.Event{Type: realtime.EventCallAccepted, Payload: cr})
		return nil

	case zadarmaNotifyEnd, zadarmaNotifyOutEnd:
		cr, err := s.open(ctx, models.CallProviderZadarma, pbxID, models.CallDirectionInbound, caller, called)
		if err != nil {
			return fmt.Errorf("zadarma end: %w", err)
		}
		status := models.CallStatusEnded
		// disposition tells missed calls from completed ones
		if params.Get("disposition") == "no answer" && cr.Status == models.CallStatusRinging {
			status = models.CallStatusMissed
		}
		if err := s.close(ctx, cr, status); err != nil {
			return fmt.Errorf("zadarma end: %w", err)
		}
		s.hub.Broadcast(realtime.Event{Type: realtime.EventCallEnded, Payload: cr})
		return nil

	case zadarmaNotifyOutStart:
		cr, err := s.open(ctx, models.CallProviderZadarma, pbxID, models.CallDirectionOutbound, caller, called)
		if err != nil {
			return fmt.Errorf("zadarma out start: %w", err)
		}
		s.hub.Broadcast(realtime.Event{Type: realtime.EventOutgoingCall, Payload: cr})
		return nil
	}

	s.logger.Printf("zadarma: ignoring event %q (call %s)", event, pbxID)
	return ErrUnknownEvent
}
