package telephony

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"

	"github.com/remfix/remfix/internal/models"
	"github.com/remfix/remfix/internal/realtime"
)

// TwilioSignature computes the expected X-Twilio-Signature value: base64 of
// HMAC-SHA1 over the full request URL with every POST param appended as
// key+value in key order.
func TwilioSignature(requestURL string, params url.Values, authToken string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := requestURL
	for _, k := range keys {
		payload += k + params.Get(k)
	}
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyTwilio checks the X-Twilio-Signature header.
func VerifyTwilio(signature, requestURL string, params url.Values, authToken string) bool {
	expected := TwilioSignature(requestURL, params, authToken)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// twilioStatus maps Twilio CallStatus values onto call-record statuses.
var twilioStatus = map[string]string{
	"queued":      models.CallStatusRinging,
	"ringing":     models.CallStatusRinging,
	"in-progress": models.CallStatusAnswered,
	"completed":   models.CallStatusEnded,
	"busy":        models.CallStatusRejected,
	"no-answer":   models.CallStatusMissed,
	"canceled":    models.CallStatusMissed,
	"failed":      models.CallStatusMissed,
}

// HandleTwilio verifies and applies one Twilio status callback.
func (s *Service) HandleTwilio(ctx context.Context, signature, requestURL string, params url.Values) error {
	if err := s.verify(models.CallProviderTwilio, s.cfg.TwilioAuthToken, func() bool {
		return VerifyTwilio(signature, requestURL, params, s.cfg.TwilioAuthToken)
	}); err != nil {
		return err
	}

	callSID := params.Get("CallSid")
	status, ok := twilioStatus[params.Get("CallStatus")]
	if !ok {
		s.logger.Printf("twilio: ignoring status %q (call %s)", params.Get("CallStatus"), callSID)
		return ErrUnknownEvent
	}

	direction := models.CallDirectionInbound
	if params.Get("Direction") != "inbound" {
		direction = models.CallDirectionOutbound
	}
	cr, err := s.open(ctx, models.CallProviderTwilio, callSID, direction, params.Get("From"), params.Get("To"))
	if err != nil {
		return fmt.Errorf("twilio %s: %w", callSID, err)
	}

	switch status {
	case models.CallStatusRinging:
		event := realtime.EventIncomingCall
		if direction == models.CallDirectionOutbound {
			event = realtime.EventOutgoingCall
		}
		s.hub.Broadcast(realtime.Event{Type: event, Payload: cr})
	case models.CallStatusAnswered:
		if err := s.calls.UpdateStatus(ctx, cr.ID, status, nil); err != nil {
			return fmt.Errorf("twilio %s: %w", callSID, err)
		}
		cr.Status = status
		s.hub.Broadcast(realtime.Event{Type: realtime.EventCallAccepted, Payload: cr})
	case models.CallStatusRejected:
		if err := s.close(ctx, cr, status); err != nil {
			return fmt.Errorf("twilio %s: %w", callSID, err)
		}
		s.hub.Broadcast(realtime.Event{Type: realtime.EventCallRejected, Payload: cr})
	default:
		if err := s.close(ctx, cr, status); err != nil {
			return fmt.Errorf("twilio %s: %w", callSID, err)
		}
		s.hub.Broadcast(realtime.Event{Type: realtime.EventCallEnded, Payload: cr})
	}
	return nil
}
