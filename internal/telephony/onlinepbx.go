package telephony

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"

	"github.com/remfix/remfix/internal/models"
	"github.com/remfix/remfix/internal/realtime"
)

// OnlinePBXKeyHeader carries the shared key on webhook requests.
const OnlinePBXKeyHeader = "X-PBX-Authentication"

// VerifyOnlinePBX compares the shared key header in constant time.
func VerifyOnlinePBX(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// HandleOnlinePBX verifies and applies one OnlinePBX event.
func (s *Service) HandleOnlinePBX(ctx context.Context, key string, params url.Values) error {
	if err := s.verify(models.CallProviderOnlinePBX, s.cfg.OnlinePBXKey, func() bool {
		return VerifyOnlinePBX(key, s.cfg.OnlinePBXKey)
	}); err != nil {
		return err
	}

	uuid := params.Get("uuid")
	caller := params.Get("caller")
	callee := params.Get("callee")

	switch params.Get("event") {
	case "call_start":
		cr, err := s.open(ctx, models.CallProviderOnlinePBX, uuid, models.CallDirectionInbound, caller, callee)
		if err != nil {
			return fmt.Errorf("onlinepbx start: %w", err)
		}
		s.hub.Broadcast(realtime.Event{Type: realtime.EventOnlinePBXCallStart, Payload: cr})
		return nil

	case "call_end":
		cr, err := s.open(ctx, models.CallProviderOnlinePBX, uuid, models.CallDirectionInbound, caller, callee)
		if err != nil {
			return fmt.Errorf("onlinepbx end: %w", err)
		}
		if err := s.close(ctx, cr, models.CallStatusEnded); err != nil {
			return fmt.Errorf("onlinepbx end: %w", err)
		}
		s.hub.Broadcast(realtime.Event{Type: realtime.EventOnlinePBXCallEnd, Payload: cr})
		return nil
	}

	s.logger.Printf("onlinepbx: ignoring event %q (call %s)", params.Get("event"), uuid)
	return ErrUnknownEvent
}
