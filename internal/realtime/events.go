package realtime

// Event types pushed to dashboard clients.
const (
	EventTicketCreated = "ticket_created"
	EventTicketUpdated = "ticket_updated"
	EventTicketDeleted = "ticket_deleted"

	EventIncomingCall = "incoming_call"
	EventCallAccepted = "call_accepted"
	EventCallRejected = "call_rejected"
	EventCallEnded    = "call_ended"
	EventOutgoingCall = "outgoing_call"

	EventOnlinePBXCallStart = "onlinepbx_call_start"
	EventOnlinePBXCallEnd   = "onlinepbx_call_end"

	EventMasterLocation = "master_location"
)

// Event is one message broadcast to every connected client.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Broadcaster is the narrow interface services use to publish events.
type Broadcaster interface {
	Broadcast(ev Event)
}

// NopBroadcaster discards events. Used in tests and in the migrate command.
type NopBroadcaster struct{}

// Broadcast implements Broadcaster.
func (NopBroadcaster) Broadcast(Event) {}
