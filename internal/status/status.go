// Package status declares the canonical ticket status sequence and the
// per-stage progress computation used by the dashboard.
//
// The sequence is one closed enumeration shared by every producer and
// consumer. Legacy spellings that survived earlier data are normalized
// through an explicit alias table; a current status that still does not
// resolve maps every stage to StepUnmapped instead of silently rendering
// as pending.
package status

import "strings"

// Canonical stage slugs, in lifecycle order.
const (
	Created    = "created"
	Assigned   = "assigned"
	Accepted   = "accepted"
	OnTheWay   = "on_the_way"
	Arrived    = "arrived"
	Diagnosed  = "diagnosed"
	InProgress = "in_progress"
	Completed  = "completed"
	Paid       = "paid"
	Delivered  = "delivered"
	Closed     = "closed"
)

// Default is the status a ticket is created with when none is supplied.
const Default = Created

// Stage is one entry of the sequence, with display metadata.
type Stage struct {
	Slug        string `json:"slug"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Sequence is the canonical ordered stage list.
var Sequence = []Stage{
	{Created, "Created", "Ticket registered by the call center", "file-plus"},
	{Assigned, "Assigned", "Master proposed for the job", "user-plus"},
	{Accepted, "Accepted", "Master confirmed the job", "user-check"},
	{OnTheWay, "On the way", "Master en route to the customer", "truck"},
	{Arrived, "Arrived", "Master at the customer address", "map-pin"},
	{Diagnosed, "Diagnosed", "Fault identified, estimate agreed", "search"},
	{InProgress, "In progress", "Repair work underway", "wrench"},
	{Completed, "Completed", "Repair finished", "check-circle"},
	{Paid, "Paid", "Payment received", "credit-card"},
	{Delivered, "Delivered", "Device handed back to the customer", "package"},
	{Closed, "Closed", "Ticket archived", "lock"},
}

// legacyAliases maps spellings found in older data to canonical slugs.
// Keep this table explicit: new aliases are a product decision, not a guess.
var legacyAliases = map[string]string{
	"new":             Created,
	"on_way":          OnTheWay,
	"onway":           OnTheWay,
	"done":            Completed,
	"payment_blocked": Paid,
}

var indexBySlug = func() map[string]int {
	m := make(map[string]int, len(Sequence))
	for i, s := range Sequence {
		m[s.Slug] = i
	}
	return m
}()

// StepState is the display state of one stage relative to the current status.
type StepState string

const (
	StepCompleted StepState = "completed"
	StepActive    StepState = "active"
	StepPending   StepState = "pending"
	// StepUnmapped is reported for every stage when the current status does
	// not resolve to the sequence, so broken data is visible instead of
	// rendering as an untouched ticket.
	StepUnmapped StepState = "unmapped"
)

// Normalize lowercases, trims, and resolves legacy aliases. The second
// return is false when the value is not part of the canonical sequence.
func Normalize(raw string) (string, bool) {
	slug := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := legacyAliases[slug]; ok {
		slug = alias
	}
	_, ok := indexBySlug[slug]
	return slug, ok
}

// IsValid reports whether the value resolves to a canonical stage.
func IsValid(raw string) bool {
	_, ok := Normalize(raw)
	return ok
}

// Index returns the position of a canonical slug, or -1.
func Index(slug string) int {
	if i, ok := indexBySlug[slug]; ok {
		return i
	}
	return -1
}

// StepStateFor computes the display state of stage relative to current.
// Both values go through Normalize first.
func StepStateFor(stage, current string) StepState {
	stageSlug, ok := Normalize(stage)
	if !ok {
		return StepUnmapped
	}
	currentSlug, ok := Normalize(current)
	if !ok {
		return StepUnmapped
	}
	si, ci := indexBySlug[stageSlug], indexBySlug[currentSlug]
	switch {
	case si < ci:
		return StepCompleted
	case si == ci:
		return StepActive
	default:
		return StepPending
	}
}
