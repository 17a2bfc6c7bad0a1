package sla

import (
	"fmt"
	"time"

	"github.com/helpdesk-io/helpdesk-service/internal/domain"
)

// Clock provides the current instant. SLA math never reads the wall clock
// directly so time-dependent behavior stays deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads real time.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// priorityMatrix is the single source of truth mapping (impact, urgency) to a
// priority tier. No other component may recompute priority differently.
var priorityMatrix = map[domain.Impact]map[domain.Urgency]domain.Priority{
	domain.ImpactLow: {
		domain.UrgencyLow:    domain.PriorityP4,
		domain.UrgencyMedium: domain.PriorityP3,
		domain.UrgencyHigh:   domain.PriorityP2,
	},
	domain.ImpactMedium: {
		domain.UrgencyLow:    domain.PriorityP3,
		domain.UrgencyMedium: domain.PriorityP2,
		domain.UrgencyHigh:   domain.PriorityP1,
	},
	domain.ImpactHigh: {
		domain.UrgencyLow:    domain.PriorityP2,
		domain.UrgencyMedium: domain.PriorityP1,
		domain.UrgencyHigh:   domain.PriorityP1,
	},
}

// PriorityFor maps impact and urgency to a priority tier. Unknown inputs fall
// back to the lowest tier so the function stays total.
func PriorityFor(impact domain.Impact, urgency domain.Urgency) domain.Priority {
	if row, ok := priorityMatrix[impact]; ok {
		if p, ok := row[urgency]; ok {
			return p
		}
	}
	return domain.PriorityP4
}

// slaOffsets holds first-response and resolution offsets in minutes per tier.
var slaOffsets = map[domain.Priority]struct{ firstResponse, resolution int }{
	domain.PriorityP1: {15, 240},
	domain.PriorityP2: {60, 1440},
	domain.PriorityP3: {240, 4320},
	domain.PriorityP4: {1440, 10080},
}

// DueDates computes both SLA deadlines from the creation instant.
func DueDates(priority domain.Priority, createdAt time.Time) (firstResponseDue, resolutionDue time.Time) {
	offsets, ok := slaOffsets[priority]
	if !ok {
		offsets = slaOffsets[domain.PriorityP4]
	}
	firstResponseDue = createdAt.Add(time.Duration(offsets.firstResponse) * time.Minute)
	resolutionDue = createdAt.Add(time.Duration(offsets.resolution) * time.Minute)
	return firstResponseDue, resolutionDue
}

// IsBreached reports whether the deadline has passed. Strict: landing exactly
// on the deadline is not a breach.
func IsBreached(due, now time.Time) bool {
	return now.After(due)
}

// Status classifies remaining time against a deadline.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusBreached Status = "breached"
)

// warningFraction is the shared remaining-time threshold below which a clock
// enters warning. The interactive badge and the periodic sweep both classify
// through Evaluate so the two can never disagree.
const warningFraction = 0.2

// Evaluate classifies a deadline at the given instant. Breached at or past
// due; warning when the remaining window has shrunk below 20% of the total.
func Evaluate(createdAt, due, now time.Time) Status {
	if !now.Before(due) {
		return StatusBreached
	}
	total := due.Sub(createdAt)
	remaining := due.Sub(now)
	if total > 0 && float64(remaining) < warningFraction*float64(total) {
		return StatusWarning
	}
	return StatusOK
}

// Kind distinguishes the two SLA clocks a ticket carries.
type Kind string

const (
	KindFirstResponse Kind = "first_response"
	KindResolution    Kind = "resolution"
)

// FormatRemaining renders a duration for notification text using the largest
// nonzero unit only.
func FormatRemaining(remaining time.Duration) string {
	if remaining < time.Minute {
		return "less than 1 minute"
	}
	if days := int(remaining.Hours()) / 24; days > 0 {
		return fmt.Sprintf("%d day(s)", days)
	}
	if hours := int(remaining.Hours()); hours > 0 {
		return fmt.Sprintf("%d hour(s)", hours)
	}
	return fmt.Sprintf("%d minute(s)", int(remaining.Minutes()))
}
