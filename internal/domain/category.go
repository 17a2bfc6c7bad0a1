package domain

import "time"

// Category groups tickets by issue area. DefaultAgentID is a soft preference
// consulted during auto-assignment, not a hard routing rule.
type Category struct {
	ID             string
	Name           string
	Description    string
	DefaultAgentID *string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
