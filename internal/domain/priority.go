package domain

// Priority is the derived severity tier, P1 most urgent. It is always a pure
// function of impact and urgency (see the sla package) and is never written
// independently of them.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
	PriorityP4 Priority = "P4"
)
