package domain

// WorkloadSnapshot is a per-agent view computed from ticket state on every
// request; it has no persisted lifecycle.
type WorkloadSnapshot struct {
	AgentID       string
	AgentName     string
	Open          int
	ResolvedToday int
	Closed        int
	Total         int
	SLACompliance float64
}

// SimilarityResult pairs a past resolved ticket with its similarity score
// against a query, in [0,100].
type SimilarityResult struct {
	Ticket     Ticket
	Similarity int
}

// RecurringPattern is a keyword recurring across tickets inside a lookback
// window, with up to five example tickets.
type RecurringPattern struct {
	Keyword  string
	Count    int
	Examples []Ticket
}
