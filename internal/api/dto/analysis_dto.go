package dto

import "github.com/helpdesk-io/helpdesk-service/internal/domain"

// SimilarTicketResponse pairs a past ticket with its similarity score.
type SimilarTicketResponse struct {
	Ticket     TicketSummary `json:"ticket"`
	Similarity int           `json:"similarity"`
}

// SuggestionResponse carries a candidate resolution for deflection.
type SuggestionResponse struct {
	TicketID    string `json:"ticket_id"`
	ExternalKey string `json:"external_key"`
	Title       string `json:"title"`
	Resolution  string `json:"resolution"`
	Similarity  int    `json:"similarity"`
}

// RecurringPatternResponse is one recurring keyword with examples.
type RecurringPatternResponse struct {
	Keyword  string          `json:"keyword"`
	Count    int             `json:"count"`
	Examples []TicketSummary `json:"examples"`
}

// NewSimilarTicketResponses maps analyzer results.
func NewSimilarTicketResponses(results []domain.SimilarityResult) []SimilarTicketResponse {
	out := make([]SimilarTicketResponse, 0, len(results))
	for i := range results {
		out = append(out, SimilarTicketResponse{
			Ticket:     NewTicketSummary(&results[i].Ticket),
			Similarity: results[i].Similarity,
		})
	}
	return out
}

// NewRecurringPatternResponses maps recurrence results.
func NewRecurringPatternResponses(patterns []domain.RecurringPattern) []RecurringPatternResponse {
	out := make([]RecurringPatternResponse, 0, len(patterns))
	for i := range patterns {
		examples := make([]TicketSummary, 0, len(patterns[i].Examples))
		for j := range patterns[i].Examples {
			examples = append(examples, NewTicketSummary(&patterns[i].Examples[j]))
		}
		out = append(out, RecurringPatternResponse{
			Keyword:  patterns[i].Keyword,
			Count:    patterns[i].Count,
			Examples: examples,
		})
	}
	return out
}
