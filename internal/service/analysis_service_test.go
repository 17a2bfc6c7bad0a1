package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-service/internal/domain"
	"github.com/helpdesk-io/helpdesk-service/internal/repository/memory"
	"github.com/helpdesk-io/helpdesk-service/internal/service"
)

func newAnalysisFixture(t *testing.T) (*service.AnalysisService, *memory.TicketRepository, *fixedClock) {
	t.Helper()
	clock := newFixedClock(time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC))
	tickets := memory.NewTicketRepository()
	tickets.Now = clock.Now
	svc := service.NewAnalysisService(service.AnalysisDependencies{
		TicketRepo: tickets,
		Clock:      clock,
	})
	return svc, tickets, clock
}

func seedResolvedTicket(t *testing.T, tickets *memory.TicketRepository, title, description, resolution string) *domain.Ticket {
	t.Helper()
	resolvedAt := time.Date(2026, 4, 14, 9, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{
		RequesterID: "usr-1",
		Title:       title,
		Description: description,
		Resolution:  resolution,
		Status:      domain.TicketStatusResolved,
		ResolvedAt:  &resolvedAt,
	}
	require.NoError(t, tickets.Create(context.Background(), ticket))
	return ticket
}

func TestExtractKeywords(t *testing.T) {
	keywords := service.ExtractKeywords("Cannot print: the PRINTER on floor-3 is jammed, printer offline!")

	assert.Contains(t, keywords, "print")
	assert.Contains(t, keywords, "printer")
	assert.Contains(t, keywords, "floor")
	assert.Contains(t, keywords, "jammed")
	assert.Contains(t, keywords, "offline")
	assert.NotContains(t, keywords, "the", "stop word")
	assert.NotContains(t, keywords, "cannot", "stop word")

	// dedup: "printer" appears twice but is listed once
	count := 0
	for _, kw := range keywords {
		if kw == "printer" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestExtractKeywordsDropsShortTokens(t *testing.T) {
	keywords := service.ExtractKeywords("VPN is up and the app ran ok")
	assert.NotContains(t, keywords, "vpn", "three characters or fewer are dropped")
	assert.NotContains(t, keywords, "app")
	assert.NotContains(t, keywords, "ok")
}

func TestSimilarityScoreIdenticalText(t *testing.T) {
	candidate := &domain.Ticket{
		Title:       "Outlook keeps crashing on startup",
		Description: "Outlook crashes immediately after launching",
	}
	score := service.SimilarityScore(candidate.Title, candidate.Description, candidate)
	assert.Equal(t, 100, score, "identical keywords plus identical title caps at 100")
}

func TestSimilarityScoreDisjointText(t *testing.T) {
	candidate := &domain.Ticket{
		Title:       "Projector lamp replacement",
		Description: "Conference room projector shows nothing",
	}
	score := service.SimilarityScore("Password expired", "Domain password reset needed", candidate)
	assert.Equal(t, 0, score)
}

func TestSimilarityScoreTitleSubstringBonus(t *testing.T) {
	candidate := &domain.Ticket{
		Title:       "Printer offline",
		Description: "totally unrelated words here inside body",
	}
	score := service.SimilarityScore("Printer offline again today", "different body text entirely", candidate)
	other := &domain.Ticket{
		Title:       "Scanner offline",
		Description: "totally unrelated words here inside body",
	}
	otherScore := service.SimilarityScore("Printer offline again today", "different body text entirely", other)
	assert.Greater(t, score, otherScore, "contained title earns a bonus")
}

func TestFindSimilarTicketsFiltersAndRanks(t *testing.T) {
	svc, tickets, _ := newAnalysisFixture(t)

	strong := seedResolvedTicket(t, tickets, "Printer offline in accounting",
		"The accounting printer shows offline and refuses jobs", "power cycled the print spooler")
	seedResolvedTicket(t, tickets, "Coffee machine broken",
		"Kitchen appliance no longer heats water", "called facilities")

	results, err := svc.FindSimilarTickets(context.Background(),
		"Printer offline", "printer in accounting is offline again", nil, 3)
	require.NoError(t, err)
	require.Len(t, results, 1, "weak matches at or below threshold are discarded")
	assert.Equal(t, strong.ID, results[0].Ticket.ID)
	assert.Greater(t, results[0].Similarity, 20)
}

func TestFindSimilarTicketsNoKeywords(t *testing.T) {
	svc, tickets, _ := newAnalysisFixture(t)
	seedResolvedTicket(t, tickets, "Printer offline", "printer offline", "fixed")

	results, err := svc.FindSimilarTickets(context.Background(), "is it ok", "a b c", nil, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSuggestedSolution(t *testing.T) {
	svc, tickets, _ := newAnalysisFixture(t)
	seedResolvedTicket(t, tickets, "Printer offline in accounting",
		"The accounting printer shows offline", "power cycled the print spooler")

	suggestion, err := svc.SuggestedSolution(context.Background(),
		"Printer offline", "accounting printer offline once more", nil)
	require.NoError(t, err)
	require.NotNil(t, suggestion)
	assert.Equal(t, "power cycled the print spooler", suggestion.Ticket.Resolution)
}

func TestSuggestedSolutionSkipsBlankResolution(t *testing.T) {
	svc, tickets, _ := newAnalysisFixture(t)
	seedResolvedTicket(t, tickets, "Printer offline in accounting",
		"The accounting printer shows offline", "   ")

	suggestion, err := svc.SuggestedSolution(context.Background(),
		"Printer offline", "accounting printer offline once more", nil)
	require.NoError(t, err)
	assert.Nil(t, suggestion)
}

func TestFindRecurringIssues(t *testing.T) {
	svc, tickets, _ := newAnalysisFixture(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, tickets.Create(context.Background(), &domain.Ticket{
			RequesterID: "usr-1",
			Title:       "Wifi dropping in east wing",
			Description: "wireless connection drops",
			Status:      domain.TicketStatusNew,
		}))
	}
	require.NoError(t, tickets.Create(context.Background(), &domain.Ticket{
		RequesterID: "usr-2",
		Title:       "Monitor flickering",
		Description: "external monitor flickers",
		Status:      domain.TicketStatusNew,
	}))

	patterns, err := svc.FindRecurringIssues(context.Background(), 30, 3)
	require.NoError(t, err)
	require.NotEmpty(t, patterns)

	keywords := make(map[string]int)
	for _, p := range patterns {
		keywords[p.Keyword] = p.Count
		assert.GreaterOrEqual(t, p.Count, 3, "patterns below minOccurrences are excluded")
		assert.LessOrEqual(t, len(p.Examples), 5)
	}
	assert.Equal(t, 3, keywords["wifi"])
	assert.NotContains(t, keywords, "monitor", "only one occurrence")
}

func TestFindRecurringIssuesIgnoresOldTickets(t *testing.T) {
	svc, tickets, clock := newAnalysisFixture(t)

	old := clock.Now().AddDate(0, 0, -45)
	for i := 0; i < 3; i++ {
		require.NoError(t, tickets.Create(context.Background(), &domain.Ticket{
			RequesterID: "usr-1",
			Title:       "Legacy database timeout",
			Description: "database queries stall",
			Status:      domain.TicketStatusClosed,
			CreatedAt:   old,
		}))
	}

	patterns, err := svc.FindRecurringIssues(context.Background(), 30, 3)
	require.NoError(t, err)
	assert.Empty(t, patterns, "tickets outside the lookback window do not count")
}
