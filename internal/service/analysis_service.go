package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk-service/internal/domain"
	"github.com/helpdesk-io/helpdesk-service/internal/repository"
	"github.com/helpdesk-io/helpdesk-service/internal/sla"
	apperrors "github.com/helpdesk-io/helpdesk-service/pkg/util"
)

const (
	minKeywordLength     = 3  // tokens this short or shorter are dropped
	similarityThreshold  = 20 // results at or below are discarded
	defaultSimilarLimit  = 3
	recurringTopPatterns = 10
	recurringMaxExamples = 5
	suggestionCacheTTL   = 5 * time.Minute
)

// stopWords are articles, auxiliary verbs and pronouns that carry no topical
// signal in ticket text.
var stopWords = map[string]struct{}{
	"this": {}, "that": {}, "these": {}, "those": {},
	"with": {}, "from": {}, "have": {}, "has": {}, "had": {},
	"been": {}, "being": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "about": {}, "when": {}, "where": {}, "what": {},
	"which": {}, "there": {}, "their": {}, "they": {}, "them": {},
	"then": {}, "than": {}, "your": {}, "yours": {}, "mine": {},
	"does": {}, "doing": {}, "into": {}, "onto": {}, "after": {},
	"before": {}, "while": {}, "cannot": {}, "cant": {}, "wont": {},
	"please": {}, "help": {}, "issue": {}, "problem": {},
}

// AnalysisService scores ticket similarity and detects recurring issues from
// ticket text alone. Deliberately lexical rather than semantic so results
// stay explainable.
type AnalysisService struct {
	tickets repository.TicketRepository
	clock   sla.Clock
	cache   *redis.Client
	logger  *zap.Logger
}

// AnalysisDependencies bundles collaborators.
type AnalysisDependencies struct {
	TicketRepo repository.TicketRepository
	Clock      sla.Clock
	Cache      *redis.Client
	Logger     *zap.Logger
}

// NewAnalysisService creates the service. Cache and logger may be nil.
func NewAnalysisService(deps AnalysisDependencies) *AnalysisService {
	clock := deps.Clock
	if clock == nil {
		clock = sla.SystemClock{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisService{
		tickets: deps.TicketRepo,
		clock:   clock,
		cache:   deps.Cache,
		logger:  logger,
	}
}

// ExtractKeywords tokenizes free text into deduplicated topical keywords:
// lowercase, punctuation stripped, short tokens and stop words dropped.
func ExtractKeywords(text string) []string {
	var builder strings.Builder
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == ' ' {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}

	seen := make(map[string]struct{})
	var keywords []string
	for _, token := range strings.Fields(builder.String()) {
		if len(token) <= minKeywordLength {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
	}
	return keywords
}

// SimilarityScore rates how alike a query and a candidate ticket are, in
// [0,100]: 70% weighted Jaccard overlap of keyword sets plus a bonus for
// identical (50) or substring-contained (25) titles.
func SimilarityScore(queryTitle, queryDescription string, candidate *domain.Ticket) int {
	queryKeywords := ExtractKeywords(queryTitle + " " + queryDescription)
	candidateKeywords := ExtractKeywords(candidate.Title + " " + candidate.Description)

	var keywordSimilarity float64
	if len(queryKeywords) > 0 || len(candidateKeywords) > 0 {
		set := make(map[string]struct{}, len(queryKeywords))
		for _, kw := range queryKeywords {
			set[kw] = struct{}{}
		}
		intersection := 0
		for _, kw := range candidateKeywords {
			if _, ok := set[kw]; ok {
				intersection++
			}
		}
		union := len(queryKeywords) + len(candidateKeywords) - intersection
		if union > 0 {
			keywordSimilarity = float64(intersection) / float64(union) * 100
		}
	}

	titleBonus := 0.0
	qt := strings.ToLower(strings.TrimSpace(queryTitle))
	ct := strings.ToLower(strings.TrimSpace(candidate.Title))
	switch {
	case qt != "" && qt == ct:
		titleBonus = 50
	case qt != "" && ct != "" && (strings.Contains(qt, ct) || strings.Contains(ct, qt)):
		titleBonus = 25
	}

	score := math.Round(math.Min(100, keywordSimilarity*0.7+titleBonus))
	return int(score)
}

// FindSimilarTickets returns up to limit resolved tickets similar to the
// query, best match first. Queries yielding no keywords return no results.
func (s *AnalysisService) FindSimilarTickets(ctx context.Context, title, description string, categoryID *string, limit int) ([]domain.SimilarityResult, error) {
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	keywords := ExtractKeywords(title + " " + description)
	if len(keywords) == 0 {
		return nil, nil
	}

	// oversized pool so re-ranking by score can reorder recency-ranked rows
	candidates, err := s.tickets.SearchResolvedByKeywords(ctx, keywords, categoryID, limit*3)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var results []domain.SimilarityResult
	for i := range candidates {
		score := SimilarityScore(title, description, &candidates[i])
		if score <= similarityThreshold {
			continue
		}
		results = append(results, domain.SimilarityResult{
			Ticket:     candidates[i],
			Similarity: score,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SuggestedSolution returns the resolution of the closest matching resolved
// ticket, or nil when nothing relevant exists or the best match carries a
// blank resolution.
func (s *AnalysisService) SuggestedSolution(ctx context.Context, title, description string, categoryID *string) (*domain.SimilarityResult, error) {
	cacheKey := s.suggestionCacheKey(title, description, categoryID)
	if cached := s.cachedSuggestion(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	results, err := s.FindSimilarTickets(ctx, title, description, categoryID, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	top := results[0]
	if strings.TrimSpace(top.Ticket.Resolution) == "" {
		return nil, nil
	}
	s.storeSuggestion(ctx, cacheKey, &top)
	return &top, nil
}

// FindRecurringIssues detects keywords recurring across distinct tickets
// created within the lookback window. A ticket contributes at most one
// occurrence per keyword it contains.
func (s *AnalysisService) FindRecurringIssues(ctx context.Context, daysBack, minOccurrences int) ([]domain.RecurringPattern, error) {
	if daysBack <= 0 {
		daysBack = 30
	}
	if minOccurrences <= 0 {
		minOccurrences = 3
	}
	since := s.clock.Now().AddDate(0, 0, -daysBack)
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		CreatedFrom: &since,
		Limit:       10000,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	counts := make(map[string]int)
	examples := make(map[string][]domain.Ticket)
	for i := range tickets {
		for _, kw := range ExtractKeywords(tickets[i].Title + " " + tickets[i].Description) {
			counts[kw]++
			if len(examples[kw]) < recurringMaxExamples {
				examples[kw] = append(examples[kw], tickets[i])
			}
		}
	}

	var patterns []domain.RecurringPattern
	for kw, count := range counts {
		if count < minOccurrences {
			continue
		}
		patterns = append(patterns, domain.RecurringPattern{
			Keyword:  kw,
			Count:    count,
			Examples: examples[kw],
		})
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Count != patterns[j].Count {
			return patterns[i].Count > patterns[j].Count
		}
		return patterns[i].Keyword < patterns[j].Keyword
	})
	if len(patterns) > recurringTopPatterns {
		patterns = patterns[:recurringTopPatterns]
	}
	return patterns, nil
}

func (s *AnalysisService) suggestionCacheKey(title, description string, categoryID *string) string {
	category := ""
	if categoryID != nil {
		category = *categoryID
	}
	sum := sha256.Sum256([]byte(title + "\x00" + description + "\x00" + category))
	return "helpdesk:suggestion:" + hex.EncodeToString(sum[:16])
}

func (s *AnalysisService) cachedSuggestion(ctx context.Context, key string) *domain.SimilarityResult {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var result domain.SimilarityResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil
	}
	return &result
}

func (s *AnalysisService) storeSuggestion(ctx context.Context, key string, result *domain.SimilarityResult) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, suggestionCacheTTL).Err(); err != nil {
		s.logger.Debug("suggestion cache write failed", zap.Error(err))
	}
}
