// Package memory provides in-memory repository implementations used by tests
// and local development. Behavior mirrors the postgres implementations,
// including pgx.ErrNoRows for missing rows.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-io/helpdesk-service/internal/domain"
	"github.com/helpdesk-io/helpdesk-service/internal/repository"
)

// TicketRepository is an in-memory repository.TicketRepository.
type TicketRepository struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
	order   []string
	// Now lets tests pin the timestamps the repository stamps on writes.
	Now func() time.Time
}

// NewTicketRepository creates an empty ticket store.
func NewTicketRepository() *TicketRepository {
	return &TicketRepository{
		tickets: make(map[string]*domain.Ticket),
		Now:     time.Now,
	}
}

func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = "tck-" + strconv.Itoa(r.seq)
	now := r.Now()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = now
	ticket.LastActivityAt = now
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *TicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	now := r.Now()
	ticket.UpdatedAt = now
	ticket.LastActivityAt = now
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *TicketRepository) UpdateAssignment(ctx context.Context, ticketID string, expectedAgentID *string, newAgentID string, newStatus *domain.TicketStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	if !ptrEqual(ticket.AssignedAgentID, expectedAgentID) {
		return pgx.ErrNoRows
	}
	agentID := newAgentID
	ticket.AssignedAgentID = &agentID
	if newStatus != nil {
		ticket.Status = *newStatus
	}
	now := r.Now()
	ticket.UpdatedAt = now
	ticket.LastActivityAt = now
	return nil
}

func (r *TicketRepository) CountOpenByAgent(ctx context.Context) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, ticket := range r.tickets {
		if ticket.AssignedAgentID != nil && ticket.IsOpen() {
			counts[*ticket.AssignedAgentID]++
		}
	}
	return counts, nil
}

func (r *TicketRepository) SearchResolvedByKeywords(ctx context.Context, keywords []string, categoryID *string, limit int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(keywords) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	var matched []domain.Ticket
	for _, id := range r.order {
		ticket := r.tickets[id]
		if ticket.Status != domain.TicketStatusResolved {
			continue
		}
		if categoryID != nil && !ptrEqual(ticket.CategoryID, categoryID) {
			continue
		}
		haystack := strings.ToLower(ticket.Title + " " + ticket.Description)
		for _, kw := range keywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				matched = append(matched, *ticket)
				break
			}
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		ti, tj := matched[i].ResolvedAt, matched[j].ResolvedAt
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.After(*tj)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *TicketRepository) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, id := range r.order {
		ticket := r.tickets[id]
		if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.CategoryID != nil && !ptrEqual(ticket.CategoryID, filter.CategoryID) {
			continue
		}
		if filter.AssignedAgentID != nil && !ptrEqual(ticket.AssignedAgentID, filter.AssignedAgentID) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
			continue
		}
		if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && ticket.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
			needle := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
			haystack := strings.ToLower(ticket.Title + " " + ticket.Description)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		result = append(result, *ticket)
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// UserRepository is an in-memory repository.UserRepository.
type UserRepository struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
	order []string
}

// NewUserRepository creates an empty user store.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		r.seq++
		user.ID = "usr-" + strconv.Itoa(r.seq)
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	clone := *user
	r.users[user.ID] = &clone
	r.order = append(r.order, user.ID)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		if r.users[id].Email == email {
			clone := *r.users[id]
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *UserRepository) ListActiveByRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, id := range r.order {
		user := r.users[id]
		if !user.IsActive {
			continue
		}
		for _, role := range roles {
			if user.Role == role {
				result = append(result, *user)
				break
			}
		}
	}
	return result, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	return nil
}

// CategoryRepository is an in-memory repository.CategoryRepository.
type CategoryRepository struct {
	mu         sync.Mutex
	seq        int
	categories map[string]*domain.Category
	order      []string
}

// NewCategoryRepository creates an empty category store.
func NewCategoryRepository() *CategoryRepository {
	return &CategoryRepository{categories: make(map[string]*domain.Category)}
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if category.ID == "" {
		r.seq++
		category.ID = "cat-" + strconv.Itoa(r.seq)
	}
	now := time.Now()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	category.UpdatedAt = now
	clone := *category
	r.categories[category.ID] = &clone
	r.order = append(r.order, category.ID)
	return nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	category, ok := r.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *category
	return &clone, nil
}

func (r *CategoryRepository) ListActive(ctx context.Context) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Category
	for _, id := range r.order {
		if r.categories[id].IsActive {
			result = append(result, *r.categories[id])
		}
	}
	return result, nil
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func containsStatus(set []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func containsPriority(set []domain.Priority, priority domain.Priority) bool {
	for _, p := range set {
		if p == priority {
			return true
		}
	}
	return false
}
