package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdesk-io/helpdesk-service/internal/domain"
)

// TicketFilter captures ticket listing parameters.
type TicketFilter struct {
	RequesterID     *string
	CategoryID      *string
	AssignedAgentID *string
	Statuses        []domain.TicketStatus
	Priorities      []domain.Priority
	SearchTerm      *string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	Limit           int
	Offset          int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// UpdateAssignment swaps the assignee only when the row still carries the
	// expected assignee, so two racing callers cannot both succeed. Returns
	// pgx.ErrNoRows when the precondition no longer holds.
	UpdateAssignment(ctx context.Context, ticketID string, expectedAgentID *string, newAgentID string, newStatus *domain.TicketStatus) error
	// CountOpenByAgent returns open ticket counts keyed by agent id. Agents
	// with no open tickets are absent from the map.
	CountOpenByAgent(ctx context.Context) (map[string]int, error)
	// SearchResolvedByKeywords returns resolved tickets whose title or
	// description matches any keyword, most recently resolved first.
	SearchResolvedByKeywords(ctx context.Context, keywords []string, categoryID *string, limit int) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, external_key, requester_user_id, category_id, assigned_agent_id,
               title, description, impact, urgency, priority, status, resolution,
               sla_first_response_due, sla_resolution_due,
               created_at, updated_at, last_activity_at, resolved_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_key, requester_user_id, category_id, assigned_agent_id,
            title, description, impact, urgency, priority, status, resolution,
            sla_first_response_due, sla_resolution_due, last_activity_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW())
        RETURNING id, created_at, updated_at, last_activity_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.RequesterID,
		ticket.CategoryID,
		ticket.AssignedAgentID,
		ticket.Title,
		ticket.Description,
		ticket.Impact,
		ticket.Urgency,
		ticket.Priority,
		ticket.Status,
		ticket.Resolution,
		ticket.SLAFirstResponseDue,
		ticket.SLAResolutionDue,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt, &ticket.LastActivityAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET category_id=$1, assigned_agent_id=$2, title=$3, description=$4,
            impact=$5, urgency=$6, priority=$7, status=$8, resolution=$9,
            sla_first_response_due=$10, sla_resolution_due=$11,
            resolved_at=$12, closed_at=$13, last_activity_at=NOW(), updated_at=NOW()
        WHERE id=$14`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.CategoryID,
		ticket.AssignedAgentID,
		ticket.Title,
		ticket.Description,
		ticket.Impact,
		ticket.Urgency,
		ticket.Priority,
		ticket.Status,
		ticket.Resolution,
		ticket.SLAFirstResponseDue,
		ticket.SLAResolutionDue,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) UpdateAssignment(ctx context.Context, ticketID string, expectedAgentID *string, newAgentID string, newStatus *domain.TicketStatus) error {
	const query = `
        UPDATE tickets SET assigned_agent_id=$1, status=COALESCE($2, status),
            last_activity_at=NOW(), updated_at=NOW()
        WHERE id=$3 AND assigned_agent_id IS NOT DISTINCT FROM $4`
	cmd, err := r.pool.Exec(ctx, query, newAgentID, newStatus, ticketID, expectedAgentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) CountOpenByAgent(ctx context.Context) (map[string]int, error) {
	const query = `
        SELECT assigned_agent_id, COUNT(*) FROM tickets
        WHERE assigned_agent_id IS NOT NULL AND status NOT IN ('RESOLVED','CLOSED')
        GROUP BY assigned_agent_id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var agentID string
		var count int
		if err := rows.Scan(&agentID, &count); err != nil {
			return nil, err
		}
		counts[agentID] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) SearchResolvedByKeywords(ctx context.Context, keywords []string, categoryID *string, limit int) ([]domain.Ticket, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	clauses := []string{"status='RESOLVED'"}
	args := []any{}

	if categoryID != nil {
		args = append(args, *categoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}

	matches := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		args = append(args, "%"+kw+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		matches = append(matches, fmt.Sprintf("title ILIKE %s OR description ILIKE %s", placeholder, placeholder))
	}
	clauses = append(clauses, "("+strings.Join(matches, " OR ")+")")

	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY resolved_at DESC NULLS LAST LIMIT %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_user_id=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if filter.AssignedAgentID != nil {
		args = append(args, *filter.AssignedAgentID)
		clauses = append(clauses, fmt.Sprintf("assigned_agent_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.RequesterID,
		&ticket.CategoryID,
		&ticket.AssignedAgentID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Impact,
		&ticket.Urgency,
		&ticket.Priority,
		&ticket.Status,
		&ticket.Resolution,
		&ticket.SLAFirstResponseDue,
		&ticket.SLAResolutionDue,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.LastActivityAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
