package dto

import (
	"time"

	"github.com/helpdesk-io/helpdesk-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse returns a signed token plus profile.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	UserID    string      `json:"user_id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
}

// WorkloadResponse mirrors a workload snapshot.
type WorkloadResponse struct {
	AgentID       string  `json:"agent_id"`
	AgentName     string  `json:"agent_name"`
	Open          int     `json:"open"`
	ResolvedToday int     `json:"resolved_today"`
	Closed        int     `json:"closed"`
	Total         int     `json:"total"`
	SLACompliance float64 `json:"sla_compliance"`
}

// NewWorkloadResponse maps a snapshot.
func NewWorkloadResponse(s *domain.WorkloadSnapshot) WorkloadResponse {
	return WorkloadResponse{
		AgentID:       s.AgentID,
		AgentName:     s.AgentName,
		Open:          s.Open,
		ResolvedToday: s.ResolvedToday,
		Closed:        s.Closed,
		Total:         s.Total,
		SLACompliance: s.SLACompliance,
	}
}
