package domain

import "time"

// Role enumerates caller roles, ordered by privilege.
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleAgent    Role = "AGENT"
	RoleTeamLead Role = "TEAM_LEAD"
	RoleAdmin    Role = "ADMIN"
)

// roleRank orders roles so privilege checks are a single comparison instead
// of a type hierarchy.
var roleRank = map[Role]int{
	RoleEmployee: 0,
	RoleAgent:    1,
	RoleTeamLead: 2,
	RoleAdmin:    3,
}

// AtLeast reports whether r carries at least the privilege of min.
// Unknown roles rank below EMPLOYEE.
func (r Role) AtLeast(min Role) bool {
	rank, ok := roleRank[r]
	if !ok {
		rank = -1
	}
	return rank >= roleRank[min]
}

// User is anyone who can authenticate: employees filing tickets and the
// agents, team leads and admins working them.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
