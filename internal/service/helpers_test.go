package service_test

import (
	"context"
	"time"

	"github.com/helpdesk-io/helpdesk-service/internal/domain"
	"github.com/helpdesk-io/helpdesk-service/internal/repository/memory"
)

// fixedClock pins time for deterministic SLA math.
type fixedClock struct {
	now time.Time
}

func newFixedClock(t time.Time) *fixedClock {
	return &fixedClock{now: t}
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func seedUser(users *memory.UserRepository, name string, role domain.Role, active bool) *domain.User {
	user := &domain.User{
		Name:     name,
		Email:    name + "@helpdesk.local",
		Role:     role,
		IsActive: active,
	}
	if err := users.Create(context.Background(), user); err != nil {
		panic(err)
	}
	return user
}

func seedAgent(users *memory.UserRepository, name string) *domain.User {
	return seedUser(users, name, domain.RoleAgent, true)
}
