// Package auth decides whether a valid authenticated session exists.
package auth

import (
	"context"

	"github.com/tahmid/pneumoscan/pkg/models"
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// SessionProber is the single call the guard needs from the gateway.
type SessionProber interface {
	Me(ctx context.Context) (*models.User, error)
}

// Guard answers the session question with a state, never an error. Any
// probe failure, whatever its cause, is Unauthenticated; redirecting to
// login is the consumer's job.
type Guard struct {
	client SessionProber
}

func NewGuard(client SessionProber) *Guard {
	return &Guard{client: client}
}

func (g *Guard) Check(ctx context.Context) (State, *models.User) {
	user, err := g.client.Me(ctx)
	if err != nil {
		return Unauthenticated, nil
	}
	return Authenticated, user
}
