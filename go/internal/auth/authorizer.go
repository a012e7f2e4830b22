package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/halcyon-larp/gridlink/go/internal/engine"
)

// User identifies the caller resolved from a credential.
type User struct {
	ID          uuid.UUID
	Name        string
	AccessLevel int
}

// Authorizer resolves a caller credential into a user allowed to run a
// command. The engine itself is agnostic to the token format; the socket and
// REST layers call this before reaching the engine.
type Authorizer interface {
	IsAllowed(ctx context.Context, token, command string) (User, error)
}

type grant struct {
	user     User
	commands map[string]bool
}

// StaticAuthorizer is a fixed token table seeded from configuration. A grant
// with no command list allows every command.
type StaticAuthorizer struct {
	grants map[string]grant
}

// NewStaticAuthorizer creates an empty authorizer.
func NewStaticAuthorizer() *StaticAuthorizer {
	return &StaticAuthorizer{grants: make(map[string]grant)}
}

// Grant registers a token for a user, optionally restricted to a command set.
func (a *StaticAuthorizer) Grant(token string, user User, commands ...string) {
	g := grant{user: user}
	if len(commands) > 0 {
		g.commands = make(map[string]bool, len(commands))
		for _, c := range commands {
			g.commands[c] = true
		}
	}
	a.grants[token] = g
}

// IsAllowed resolves the token and checks the command against the grant.
func (a *StaticAuthorizer) IsAllowed(ctx context.Context, token, command string) (User, error) {
	g, ok := a.grants[token]
	if !ok {
		return User{}, fmt.Errorf("unknown token: %w", engine.ErrNotAllowed)
	}
	if g.commands != nil && !g.commands[command] {
		return User{}, fmt.Errorf("command %s: %w", command, engine.ErrNotAllowed)
	}
	return g.user, nil
}
