package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/halcyon-larp/gridlink/go/internal/engine"
)

func TestStaticAuthorizer(t *testing.T) {
	a := NewStaticAuthorizer()
	player := User{ID: uuid.New(), Name: "nyx", AccessLevel: 1}
	gm := User{ID: uuid.New(), Name: "control", AccessLevel: 9}
	a.Grant("player-token", player, "hack.session", "hack.attempt")
	a.Grant("gm-token", gm)

	ctx := context.Background()

	got, err := a.IsAllowed(ctx, "player-token", "hack.attempt")
	if err != nil {
		t.Fatalf("is allowed: %v", err)
	}
	if got.ID != player.ID {
		t.Fatalf("expected player %s, got %s", player.ID, got.ID)
	}

	if _, err := a.IsAllowed(ctx, "player-token", "station.adjust"); !errors.Is(err, engine.ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed for ungranted command, got %v", err)
	}

	// A grant without a command list allows everything.
	if _, err := a.IsAllowed(ctx, "gm-token", "station.adjust"); err != nil {
		t.Fatalf("expected gm grant to allow any command, got %v", err)
	}

	if _, err := a.IsAllowed(ctx, "bogus", "hack.attempt"); !errors.Is(err, engine.ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed for unknown token, got %v", err)
	}
}
