package hack

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/halcyon-larp/gridlink/go/internal/engine"
	"github.com/halcyon-larp/gridlink/go/internal/models"
	"github.com/halcyon-larp/gridlink/go/internal/station"
	"github.com/rs/zerolog/log"
)

// fillerPasswordCount is how many shuffled filler passwords go into a session
// payload before the two session passwords are appended.
const fillerPasswordCount = 13

// defaultTriesBudget is used when no budget is configured.
const defaultTriesBudget = 5

// SessionRepository defines what the app layer needs from the repository.
type SessionRepository interface {
	GetSession(ctx context.Context, owner uuid.UUID) (*models.HackSession, error)
	UpsertSession(ctx context.Context, session *models.HackSession) error
	DeleteSession(ctx context.Context, owner uuid.UUID) error
	GetCandidates(ctx context.Context, stationID string) ([]models.GameUser, error)
	GetFillerPasswords(ctx context.Context) ([]string, error)
}

// SignalAdjuster is the success-path hook into the signal controller.
type SignalAdjuster interface {
	Adjust(ctx context.Context, stationID string, boosting bool) (station.AdjustResult, error)
}

// App owns the hack session lifecycle: creation and reuse, guess evaluation
// against the tries budget, and the client-visible decoy payload. Calls for
// the same owner are serialized behind a per-owner mutex so two concurrent
// attempts can never both see an undecremented tries count; calls for
// different owners run concurrently, so the shared rng has its own lock.
type App struct {
	repo        SessionRepository
	signals     SignalAdjuster
	triesBudget int

	rngMu sync.Mutex
	rng   *rand.Rand

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

// NewApp creates a new hack session App. A non-positive triesBudget falls
// back to the default.
func NewApp(repo SessionRepository, signals SignalAdjuster, triesBudget int) *App {
	if triesBudget <= 0 {
		triesBudget = defaultTriesBudget
	}
	return &App{
		repo:        repo,
		signals:     signals,
		triesBudget: triesBudget,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		locks:       make(map[uuid.UUID]*sync.Mutex),
	}
}

// GetOrCreateSession returns the owner's live session payload for the given
// station. A session for a different station is superseded: the old one is
// discarded and a fresh session is generated. Re-requesting the same station
// reuses the session unchanged.
func (a *App) GetOrCreateSession(ctx context.Context, owner uuid.UUID, stationID string) (SessionPayload, error) {
	if stationID == "" {
		return SessionPayload{}, fmt.Errorf("station id is required: %w", engine.ErrInvalidData)
	}

	mu := a.ownerLock(owner)
	mu.Lock()
	defer mu.Unlock()

	sess, err := a.repo.GetSession(ctx, owner)
	if err != nil && !errors.Is(err, engine.ErrNotFound) {
		return SessionPayload{}, err
	}

	if sess == nil || sess.StationID != stationID {
		if sess != nil {
			log.Info().
				Str("owner_id", owner.String()).
				Str("old_station", sess.StationID).
				Str("new_station", stationID).
				Msg("superseding hack session")
		}
		sess, err = a.newSession(ctx, owner, stationID)
		if err != nil {
			return SessionPayload{}, err
		}
	}

	return a.buildPayload(ctx, sess)
}

// Attempt evaluates one guess against the owner's live session. A correct
// guess adjusts the station signal, deletes the session and reports success.
// A wrong guess burns a try; when the budget runs out the session is deleted,
// otherwise per-position match feedback is returned.
func (a *App) Attempt(ctx context.Context, owner uuid.UUID, guess string, boosting bool) (AttemptResult, error) {
	if strings.TrimSpace(guess) == "" {
		return AttemptResult{}, fmt.Errorf("guess is required: %w", engine.ErrInvalidData)
	}

	mu := a.ownerLock(owner)
	mu.Lock()
	defer mu.Unlock()

	sess, err := a.repo.GetSession(ctx, owner)
	if err != nil {
		return AttemptResult{}, err
	}

	correct := sess.Correct()
	if correct == nil {
		return AttemptResult{}, fmt.Errorf("session for owner %s has no correct candidate: %w", owner, engine.ErrInvalidData)
	}

	if strings.EqualFold(guess, correct.Password) && sess.TriesLeft > 0 {
		// The adjustment happens before the session is removed; if it fails
		// the attempt is considered not to have happened and no try is
		// consumed.
		if _, err := a.signals.Adjust(ctx, sess.StationID, boosting); err != nil {
			return AttemptResult{}, err
		}
		if err := a.repo.DeleteSession(ctx, owner); err != nil {
			return AttemptResult{}, err
		}
		log.Info().
			Str("owner_id", owner.String()).
			Str("station_id", sess.StationID).
			Bool("boosting", boosting).
			Msg("hack succeeded")
		return AttemptResult{Success: true, Boosting: boosting}, nil
	}

	sess.TriesLeft--
	if sess.TriesLeft <= 0 {
		if err := a.repo.DeleteSession(ctx, owner); err != nil {
			return AttemptResult{}, err
		}
		log.Info().
			Str("owner_id", owner.String()).
			Str("station_id", sess.StationID).
			Msg("hack session exhausted")
		return AttemptResult{Success: false, TriesLeft: 0}, nil
	}

	if err := a.repo.UpsertSession(ctx, sess); err != nil {
		return AttemptResult{}, err
	}

	return AttemptResult{
		Success:   false,
		TriesLeft: sess.TriesLeft,
		Matches:   &MatchInfo{Amount: matchCount(guess, correct.Password)},
	}, nil
}

func (a *App) newSession(ctx context.Context, owner uuid.UUID, stationID string) (*models.HackSession, error) {
	pool, err := a.repo.GetCandidates(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("station %s has no game users: %w", stationID, engine.ErrNotFound)
	}

	// Draw distinct candidates in random order; the first of the draw is the
	// correct one, which leaves the correct candidate uniformly random.
	order := a.randPerm(len(pool))
	count := 2
	if len(pool) < count {
		count = len(pool)
	}

	candidates := make([]models.SessionCandidate, 0, count)
	for i := 0; i < count; i++ {
		gu := pool[order[i]]
		if len(gu.Passwords) == 0 {
			return nil, fmt.Errorf("game user %s has no passwords: %w", gu.ID, engine.ErrInvalidData)
		}
		password := gu.Passwords[a.randIntn(len(gu.Passwords))]
		if password == "" {
			return nil, fmt.Errorf("game user %s has an empty password: %w", gu.ID, engine.ErrInvalidData)
		}
		// Hints index characters, not bytes, so multi-byte passwords never
		// leak a broken fragment.
		runes := []rune(password)
		hintIndex := a.randIntn(len(runes))
		candidates = append(candidates, models.SessionCandidate{
			Identity:  gu.Identity,
			Password:  password,
			HintIndex: hintIndex,
			HintChar:  string(runes[hintIndex]),
			IsCorrect: i == 0,
		})
	}

	sess := &models.HackSession{
		OwnerID:    owner,
		StationID:  stationID,
		Candidates: candidates,
		TriesLeft:  a.triesBudget,
		CreatedAt:  time.Now().UTC(),
	}
	if err := a.repo.UpsertSession(ctx, sess); err != nil {
		return nil, err
	}

	log.Info().
		Str("owner_id", owner.String()).
		Str("station_id", stationID).
		Int("tries", sess.TriesLeft).
		Msg("hack session created")
	return sess, nil
}

func (a *App) buildPayload(ctx context.Context, sess *models.HackSession) (SessionPayload, error) {
	correct := sess.Correct()
	if correct == nil {
		return SessionPayload{}, fmt.Errorf("session for owner %s has no correct candidate: %w", sess.OwnerID, engine.ErrInvalidData)
	}

	fillers, err := a.repo.GetFillerPasswords(ctx)
	if err != nil {
		return SessionPayload{}, err
	}

	shuffled := append([]string(nil), fillers...)
	a.randShuffle(shuffled)

	take := fillerPasswordCount
	if len(shuffled) < take {
		take = len(shuffled)
	}

	// Session passwords are appended as-is; a filler identical to a session
	// password stays duplicated, matching what clients have always seen.
	passwords := make([]string, 0, take+len(sess.Candidates))
	passwords = append(passwords, shuffled[:take]...)
	for _, c := range sess.Candidates {
		passwords = append(passwords, c.Password)
	}

	return SessionPayload{
		StationID: sess.StationID,
		Passwords: passwords,
		TriesLeft: sess.TriesLeft,
		Identity:  correct.Identity,
		Hint:      Hint{Index: correct.HintIndex, Char: correct.HintChar},
	}, nil
}

// matchCount counts positions where guess and password agree,
// case-insensitively, over the shorter of the two. Positions are
// characters, not bytes, so multi-byte passwords compare cleanly.
func matchCount(guess, password string) int {
	g := []rune(strings.ToLower(guess))
	p := []rune(strings.ToLower(password))
	n := len(g)
	if len(p) < n {
		n = len(p)
	}
	count := 0
	for i := 0; i < n; i++ {
		if g[i] == p[i] {
			count++
		}
	}
	return count
}

// The rng is shared by sessions for every owner, and *rand.Rand is not safe
// for concurrent use, so every draw goes through rngMu.

func (a *App) randPerm(n int) []int {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return a.rng.Perm(n)
}

func (a *App) randIntn(n int) int {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return a.rng.Intn(n)
}

func (a *App) randShuffle(s []string) {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	a.rng.Shuffle(len(s), func(i, j int) {
		s[i], s[j] = s[j], s[i]
	})
}

func (a *App) ownerLock(owner uuid.UUID) *sync.Mutex {
	a.locksMu.Lock()
	defer a.locksMu.Unlock()
	mu, ok := a.locks[owner]
	if !ok {
		mu = &sync.Mutex{}
		a.locks[owner] = mu
	}
	return mu
}
