package hack

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/halcyon-larp/gridlink/go/internal/engine"
	"github.com/halcyon-larp/gridlink/go/internal/models"
	"github.com/halcyon-larp/gridlink/go/internal/station"
)

type fakeHackRepo struct {
	mu         sync.Mutex
	sessions   map[uuid.UUID]*models.HackSession
	candidates map[string][]models.GameUser
	fillers    []string

	getErr    error
	upsertErr error
	upserts   int
}

func newFakeHackRepo() *fakeHackRepo {
	return &fakeHackRepo{
		sessions:   make(map[uuid.UUID]*models.HackSession),
		candidates: make(map[string][]models.GameUser),
	}
}

func (f *fakeHackRepo) GetSession(ctx context.Context, owner uuid.UUID) (*models.HackSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	sess, ok := f.sessions[owner]
	if !ok {
		return nil, fmt.Errorf("session for owner %s: %w", owner, engine.ErrNotFound)
	}
	cp := *sess
	cp.Candidates = append([]models.SessionCandidate(nil), sess.Candidates...)
	return &cp, nil
}

func (f *fakeHackRepo) UpsertSession(ctx context.Context, session *models.HackSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	cp := *session
	cp.Candidates = append([]models.SessionCandidate(nil), session.Candidates...)
	f.sessions[session.OwnerID] = &cp
	return nil
}

func (f *fakeHackRepo) DeleteSession(ctx context.Context, owner uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, owner)
	return nil
}

func (f *fakeHackRepo) GetCandidates(ctx context.Context, stationID string) ([]models.GameUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.candidates[stationID], nil
}

func (f *fakeHackRepo) GetFillerPasswords(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fillers, nil
}

type adjustCall struct {
	stationID string
	boosting  bool
}

type fakeAdjuster struct {
	err   error
	calls []adjustCall
}

func (f *fakeAdjuster) Adjust(ctx context.Context, stationID string, boosting bool) (station.AdjustResult, error) {
	f.calls = append(f.calls, adjustCall{stationID: stationID, boosting: boosting})
	if f.err != nil {
		return station.AdjustResult{}, f.err
	}
	return station.AdjustResult{StationID: stationID, Value: 110, Committed: true}, nil
}

func seedCandidates(repo *fakeHackRepo, stationID string, identities ...string) {
	for i, identity := range identities {
		repo.candidates[stationID] = append(repo.candidates[stationID], models.GameUser{
			ID:        uuid.New(),
			StationID: stationID,
			Identity:  identity,
			Passwords: []string{
				fmt.Sprintf("%s-alpha-%d", identity, i),
				fmt.Sprintf("%s-omega-%d", identity, i),
			},
		})
	}
}

func newTestApp(repo *fakeHackRepo, adjuster *fakeAdjuster, budget int) *App {
	app := NewApp(repo, adjuster, budget)
	app.rng = rand.New(rand.NewSource(7))
	return app
}

func TestGetOrCreateSessionReusesSameStation(t *testing.T) {
	repo := newFakeHackRepo()
	seedCandidates(repo, "relay-1", "kit", "mara", "zev")
	repo.fillers = []string{"lantern", "orchid", "granite"}
	app := newTestApp(repo, &fakeAdjuster{}, 5)
	owner := uuid.New()
	ctx := context.Background()

	first, err := app.GetOrCreateSession(ctx, owner, "relay-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	second, err := app.GetOrCreateSession(ctx, owner, "relay-1")
	if err != nil {
		t.Fatalf("reuse session: %v", err)
	}

	if first.TriesLeft != 5 || second.TriesLeft != 5 {
		t.Fatalf("expected tries 5/5, got %d/%d", first.TriesLeft, second.TriesLeft)
	}
	if first.Identity != second.Identity {
		t.Fatalf("identity changed on reuse: %q vs %q", first.Identity, second.Identity)
	}
	if first.Hint != second.Hint {
		t.Fatalf("hint changed on reuse: %+v vs %+v", first.Hint, second.Hint)
	}
	if repo.upserts != 1 {
		t.Fatalf("expected 1 upsert, got %d", repo.upserts)
	}
}

func TestGetOrCreateSessionStationSwitchRegenerates(t *testing.T) {
	repo := newFakeHackRepo()
	seedCandidates(repo, "relay-1", "kit", "mara")
	seedCandidates(repo, "relay-2", "vox", "ida")
	app := newTestApp(repo, &fakeAdjuster{}, 5)
	owner := uuid.New()
	ctx := context.Background()

	if _, err := app.GetOrCreateSession(ctx, owner, "relay-1"); err != nil {
		t.Fatalf("create session: %v", err)
	}

	// Burn a try so regeneration is observable.
	if _, err := app.Attempt(ctx, owner, "definitely-wrong", true); err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if repo.sessions[owner].TriesLeft != 4 {
		t.Fatalf("expected 4 tries after wrong guess, got %d", repo.sessions[owner].TriesLeft)
	}

	payload, err := app.GetOrCreateSession(ctx, owner, "relay-2")
	if err != nil {
		t.Fatalf("switch station: %v", err)
	}
	if payload.StationID != "relay-2" {
		t.Fatalf("expected station relay-2, got %s", payload.StationID)
	}
	if payload.TriesLeft != 5 {
		t.Fatalf("expected fresh tries budget 5, got %d", payload.TriesLeft)
	}
	if sess := repo.sessions[owner]; sess.StationID != "relay-2" {
		t.Fatalf("old session not superseded: %+v", sess)
	}
}

func TestGetOrCreateSessionNoCandidates(t *testing.T) {
	repo := newFakeHackRepo()
	app := newTestApp(repo, &fakeAdjuster{}, 5)

	_, err := app.GetOrCreateSession(context.Background(), uuid.New(), "relay-9")
	if !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetOrCreateSessionSingleCandidatePool(t *testing.T) {
	repo := newFakeHackRepo()
	seedCandidates(repo, "relay-1", "kit")
	app := newTestApp(repo, &fakeAdjuster{}, 5)
	owner := uuid.New()

	payload, err := app.GetOrCreateSession(context.Background(), owner, "relay-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if payload.Identity != "kit" {
		t.Fatalf("expected identity kit, got %q", payload.Identity)
	}
	sess := repo.sessions[owner]
	if len(sess.Candidates) != 1 || !sess.Candidates[0].IsCorrect {
		t.Fatalf("expected a single correct candidate, got %+v", sess.Candidates)
	}
}

func TestSessionPayloadShape(t *testing.T) {
	repo := newFakeHackRepo()
	seedCandidates(repo, "relay-1", "kit", "mara", "zev")
	for i := 0; i < 20; i++ {
		repo.fillers = append(repo.fillers, fmt.Sprintf("filler-%02d", i))
	}
	app := newTestApp(repo, &fakeAdjuster{}, 5)
	owner := uuid.New()

	payload, err := app.GetOrCreateSession(context.Background(), owner, "relay-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	// 13 shuffled fillers plus the 2 session passwords, appended last.
	if len(payload.Passwords) != 15 {
		t.Fatalf("expected 15 passwords, got %d", len(payload.Passwords))
	}
	sess := repo.sessions[owner]
	if payload.Passwords[13] != sess.Candidates[0].Password ||
		payload.Passwords[14] != sess.Candidates[1].Password {
		t.Fatalf("session passwords not appended: %v", payload.Passwords[13:])
	}

	correct := sess.Correct()
	if payload.Identity != correct.Identity {
		t.Fatalf("payload identity %q is not the correct candidate %q", payload.Identity, correct.Identity)
	}
	if payload.Hint.Char != string([]rune(correct.Password)[payload.Hint.Index]) {
		t.Fatalf("hint %+v does not match password %q", payload.Hint, correct.Password)
	}
}

func TestSessionHintIndexesRunes(t *testing.T) {
	repo := newFakeHackRepo()
	repo.candidates["relay-1"] = []models.GameUser{{
		ID:        uuid.New(),
		StationID: "relay-1",
		Identity:  "señor",
		Passwords: []string{"señal·única"},
	}}
	app := newTestApp(repo, &fakeAdjuster{}, 5)
	owner := uuid.New()

	payload, err := app.GetOrCreateSession(context.Background(), owner, "relay-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	runes := []rune("señal·única")
	if payload.Hint.Index < 0 || payload.Hint.Index >= len(runes) {
		t.Fatalf("hint index %d out of range for %d characters", payload.Hint.Index, len(runes))
	}
	if payload.Hint.Char != string(runes[payload.Hint.Index]) {
		t.Fatalf("hint %+v is not a whole character of the password", payload.Hint)
	}
}

func TestGetOrCreateSessionConcurrentOwners(t *testing.T) {
	repo := newFakeHackRepo()
	seedCandidates(repo, "relay-1", "kit", "mara", "zev")
	seedCandidates(repo, "relay-2", "vox", "ida", "rook")
	repo.fillers = []string{"lantern", "orchid", "granite"}
	app := newTestApp(repo, &fakeAdjuster{}, 5)
	ctx := context.Background()

	const owners = 8
	const callsPerOwner = 50

	var wg sync.WaitGroup
	errs := make(chan error, owners)
	for i := 0; i < owners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			owner := uuid.New()
			for j := 0; j < callsPerOwner; j++ {
				// Alternating stations forces a fresh session, and with it
				// a fresh draw from the shared rng, on every call.
				stationID := "relay-1"
				if j%2 == 1 {
					stationID = "relay-2"
				}
				if _, err := app.GetOrCreateSession(ctx, owner, stationID); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent session call: %v", err)
	}
}

func TestSessionPayloadKeepsDuplicateFiller(t *testing.T) {
	repo := newFakeHackRepo()
	seedCandidates(repo, "relay-1", "kit", "mara")
	app := newTestApp(repo, &fakeAdjuster{}, 5)
	owner := uuid.New()
	ctx := context.Background()

	if _, err := app.GetOrCreateSession(ctx, owner, "relay-1"); err != nil {
		t.Fatalf("create session: %v", err)
	}

	// A filler identical to the committed password is not deduplicated; the
	// client has always seen the duplicate.
	correctPassword := repo.sessions[owner].Correct().Password
	repo.fillers = []string{correctPassword}

	payload, err := app.GetOrCreateSession(ctx, owner, "relay-1")
	if err != nil {
		t.Fatalf("rebuild payload: %v", err)
	}
	occurrences := 0
	for _, pw := range payload.Passwords {
		if pw == correctPassword {
			occurrences++
		}
	}
	if occurrences != 2 {
		t.Fatalf("expected duplicate password to appear twice, got %d in %v", occurrences, payload.Passwords)
	}
}

func TestAttemptPartialMatchFeedback(t *testing.T) {
	repo := newFakeHackRepo()
	owner := uuid.New()
	repo.sessions[owner] = &models.HackSession{
		OwnerID:   owner,
		StationID: "relay-1",
		Candidates: []models.SessionCandidate{
			{Identity: "kit", Password: "abcde", HintIndex: 0, HintChar: "a", IsCorrect: true},
			{Identity: "mara", Password: "zzzzz", HintIndex: 0, HintChar: "z"},
		},
		TriesLeft: 3,
	}
	app := newTestApp(repo, &fakeAdjuster{}, 5)

	res, err := app.Attempt(context.Background(), owner, "axcye", true)
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.TriesLeft != 2 {
		t.Fatalf("expected 2 tries left, got %d", res.TriesLeft)
	}
	if res.Matches == nil || res.Matches.Amount != 3 {
		t.Fatalf("expected 3 matches, got %+v", res.Matches)
	}
}

func TestAttemptExhaustionDeletesSession(t *testing.T) {
	repo := newFakeHackRepo()
	seedCandidates(repo, "relay-1", "kit", "mara")
	app := newTestApp(repo, &fakeAdjuster{}, 2)
	owner := uuid.New()
	ctx := context.Background()

	if _, err := app.GetOrCreateSession(ctx, owner, "relay-1"); err != nil {
		t.Fatalf("create session: %v", err)
	}

	first, err := app.Attempt(ctx, owner, "wrong-guess", true)
	if err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	if first.Success || first.TriesLeft != 1 || first.Matches == nil {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second, err := app.Attempt(ctx, owner, "wrong-guess", true)
	if err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if second.Success || second.TriesLeft != 0 {
		t.Fatalf("unexpected second result: %+v", second)
	}
	if second.Matches != nil {
		t.Fatalf("exhausted attempt must not carry match feedback: %+v", second.Matches)
	}

	if _, ok := repo.sessions[owner]; ok {
		t.Fatal("expected session to be deleted on exhaustion")
	}
	if _, err := app.Attempt(ctx, owner, "wrong-guess", true); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after exhaustion, got %v", err)
	}
}

func TestAttemptCorrectGuessAdjustsAndDeletes(t *testing.T) {
	repo := newFakeHackRepo()
	seedCandidates(repo, "relay-1", "kit", "mara")
	adjuster := &fakeAdjuster{}
	app := newTestApp(repo, adjuster, 5)
	owner := uuid.New()
	ctx := context.Background()

	if _, err := app.GetOrCreateSession(ctx, owner, "relay-1"); err != nil {
		t.Fatalf("create session: %v", err)
	}
	correctPassword := repo.sessions[owner].Correct().Password

	res, err := app.Attempt(ctx, owner, correctPassword, false)
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if !res.Success || res.Boosting {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(adjuster.calls) != 1 || adjuster.calls[0].stationID != "relay-1" || adjuster.calls[0].boosting {
		t.Fatalf("unexpected adjuster calls: %+v", adjuster.calls)
	}
	if _, ok := repo.sessions[owner]; ok {
		t.Fatal("expected session to be deleted on success")
	}
}

func TestAttemptCaseInsensitiveCompare(t *testing.T) {
	repo := newFakeHackRepo()
	owner := uuid.New()
	repo.sessions[owner] = &models.HackSession{
		OwnerID:   owner,
		StationID: "relay-1",
		Candidates: []models.SessionCandidate{
			{Identity: "kit", Password: "Starlight", HintIndex: 0, HintChar: "S", IsCorrect: true},
		},
		TriesLeft: 3,
	}
	app := newTestApp(repo, &fakeAdjuster{}, 5)

	res, err := app.Attempt(context.Background(), owner, "sTARLIGHT", true)
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected case-insensitive match to succeed: %+v", res)
	}
}

func TestAttemptAdjustFailureConsumesNoTry(t *testing.T) {
	repo := newFakeHackRepo()
	seedCandidates(repo, "relay-1", "kit", "mara")
	adjuster := &fakeAdjuster{err: fmt.Errorf("scoring down: %w", engine.ErrExternal)}
	app := newTestApp(repo, adjuster, 5)
	owner := uuid.New()
	ctx := context.Background()

	if _, err := app.GetOrCreateSession(ctx, owner, "relay-1"); err != nil {
		t.Fatalf("create session: %v", err)
	}
	correctPassword := repo.sessions[owner].Correct().Password

	_, err := app.Attempt(ctx, owner, correctPassword, true)
	if !errors.Is(err, engine.ErrExternal) {
		t.Fatalf("expected ErrExternal, got %v", err)
	}

	// The attempt did not happen: session intact, tries unchanged.
	sess, ok := repo.sessions[owner]
	if !ok {
		t.Fatal("expected session to survive the failed adjustment")
	}
	if sess.TriesLeft != 5 {
		t.Fatalf("expected tries untouched at 5, got %d", sess.TriesLeft)
	}
}

func TestAttemptTriesNeverIncrease(t *testing.T) {
	repo := newFakeHackRepo()
	seedCandidates(repo, "relay-1", "kit", "mara")
	app := newTestApp(repo, &fakeAdjuster{}, 4)
	owner := uuid.New()
	ctx := context.Background()

	if _, err := app.GetOrCreateSession(ctx, owner, "relay-1"); err != nil {
		t.Fatalf("create session: %v", err)
	}

	last := 4
	for i := 0; i < 3; i++ {
		res, err := app.Attempt(ctx, owner, "still-wrong", true)
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		if res.TriesLeft >= last {
			t.Fatalf("tries did not decrease: %d -> %d", last, res.TriesLeft)
		}
		last = res.TriesLeft
	}
}

func TestAttemptMissingSession(t *testing.T) {
	app := newTestApp(newFakeHackRepo(), &fakeAdjuster{}, 5)

	_, err := app.Attempt(context.Background(), uuid.New(), "anything", true)
	if !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAttemptEmptyGuess(t *testing.T) {
	app := newTestApp(newFakeHackRepo(), &fakeAdjuster{}, 5)

	_, err := app.Attempt(context.Background(), uuid.New(), "   ", true)
	if !errors.Is(err, engine.ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
}

func TestMatchCount(t *testing.T) {
	tests := []struct {
		name     string
		guess    string
		password string
		want     int
	}{
		{"worked example", "axcye", "abcde", 3},
		{"exact match", "abcde", "abcde", 5},
		{"case insensitive", "ABCDE", "abcde", 5},
		{"no overlap", "zzzzz", "abcde", 0},
		{"guess shorter", "abc", "abcdef", 3},
		{"guess longer", "abcdef", "abc", 3},
		{"multi-byte characters", "naïve", "naîve", 4},
		{"multi-byte exact", "señal", "SEÑAL", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchCount(tt.guess, tt.password); got != tt.want {
				t.Fatalf("matchCount(%q, %q) = %d, want %d", tt.guess, tt.password, got, tt.want)
			}
		})
	}
}
