package station

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/halcyon-larp/gridlink/go/internal/engine"
	"github.com/halcyon-larp/gridlink/go/internal/events"
	"github.com/halcyon-larp/gridlink/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Signal dynamics. Values always stay within
// [DefaultSignal-SignalThreshold, DefaultSignal+SignalThreshold].
const (
	DefaultSignal   = 100
	SignalThreshold = 50

	// maxSingleChange caps one adjustment when it moves the value back
	// toward the default; proportionalGain scales the change down as the
	// value drifts away from it.
	maxSingleChange  = 10
	proportionalGain = 0.2
)

// StationRepository defines what the app layer needs from the repository.
type StationRepository interface {
	GetStation(ctx context.Context, id string) (*models.Station, error)
	SetSignalValue(ctx context.Context, id string, value int) error
	ListStations(ctx context.Context) ([]models.Station, error)
}

// SyncClient pushes a station's new signal value to the external scoring
// service. Best effort: the local write is never rolled back on failure.
type SyncClient interface {
	PushBoost(ctx context.Context, stationID string, value int) error
}

// EventPublisher broadcasts signal changes to the rest of the platform.
type EventPublisher interface {
	PublishSignalChanged(ctx context.Context, payload events.SignalChangedPayload) error
}

// App owns the bounded-adjustment algorithm and the decay step. All mutations
// of a given station's value are serialized behind a per-station mutex, so a
// player adjustment and a decay tick can never lose each other's update.
type App struct {
	repo      StationRepository
	sync      SyncClient
	publisher EventPublisher

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewApp creates a new signal controller App. publisher may be nil when event
// broadcasting is disabled.
func NewApp(repo StationRepository, syncClient SyncClient, publisher EventPublisher) *App {
	return &App{
		repo:      repo,
		sync:      syncClient,
		publisher: publisher,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Adjust moves the station's signal value up (boosting) or down, persists the
// result and pushes it to the scoring service. When the push fails the value
// stays committed and the returned error wraps engine.ErrExternal; the result
// still carries the new value with Committed set.
func (a *App) Adjust(ctx context.Context, stationID string, boosting bool) (AdjustResult, error) {
	if stationID == "" {
		return AdjustResult{}, fmt.Errorf("station id is required: %w", engine.ErrInvalidData)
	}

	mu := a.stationLock(stationID)
	mu.Lock()
	defer mu.Unlock()

	st, err := a.repo.GetStation(ctx, stationID)
	if err != nil {
		return AdjustResult{}, err
	}

	newValue := nextSignalValue(st.SignalValue, boosting)
	if err := a.repo.SetSignalValue(ctx, stationID, newValue); err != nil {
		return AdjustResult{}, err
	}
	res := AdjustResult{StationID: stationID, Value: newValue, Committed: true}

	log.Info().
		Str("station_id", stationID).
		Bool("boosting", boosting).
		Int("old_value", st.SignalValue).
		Int("new_value", newValue).
		Msg("station signal adjusted")

	a.publishChange(ctx, stationID, st.SignalValue, newValue, events.CauseHack)

	if err := a.sync.PushBoost(ctx, stationID, newValue); err != nil {
		log.Error().
			Err(err).
			Str("station_id", stationID).
			Int("value", newValue).
			Msg("score sync failed after commit")
		return res, fmt.Errorf("push boost for station %s: %w", stationID, err)
	}
	return res, nil
}

// DecayTick nudges every station one unit back toward the default value.
// A failure on one station is logged and the tick moves on to the next.
func (a *App) DecayTick(ctx context.Context) error {
	stations, err := a.repo.ListStations(ctx)
	if err != nil {
		return fmt.Errorf("list stations: %w", err)
	}
	for _, st := range stations {
		if st.SignalValue == DefaultSignal {
			continue
		}
		if err := a.decayStation(ctx, st.ID); err != nil {
			log.Error().Err(err).Str("station_id", st.ID).Msg("decay step failed")
		}
	}
	return nil
}

func (a *App) decayStation(ctx context.Context, stationID string) error {
	mu := a.stationLock(stationID)
	mu.Lock()
	defer mu.Unlock()

	// Re-read under the lock; a player adjustment may have landed since the
	// list was taken.
	st, err := a.repo.GetStation(ctx, stationID)
	if err != nil {
		return err
	}

	next := st.SignalValue
	switch {
	case next > DefaultSignal:
		next--
	case next < DefaultSignal:
		next++
	default:
		return nil
	}

	if err := a.repo.SetSignalValue(ctx, stationID, next); err != nil {
		return err
	}

	a.publishChange(ctx, stationID, st.SignalValue, next, events.CauseDecay)

	if err := a.sync.PushBoost(ctx, stationID, next); err != nil {
		return fmt.Errorf("push boost for station %s: %w", stationID, err)
	}
	return nil
}

// GetStation is a read-through for handlers that render station state.
func (a *App) GetStation(ctx context.Context, stationID string) (*models.Station, error) {
	if stationID == "" {
		return nil, fmt.Errorf("station id is required: %w", engine.ErrInvalidData)
	}
	return a.repo.GetStation(ctx, stationID)
}

func (a *App) publishChange(ctx context.Context, stationID string, oldValue, newValue int, cause string) {
	if a.publisher == nil {
		return
	}
	payload := events.SignalChangedPayload{
		StationID: stationID,
		OldValue:  oldValue,
		NewValue:  newValue,
		Cause:     cause,
		ChangedAt: time.Now().UTC(),
	}
	if err := a.publisher.PublishSignalChanged(ctx, payload); err != nil {
		log.Warn().Err(err).Str("station_id", stationID).Msg("signal change event publish failed")
	}
}

func (a *App) stationLock(stationID string) *sync.Mutex {
	a.locksMu.Lock()
	defer a.locksMu.Unlock()
	mu, ok := a.locks[stationID]
	if !ok {
		mu = &sync.Mutex{}
		a.locks[stationID] = mu
	}
	return mu
}

// nextSignalValue applies the bounded-adjustment rule: the change shrinks
// proportionally as the value drifts from the default, except that moves back
// toward the default always get the full single-shot cap.
func nextSignalValue(current int, boosting bool) int {
	difference := math.Abs(float64(current - DefaultSignal))
	effective := (SignalThreshold - difference) * proportionalGain
	if (boosting && current < DefaultSignal) || (!boosting && current > DefaultSignal) {
		effective = maxSingleChange
	}

	delta := effective
	if !boosting {
		delta = -math.Abs(effective)
	}

	candidate := int(math.Ceil(float64(current) + delta))
	return clampSignal(candidate)
}

func clampSignal(v int) int {
	if v < DefaultSignal-SignalThreshold {
		return DefaultSignal - SignalThreshold
	}
	if v > DefaultSignal+SignalThreshold {
		return DefaultSignal + SignalThreshold
	}
	return v
}
