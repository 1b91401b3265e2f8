// Package sync uploads the local draft store to the backend as one batch.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/conorfennell/studybuddy/internal/client"
	"github.com/conorfennell/studybuddy/internal/domain"
	"github.com/conorfennell/studybuddy/internal/draft"
	"github.com/conorfennell/studybuddy/internal/fingerprint"
	"go.uber.org/zap"
)

//go:generate mockgen -source=sync.go -destination=mock/sync_mock.go

// State is the coordinator's position in a sync cycle.
type State int32

const (
	Idle State = iota
	InFlight
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in_flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrInFlight rejects a sync started while another one is running.
var ErrInFlight = errors.New("sync already in progress")

// Uploader sends a batch of drafts to the backend.
type Uploader interface {
	UploadFlashcards(ctx context.Context, token string, drafts []domain.Draft, key string) (domain.UploadResult, error)
}

// Store is the part of the draft store a sync needs.
type Store interface {
	Snapshot() draft.Batch
	Commit(b draft.Batch) error
}

// Outcome describes how the last sync attempt ended.
type Outcome struct {
	State    State
	Drafts   int
	Result   domain.UploadResult
	Err      error
	Finished time.Time
}

// Coordinator drives batch uploads of a draft store.
type Coordinator struct {
	store    Store
	uploader Uploader
	creds    client.Credentials
	log      *zap.Logger

	state atomic.Int32
	last  atomic.Pointer[Outcome]
}

// NewCoordinator returns an idle coordinator for store.
func NewCoordinator(store Store, uploader Uploader, creds client.Credentials, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		store:    store,
		uploader: uploader,
		creds:    creds,
		log:      log,
	}
}

// State reports whether a sync is running.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Last returns the outcome of the most recent sync that reached the
// credential check, or nil if there was none.
func (c *Coordinator) Last() *Outcome {
	return c.last.Load()
}

// Sync uploads every pending draft in a single request. On success the
// synced drafts are removed from the store; on any failure the store is left
// exactly as it was. Sync never retries.
func (c *Coordinator) Sync(ctx context.Context) (domain.UploadResult, error) {
	if !c.state.CompareAndSwap(int32(Idle), int32(InFlight)) {
		c.log.Warn("Sync rejected, another sync is in flight")
		return domain.UploadResult{}, ErrInFlight
	}
	defer c.state.Store(int32(Idle))

	batch := c.store.Snapshot()
	if batch.Len() == 0 {
		return domain.UploadResult{}, &client.Error{
			Kind:    client.KindValidation,
			Op:      "sync drafts",
			Message: "no drafts to sync",
		}
	}

	token, err := c.creds.Token(ctx)
	if err != nil {
		return c.fail(batch, &client.Error{Kind: client.KindAuth, Op: "sync drafts", Err: err})
	}
	if token == "" {
		return c.fail(batch, &client.Error{
			Kind:    client.KindAuth,
			Op:      "sync drafts",
			Message: "no credential available, sign in first",
		})
	}

	drafts := batch.Drafts()
	key := fingerprint.Batch(drafts)
	c.log.Info("Starting sync", zap.Int("drafts", len(drafts)), zap.String("batch_key", key))

	res, err := c.uploader.UploadFlashcards(ctx, token, drafts, key)
	if err != nil {
		return c.fail(batch, err)
	}

	outcome := &Outcome{State: Succeeded, Drafts: batch.Len(), Result: res, Finished: time.Now()}
	if err := c.store.Commit(batch); err != nil {
		// The backend has the cards; a retry will be deduplicated server-side.
		outcome.Err = fmt.Errorf("uploaded %d drafts but failed to clear them locally: %w", batch.Len(), err)
		c.log.Error("Failed to clear synced drafts", zap.Error(err))
	}
	c.last.Store(outcome)

	c.log.Info("Sync complete",
		zap.Int("uploaded", res.Uploaded),
		zap.Int("skipped", res.Skipped),
		zap.String("batch_key", key),
	)
	return res, outcome.Err
}

func (c *Coordinator) fail(batch draft.Batch, err error) (domain.UploadResult, error) {
	c.last.Store(&Outcome{State: Failed, Drafts: batch.Len(), Err: err, Finished: time.Now()})
	c.log.Warn("Sync failed",
		zap.Int("drafts", batch.Len()),
		zap.Bool("retryable", client.IsRetryable(err)),
		zap.Error(err),
	)
	return domain.UploadResult{}, err
}
