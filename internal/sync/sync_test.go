package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/conorfennell/studybuddy/internal/client"
	"github.com/conorfennell/studybuddy/internal/domain"
	"github.com/conorfennell/studybuddy/internal/draft"
	"github.com/conorfennell/studybuddy/internal/fingerprint"
	mock_sync "github.com/conorfennell/studybuddy/internal/sync/mock"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	q1 = domain.Draft{Front: "Q1", Back: "A1", Subject: "CSC280", Test: "Test1"}
	q2 = domain.Draft{Front: "Q2", Back: "A2", Subject: "CSC280", Test: "Test1"}
	q3 = domain.Draft{Front: "Q3", Back: "A3", Subject: "CSC280", Test: "Test2"}
)

func storeWith(t *testing.T, drafts ...domain.Draft) *draft.Store {
	t.Helper()
	s := draft.New()
	for _, d := range drafts {
		require.NoError(t, s.Add(d))
	}
	return s
}

type failingCreds struct{}

func (failingCreds) Token(context.Context) (string, error) {
	return "", errors.New("keychain locked")
}

func TestCoordinator_Sync(t *testing.T) {
	t.Parallel()

	serverErr := &client.Error{Kind: client.KindServer, Op: "upload flashcards", Status: 500, Message: "boom"}

	tests := []struct {
		name        string
		drafts      []domain.Draft
		creds       client.Credentials
		f           func(*mock_sync.MockUploader)
		want        domain.UploadResult
		wantErr     error
		wantLeft    []domain.Draft
		wantOutcome State
	}{
		{
			name:   "success clears the store",
			drafts: []domain.Draft{q1, q2},
			creds:  client.StaticToken("tok"),
			f: func(mu *mock_sync.MockUploader) {
				mu.EXPECT().
					UploadFlashcards(gomock.Any(), "tok", []domain.Draft{q1, q2}, fingerprint.Batch([]domain.Draft{q1, q2})).
					Return(domain.UploadResult{Uploaded: 2, Skipped: 0}, nil)
			},
			want:        domain.UploadResult{Uploaded: 2, Skipped: 0},
			wantOutcome: Succeeded,
		},
		{
			name:   "success with skipped duplicates",
			drafts: []domain.Draft{q1, q1, q3},
			creds:  client.StaticToken("tok"),
			f: func(mu *mock_sync.MockUploader) {
				mu.EXPECT().
					UploadFlashcards(gomock.Any(), "tok", []domain.Draft{q1, q1, q3}, gomock.Any()).
					Return(domain.UploadResult{Uploaded: 2, Skipped: 1}, nil)
			},
			want:        domain.UploadResult{Uploaded: 2, Skipped: 1},
			wantOutcome: Succeeded,
		},
		{
			name:   "server rejection keeps drafts",
			drafts: []domain.Draft{q1, q2},
			creds:  client.StaticToken("tok"),
			f: func(mu *mock_sync.MockUploader) {
				mu.EXPECT().UploadFlashcards(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(domain.UploadResult{}, serverErr)
			},
			wantErr:     client.ErrServerRejection,
			wantLeft:    []domain.Draft{q1, q2},
			wantOutcome: Failed,
		},
		{
			name:        "missing token never reaches the network",
			drafts:      []domain.Draft{q1},
			creds:       client.StaticToken(""),
			wantErr:     client.ErrAuth,
			wantLeft:    []domain.Draft{q1},
			wantOutcome: Failed,
		},
		{
			name:        "credential provider error",
			drafts:      []domain.Draft{q1},
			creds:       failingCreds{},
			wantErr:     client.ErrAuth,
			wantLeft:    []domain.Draft{q1},
			wantOutcome: Failed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			up := mock_sync.NewMockUploader(ctrl)
			if tt.f != nil {
				tt.f(up)
			}

			store := storeWith(t, tt.drafts...)
			c := NewCoordinator(store, up, tt.creds, zap.NewNop())

			got, err := c.Sync(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.wantLeft), store.Len())
			if len(tt.wantLeft) > 0 {
				assert.Equal(t, tt.wantLeft, store.List())
			}
			assert.Equal(t, Idle, c.State())
			require.NotNil(t, c.Last())
			assert.Equal(t, tt.wantOutcome, c.Last().State)
		})
	}
}

func TestCoordinator_SyncEmptyStore(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	up := mock_sync.NewMockUploader(ctrl)
	c := NewCoordinator(draft.New(), up, client.StaticToken("tok"), zap.NewNop())

	_, err := c.Sync(context.Background())
	assert.ErrorIs(t, err, client.ErrValidation)
	assert.Nil(t, c.Last())
	assert.Equal(t, Idle, c.State())
}

func TestCoordinator_RejectsConcurrentSync(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	up := mock_sync.NewMockUploader(ctrl)
	store := storeWith(t, q1, q2)
	c := NewCoordinator(store, up, client.StaticToken("tok"), zap.NewNop())

	started := make(chan struct{})
	release := make(chan struct{})
	up.EXPECT().UploadFlashcards(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, token string, drafts []domain.Draft, key string) (domain.UploadResult, error) {
			close(started)
			<-release
			return domain.UploadResult{Uploaded: len(drafts)}, nil
		}).
		Times(1)

	done := make(chan error, 1)
	go func() {
		_, err := c.Sync(context.Background())
		done <- err
	}()

	<-started
	assert.Equal(t, InFlight, c.State())

	_, err := c.Sync(context.Background())
	assert.ErrorIs(t, err, ErrInFlight)
	assert.Equal(t, 2, store.Len(), "a rejected sync must not touch the store")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, 0, store.Len())
}

func TestCoordinator_DraftsAddedDuringSyncSurvive(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	up := mock_sync.NewMockUploader(ctrl)
	store := storeWith(t, q1)
	c := NewCoordinator(store, up, client.StaticToken("tok"), zap.NewNop())

	up.EXPECT().UploadFlashcards(gomock.Any(), gomock.Any(), []domain.Draft{q1}, gomock.Any()).
		DoAndReturn(func(context.Context, string, []domain.Draft, string) (domain.UploadResult, error) {
			require.NoError(t, store.Add(q2))
			return domain.UploadResult{Uploaded: 1}, nil
		})

	_, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Draft{q2}, store.List())
}

func TestCoordinator_CommitFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	up := mock_sync.NewMockUploader(ctrl)
	store := mock_sync.NewMockStore(ctrl)

	batch := storeWith(t, q1).Snapshot()
	store.EXPECT().Snapshot().Return(batch)
	up.EXPECT().UploadFlashcards(gomock.Any(), "tok", []domain.Draft{q1}, gomock.Any()).
		Return(domain.UploadResult{Uploaded: 1}, nil)
	store.EXPECT().Commit(batch).Return(errors.New("disk full"))

	c := NewCoordinator(store, up, client.StaticToken("tok"), zap.NewNop())
	got, err := c.Sync(context.Background())

	assert.Equal(t, domain.UploadResult{Uploaded: 1}, got)
	assert.ErrorContains(t, err, "failed to clear them locally")
	assert.Equal(t, Succeeded, c.Last().State)
}

// The coordinator against the real client and a fake backend.
func TestCoordinator_Backend(t *testing.T) {
	t.Parallel()

	newBackend := func(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(status)
			w.Write([]byte(body))
		}))
		t.Cleanup(srv.Close)
		return srv, &calls
	}

	for _, n := range []int{1, 3} {
		n := n
		t.Run(fmt.Sprintf("one request for %d drafts", n), func(t *testing.T) {
			srv, calls := newBackend(t, http.StatusOK, `{"uploaded": 1, "skipped": 0}`)
			api := client.New(srv.URL, time.Second, nil, zap.NewNop())

			store := draft.New()
			for i := 0; i < n; i++ {
				require.NoError(t, store.Add(q1))
			}
			c := NewCoordinator(store, api, client.StaticToken("tok"), zap.NewNop())

			_, err := c.Sync(context.Background())
			require.NoError(t, err)
			assert.Equal(t, int32(1), calls.Load())
			assert.Equal(t, 0, store.Len())
		})
	}

	t.Run("scenario: backend accepts both drafts", func(t *testing.T) {
		srv, _ := newBackend(t, http.StatusOK, `{"uploaded": 2, "skipped": 0}`)
		api := client.New(srv.URL, time.Second, nil, zap.NewNop())
		store := storeWith(t, q1, q2)
		c := NewCoordinator(store, api, client.StaticToken("tok"), zap.NewNop())

		got, err := c.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.UploadResult{Uploaded: 2, Skipped: 0}, got)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("scenario: backend fails with 500", func(t *testing.T) {
		srv, calls := newBackend(t, http.StatusInternalServerError, `{"detail": "boom"}`)
		api := client.New(srv.URL, time.Second, nil, zap.NewNop())
		store := storeWith(t, q1, q2)
		c := NewCoordinator(store, api, client.StaticToken("tok"), zap.NewNop())

		_, err := c.Sync(context.Background())
		assert.ErrorIs(t, err, client.ErrServerRejection)
		assert.True(t, client.IsRetryable(err))
		assert.Equal(t, []domain.Draft{q1, q2}, store.List())
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("scenario: backend unreachable", func(t *testing.T) {
		srv, _ := newBackend(t, http.StatusOK, "")
		url := srv.URL
		srv.Close()

		api := client.New(url, time.Second, nil, zap.NewNop())
		store := storeWith(t, q1, q2)
		c := NewCoordinator(store, api, client.StaticToken("tok"), zap.NewNop())

		_, err := c.Sync(context.Background())
		assert.ErrorIs(t, err, client.ErrNetwork)
		assert.Equal(t, []domain.Draft{q1, q2}, store.List())
	})
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "in_flight", InFlight.String())
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "failed", Failed.String())
}
