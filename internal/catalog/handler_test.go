package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/partshelf/partshelf/internal/auth"
)

// blockingRepo parks Search until released so tests can hold a collapsed
// lookup in flight.
type blockingRepo struct {
	*fakeRepo
	startOnce sync.Once
	started   chan struct{}
	release   chan struct{}
}

func newBlockingRepo() *blockingRepo {
	return &blockingRepo{
		fakeRepo: newFakeRepo(),
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (r *blockingRepo) Search(ctx context.Context, f SearchFilter) ([]SearchRow, error) {
	r.startOnce.Do(func() { close(r.started) })
	select {
	case <-r.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []SearchRow{{SKU: "RES-10K", Category: "resistor", Name: "Resistor 10k", Unit: "pcs"}}, nil
}

func TestSearchSurvivesCallerHangup(t *testing.T) {
	repo := newBlockingRepo()
	service := NewService(repo, nil, nil)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), service, auth.Middleware{})

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderRec := httptest.NewRecorder()
	leaderReq := httptest.NewRequest(http.MethodGet, "/parts?name=resistor", nil).WithContext(leaderCtx)

	leaderDone := make(chan struct{})
	go func() {
		h.handleSearch(leaderRec, leaderReq)
		close(leaderDone)
	}()
	<-repo.started

	followerRec := httptest.NewRecorder()
	followerReq := httptest.NewRequest(http.MethodGet, "/parts?name=resistor", nil)
	followerDone := make(chan struct{})
	go func() {
		h.handleSearch(followerRec, followerReq)
		close(followerDone)
	}()

	cancel()
	<-leaderDone
	require.Zero(t, leaderRec.Body.Len())

	close(repo.release)
	<-followerDone

	require.Equal(t, http.StatusOK, followerRec.Code)
	var rows []SearchRow
	require.NoError(t, json.Unmarshal(followerRec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	require.Equal(t, "RES-10K", rows[0].SKU)
}
