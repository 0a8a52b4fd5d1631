package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"roblox-trader/internal/models"
)

type stubWarmer struct {
	calls int
	err   error
}

func (s *stubWarmer) GetItemDetails(context.Context) ([]models.CatalogEntry, string, error) {
	s.calls++
	return []models.CatalogEntry{{ID: 1, Name: "Cap"}}, "origin", s.err
}

func TestWarmCatalogCallsService(t *testing.T) {
	warmer := &stubWarmer{}
	s := New(warmer)

	s.warmCatalog()
	require.Equal(t, 1, warmer.calls)
}

func TestWarmCatalogSwallowsErrors(t *testing.T) {
	warmer := &stubWarmer{err: errors.New("origin down")}
	s := New(warmer)

	require.NotPanics(t, s.warmCatalog)
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New(&stubWarmer{})
	require.Error(t, s.Start("not a cron spec"))
}

func TestStartAndStop(t *testing.T) {
	s := New(&stubWarmer{})
	require.NoError(t, s.Start("@every 1h"))
	s.Stop()
}
