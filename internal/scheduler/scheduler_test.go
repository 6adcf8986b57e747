package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triostack/internal/dto"
	"triostack/internal/model"
)

// stubAssets implements service.AssetService; only SweepExpired matters here.
type stubAssets struct {
	sweeps  int
	matched int64
	err     error
}

func (s *stubAssets) List(context.Context, dto.AssetFilter) ([]dto.AssetResponse, *dto.Pagination, error) {
	return nil, nil, nil
}
func (s *stubAssets) Get(context.Context, string) (*dto.AssetResponse, error) { return nil, nil }
func (s *stubAssets) Create(context.Context, dto.CreateAssetRequest, string) (*dto.AssetResponse, error) {
	return nil, nil
}
func (s *stubAssets) Update(context.Context, string, dto.UpdateAssetRequest) (*dto.AssetResponse, error) {
	return nil, nil
}
func (s *stubAssets) Delete(context.Context, string) error           { return nil }
func (s *stubAssets) Stats(context.Context) (*dto.AssetStats, error) { return nil, nil }
func (s *stubAssets) Expiring(context.Context, int) ([]dto.AssetResponse, error) {
	return nil, nil
}
func (s *stubAssets) Expired(context.Context) ([]dto.AssetResponse, error) { return nil, nil }
func (s *stubAssets) SweepExpired(context.Context) (int64, error) {
	s.sweeps++
	return s.matched, s.err
}
func (s *stubAssets) Assign(context.Context, string, string) (*dto.AssetResponse, error) {
	return nil, nil
}
func (s *stubAssets) Unassign(context.Context, string) (*dto.AssetResponse, error) {
	return nil, nil
}
func (s *stubAssets) ByType(context.Context, string) ([]dto.AssetResponse, error) {
	return nil, nil
}
func (s *stubAssets) Available(context.Context) ([]dto.AssetResponse, error) { return nil, nil }

type stubNotifier struct {
	expiringDays []int
	expired      int
}

func (n *stubNotifier) NotifyExpiring(_ context.Context, days int) error {
	n.expiringDays = append(n.expiringDays, days)
	return nil
}
func (n *stubNotifier) NotifyExpired(context.Context) error {
	n.expired++
	return nil
}
func (n *stubNotifier) NotifyAssignment(context.Context, *model.Asset, *model.User) error {
	return nil
}
func (n *stubNotifier) NotifyReturn(context.Context, *model.Asset, *model.User) error {
	return nil
}

func TestSchedulerRegistersAllJobs(t *testing.T) {
	s := New(&stubAssets{}, &stubNotifier{})
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Len(t, s.cron.Entries(), 4)
}

func TestSweepJobNotifiesBeforeSweeping(t *testing.T) {
	assets := &stubAssets{matched: 3}
	notifier := &stubNotifier{}
	s := New(assets, notifier)

	require.NoError(t, s.sweepExpired(context.Background()))
	assert.Equal(t, 1, notifier.expired)
	assert.Equal(t, 1, assets.sweeps)
}

func TestSweepJobSurfacesSweepError(t *testing.T) {
	assets := &stubAssets{err: errors.New("write failed")}
	s := New(assets, &stubNotifier{})

	assert.Error(t, s.sweepExpired(context.Background()))
}

func TestWrapRecoversPanics(t *testing.T) {
	s := New(&stubAssets{}, &stubNotifier{})
	job := s.wrap("panicky", func(context.Context) error {
		panic("boom")
	})
	assert.NotPanics(t, job)
}
