package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atelierlab/devisio/internal/clock"
	financedomain "github.com/atelierlab/devisio/internal/finance/domain"
	quotedomain "github.com/atelierlab/devisio/internal/quote/domain"
)

type stubQuoteService struct {
	quotedomain.Service

	expireBatches []int
	expireErr     error
	calls         int
}

func (s *stubQuoteService) ExpireDue(ctx context.Context, batchSize int) (int, error) {
	if s.expireErr != nil {
		return 0, s.expireErr
	}
	if s.calls >= len(s.expireBatches) {
		return 0, nil
	}
	n := s.expireBatches[s.calls]
	s.calls++
	return n, nil
}

type stubFinanceService struct {
	financedomain.Service

	snapshots   int
	snapshotErr error
	calls       int
}

func (s *stubFinanceService) SnapshotAll(ctx context.Context, batchSize int) (int, error) {
	s.calls++
	return s.snapshots, s.snapshotErr
}

func newTestScheduler(t *testing.T, quoteSvc quotedomain.Service, financeSvc financedomain.Service, cfg Config) *Scheduler {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	sched, err := New(Params{
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      clock.NewFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)),
		QuoteSvc:   quoteSvc,
		FinanceSvc: financeSvc,
		Config:     cfg,
	})
	require.NoError(t, err)
	return sched
}

func TestRunOnceDrainsExpiryBacklog(t *testing.T) {
	quoteSvc := &stubQuoteService{expireBatches: []int{100, 100, 17}}
	financeSvc := &stubFinanceService{snapshots: 3}
	sched := newTestScheduler(t, quoteSvc, financeSvc, Config{})

	err := sched.RunOnce(context.Background())
	require.NoError(t, err)

	// Three non-empty sweeps plus the empty one that stops the loop.
	assert.Equal(t, 3, quoteSvc.calls)
	assert.Equal(t, 1, financeSvc.calls)
}

func TestRunOnceJoinsJobErrors(t *testing.T) {
	quoteSvc := &stubQuoteService{expireErr: errors.New("db gone")}
	financeSvc := &stubFinanceService{snapshotErr: errors.New("redis gone")}
	sched := newTestScheduler(t, quoteSvc, financeSvc, Config{})

	err := sched.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expire_quotes")
	assert.Contains(t, err.Error(), "finance_snapshots")

	// One job failing never stops the other.
	assert.Equal(t, 1, financeSvc.calls)
}

func TestEnabledJobsFilter(t *testing.T) {
	quoteSvc := &stubQuoteService{expireBatches: []int{1}}
	financeSvc := &stubFinanceService{}
	sched := newTestScheduler(t, quoteSvc, financeSvc, Config{EnabledJobs: []string{"expire_quotes"}})

	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Equal(t, 1, quoteSvc.calls)
	assert.Equal(t, 0, financeSvc.calls)
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, time.Minute, cfg.RunInterval)
	assert.Equal(t, 100, cfg.QuoteBatchSize)
	assert.Equal(t, 50, cfg.SnapshotBatchSize)
}
