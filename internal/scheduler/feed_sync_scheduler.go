package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/pkg/logger"
)

// FeedRefresher pulls the newest feed page into the local cache.
type FeedRefresher interface {
	RefreshFeedPage(ctx context.Context, limit int, cursor *int64) (model.ReviewPage, error)
}

// FeedSyncScheduler keeps the cached feed warm between client requests.
type FeedSyncScheduler struct {
	cron     *cron.Cron
	feed     FeedRefresher
	spec     string
	pageSize int
	timeout  time.Duration
}

func NewFeedSyncScheduler(feed FeedRefresher, spec string, pageSize int) *FeedSyncScheduler {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &FeedSyncScheduler{
		cron:     cron.New(),
		feed:     feed,
		spec:     spec,
		pageSize: pageSize,
		timeout:  30 * time.Second,
	}
}

// Start registers the sync job. An empty spec leaves the scheduler idle.
func (s *FeedSyncScheduler) Start() error {
	if s.spec == "" {
		logger.Info("Feed sync scheduler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.SyncOnce); err != nil {
		logger.Error("Failed to add cron job for feed sync", err, logger.Fields{"spec": s.spec})
		return err
	}

	s.cron.Start()
	logger.Info("Feed sync scheduler started", logger.Fields{
		"spec":      s.spec,
		"page_size": s.pageSize,
	})
	return nil
}

// SyncOnce refreshes the first feed page.
func (s *FeedSyncScheduler) SyncOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	page, err := s.feed.RefreshFeedPage(ctx, s.pageSize, nil)
	if err != nil {
		logger.Error("Scheduled feed sync failed", err)
		return
	}
	logger.Debug("Scheduled feed sync finished", logger.Fields{
		"reviews":  len(page.Reviews),
		"has_more": page.HasMore,
	})
}

func (s *FeedSyncScheduler) Stop() {
	logger.Info("Stopping feed sync scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Feed sync scheduler stopped")
}
