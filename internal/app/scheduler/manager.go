// Package scheduler runs periodic maintenance: purging expired community
// posts and lapsing subscriptions past their expiry.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"codeprep/internal/platform/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	JobPurgePosts          = "purge_expired_posts"
	JobExpireSubscriptions = "expire_subscriptions"

	jobTimeout = time.Minute
)

type PostPurger interface {
	DeleteExpiredPosts(ctx context.Context, now time.Time) (int64, error)
}

type SubscriptionExpirer interface {
	ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error)
}

type Manager struct {
	cron   *cron.Cron
	spec   string
	posts  PostPurger
	users  SubscriptionExpirer
	logger *zap.Logger
	now    func() time.Time
}

// NewManager accepts standard five-field specs and descriptors such as
// "@hourly" or "@every 30m".
func NewManager(spec string, posts PostPurger, users SubscriptionExpirer, logger *zap.Logger) *Manager {
	return &Manager{
		cron:   cron.New(),
		spec:   spec,
		posts:  posts,
		users:  users,
		logger: logger,
		now:    time.Now,
	}
}

func (m *Manager) Start() error {
	if err := m.registerJobs(); err != nil {
		return err
	}
	m.cron.Start()
	m.logger.Info("maintenance jobs started", zap.String("spec", m.spec))
	return nil
}

// Stop waits for running jobs to finish.
func (m *Manager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.logger.Info("maintenance jobs stopped")
}

func (m *Manager) registerJobs() error {
	jobs := map[string]func(context.Context) (int64, error){
		JobPurgePosts:          m.PurgeExpiredPosts,
		JobExpireSubscriptions: m.ExpireSubscriptions,
	}
	for name, run := range jobs {
		name, run := name, run
		if _, err := m.cron.AddFunc(m.spec, func() { m.runJob(name, run) }); err != nil {
			return fmt.Errorf("schedule %s with %q: %w", name, m.spec, err)
		}
	}
	return nil
}

func (m *Manager) runJob(name string, run func(context.Context) (int64, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := time.Now()
	n, err := run(ctx)
	if err != nil {
		m.logger.Error("maintenance job failed", zap.String("job", name), zap.Error(err))
		return
	}
	m.logger.Info("maintenance job completed",
		zap.String("job", name),
		zap.Int64("rows", n),
		zap.Duration("took", time.Since(started)))
}

func (m *Manager) PurgeExpiredPosts(ctx context.Context) (int64, error) {
	n, err := m.posts.DeleteExpiredPosts(ctx, m.now().UTC())
	if err != nil {
		return 0, err
	}
	metrics.MaintenanceRemoved.WithLabelValues(JobPurgePosts).Add(float64(n))
	return n, nil
}

func (m *Manager) ExpireSubscriptions(ctx context.Context) (int64, error) {
	n, err := m.users.ExpireSubscriptions(ctx, m.now().UTC())
	if err != nil {
		return 0, err
	}
	metrics.MaintenanceRemoved.WithLabelValues(JobExpireSubscriptions).Add(float64(n))
	return n, nil
}
