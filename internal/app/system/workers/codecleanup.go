// internal/app/system/workers/codecleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	userstore "github.com/bsankara/koasa/internal/app/store/users"
)

// CodeCleanup is a background worker that clears expired email verification
// codes and WhatsApp OTPs. Expiry is also enforced at check time; this keeps
// stale secrets out of the users collection.
type CodeCleanup struct {
	users    *userstore.Store
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCodeCleanup creates the cleanup worker. A 10 minute interval is plenty;
// codes live at most that long.
func NewCodeCleanup(users *userstore.Store, logger *zap.Logger, interval time.Duration) *CodeCleanup {
	return &CodeCleanup{
		users:    users,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *CodeCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("code cleanup worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *CodeCleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("code cleanup worker stopped")
}

func (w *CodeCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.cleanup()
		}
	}
}

func (w *CodeCleanup) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.users.ClearExpiredCodes(ctx)
	if err != nil {
		w.log.Error("failed to clear expired codes", zap.Error(err))
		return
	}
	if count > 0 {
		w.log.Info("cleared expired verification codes", zap.Int64("count", count))
	}
}
