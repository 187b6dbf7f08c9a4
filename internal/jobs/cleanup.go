package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/verdantlane/loyalty-game-server/internal/repository"
)

// CleanupJob prunes game event rows past their retention window. Session
// tokens need no cleanup: they live client-side and expire by themselves.
type CleanupJob struct {
	eventRepo repository.GameEventRepository
	retention time.Duration
	interval  time.Duration
	done      chan struct{}
}

func NewCleanupJob(
	eventRepo repository.GameEventRepository,
	retention time.Duration,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		eventRepo: eventRepo,
		retention: retention,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-j.retention)
	count, err := j.eventRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to cleanup game events")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("cleaned up game events")
	}
}
