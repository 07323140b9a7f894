package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var sessionDeletionQueue = make(chan string, 256)

func PublishDeleteSessionTask(sessionID string) {
	sessionDeletionQueue <- sessionID
}

func StartConsumeDeletionTask() {
	for {
		task := <-sessionDeletionQueue
		start := time.Now()
		if count, err := DeleteSessionAssets(context.Background(), task); err != nil {
			log.Error().Err(err).Str("session", task).Msg("A session deletion task failed...")
		} else {
			log.Info().Dur("elapsed", time.Since(start)).Str("session", task).Int("deleted", count).Msg("A session deletion task was completed.")
		}
	}
}

// RunRetentionSweepTask queues deletion for sessions older than the
// configured retention. Kiosk galleries are ephemeral; without a sweep the
// bucket grows until the event operator cleans it by hand.
func RunRetentionSweepTask() {
	retentionDays := viper.GetInt("cleaner.retention_days")
	if retentionDays <= 0 {
		return
	}
	deadline := time.Now().AddDate(0, 0, -retentionDays)

	sessions, err := ListSessions(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Retention sweep could not list sessions...")
		return
	}

	count := 0
	for _, session := range sessions {
		if session.Date.Before(deadline) {
			PublishDeleteSessionTask(session.ID)
			count++
		}
	}

	if count > 0 {
		log.Info().Int("count", count).Time("deadline", deadline).Msg("Queued expired sessions for deletion...")
	}
}
