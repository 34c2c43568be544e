package main

import (
	"context"
	"log"
	"time"

	"microrental/internal/services"
)

const (
	sweeperInterval = 1 * time.Hour
	sweeperTimeout  = 30 * time.Second
)

// startCompletionSweeper periodically moves accepted rentals whose end date
// has passed to completed and frees the items. The transition itself is
// idempotent, so an extra run is harmless.
func startCompletionSweeper(ctx context.Context, svc *services.RentalRequestService, infoLog, errorLog *log.Logger) {
	if svc == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(sweeperInterval)
		defer ticker.Stop()

		run := func() {
			runCtx, cancel := context.WithTimeout(ctx, sweeperTimeout)
			defer cancel()

			completed, err := svc.CompleteExpired(runCtx, time.Now())
			if err != nil {
				if errorLog != nil {
					errorLog.Printf("completion sweeper: failed to complete expired rentals: %v", err)
				}
				return
			}
			if completed > 0 && infoLog != nil {
				infoLog.Printf("completion sweeper: completed %d expired rentals", completed)
			}
		}

		run()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
}
