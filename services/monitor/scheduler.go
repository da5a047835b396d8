// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler drives periodic check-and-reconnect cycles.
//
// # Description
//
// Each tick re-reads the interval setting, so operator changes take
// effect at the next cycle without a restart. When the watchdog is
// disabled the cycle is skipped but the loop keeps ticking, ready for
// re-enablement.
//
// # Thread Safety
//
// Start and Stop are safe to call from any goroutine. Start is
// idempotent while running; Stop blocks until the loop exits.
type Scheduler struct {
	monitor *Monitor
	logger  *slog.Logger

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewScheduler creates a scheduler over the given monitor.
func NewScheduler(monitor *Monitor, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		monitor: monitor,
		logger:  logger,
	}
}

// Start launches the background loop. The first cycle runs after one
// full interval, not immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopCh != nil {
		return
	}
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.run(ctx, s.stopCh, s.doneCh)
	s.logger.Info("Watchdog scheduler started")
}

// Stop terminates the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stopCh, doneCh := s.stopCh, s.doneCh
	s.stopCh, s.doneCh = nil, nil
	s.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
	s.logger.Info("Watchdog scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		interval := time.Duration(s.monitor.GetIntervalMinutes(ctx)) * time.Minute
		timer := time.NewTimer(interval)

		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if !s.monitor.Enabled(ctx) {
			s.logger.Debug("Watchdog disabled, skipping cycle")
			continue
		}

		result := s.monitor.CheckAndReconnect(ctx)
		s.logger.Info("Watchdog cycle finished",
			"ok", result.OK, "action", result.Action, "message", result.Message)
	}
}
