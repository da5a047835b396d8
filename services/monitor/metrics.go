// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oowatch_checks_total",
		Help: "Health probes run, by result.",
	}, []string{"result"})

	reconnectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oowatch_reconnects_total",
		Help: "Configuration restores attempted, by result.",
	}, []string{"result"})

	backupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oowatch_backups_total",
		Help: "Manual and scheduled backups, by result.",
	}, []string{"result"})

	lastCheckHealthy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oowatch_last_check_healthy",
		Help: "1 when the most recent health probe passed, 0 otherwise.",
	})
)

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

func observeCheck(ok bool) {
	checksTotal.WithLabelValues(resultLabel(ok)).Inc()
	if ok {
		lastCheckHealthy.Set(1)
	} else {
		lastCheckHealthy.Set(0)
	}
}

func observeReconnect(ok bool) {
	reconnectsTotal.WithLabelValues(resultLabel(ok)).Inc()
}

func observeBackup(ok bool) {
	backupsTotal.WithLabelValues(resultLabel(ok)).Inc()
}
