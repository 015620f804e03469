// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VaultState reflects the controller's current lifecycle state as a
	// gauge: 0=sealed, 1=closed, 2=open.
	VaultState = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "state",
			Help:      "Current vault lifecycle state (0=sealed, 1=closed, 2=open)",
		},
	)

	// RecordOperations tracks record store operations.
	RecordOperations = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "operations_total",
			Help:      "Total number of record store operations",
		},
		[]string{"operation", "status"}, // put/get/delete/find/list, ok/error
	)

	// UnlockAttempts tracks unlock attempts and their outcome.
	UnlockAttempts = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "unlock_attempts_total",
			Help:      "Total number of unlock attempts",
		},
		[]string{"status"}, // success, wrong_passphrase, error
	)

	// EmergencyLockdowns counts emergency lockdown invocations.
	EmergencyLockdowns = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "emergency_lockdowns_total",
			Help:      "Total number of emergency lockdowns triggered",
		},
	)

	// RotationEvents counts PQ keypair rotations.
	RotationEvents = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "rotations_total",
			Help:      "Total number of key rotations performed",
		},
		[]string{"key_id"},
	)
)
