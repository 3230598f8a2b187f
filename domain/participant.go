// Package domain contains core concepts of the chat system.
// This file defines Participant entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// Participant is a currently-present actor, keyed by its case-sensitive name.
// Joining counts as the first heartbeat.
type Participant struct {
	Name       string
	LastSeenAt time.Time
}

// Expired reports whether the participant missed its liveness window.
func (p Participant) Expired(now time.Time, threshold time.Duration) bool {
	return now.Sub(p.LastSeenAt) > threshold
}
