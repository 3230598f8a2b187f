package workers

import (
	"chatroom/domain"
	"chatroom/repositories"
	"context"
	"log/slog"
	"time"
)

// SweeperWorker evicts participants whose heartbeat went silent and records a
// departure notice for each. Interval and threshold are independent knobs;
// the shipped pair is a 15s sweep with a 10s threshold, meaning a silent
// participant survives at most one extra cycle before eviction.
type SweeperWorker struct {
	log          *slog.Logger
	clock        domain.Clock
	participants repositories.IParticipantRepository
	messages     repositories.IMessageRepository
	interval     time.Duration
	threshold    time.Duration
}

func NewSweeperWorker(
	log *slog.Logger,
	clock domain.Clock,
	participants repositories.IParticipantRepository,
	messages repositories.IMessageRepository,
	interval, threshold time.Duration,
) *SweeperWorker {
	return &SweeperWorker{
		log:          log,
		clock:        clock,
		participants: participants,
		messages:     messages,
		interval:     interval,
		threshold:    threshold,
	}
}

// Run sweeps on a fixed interval until the context is canceled. Cycles are
// sequential by construction: a slow sweep delays the next tick, it never
// overlaps with itself.
func (w *SweeperWorker) Run(ctx context.Context) error {
	w.log.Info("Starting presence sweeper",
		"interval", w.interval,
		"threshold", w.threshold)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep snapshots the registry and evicts every expired participant.
// Each expiry is independent: a storage fault on one participant is logged
// and the cycle moves on. The removal is conditioned on the snapshotted
// LastSeenAt so a heartbeat racing the sweep deterministically wins.
func (w *SweeperWorker) Sweep() {
	participants, err := w.participants.List()
	if err != nil {
		w.log.Error("Sweep could not snapshot the registry", "err", err)
		return
	}

	now := w.clock.Now()
	for _, participant := range participants {
		if !participant.Expired(now, w.threshold) {
			continue
		}

		removed, err := w.participants.RemoveIfLastSeen(participant.Name, participant.LastSeenAt)
		if err != nil {
			w.log.Error("Failed to remove expired participant",
				"name", participant.Name, "err", err)
			continue
		}
		if !removed {
			// A heartbeat landed after the snapshot, the participant stays.
			continue
		}

		_, err = w.messages.Append(domain.Message{
			From:      participant.Name,
			To:        domain.Broadcast,
			Text:      "left the room",
			Kind:      domain.KindStatus,
			CreatedAt: now,
		})
		if err != nil {
			w.log.Error("Failed to record departure notice",
				"name", participant.Name, "err", err)
			continue
		}
		w.log.Info("Evicted inactive participant", "name", participant.Name)
	}
}
