package workers

import (
	"chatroom/domain"
	"chatroom/repositories"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

// movableClock lets a test jump forward between a join and a sweep.
type movableClock struct {
	now time.Time
}

func (c *movableClock) Now() time.Time { return c.now }

func (c *movableClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type sweeperFixture struct {
	sweeper      *SweeperWorker
	participants *repositories.ParticipantRepository
	messages     *repositories.MessageRepository
	clock        *movableClock
}

func newSweeperFixture(t *testing.T, threshold time.Duration) sweeperFixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	clock := &movableClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	participants := repositories.NewParticipantRepository(db, log)
	messages := repositories.NewMessageRepository(db, log)

	return sweeperFixture{
		sweeper:      NewSweeperWorker(log, clock, participants, messages, time.Second, threshold),
		participants: participants,
		messages:     messages,
		clock:        clock,
	}
}

func Test_Sweep_Evicts_Silent_Participant_And_Announces_It(t *testing.T) {
	req := require.New(t)
	f := newSweeperFixture(t, 10*time.Second)

	_, err := f.participants.Join("Alice", f.clock.Now())
	req.NoError(err)

	f.clock.Advance(11 * time.Second)
	f.sweeper.Sweep()

	remaining, err := f.participants.List()
	req.NoError(err)
	req.Empty(remaining)

	messages, err := f.messages.ListVisibleTo("Bob", 10)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("Alice", messages[0].From)
	req.Equal(domain.Broadcast, messages[0].To)
	req.Equal("left the room", messages[0].Text)
	req.Equal(domain.KindStatus, messages[0].Kind)
}

func Test_Sweep_Keeps_Fresh_Participants(t *testing.T) {
	req := require.New(t)
	f := newSweeperFixture(t, 10*time.Second)

	_, err := f.participants.Join("Alice", f.clock.Now())
	req.NoError(err)

	// Exactly at the threshold is still alive, eviction needs strictly older.
	f.clock.Advance(10 * time.Second)
	f.sweeper.Sweep()

	remaining, err := f.participants.List()
	req.NoError(err)
	req.Len(remaining, 1)

	messages, err := f.messages.ListVisibleTo("Bob", 10)
	req.NoError(err)
	req.Empty(messages)
}

func Test_Sweep_Spares_Only_The_Recently_Seen(t *testing.T) {
	req := require.New(t)
	f := newSweeperFixture(t, 10*time.Second)

	_, err := f.participants.Join("Alice", f.clock.Now())
	req.NoError(err)
	_, err = f.participants.Join("Bob", f.clock.Now())
	req.NoError(err)

	f.clock.Advance(8 * time.Second)
	_, err = f.participants.Heartbeat("Bob", f.clock.Now())
	req.NoError(err)

	f.clock.Advance(4 * time.Second)
	f.sweeper.Sweep()

	remaining, err := f.participants.List()
	req.NoError(err)
	names := lo.Map(remaining, func(p domain.Participant, _ int) string { return p.Name })
	req.Equal([]string{"Bob"}, names)

	messages, err := f.messages.ListVisibleTo("Carol", 10)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("Alice", messages[0].From)
}

func Test_Sweep_Heartbeat_After_Snapshot_Wins(t *testing.T) {
	req := require.New(t)
	f := newSweeperFixture(t, 10*time.Second)

	joined := f.clock.Now()
	_, err := f.participants.Join("Alice", joined)
	req.NoError(err)

	f.clock.Advance(11 * time.Second)

	// Simulate a heartbeat landing between the snapshot and the removal:
	// the conditional delete sees a fresher LastSeenAt and backs off.
	_, err = f.participants.Heartbeat("Alice", f.clock.Now())
	req.NoError(err)
	removed, err := f.participants.RemoveIfLastSeen("Alice", joined)
	req.NoError(err)
	req.False(removed)

	remaining, err := f.participants.List()
	req.NoError(err)
	req.Len(remaining, 1)
}

func Test_Sweep_Empty_Registry_Is_A_No_Op(t *testing.T) {
	req := require.New(t)
	f := newSweeperFixture(t, 10*time.Second)

	f.sweeper.Sweep()

	messages, err := f.messages.ListVisibleTo("Alice", 10)
	req.NoError(err)
	req.Empty(messages)
}
