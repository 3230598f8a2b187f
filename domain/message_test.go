package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessage_VisibleTo(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		name    string
		message Message
		user    string
		visible bool
	}{
		{
			name:    "Broadcast chat is visible to anyone",
			message: Message{From: "Alice", To: Broadcast, Kind: KindMessage},
			user:    "Carol",
			visible: true,
		},
		{
			name:    "Status notice is visible to anyone",
			message: Message{From: "Alice", To: Broadcast, Kind: KindStatus},
			user:    "Carol",
			visible: true,
		},
		{
			name:    "Private message is visible to the sender",
			message: Message{From: "Alice", To: "Bob", Kind: KindPrivate},
			user:    "Alice",
			visible: true,
		},
		{
			name:    "Private message is visible to the recipient",
			message: Message{From: "Alice", To: "Bob", Kind: KindPrivate},
			user:    "Bob",
			visible: true,
		},
		{
			name:    "Private message is hidden from a third party",
			message: Message{From: "Alice", To: "Bob", Kind: KindPrivate},
			user:    "Carol",
			visible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req.Equal(tt.visible, tt.message.VisibleTo(tt.user), "test=%s", tt.name)
		})
	}
}

func TestKind_ChatKind(t *testing.T) {
	req := require.New(t)

	req.True(KindMessage.ChatKind())
	req.True(KindPrivate.ChatKind())
	req.False(KindStatus.ChatKind())
	req.False(Kind("shout").ChatKind())
}
