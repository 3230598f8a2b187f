// Package domain contains core concepts of the chat system.
// This file defines Message events and the visibility rules applied
// when a participant reads the log.
package domain

import "time"

// Broadcast is the reserved recipient meaning "all current participants".
const Broadcast = "Todos"

// Kind classifies a message. From and Kind are immutable once created.
type Kind string

const (
	// KindMessage is a broadcast-eligible chat message, visible to everyone.
	KindMessage Kind = "message"
	// KindPrivate is visible only to its sender and its named recipient.
	KindPrivate Kind = "private_message"
	// KindStatus is a system-generated join/leave notice, always visible.
	KindStatus Kind = "status"
)

// ChatKind reports whether k is a kind a participant may send.
// Status messages are produced by the system only.
func (k Kind) ChatKind() bool {
	return k == KindMessage || k == KindPrivate
}

// Message is one entry of the append-only log. The ID is assigned at append
// time and is order-preserving: messages compare by ID in creation order.
// Only To and Text may change after creation, and only by the author.
type Message struct {
	ID        string
	From      string
	To        string
	Text      string
	Kind      Kind
	CreatedAt time.Time
}

// VisibleTo decides whether user may read the message:
// status and broadcast chat messages are visible to all, private messages
// only to their sender and recipient, and a participant always sees
// messages it sent or received.
func (m Message) VisibleTo(user string) bool {
	switch m.Kind {
	case KindStatus, KindMessage:
		return true
	default:
		return m.From == user || m.To == user
	}
}
