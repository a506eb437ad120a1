package core

import (
	"errors"

	"github.com/illarion/kakadu/internal/vault"
)

var ErrNotifierFull = errors.New("notification channel full")

// Notifier receives snapshots after a collection changes.
// Delivery is fire-and-forget: a returned error is logged, nothing more.
type Notifier interface {
	GroupsChanged(groups []vault.Group) error
	RecordsChanged(parentID uint32, records []vault.Record) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) GroupsChanged([]vault.Group) error           { return nil }
func (NopNotifier) RecordsChanged(uint32, []vault.Record) error { return nil }

// EventKind tells which collection an Event carries.
type EventKind int

const (
	GroupsChangedEvent EventKind = iota
	RecordsChangedEvent
)

// Event is one notification delivered by ChannelNotifier.
type Event struct {
	Kind     EventKind
	ParentID uint32
	Groups   []vault.Group
	Records  []vault.Record
}

// ChannelNotifier pushes events onto a buffered channel without blocking.
// When the buffer is full the event is dropped and ErrNotifierFull returned.
type ChannelNotifier struct {
	C chan Event
}

// NewChannelNotifier creates a notifier with the given buffer size.
func NewChannelNotifier(size int) *ChannelNotifier {
	return &ChannelNotifier{C: make(chan Event, size)}
}

func (n *ChannelNotifier) GroupsChanged(groups []vault.Group) error {
	return n.send(Event{Kind: GroupsChangedEvent, Groups: groups})
}

func (n *ChannelNotifier) RecordsChanged(parentID uint32, records []vault.Record) error {
	return n.send(Event{Kind: RecordsChangedEvent, ParentID: parentID, Records: records})
}

func (n *ChannelNotifier) send(e Event) error {
	select {
	case n.C <- e:
		return nil
	default:
		return ErrNotifierFull
	}
}
