// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"fmt"
	"log/slog"
	"sync"
)

// eventBuffer is the per-subscription channel capacity. Delivery is
// best-effort: if a subscriber falls this far behind, further events
// for it are dropped with a warning rather than blocking the notifier.
const eventBuffer = 16

// topicKind discriminates the Topic variants.
type topicKind uint8

const (
	topicPid topicKind = iota
	topicExec
	topicAll
)

// Topic is the routing key for exit events. It is a value type with
// structural equality, usable as a map key. Construct with PidTopic,
// ExecTopic, or AllTopic.
type Topic struct {
	kind        topicKind
	pid         int32
	containerID string
	execID      string
}

// PidTopic routes exit events for one OS process id.
func PidTopic(pid int32) Topic { return Topic{kind: topicPid, pid: pid} }

// ExecTopic routes exit events for one exec process inside a
// container. An empty execID addresses the container's primary
// process.
func ExecTopic(containerID, execID string) Topic {
	return Topic{kind: topicExec, containerID: containerID, execID: execID}
}

// AllTopic routes every exit event regardless of subject.
func AllTopic() Topic { return Topic{kind: topicAll} }

// String returns a log-friendly rendering of the topic.
func (t Topic) String() string {
	switch t.kind {
	case topicPid:
		return fmt.Sprintf("pid/%d", t.pid)
	case topicExec:
		return fmt.Sprintf("exec/%s/%s", t.containerID, t.execID)
	default:
		return "all"
	}
}

// SubjectKind discriminates what kind of thing exited.
type SubjectKind uint8

const (
	// SubjectPid identifies the exited process by OS pid.
	SubjectPid SubjectKind = iota

	// SubjectExec identifies the exited process by container and exec
	// id. An empty exec id means the container's primary process.
	SubjectExec
)

// Subject identifies the process an ExitEvent is about.
type Subject struct {
	Kind        SubjectKind
	Pid         int32
	ContainerID string
	ExecID      string
}

// ExitEvent is one process termination notification.
type ExitEvent struct {
	Subject  Subject
	ExitCode int32
}

// String renders the event for logs.
func (e ExitEvent) String() string {
	switch e.Subject.Kind {
	case SubjectPid:
		return fmt.Sprintf("pid %d exited with code %d", e.Subject.Pid, e.ExitCode)
	default:
		return fmt.Sprintf("exec %q in container %q exited with code %d",
			e.Subject.ExecID, e.Subject.ContainerID, e.ExitCode)
	}
}

// subscriber is one registered subscription's server-side state.
type subscriber struct {
	topic  Topic
	events chan ExitEvent
}

// Monitor is the exit-event registry. Safe for concurrent use. All
// internal state lives behind a single mutex; critical sections are
// map operations and non-blocking channel sends only — the monitor
// never blocks while holding its lock.
type Monitor struct {
	logger *slog.Logger

	mu sync.Mutex

	// nextID is the strictly increasing subscription id counter.
	nextID uint64

	// subscribers is the flat id → subscriber map.
	subscribers map[uint64]*subscriber

	// topics maps each topic to its ordered subscriber ids. A topic's
	// entry is removed the instant its list becomes empty.
	topics map[Topic][]uint64
}

// New returns an empty monitor. Construct one per process at startup.
func New(logger *slog.Logger) *Monitor {
	return &Monitor{
		logger:      logger,
		subscribers: make(map[uint64]*subscriber),
		topics:      make(map[Topic][]uint64),
	}
}

// Subscribe registers interest in a topic and returns the
// subscription handle owning the receive side. The caller must pair
// every Subscribe with a deferred Close so the registry entry is
// released on every exit path:
//
//	sub := mon.Subscribe(monitor.PidTopic(pid))
//	defer sub.Close()
func (m *Monitor) Subscribe(topic Topic) *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++

	sub := &subscriber{
		topic:  topic,
		events: make(chan ExitEvent, eventBuffer),
	}
	m.subscribers[id] = sub
	m.topics[topic] = append(m.topics[topic], id)

	return &Subscription{id: id, monitor: m, events: sub.events}
}

// NotifyByPid publishes one exit event for an OS process. The event
// fans out to subscribers of exactly two topics: PidTopic(pid) and
// AllTopic.
func (m *Monitor) NotifyByPid(pid int32, exitCode int32) {
	subject := Subject{Kind: SubjectPid, Pid: pid}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifyTopic(PidTopic(pid), subject, exitCode)
	m.notifyTopic(AllTopic(), subject, exitCode)
}

// NotifyByExec publishes one exit event for an exec process inside a
// container. The event fans out to subscribers of exactly two topics:
// ExecTopic(containerID, execID) and AllTopic.
func (m *Monitor) NotifyByExec(containerID, execID string, exitCode int32) {
	subject := Subject{Kind: SubjectExec, ContainerID: containerID, ExecID: execID}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifyTopic(ExecTopic(containerID, execID), subject, exitCode)
	m.notifyTopic(AllTopic(), subject, exitCode)
}

// notifyTopic delivers one event to every subscriber of topic. A full
// subscriber channel is logged and skipped; delivery to the remaining
// subscribers continues. Must be called with m.mu held.
func (m *Monitor) notifyTopic(topic Topic, subject Subject, exitCode int32) {
	event := ExitEvent{Subject: subject, ExitCode: exitCode}
	for _, id := range m.topics[topic] {
		sub, ok := m.subscribers[id]
		if !ok {
			continue
		}
		select {
		case sub.events <- event:
		default:
			m.logger.Warn("dropping exit event for slow subscriber",
				"subscription", id,
				"topic", topic.String(),
				"event", event.String(),
			)
		}
	}
}

// unsubscribe removes id from the registry and prunes its topic's
// list; if the list becomes empty the topic entry itself is removed.
func (m *Monitor) unsubscribe(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subscribers[id]
	if !ok {
		return
	}
	delete(m.subscribers, id)

	ids := m.topics[sub.topic]
	for i, candidate := range ids {
		if candidate == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(m.topics, sub.topic)
	} else {
		m.topics[sub.topic] = ids
	}

	// Closing under the monitor lock is safe: sends also happen under
	// the lock, so no send can race the close.
	close(sub.events)
}

// topicCount returns the number of live topic entries. Test hook.
func (m *Monitor) topicCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.topics)
}

// Subscription is the receive side of one Subscribe call. Close
// releases the monitor entry; it is idempotent and must run on every
// exit path (normal return, error, cancellation), so callers defer it
// immediately after subscribing.
type Subscription struct {
	id      uint64
	monitor *Monitor
	events  chan ExitEvent
	once    sync.Once
}

// Events returns the subscription's event channel. The channel is
// closed by Close.
func (s *Subscription) Events() <-chan ExitEvent {
	return s.events
}

// Close unsubscribes and closes the event channel. Safe to call more
// than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.monitor.unsubscribe(s.id)
	})
}
