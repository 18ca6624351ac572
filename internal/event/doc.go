/*
Package event provides a type-safe pub/sub event system for TheraMind.

The event system lets the counseling orchestrator announce lifecycle events
without knowing who listens: the HTTP server bridges them to SSE clients, the
CLI prints them in verbose mode, tests assert on them.

# Architecture

The package is built on top of watermill's gochannel for infrastructure while
keeping direct-call semantics to preserve type information. It provides both
synchronous and asynchronous publishing.

# Event Types

  - turn.completed: a patient/counselor exchange was committed
  - turn.failed: the pipeline aborted a turn
  - session.ended: the open session was closed and a new one appended
  - therapy.changed: the therapy selector switched plans at a boundary
  - record.saved: the counseling record was written durably

# Basic Usage

Publishing events:

	// Asynchronous publishing (non-blocking)
	event.Publish(event.Event{
		Type: event.TurnCompleted,
		Data: event.TurnCompletedData{RecordID: id, Analysis: analysis},
	})

	// Synchronous publishing (blocking until all subscribers complete)
	event.PublishSync(event.Event{
		Type: event.SessionEnded,
		Data: event.SessionEndedData{RecordID: id, SessionIndex: 2},
	})

Subscribing to specific events:

	unsubscribe := event.Subscribe(event.TurnCompleted, func(e event.Event) {
		data := e.Data.(event.TurnCompletedData)
		log.Info().Str("record", data.RecordID).Msg("turn completed")
	})
	defer unsubscribe()

Subscribing to all events:

	unsubscribe := event.SubscribeAll(func(e event.Event) {
		log.Debug().Str("type", string(e.Type)).Msg("event received")
	})
	defer unsubscribe()

# Subscriber Safety Guidelines

When using PublishSync, subscribers are called synchronously in the
publisher's goroutine. To avoid blocking or deadlocks, subscribers MUST:

  - Complete quickly (avoid long-running operations)
  - Use non-blocking channel sends (select with default case)
  - Never call Publish/PublishSync from within a subscriber
  - Never acquire locks that the publisher might hold

# Custom Event Bus

For testing or isolation, create custom bus instances:

	bus := event.NewBus()
	defer bus.Close()

	unsubscribe := bus.Subscribe(event.TurnCompleted, handler)
	bus.PublishSync(event.Event{Type: event.TurnCompleted, Data: data})

# Testing

Reset global bus state in test cleanup:

	event.Reset()

# Thread Safety

The event bus is thread-safe and can be used concurrently from multiple
goroutines.

# Integration with Watermill

The underlying watermill gochannel is exposed for advanced use cases:

	pubsub := event.PubSub()

This allows future migration to distributed message brokers while keeping the
current API.
*/
package event
