// Package events multiplexes the single push channel into named event
// subscriptions for dashboard widgets.
//
// Widgets call Subscribe with an event name and a handler; the
// multiplexer guarantees that exactly one raw listener is registered on
// the channel per event name, regardless of subscriber count, and
// forwards each inbound message to every attached subscriber in attach
// order.
//
// # Basic Usage
//
//	mux := events.New(ch)
//
//	sub := mux.Subscribe("occupancy.update", func(envelope channel.Envelope) {
//		if envelope.Tenant != activeSite {
//			return
//		}
//		render(envelope.Data)
//	})
//	defer sub.Unsubscribe()
//
// # Connection Lifecycle
//
// Subscribe works whether or not the channel is connected: subscribers
// attach immediately and the raw listener registration is deferred until
// the channel reaches Connected. Because a reconnect replaces the
// physical connection and every raw listener on it, the multiplexer
// re-registers all listeners on each Connected transition; subscribers
// never need to re-subscribe after a disconnect.
//
// Fan-out does not queue. A subscriber attached after a message was
// delivered does not receive that message.
//
// # Metrics
//
//   - dashboard_events_dispatched_total{event} - Messages fanned out
//   - dashboard_event_subscribers{event} - Current subscriber counts
package events
