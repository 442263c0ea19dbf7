// Package notify fans session lifecycle events out to real-time subscribers.
//
// A Channel delivers each published Event to the subscribers of that event's
// tenant and to global subscribers. Delivery is at-most-once and never blocks
// the publisher: a subscriber that cannot keep up is detached and its
// Subscription is closed. Every Subscription starts with a "connected" event
// and receives only events published after it was created.
//
// RedisRelay mirrors events between processes through a Redis pub/sub
// channel so that subscribers attached to any replica observe every tenant.
package notify
