// Package broadcast provides type-safe, topic-keyed message fan-out.
//
//	b := broadcast.NewMemoryBroadcaster[string](16)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx, "tenant-a") // no topics = every message
//	defer sub.Close()
//
//	_ = b.Publish(ctx, "tenant-a", "hello")
//
//	for msg := range sub.Receive() {
//		fmt.Println(msg.Topic, msg.Data)
//	}
//
// Delivery is at most once per attached subscriber. Publish never blocks:
// a subscriber whose buffer is full is dropped and its channel closed.
// Subscribers are also removed when their context is cancelled and when the
// broadcaster is closed. There is no replay for late subscribers.
package broadcast
