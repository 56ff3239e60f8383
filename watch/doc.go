// Package watch fans machine snapshots out to concurrent consumers over
// channels.
//
// Machine listeners run synchronously inside the dispatch, so they must not
// block and must not dispatch further events. A Hub bridges that boundary:
// it subscribes to one or more machines and republishes every committed
// snapshot to channel-based watchers, which goroutines consume at their own
// pace. Server-sent-event handlers, background reactors, and tests all
// consume the same stream without touching dispatch timing.
//
// # Usage
//
//	hub := watch.NewHub()
//	defer hub.Close()
//
//	detach := hub.Attach(machine)
//	defer detach()
//
//	w := hub.Watch(ctx)
//	for update := range w.Updates() {
//		render(update.MachineID, update.Snapshot)
//	}
//
// # Slow Consumers
//
// Publishing never blocks a dispatch. When a watcher's buffer is full the
// update is dropped and the watcher is closed; a consumer that finds its
// channel closed resynchronizes from Machine.Snapshot and watches again.
// Snapshots are state, not deltas, so resynchronization needs no replay.
package watch
