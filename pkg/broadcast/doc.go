// Package broadcast fans realtime events out to in-process subscribers.
//
// MemoryBroadcaster delivers each message to every subscriber that has room
// in its buffer; a subscriber that falls behind is dropped and its channel
// closed, so a broadcast never blocks.
//
// Rooms groups broadcasters by name. The relay uses one room per user id:
// websocket notifications are emitted to the user's room and clients listen
// through the server-sent events endpoint.
//
//	rooms := broadcast.NewRooms[broadcast.Event](broadcast.WithRoomCapacity(4096))
//	defer rooms.Close()
//
//	sub, err := rooms.Subscribe(ctx, userID)
//	if err != nil {
//	    return err
//	}
//	for msg := range sub.Receive(ctx) {
//	    write(msg.Data)
//	}
//
// Rooms are created lazily on Subscribe and kept in an LRU cache. Emitting
// to a room with no subscribers is a no-op.
package broadcast
