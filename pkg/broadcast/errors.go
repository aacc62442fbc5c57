package broadcast

import "errors"

var (
	// ErrRoomsClosed is returned by Rooms after Close.
	ErrRoomsClosed = errors.New("broadcast: rooms are closed")

	// ErrRoomRequired is returned when a room name is empty.
	ErrRoomRequired = errors.New("broadcast: room name is required")
)
