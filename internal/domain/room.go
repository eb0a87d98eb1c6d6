package domain

import "github.com/google/uuid"

const MaxRoomNameLen = 36

type (
	RoomName string
	RoomID   string
)

type Room struct {
	ID   RoomID   `json:"id"`
	Name RoomName `json:"name"`
}

func NewRoom(name string) *Room {
	if len(name) > MaxRoomNameLen {
		name = name[:MaxRoomNameLen]
	}
	return &Room{ID: RoomID(uuid.NewString()), Name: RoomName(name)}
}
