package app

import "errors"

var (
	ErrNoSession   = errors.New("no session")
	ErrNotInRoom   = errors.New("not in room")
	ErrNoRoom      = errors.New("room does not exist")
	ErrForbidden   = errors.New("forbidden")
	ErrNoTrack     = errors.New("no such track")
	ErrEmptyUpdate = errors.New("empty update")
	ErrInvalidRole = errors.New("invalid role")
)
