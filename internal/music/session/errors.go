package session

import "errors"

var (
	ErrNotInVoiceChannel = errors.New("user is not in a voice channel")
	ErrConnectFailed     = errors.New("failed to connect to voice channel")
	ErrNoActiveSession   = errors.New("no active voice session")
	ErrEmptyQueue        = errors.New("queue is empty")
	ErrInvalidRange      = errors.New("invalid range")
	ErrStartFailed       = errors.New("track could not be started")

	// ErrSessionAborted is returned when an operation hit an internal fault and
	// the session was torn down because of it.
	ErrSessionAborted = errors.New("session aborted")
)
