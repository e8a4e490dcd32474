package voiceruntime

import "errors"

var (
	errVoiceNotAllowed       = errors.New("voiceruntime: voice not allowed in current state")
	errReconnectLimitExceeded = errors.New("voiceruntime: reconnect window exceeded")
)
