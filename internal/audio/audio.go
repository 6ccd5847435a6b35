package audio

// PlaybackStatus reports whether a clip is currently playing.
type PlaybackStatus int

const (
	StatusStopped PlaybackStatus = iota
	StatusPlaying
)

// Player plays one voice clip at a time from its URL. Implementations
// invoke the finished callback exactly once per clip that plays to
// completion, from their own goroutine; a stopped clip does not fire it.
type Player interface {
	Play(url string) error
	Stop() error
	Status() PlaybackStatus
	SetOnFinished(fn func())
}
