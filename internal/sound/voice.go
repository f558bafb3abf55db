// Package sound plays zone sounds through pooled audio voices.
package sound

// Resolver maps a sound name to a playable asset URL.
type Resolver interface {
	Resolve(name string) (url string, ok bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name string) (string, bool)

// Resolve calls f.
func (f ResolverFunc) Resolve(name string) (string, bool) { return f(name) }

// Voice is one playable instance of an asset.
type Voice interface {
	// Play starts the voice from the beginning at volume in [0,1].
	Play(volume float64) error
	// Stop halts playback. Stopping an idle voice does nothing.
	Stop()
	// Playing reports whether the voice is audible.
	Playing() bool
}

// VoiceFactory creates voices for an asset URL. onFinished is called once
// per playback when the voice finishes or is stopped; it must be called
// from the backend's own goroutine, never from within Play or Stop.
type VoiceFactory interface {
	NewVoice(url string, onFinished func()) (Voice, error)
}
