// Package ebitenvoice plays WAV sounds in-process through Ebitengine's audio
// mixer.
package ebitenvoice

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"

	"github.com/ayusman/zonebeat/internal/sound"
)

// SampleRate is the mixer sample rate. Sounds are resampled to it.
const SampleRate = 44100

// pollInterval is how often a playing voice checks for completion.
const pollInterval = 20 * time.Millisecond

// Factory creates voices that share one audio context and a cache of
// decoded PCM per file.
type Factory struct {
	ctx *audio.Context

	mu    sync.Mutex
	cache map[string][]byte
}

// NewFactory creates a Factory on the process-wide audio context, creating
// the context if needed.
func NewFactory() *Factory {
	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(SampleRate)
	}
	return &Factory{ctx: ctx, cache: make(map[string][]byte)}
}

// NewVoice implements sound.VoiceFactory.
func (f *Factory) NewVoice(url string, onFinished func()) (sound.Voice, error) {
	pcm, err := f.load(strings.TrimPrefix(url, "file://"))
	if err != nil {
		return nil, err
	}
	if onFinished == nil {
		onFinished = func() {}
	}
	return &voice{
		player:     f.ctx.NewPlayerFromBytes(pcm),
		onFinished: onFinished,
	}, nil
}

func (f *Factory) load(path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if pcm, ok := f.cache[path]; ok {
		return pcm, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sound: %w", err)
	}
	pcm, err := decode(data, f.ctx.SampleRate())
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	f.cache[path] = pcm
	return pcm, nil
}

// decode converts WAV bytes to the mixer's 16-bit stereo PCM at sampleRate.
func decode(data []byte, sampleRate int) ([]byte, error) {
	stream, err := wav.DecodeWithSampleRate(sampleRate, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(stream)
}

type voice struct {
	player     *audio.Player
	onFinished func()

	mu  sync.Mutex
	gen int
}

// Play rewinds and starts the player, then watches for the end of playback.
func (v *voice) Play(volume float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.player.Rewind(); err != nil {
		return fmt.Errorf("rewind: %w", err)
	}
	v.player.SetVolume(volume)
	v.player.Play()

	v.gen++
	go v.watch(v.gen)
	return nil
}

// watch fires onFinished once the playback started as generation gen ends
// or is superseded by a newer Play.
func (v *voice) watch(gen int) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for range ticker.C {
		v.mu.Lock()
		done := v.gen != gen || !v.player.IsPlaying()
		v.mu.Unlock()
		if done {
			v.onFinished()
			return
		}
	}
}

func (v *voice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.player.Pause()
}

func (v *voice) Playing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.player.IsPlaying()
}
