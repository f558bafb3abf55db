package sound

import (
	"fmt"
	"slices"
	"sync"

	"github.com/ayusman/zonebeat/internal/log"
)

// DefaultMaxDuplicates is the default cap on overlapping voices per asset.
const DefaultMaxDuplicates = 8

// Outcome is what a Play call did.
type Outcome int

// Play outcomes.
const (
	OutcomeMissed Outcome = iota
	OutcomeStarted
	OutcomeRestarted
	OutcomeDuplicated
	OutcomeDropped
)

var outcomeNames = [...]string{
	OutcomeMissed:     "missed",
	OutcomeStarted:    "started",
	OutcomeRestarted:  "restarted",
	OutcomeDuplicated: "duplicated",
	OutcomeDropped:    "dropped",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Audible reports whether the outcome started a voice.
func (o Outcome) Audible() bool {
	return o == OutcomeStarted || o == OutcomeRestarted || o == OutcomeDuplicated
}

// Played describes an audible Play call.
type Played struct {
	Name    string  `json:"name"`
	URL     string  `json:"url"`
	Outcome Outcome `json:"outcome"`
}

// Config holds dispatcher settings.
type Config struct {
	Volume      float64
	ForceReplay bool
	// MaxDuplicates caps overlapping voices per asset. Zero means no cap.
	MaxDuplicates int
}

// DefaultConfig returns full volume, force replay on and the default cap.
func DefaultConfig() Config {
	return Config{Volume: 1, ForceReplay: true, MaxDuplicates: DefaultMaxDuplicates}
}

type duplicate struct {
	id    uint64
	voice Voice
}

type pooled struct {
	primary    Voice
	duplicates []duplicate // oldest first
}

// Dispatcher plays sounds by name, keeping one primary voice per asset and
// adding overlapping duplicates when a busy sound is re-triggered.
type Dispatcher struct {
	mu        sync.Mutex
	resolver  Resolver
	factory   VoiceFactory
	cfg       Config
	pool      map[string]*pooled
	nextID    uint64
	listeners []func(Played)
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(resolver Resolver, factory VoiceFactory, cfg Config) *Dispatcher {
	cfg.Volume = clampVolume(cfg.Volume)
	if cfg.MaxDuplicates < 0 {
		cfg.MaxDuplicates = 0
	}
	return &Dispatcher{
		resolver: resolver,
		factory:  factory,
		cfg:      cfg,
		pool:     make(map[string]*pooled),
	}
}

func clampVolume(v float64) float64 {
	return min(max(v, 0), 1)
}

// OnPlayed registers fn to be called after every audible Play.
func (d *Dispatcher) OnPlayed(fn func(Played)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

// Play triggers the sound called name. An unknown name is a miss, not an
// error. Backend failures are returned and leave the pool unchanged.
func (d *Dispatcher) Play(name string) (Outcome, error) {
	url, ok := d.resolver.Resolve(name)
	if !ok {
		log.Debug("sound not found", "sound", name)
		return OutcomeMissed, nil
	}

	d.mu.Lock()
	outcome, err := d.play(url)
	listeners := slices.Clone(d.listeners)
	d.mu.Unlock()

	if err != nil {
		return outcome, fmt.Errorf("play %s: %w", name, err)
	}
	if outcome.Audible() {
		ev := Played{Name: name, URL: url, Outcome: outcome}
		for _, fn := range listeners {
			fn(ev)
		}
	}
	return outcome, nil
}

func (d *Dispatcher) play(url string) (Outcome, error) {
	p, ok := d.pool[url]
	if !ok {
		v, err := d.factory.NewVoice(url, func() {})
		if err != nil {
			return OutcomeMissed, fmt.Errorf("create voice: %w", err)
		}
		if err := v.Play(d.cfg.Volume); err != nil {
			return OutcomeMissed, fmt.Errorf("start voice: %w", err)
		}
		d.pool[url] = &pooled{primary: v}
		return OutcomeStarted, nil
	}

	if !p.primary.Playing() {
		if err := p.primary.Play(d.cfg.Volume); err != nil {
			return OutcomeMissed, fmt.Errorf("restart voice: %w", err)
		}
		return OutcomeRestarted, nil
	}

	if !d.cfg.ForceReplay {
		return OutcomeDropped, nil
	}

	d.nextID++
	id := d.nextID
	v, err := d.factory.NewVoice(url, func() { d.finished(url, id) })
	if err != nil {
		return OutcomeMissed, fmt.Errorf("create duplicate voice: %w", err)
	}
	if err := v.Play(d.cfg.Volume); err != nil {
		return OutcomeMissed, fmt.Errorf("start duplicate voice: %w", err)
	}
	if d.cfg.MaxDuplicates > 0 && len(p.duplicates) >= d.cfg.MaxDuplicates {
		oldest := p.duplicates[0]
		p.duplicates = p.duplicates[1:]
		oldest.voice.Stop()
		log.Debug("evicted duplicate voice", "url", url, "cap", d.cfg.MaxDuplicates)
	}
	p.duplicates = append(p.duplicates, duplicate{id: id, voice: v})
	return OutcomeDuplicated, nil
}

func (d *Dispatcher) finished(url string, id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pool[url]
	if !ok {
		return
	}
	p.duplicates = slices.DeleteFunc(p.duplicates, func(dup duplicate) bool { return dup.id == id })
}

// Duplicates returns the number of live duplicate voices for name.
func (d *Dispatcher) Duplicates(name string) int {
	url, ok := d.resolver.Resolve(name)
	if !ok {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pool[url]; ok {
		return len(p.duplicates)
	}
	return 0
}

// Stop halts every voice of name.
func (d *Dispatcher) Stop(name string) {
	url, ok := d.resolver.Resolve(name)
	if !ok {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pool[url]; ok {
		stopPooled(p)
	}
}

// StopAll halts every voice.
func (d *Dispatcher) StopAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.pool {
		stopPooled(p)
	}
}

func stopPooled(p *pooled) {
	p.primary.Stop()
	for _, dup := range p.duplicates {
		dup.voice.Stop()
	}
	p.duplicates = nil
}

// SetVolume sets the volume for subsequent plays.
func (d *Dispatcher) SetVolume(v float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg.Volume = clampVolume(v)
}

// SetForceReplay controls whether busy sounds get duplicate voices.
func (d *Dispatcher) SetForceReplay(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg.ForceReplay = on
}

// Config returns the current settings.
func (d *Dispatcher) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}
