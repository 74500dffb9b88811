// Package effects allocates the shared delay and reverb instances notes are
// routed through. The audio engine runs a small, fixed number of each; the
// cache maps effect configurations onto those instance ids and starts a new
// instance only when a configuration is not already live.
package effects

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/cwbudde/algo-synthctl/score"
)

// NoSlot is returned by Resolve when the effect is disabled.
const NoSlot = -1

// ErrNoUsableSlot is returned when a family leaves no id to allocate.
var ErrNoUsableSlot = errors.New("effects: family has no usable slot")

// Family describes one pool of effect instances.
type Family struct {
	Name       string
	Instrument int
	Capacity   int
	// Reserved ids are never handed out; the engine uses them for
	// instances it manages itself.
	Reserved []int
}

// DelayFamily is the pool of global delay lines.
var DelayFamily = Family{Name: "delay", Instrument: score.DelayInstrument, Capacity: 4}

// ReverbFamily is the pool of global reverbs. Instance 0 is the distance
// reverb every note feeds.
var ReverbFamily = Family{Name: "reverb", Instrument: score.ReverbInstrument, Capacity: 4, Reserved: []int{0}}

// WithCapacity returns a copy of f holding n instances.
func (f Family) WithCapacity(n int) Family {
	f.Capacity = n
	f.Reserved = append([]int(nil), f.Reserved...)
	return f
}

// Key is an effect configuration. Two keys name the same instance when
// they compare equal; a NaN field never matches anything.
type Key interface {
	comparable
	// Params returns the two activation arguments of the instance.
	Params() (float64, float64)
}

// DelayKey identifies a delay by feedback and time.
type DelayKey struct {
	Feedback float64
	Time     float64
}

func (k DelayKey) Params() (float64, float64) { return k.Feedback, k.Time }

// ReverbKey identifies a reverb by room size and high-frequency damping.
type ReverbKey struct {
	RoomSize float64
	Damping  float64
}

func (k ReverbKey) Params() (float64, float64) { return k.RoomSize, k.Damping }

// Slot is one live instance.
type Slot[K Key] struct {
	ID  int `json:"id"`
	Key K   `json:"key"`
}

// SlotCache hands out instance ids round-robin. When every id is taken the
// next allocation evicts whichever configuration holds the next id in turn,
// regardless of how recently it was used. Safe for concurrent use.
type SlotCache[K Key] struct {
	mu       sync.Mutex
	family   Family
	sink     score.Sink
	logger   *slog.Logger
	reserved map[int]bool
	slots    []Slot[K]
	start    int
	next     int
}

// Option configures a SlotCache.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger eviction records go to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewSlotCache validates family and returns an empty cache emitting
// activation events to sink.
func NewSlotCache[K Key](family Family, sink score.Sink, opts ...Option) (*SlotCache[K], error) {
	if family.Capacity < 1 {
		return nil, fmt.Errorf("effects: %s capacity must be >= 1, got %d", family.Name, family.Capacity)
	}
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if sink == nil {
		sink = score.Discard
	}
	reserved := make(map[int]bool, len(family.Reserved))
	for _, id := range family.Reserved {
		reserved[id] = true
	}
	start := -1
	for id := 0; id < family.Capacity; id++ {
		if !reserved[id] {
			start = id
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoUsableSlot, family.Name)
	}
	return &SlotCache[K]{
		family:   family,
		sink:     sink,
		logger:   o.logger.With("family", family.Name),
		reserved: reserved,
		start:    start,
		next:     start,
	}, nil
}

// Family returns the pool description the cache was built with.
func (c *SlotCache[K]) Family() Family {
	return c.family
}

// Resolve returns the instance id serving key. A disabled effect yields
// NoSlot. fresh reports whether a new instance was started, in which case
// exactly one activation event was emitted.
func (c *SlotCache[K]) Resolve(key K, enabled bool) (id int, fresh bool) {
	if !enabled {
		return NoSlot, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.slots {
		if s.Key == key {
			return s.ID, false
		}
	}

	id = c.take()
	for i, s := range c.slots {
		if s.ID == id {
			c.logger.Debug("evicting effect slot", "id", id)
			c.slots = append(c.slots[:i], c.slots[i+1:]...)
			break
		}
	}
	c.slots = append(c.slots, Slot[K]{ID: id, Key: key})
	a, b := key.Params()
	c.sink.Emit(score.Activation(c.family.Instrument, id, a, b))
	return id, true
}

// take returns the next id in turn and advances the cursor.
func (c *SlotCache[K]) take() int {
	for {
		if c.next >= c.family.Capacity {
			c.next = 0
		}
		id := c.next
		c.next++
		if !c.reserved[id] {
			return id
		}
	}
}

// Slots returns the live instances ordered by id.
func (c *SlotCache[K]) Slots() []Slot[K] {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Slot[K], len(c.slots))
	copy(out, c.slots)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of live instances.
func (c *SlotCache[K]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

// Reset forgets every live instance. Instances already running in the
// engine are not stopped.
func (c *SlotCache[K]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots = nil
	c.next = c.start
}
