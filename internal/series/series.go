package series

import (
	"fmt"

	"nodewarden/internal/models"
)

// Number covers every sample type the observers produce.
type Number interface {
	~int | ~int32 | ~int64 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// EvictionPolicy controls what Append does once a bounded series is full.
type EvictionPolicy int

const (
	// FixedWindow drops new samples once the series is at capacity.
	FixedWindow EvictionPolicy = iota
	// CircularBuffer evicts the oldest sample to admit a new one.
	CircularBuffer
	// Unbounded never evicts. Only legal with capacity 0.
	Unbounded
)

func (p EvictionPolicy) String() string {
	switch p {
	case FixedWindow:
		return "fixed_window"
	case CircularBuffer:
		return "circular_buffer"
	case Unbounded:
		return "unbounded"
	default:
		return "unknown"
	}
}

// Series is a bounded, chronological sample buffer for one monitored
// entity. It is owned by a single writer per cycle; it does not lock.
type Series[T Number] struct {
	id          string
	kind        models.MetricKind
	capacity    int
	policy      EvictionPolicy
	samples     []T
	fresh       bool
	activeAlarm bool
}

// New creates a series. Capacity must be positive for bounded policies
// and zero for Unbounded; anything else is a configuration bug.
func New[T Number](id string, kind models.MetricKind, capacity int, policy EvictionPolicy) (*Series[T], error) {
	if policy == Unbounded {
		if capacity != 0 {
			return nil, fmt.Errorf("series %s: unbounded policy requires capacity 0, got %d", id, capacity)
		}
	} else if capacity <= 0 {
		return nil, fmt.Errorf("series %s: %s policy requires positive capacity, got %d", id, policy, capacity)
	}

	s := &Series[T]{
		id:       id,
		kind:     kind,
		capacity: capacity,
		policy:   policy,
	}
	if capacity > 0 {
		s.samples = make([]T, 0, capacity)
	}
	return s, nil
}

// Append records one sample. It never blocks and never fails: a full
// FixedWindow series silently drops the value, a full CircularBuffer
// series evicts its oldest sample first.
func (s *Series[T]) Append(v T) {
	s.fresh = true
	if s.capacity > 0 && len(s.samples) >= s.capacity {
		if s.policy == FixedWindow {
			return
		}
		s.samples = append(s.samples[1:], v)
		return
	}
	s.samples = append(s.samples, v)
}

// Clear empties the buffer and resets the alarm flag.
func (s *Series[T]) Clear() {
	s.samples = s.samples[:0]
	s.fresh = false
	s.activeAlarm = false
}

// Reset empties the buffer but keeps the alarm flag, for trend series
// that retain alarm state across cycles.
func (s *Series[T]) Reset() {
	s.samples = s.samples[:0]
	s.fresh = false
}

// TakeFresh reports whether a sample arrived since the last call,
// consuming the mark. A retained window holds samples from earlier
// cycles, so Count alone cannot tell whether the entity produced data
// this cycle.
func (s *Series[T]) TakeFresh() bool {
	f := s.fresh
	s.fresh = false
	return f
}

// Count returns the current number of samples. Zero is a normal state
// (the entity did not exist this cycle) and short-circuits evaluation.
func (s *Series[T]) Count() int { return len(s.samples) }

// Values returns the retained samples in chronological order.
func (s *Series[T]) Values() []T {
	out := make([]T, len(s.samples))
	copy(out, s.samples)
	return out
}

func (s *Series[T]) ID() string              { return s.id }
func (s *Series[T]) Kind() models.MetricKind { return s.kind }

// ActiveAlarm reports whether the most recent evaluation raised a
// Warning or Error that has not been cleared yet.
func (s *Series[T]) ActiveAlarm() bool { return s.activeAlarm }

// SetActiveAlarm records the outcome of the latest health transition.
func (s *Series[T]) SetActiveAlarm(active bool) { s.activeAlarm = active }
