package timeline

import "sync"

// PlaybackPosition is the shared scrub/playhead state for one open project.
// It replaces ambient globals: every component that reads or writes the
// playhead holds a reference to the same instance. Writers are serialized by
// the drag controller's single-active-gesture rule; the mutex only protects
// against readers (websocket push, HTTP seek) observing torn state.
type PlaybackPosition struct {
	mu      sync.Mutex
	total   int64
	current int64
	subs    map[int]func(int64)
	nextSub int
}

// NewPlaybackPosition returns a playhead for a project of the given total
// duration, positioned at 0.
func NewPlaybackPosition(totalMs int64) *PlaybackPosition {
	return &PlaybackPosition{
		total: totalMs,
		subs:  make(map[int]func(int64)),
	}
}

// Current returns the playhead timestamp in milliseconds.
func (p *PlaybackPosition) Current() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Seek moves the playhead, clamped into [0, total], and notifies
// subscribers. It returns the clamped value.
func (p *PlaybackPosition) Seek(ts int64) int64 {
	p.mu.Lock()
	ts = clampInt64(ts, 0, p.total)
	changed := ts != p.current
	p.current = ts
	var fns []func(int64)
	if changed {
		fns = make([]func(int64), 0, len(p.subs))
		for _, fn := range p.subs {
			fns = append(fns, fn)
		}
	}
	p.mu.Unlock()

	// Callbacks run outside the lock so a subscriber may read Current.
	for _, fn := range fns {
		fn(ts)
	}
	return ts
}

// Subscribe registers fn to run on every playhead change and returns a
// cancel function that removes the subscription.
func (p *PlaybackPosition) Subscribe(fn func(int64)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}
