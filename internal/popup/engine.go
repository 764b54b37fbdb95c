// Package popup decides which notifications are popped up, their animation phase, and
// the height the popup surface should occupy, purely as a function of time.
//
// The engine has no goroutines or timers of its own. A host calls Tick periodically while
// IsActive reports true and stops polling once it reports false.
package popup

import (
	"time"

	"github.com/jmylchreest/notid/internal/model"
)

// Phase is the animation stage of a popup entry.
type Phase int

const (
	// PhaseSlideIn is the entering animation.
	PhaseSlideIn Phase = iota
	// PhaseDisplay is the steady, fully shown state.
	PhaseDisplay
	// PhaseSlideOut is the exiting animation; the entry is removed when it completes.
	PhaseSlideOut
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseSlideIn:
		return "slide-in"
	case PhaseDisplay:
		return "display"
	case PhaseSlideOut:
		return "slide-out"
	default:
		return "unknown"
	}
}

// Defaults.
const (
	DefaultMaxVisible        = 3
	DefaultAnimationDuration = 250 * time.Millisecond
	DefaultEntryHeight       = 80.0
	DefaultPadding           = 16.0

	// StaggerDelay delays the reveal of each entry by its index.
	StaggerDelay = 40 * time.Millisecond
)

// Entry is a notification being shown as a popup.
type Entry struct {
	Notification    *model.Notification
	Phase           Phase
	PhaseStarted    time.Time
	DisplayDuration time.Duration
}

// ID returns the id of the wrapped notification.
func (e *Entry) ID() uint32 {
	return e.Notification.ID
}

// Options configures the engine.
type Options struct {
	MaxVisible        int
	AnimationDuration time.Duration
	EntryHeight       float64
	Padding           float64
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		MaxVisible:        DefaultMaxVisible,
		AnimationDuration: DefaultAnimationDuration,
		EntryHeight:       DefaultEntryHeight,
		Padding:           DefaultPadding,
	}
}

func (o Options) normalized() Options {
	if o.MaxVisible < 1 {
		o.MaxVisible = DefaultMaxVisible
	}
	if o.AnimationDuration <= 0 {
		o.AnimationDuration = DefaultAnimationDuration
	}
	if o.EntryHeight <= 0 {
		o.EntryHeight = DefaultEntryHeight
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	return o
}

// Engine is the popup lifecycle state machine. It is not safe for concurrent use.
type Engine struct {
	entries []*Entry
	opts    Options
	now     func() time.Time
}

// New creates an empty engine.
func New(opts Options) *Engine {
	return &Engine{
		opts: opts.normalized(),
		now:  time.Now,
	}
}

// UpdateOptions applies new options. Existing entries keep their phase and start time.
func (e *Engine) UpdateOptions(opts Options) {
	e.opts = opts.normalized()
}

// Options returns the active options.
func (e *Engine) Options() Options {
	return e.opts
}

// Enqueue shows n for displayDuration after its entering animation.
func (e *Engine) Enqueue(n *model.Notification, displayDuration time.Duration) {
	e.EnqueueAt(n, displayDuration, e.now())
}

// EnqueueAt is Enqueue with an explicit current time.
//
// An entry with the same id is replaced and its animation restarts. If more than
// MaxVisible entries are then not sliding out, the oldest of them are pushed into
// SlideOut, one at a time, until the cap holds.
func (e *Engine) EnqueueAt(n *model.Notification, displayDuration time.Duration, now time.Time) {
	e.removeID(n.ID)

	e.entries = append(e.entries, &Entry{
		Notification:    n,
		Phase:           PhaseSlideIn,
		PhaseStarted:    now,
		DisplayDuration: displayDuration,
	})

	for e.visibleCount() > e.opts.MaxVisible {
		oldest := e.oldestVisible()
		if oldest == nil {
			break
		}
		oldest.Phase = PhaseSlideOut
		oldest.PhaseStarted = now
	}
}

// Dismiss starts the exiting animation of the entry with the given id.
func (e *Engine) Dismiss(id uint32) bool {
	return e.DismissAt(id, e.now())
}

// DismissAt is Dismiss with an explicit current time. Returns false when the id is
// absent or already sliding out.
func (e *Engine) DismissAt(id uint32, now time.Time) bool {
	for _, entry := range e.entries {
		if entry.ID() != id {
			continue
		}
		if entry.Phase == PhaseSlideOut {
			return false
		}
		entry.Phase = PhaseSlideOut
		entry.PhaseStarted = now
		return true
	}
	return false
}

// Tick advances phases and drops finished entries.
func (e *Engine) Tick() bool {
	return e.TickAt(e.now())
}

// TickAt is Tick with an explicit current time. Each entry moves at most one phase per
// call. Returns true if any entry changed phase or was removed.
func (e *Engine) TickAt(now time.Time) bool {
	anim := e.opts.AnimationDuration
	changed := false

	for _, entry := range e.entries {
		elapsed := since(entry.PhaseStarted, now)
		switch entry.Phase {
		case PhaseSlideIn:
			if elapsed >= anim {
				entry.Phase = PhaseDisplay
				entry.PhaseStarted = now
				changed = true
			}
		case PhaseDisplay:
			if elapsed >= entry.DisplayDuration {
				entry.Phase = PhaseSlideOut
				entry.PhaseStarted = now
				changed = true
			}
		}
	}

	kept := e.entries[:0]
	for _, entry := range e.entries {
		if entry.Phase == PhaseSlideOut && since(entry.PhaseStarted, now) >= anim {
			changed = true
			continue
		}
		kept = append(kept, entry)
	}
	clear(e.entries[len(kept):])
	e.entries = kept

	return changed
}

// Clear drops every entry immediately.
func (e *Engine) Clear() {
	clear(e.entries)
	e.entries = e.entries[:0]
}

// IsActive reports whether there is anything left to animate or show.
func (e *Engine) IsActive() bool {
	return len(e.entries) > 0
}

// Len returns the number of entries, including those sliding out.
func (e *Engine) Len() int {
	return len(e.entries)
}

// Entries returns copies of the entries in display order, oldest first.
func (e *Engine) Entries() []Entry {
	out := make([]Entry, len(e.entries))
	for i, entry := range e.entries {
		out[i] = *entry
	}
	return out
}

// Get returns a copy of the entry with the given id.
func (e *Engine) Get(id uint32) (Entry, bool) {
	for _, entry := range e.entries {
		if entry.ID() == id {
			return *entry, true
		}
	}
	return Entry{}, false
}

// EntryProgressAt returns the entry's geometric progress in [0, 1].
// SlideIn eases out cubically, SlideOut decays with an ease-in cubic. Never overshoots.
func (e *Engine) EntryProgressAt(entry Entry, now time.Time) float64 {
	t := clamp01(e.fraction(since(entry.PhaseStarted, now)))

	switch entry.Phase {
	case PhaseSlideIn:
		return EaseOutCubic(t)
	case PhaseDisplay:
		return 1
	default:
		return 1 - EaseInCubic(t)
	}
}

// EntryProgressStaggeredAt returns the visual reveal progress of the entry at position
// index. SlideIn waits StaggerDelay per index and then eases out with a bounce that may
// briefly exceed 1. SlideOut is not staggered.
func (e *Engine) EntryProgressStaggeredAt(entry Entry, index int, now time.Time) float64 {
	elapsed := since(entry.PhaseStarted, now)

	switch entry.Phase {
	case PhaseSlideIn:
		effective := max(elapsed-time.Duration(index)*StaggerDelay, 0)
		return EaseOutBack(clamp01(e.fraction(effective)))
	case PhaseDisplay:
		return 1
	default:
		return 1 - EaseInCubic(clamp01(e.fraction(elapsed)))
	}
}

// BubbleProgressAt returns the largest entry progress, so the container stays visible
// while any entry is animating.
func (e *Engine) BubbleProgressAt(now time.Time) float64 {
	progress := 0.0
	for _, entry := range e.entries {
		progress = max(progress, e.EntryProgressAt(*entry, now))
	}
	return progress
}

// TargetSurfaceHeightAt returns the height the popup surface should occupy.
//
// While any entry is entering or displayed the height snaps to the full size for those
// entries, so the surface is not resized every frame. Once every entry is sliding out the
// full height for all entries shrinks with the bubble progress down to 0.
func (e *Engine) TargetSurfaceHeightAt(now time.Time) float64 {
	if len(e.entries) == 0 {
		return 0
	}
	if visible := e.visibleCount(); visible > 0 {
		return e.heightFor(visible)
	}
	return e.heightFor(len(e.entries)) * e.BubbleProgressAt(now)
}

func (e *Engine) heightFor(count int) float64 {
	return float64(count)*e.opts.EntryHeight + e.opts.Padding
}

func (e *Engine) fraction(elapsed time.Duration) float64 {
	return elapsed.Seconds() / e.opts.AnimationDuration.Seconds()
}

func (e *Engine) visibleCount() int {
	count := 0
	for _, entry := range e.entries {
		if entry.Phase != PhaseSlideOut {
			count++
		}
	}
	return count
}

func (e *Engine) oldestVisible() *Entry {
	for _, entry := range e.entries {
		if entry.Phase != PhaseSlideOut {
			return entry
		}
	}
	return nil
}

func (e *Engine) removeID(id uint32) {
	for i, entry := range e.entries {
		if entry.ID() == id {
			e.entries = append(e.entries[:i], e.entries[i+1:]...)
			return
		}
	}
}

// since is the elapsed time from start to now, saturating at zero.
func since(start, now time.Time) time.Duration {
	return max(now.Sub(start), 0)
}
