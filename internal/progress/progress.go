package progress

import (
	"fmt"
	"sync"
	"time"
)

// Phase represents the current phase of an organize run
type Phase string

const (
	PhaseScanning   Phase = "scanning"
	PhaseRelocating Phase = "relocating"
	PhaseExtracting Phase = "extracting"
	PhasePruning    Phase = "pruning"
	PhaseComplete   Phase = "complete"
	PhaseError      Phase = "error"
)

// Update is a snapshot of run progress
type Update struct {
	Phase     Phase
	Current   string
	Done      int
	Total     int
	StartTime time.Time
	Error     error
}

// Reporter provides thread-safe progress reporting
type Reporter struct {
	mu        sync.RWMutex
	last      *Update
	listeners []chan *Update
}

// NewReporter creates a new progress reporter
func NewReporter() *Reporter {
	return &Reporter{
		listeners: make([]chan *Update, 0),
	}
}

// Subscribe returns a channel that receives progress updates
func (r *Reporter) Subscribe() <-chan *Update {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan *Update, 16)
	r.listeners = append(r.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (r *Reporter) Unsubscribe(ch <-chan *Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, listener := range r.listeners {
		if listener == ch {
			close(listener)
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// Publish stores update and notifies listeners without blocking
func (r *Reporter) Publish(update *Update) {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.last = update
	for _, listener := range r.listeners {
		select {
		case listener <- update:
		default:
			// Skip if channel is full
		}
	}
}

// Last returns the most recent update, or nil
func (r *Reporter) Last() *Update {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Format returns a human-readable progress line
func Format(u *Update) string {
	if u == nil {
		return "Preparing..."
	}

	elapsed := time.Since(u.StartTime)

	switch u.Phase {
	case PhaseScanning:
		return fmt.Sprintf("Scanning... %d files found [%s]", u.Done, FormatDuration(elapsed))
	case PhaseRelocating, PhaseExtracting, PhasePruning:
		percentage := 0
		if u.Total > 0 {
			percentage = (u.Done * 100) / u.Total
		}
		return fmt.Sprintf("%s... %d/%d (%d%%) [%s]",
			phaseTitle(u.Phase), u.Done, u.Total, percentage, FormatDuration(elapsed))
	case PhaseComplete:
		return fmt.Sprintf("Done in %s", FormatDuration(elapsed))
	case PhaseError:
		return fmt.Sprintf("Error: %v", u.Error)
	default:
		return "Working..."
	}
}

func phaseTitle(p Phase) string {
	switch p {
	case PhaseRelocating:
		return "Relocating"
	case PhaseExtracting:
		return "Extracting"
	case PhasePruning:
		return "Pruning"
	}
	return string(p)
}

// FormatDuration formats duration in human-readable format
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
