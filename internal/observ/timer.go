package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one timed step of a run (load, scan) with an optional amount of
// work done, such as bytes read or tokens produced.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Count int
	Unit  string
}

// Timer tracks the execution time of multiple phases.
// It is safe for concurrent use and a nil *Timer records nothing.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
	now    func() time.Time
}

func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 4), now: time.Now} }

// Begin starts a new phase and returns its index.
func (t *Timer) Begin(name string) int {
	if t == nil {
		return -1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Start: t.now()})
	return len(t.phases) - 1
}

// End finishes phase idx, recording count units of work.
func (t *Timer) End(idx int, count int, unit string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = t.now().Sub(p.Start)
	p.Count, p.Unit = count, unit
}

// Track begins a phase and returns the function that ends it.
//
//	done := timer.Track("scan")
//	tokens := scan()
//	done(len(tokens), "tokens")
func (t *Timer) Track(name string) func(count int, unit string) {
	idx := t.Begin(name)
	return func(count int, unit string) { t.End(idx, count, unit) }
}

// PhaseReport представляет фазу для сериализации.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Count      int     `json:"count,omitempty"`
	Unit       string  `json:"unit,omitempty"`
	// PerSecond is Count scaled to one second; zero when either is unknown.
	PerSecond float64 `json:"per_second,omitempty"`
}

// Report описывает агрегированные данные таймера.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report snapshots the phases. Overlapping phases are summed as is.
func (t *Timer) Report() Report {
	if t == nil {
		return Report{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{Phases: make([]PhaseReport, len(t.phases))}
	var total time.Duration
	for i, p := range t.phases {
		total += p.Dur
		pr := PhaseReport{
			Name:       p.Name,
			DurationMS: durationToMillis(p.Dur),
			Count:      p.Count,
			Unit:       p.Unit,
		}
		if p.Count > 0 && p.Dur > 0 {
			pr.PerSecond = float64(p.Count) / p.Dur.Seconds()
		}
		report.Phases[i] = pr
	}
	report.TotalMS = durationToMillis(total)
	return report
}

// String renders the report on one line:
//
//	load 0.10 ms (512 bytes), scan 0.42 ms (96 tokens, 228.6k/s)
func (r Report) String() string {
	parts := make([]string, 0, len(r.Phases))
	for _, p := range r.Phases {
		s := fmt.Sprintf("%s %.2f ms", p.Name, p.DurationMS)
		switch {
		case p.Count > 0 && p.PerSecond > 0:
			s += fmt.Sprintf(" (%d %s, %s/s)", p.Count, p.Unit, humanRate(p.PerSecond))
		case p.Count > 0:
			s += fmt.Sprintf(" (%d %s)", p.Count, p.Unit)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

func humanRate(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
