// Package hist collects high-dynamic-range latency histograms for a
// benchmark run. Each page kind gets two histograms: queue sojourn time
// (from when a request was scheduled to when its result arrived) and
// processing time (the backend round trips alone). Workers record
// through thread-local handles; the registry merges them at the end of
// the run.
package hist

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/codahale/hdrhistogram"
	jsoniter "github.com/json-iterator/go"
)

const (
	sigFigs    = 1
	minLatency = 100 * time.Microsecond
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NamedHistogram is a named histogram. It is threadsafe but intended to
// be thread-local.
type NamedHistogram struct {
	name string

	mu      sync.Mutex
	current *hdrhistogram.Histogram
}

func newNamedHistogram(reg *Registry, name string) *NamedHistogram {
	return &NamedHistogram{
		name:    name,
		current: reg.newHistogram(),
	}
}

// Record saves a new datapoint and should be called once per logical
// operation. Out-of-range latencies are clamped so the histogram never
// drops values.
func (w *NamedHistogram) Record(elapsed time.Duration) {
	maxLatency := time.Duration(w.current.HighestTrackableValue())
	if elapsed < minLatency {
		elapsed = minLatency
	} else if elapsed > maxLatency {
		elapsed = maxLatency
	}

	w.mu.Lock()
	err := w.current.RecordValue(elapsed.Nanoseconds())
	w.mu.Unlock()

	if err != nil {
		// Values are clamped to the trackable range above, so recording
		// can only fail on a programming error.
		panic(fmt.Sprintf(`%s: recording value: %s`, w.name, err))
	}
}

func (w *NamedHistogram) export() (string, *hdrhistogram.Histogram) {
	w.mu.Lock()
	defer w.mu.Unlock()

	dup := hdrhistogram.New(w.current.LowestTrackableValue(),
		w.current.HighestTrackableValue(), int(w.current.SignificantFigures()))
	dup.Merge(w.current)
	return w.name, dup
}

// Registry is a thread-safe enclosure for the run's named histograms.
// It hands out thread-local handles to workers and merges all recorded
// data on demand.
type Registry struct {
	mu         sync.Mutex
	registered map[string][]*NamedHistogram

	start  time.Time
	maxLat time.Duration
}

// NewRegistry returns an initialized Registry. maxLat is the longest
// latency the run is expected to observe; longer measurements are
// clamped to it.
func NewRegistry(maxLat time.Duration) *Registry {
	return &Registry{
		registered: make(map[string][]*NamedHistogram),
		start:      time.Now(),
		maxLat:     maxLat,
	}
}

func (r *Registry) newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(minLatency.Nanoseconds(), r.maxLat.Nanoseconds(), sigFigs)
}

// GetHandle returns a thread-local handle for creating and registering
// NamedHistograms.
func (r *Registry) GetHandle() *Histograms {
	return &Histograms{
		reg:   r,
		hists: make(map[string]*NamedHistogram),
	}
}

// Summary is the merged result for one histogram name over the whole
// run.
type Summary struct {
	Name  string
	Count int64
	Hist  *hdrhistogram.Histogram
}

// Quantile returns the latency at the given quantile (0-100).
func (s Summary) Quantile(q float64) time.Duration {
	return time.Duration(s.Hist.ValueAtQuantile(q))
}

// Summaries merges all registered histograms grouped by name and
// returns them sorted by name. It may be called while workers are still
// recording; each call re-merges from scratch.
func (r *Registry) Summaries() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	merged := make(map[string]*hdrhistogram.Histogram)
	var names []string
	for name, registered := range r.registered {
		m := r.newHistogram()
		for _, hist := range registered {
			_, dup := hist.export()
			m.Merge(dup)
		}
		merged[name] = m
		names = append(names, name)
	}

	sort.Strings(names)
	out := make([]Summary, 0, len(names))
	for _, name := range names {
		out = append(out, Summary{
			Name:  name,
			Count: merged[name].TotalCount(),
			Hist:  merged[name],
		})
	}

	return out
}

// Snapshot parallels Summary but replaces the histogram with a form
// suitable for serialization.
type Snapshot struct {
	Name    string                 `json:"name"`
	Elapsed time.Duration          `json:"elapsed"`
	Now     time.Time              `json:"now"`
	Hist    *hdrhistogram.Snapshot `json:"hist"`
}

// WriteSnapshots serializes the merged histograms to w as a stream of
// JSON-encoded Snapshots, one per line.
func (r *Registry) WriteSnapshots(w io.Writer) error {
	now := time.Now()
	enc := json.NewEncoder(w)
	for _, s := range r.Summaries() {
		snap := Snapshot{
			Name:    s.Name,
			Elapsed: now.Sub(r.start),
			Now:     now,
			Hist:    s.Hist.Export(),
		}
		if err := enc.Encode(snap); err != nil {
			return err
		}
	}

	return nil
}

// DecodeSnapshots decodes a stream written by WriteSnapshots into a
// series per histogram name.
func DecodeSnapshots(rd io.Reader) (map[string][]Snapshot, error) {
	dec := json.NewDecoder(rd)
	ret := make(map[string][]Snapshot)
	// jsoniter's Decoder does not return io.EOF for trailing whitespace
	// once the stream exceeds its internal buffer, so gate each Decode on
	// More() instead of relying on the EOF error alone.
	for dec.More() {
		var snap Snapshot
		if err := dec.Decode(&snap); err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		ret[snap.Name] = append(ret[snap.Name], snap)
	}

	return ret, nil
}

// Histograms is a thread-local handle for creating and registering
// NamedHistograms.
type Histograms struct {
	reg *Registry

	mu    sync.RWMutex
	hists map[string]*NamedHistogram
}

// Get returns a NamedHistogram with the given name, creating and
// registering it if necessary. The result is cached.
func (h *Histograms) Get(name string) *NamedHistogram {
	h.mu.RLock()
	hist, ok := h.hists[name]
	h.mu.RUnlock()
	if ok {
		return hist
	}

	h.mu.Lock()
	hist, ok = h.hists[name]
	if !ok {
		hist = newNamedHistogram(h.reg, name)
		h.hists[name] = hist
	}
	h.mu.Unlock()

	if !ok {
		h.reg.mu.Lock()
		h.reg.registered[name] = append(h.reg.registered[name], hist)
		h.reg.mu.Unlock()
	}

	return hist
}
