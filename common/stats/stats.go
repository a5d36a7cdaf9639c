// This package provides a small set of interfaces backed by go-metrics. We wrap
// go-metrics so that callers pass a StatsReceiver down the call tree, scope it
// at each level, and don't depend on go-metrics directly.
//
// Specifically, we provide the following:
// - A StatsReceiver object that can be scoped, ex: Scope("rpctest").Counter("create_test").
// - A Latency instrument to record callsite latency.
// - The ability to specify a time.Duration precision when rendering latencies.
// - JSON rendering, optionally pretty printed.
package stats

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

// For testing.
var Time StatsTime = DefaultStatsTime()

// Counter is a monotonically increasing event count.
type Counter interface {
	Inc(int64)
	Count() int64
}

// Latency records durations. Use as:
//   defer stat.Latency("op_ms").Time().Stop()
type Latency interface {
	// Returns a copy of this Latency that starts its clock now.
	Time() Latency
	// Records the time elapsed since Time() was called.
	Stop()
	// Records d directly.
	Record(d time.Duration)
	Count() int64
	Precision() time.Duration
}

// StatsReceiver hands out named instruments. Hierarchical names are stored
// using a '/' separator; '/' within a name element is replaced by "_SLASH_".
type StatsReceiver interface {
	// Return a stats receiver that will automatically namespace elements with
	// the given scope args.
	//
	//   statsReceiver.Scope("foo", "bar").Counter("baz")  // is equivalent to
	//   statsReceiver.Counter("foo", "bar", "baz")
	//
	Scope(scope ...string) StatsReceiver

	// Returns a copy whose latencies render with the given precision.
	// Captured data is unaffected. If the given duration is <= 1ns, we default to ns.
	Precision(time.Duration) StatsReceiver

	Counter(name ...string) Counter
	Latency(name ...string) Latency

	// Construct a JSON document from the registry.
	Render(pretty bool) []byte
}

// DefaultStatsReceiver returns a receiver backed by a fresh go-metrics registry,
// rendering latencies in milliseconds.
func DefaultStatsReceiver() StatsReceiver {
	return &defaultStatsReceiver{
		registry:  metrics.NewRegistry(),
		precision: time.Millisecond,
	}
}

type defaultStatsReceiver struct {
	registry  metrics.Registry
	precision time.Duration
	scope     []string
}

func (s *defaultStatsReceiver) Scope(scope ...string) StatsReceiver {
	return &defaultStatsReceiver{s.registry, s.precision, s.scoped(scope...)}
}

func (s *defaultStatsReceiver) Precision(precision time.Duration) StatsReceiver {
	if precision < 1 {
		precision = 1
	}
	return &defaultStatsReceiver{s.registry, precision, s.scope}
}

func (s *defaultStatsReceiver) Counter(name ...string) Counter {
	return s.registry.GetOrRegister(s.scopedName(name...), newMetricCounter).(Counter)
}

func (s *defaultStatsReceiver) Latency(name ...string) Latency {
	// Can't do lazy instantiation with a closure since metrics.Registry only calls no-arg funcs.
	return s.registry.GetOrRegister(s.scopedName(name...), newMetricLatency(s.precision)).(Latency)
}

func (s *defaultStatsReceiver) Render(pretty bool) []byte {
	out := map[string]interface{}{}
	s.registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case *metricLatency:
			m.render(name, out)
		case Counter:
			out[name] = m.Count()
		default:
			log.Infof("Unrecognized instrument: %s %T", name, i)
		}
	})

	var err error
	var bytes []byte
	if pretty {
		bytes, err = json.MarshalIndent(out, "", "  ")
	} else {
		bytes, err = json.Marshal(out)
	}
	if err != nil {
		panic("stats registry bug, cannot be marshaled")
	}
	return bytes
}

// Append to existing scope and scrub slashes
func (s *defaultStatsReceiver) scoped(scope ...string) []string {
	scrubbed := make([]string, 0, len(s.scope)+len(scope))
	scrubbed = append(scrubbed, s.scope...)
	for _, e := range scope {
		scrubbed = append(scrubbed, strings.Replace(e, "/", "_SLASH_", -1))
	}
	return scrubbed
}

// Append to the existing scope and convert to slash-delimited string.
func (s *defaultStatsReceiver) scopedName(scope ...string) string {
	return strings.Join(s.scoped(scope...), "/")
}

//
// NilStats ignores all stats operations.
//
func NilStatsReceiver() StatsReceiver {
	return &nilStatsReceiver{}
}

type nilStatsReceiver struct{}

func (s *nilStatsReceiver) Scope(scope ...string) StatsReceiver             { return s }
func (s *nilStatsReceiver) Precision(precision time.Duration) StatsReceiver { return s }
func (s *nilStatsReceiver) Counter(name ...string) Counter {
	return &metricCounter{metrics.NilCounter{}}
}
func (s *nilStatsReceiver) Latency(name ...string) Latency {
	return &metricLatency{Histogram: metrics.NilHistogram{}, precision: time.Nanosecond}
}
func (s *nilStatsReceiver) Render(pretty bool) []byte { return []byte("{}") }

//
// Instruments, embedding go-metrics types so that metrics.Registry accepts them.
//

type metricCounter struct {
	metrics.Counter
}

func newMetricCounter() *metricCounter {
	return &metricCounter{metrics.NewCounter()}
}

type metricLatency struct {
	metrics.Histogram
	precision time.Duration
	start     time.Time
}

func newMetricLatency(precision time.Duration) *metricLatency {
	return &metricLatency{
		Histogram: metrics.NewHistogram(metrics.NewExpDecaySample(1028, 0.015)),
		precision: precision,
	}
}

func (l *metricLatency) Time() Latency {
	return &metricLatency{Histogram: l.Histogram, precision: l.precision, start: Time.Now()}
}

func (l *metricLatency) Stop() {
	l.Histogram.Update(int64(Time.Since(l.start)))
}

// Record is not named Update so that metricLatency still satisfies metrics.Histogram.
func (l *metricLatency) Record(d time.Duration) {
	l.Histogram.Update(int64(d))
}

func (l *metricLatency) Precision() time.Duration {
	return l.precision
}

func (l *metricLatency) render(name string, out map[string]interface{}) {
	snap := l.Histogram.Snapshot()
	p := float64(l.precision)
	out[name+".count"] = snap.Count()
	if snap.Count() == 0 {
		return
	}
	ps := snap.Percentiles([]float64{0.5, 0.99})
	out[name+".avg"] = snap.Mean() / p
	out[name+".min"] = float64(snap.Min()) / p
	out[name+".max"] = float64(snap.Max()) / p
	out[name+".p50"] = ps[0] / p
	out[name+".p99"] = ps[1] / p
}
