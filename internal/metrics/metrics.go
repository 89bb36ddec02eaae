package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voxelworld"

// Metrics bundles the engine's Prometheus collectors and a per-run timing table.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ChunksCreated   prometheus.Counter
	ChunksGenerated prometheus.Counter
	DirtyNeighbors  prometheus.Counter
	MeshRebuilds    *prometheus.CounterVec
	MeshFaces       prometheus.Histogram
	OpDuration      *prometheus.HistogramVec

	mu     sync.Mutex
	totals map[string]time.Duration
}

// New creates collectors registered on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ChunksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_created_total",
			Help:      "Chunks materialized in the world index.",
		}),
		ChunksGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_generated_total",
			Help:      "Chunks populated by the terrain generator.",
		}),
		DirtyNeighbors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dirty_neighbors_total",
			Help:      "Neighbouring chunks marked dirty by edits on a chunk face.",
		}),
		MeshRebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mesh_rebuilds_total",
			Help:      "Chunk mesh rebuilds by result (mesh, empty).",
		}, []string{"result"}),
		MeshFaces: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mesh_faces",
			Help:      "Faces emitted per non-empty chunk mesh.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		}),
		OpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "op_duration_seconds",
			Help:      "Wall time of tracked engine operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"op"}),
		totals: make(map[string]time.Duration),
	}
	m.registry.MustRegister(
		m.ChunksCreated,
		m.ChunksGenerated,
		m.DirtyNeighbors,
		m.MeshRebuilds,
		m.MeshFaces,
		m.OpDuration,
	)
	return m
}

// Registry exposes the underlying registry, e.g. for testutil.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer m.Track("world.SetBlock")()
func (m *Metrics) Track(name string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		d := time.Since(start)
		m.OpDuration.WithLabelValues(name).Observe(d.Seconds())
		m.mu.Lock()
		m.totals[name] += d
		m.mu.Unlock()
	}
}

func (m *Metrics) ChunkCreated() {
	if m != nil {
		m.ChunksCreated.Inc()
	}
}

func (m *Metrics) ChunkGenerated() {
	if m != nil {
		m.ChunksGenerated.Inc()
	}
}

func (m *Metrics) NeighborDirtied() {
	if m != nil {
		m.DirtyNeighbors.Inc()
	}
}

// MeshBuilt records one rebuild; faces == 0 counts as an empty result.
func (m *Metrics) MeshBuilt(faces int) {
	if m == nil {
		return
	}
	if faces == 0 {
		m.MeshRebuilds.WithLabelValues("empty").Inc()
		return
	}
	m.MeshRebuilds.WithLabelValues("mesh").Inc()
	m.MeshFaces.Observe(float64(faces))
}

// Snapshot returns a copy of the accumulated per-operation totals.
func (m *Metrics) Snapshot() map[string]time.Duration {
	out := make(map[string]time.Duration)
	if m == nil {
		return out
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.totals {
		out[k] = v
	}
	return out
}

// Reset clears the accumulated totals. Prometheus collectors are untouched.
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	clear(m.totals)
	m.mu.Unlock()
}

// TopN formats the n largest totals.
// Example: "terrain.GenerateChunk:41.2ms, meshing.CreateChunkMesh:9.8ms"
func (m *Metrics) TopN(n int) string {
	ss := m.Snapshot()
	type pair struct {
		name string
		dur  time.Duration
	}
	list := make([]pair, 0, len(ss))
	for k, v := range ss {
		list = append(list, pair{name: k, dur: v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].dur == list[j].dur {
			return list[i].name < list[j].name
		}
		return list[i].dur > list[j].dur
	})
	n = max(0, min(n, len(list)))
	parts := make([]string, 0, n)
	for _, p := range list[:n] {
		parts = append(parts, fmt.Sprintf("%s:%.1fms", p.name, float64(p.dur.Microseconds())/1000.0))
	}
	return strings.Join(parts, ", ")
}
