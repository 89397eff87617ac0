package proxy

import (
	"math/rand"
	"sync"
	"time"
)

// DefaultProxies is the built-in list used when neither the request nor the
// configuration supplies one.
var DefaultProxies = []string{
	"200.68.49.184:8080",
	"119.252.160.165:3128",
	"94.180.249.187:38051",
	"62.210.69.176:5566",
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36",
}

// Manager picks proxies and user agents at random.
// It is safe for concurrent use.
type Manager struct {
	defaults   []string
	userAgents []string
	mu         sync.Mutex
	rnd        *rand.Rand
}

// Option configures a Manager.
type Option func(*Manager)

// WithRand replaces the random source, mainly for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(m *Manager) { m.rnd = r }
}

// WithUserAgents replaces the user agent pool.
func WithUserAgents(agents []string) Option {
	return func(m *Manager) { m.userAgents = agents }
}

// NewManager creates a Manager whose fallback list is defaults, or
// DefaultProxies when defaults is empty.
func NewManager(defaults []string, opts ...Option) *Manager {
	if len(defaults) == 0 {
		defaults = DefaultProxies
	}
	m := &Manager{
		defaults:   append([]string(nil), defaults...),
		userAgents: defaultUserAgents,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Defaults returns a copy of the fallback proxy list.
func (m *Manager) Defaults() []string {
	return append([]string(nil), m.defaults...)
}

// Select returns one element of candidates chosen uniformly at random.
// An empty candidates list selects from the fallback list instead.
func (m *Manager) Select(candidates []string) string {
	if len(candidates) == 0 {
		candidates = m.defaults
	}
	return candidates[m.intn(len(candidates))]
}

// GetUserAgent returns a random user agent string.
func (m *Manager) GetUserAgent() string {
	if len(m.userAgents) == 0 {
		return ""
	}
	return m.userAgents[m.intn(len(m.userAgents))]
}

func (m *Manager) intn(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rnd.Intn(n)
}
