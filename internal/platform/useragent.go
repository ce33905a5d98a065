package platform

import "sync/atomic"

// defaultUserAgents is a set of current desktop browser identities used
// for direct fetches. Marketplaces serve a degraded or blocked page to
// obvious bot agents.
var defaultUserAgents = []string{
	// Chrome Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
	// Chrome Mac
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36",
	// Firefox Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:141.0) Gecko/20100101 Firefox/141.0",
	// Firefox Mac
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:141.0) Gecko/20100101 Firefox/141.0",
	// Safari Mac
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.5 Safari/605.1.15",
	// Edge Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36 Edg/139.0.0.0",
}

// UAPool hands out user agents round-robin. Safe for concurrent use.
type UAPool struct {
	uas     []string
	counter atomic.Uint64
}

// NewUAPool creates a pool from the given agents, falling back to the
// built-in set when the slice is empty.
func NewUAPool(uas []string) *UAPool {
	if len(uas) == 0 {
		uas = defaultUserAgents
	}
	copied := make([]string, len(uas))
	copy(copied, uas)
	return &UAPool{uas: copied}
}

// Next returns the next user agent in rotation.
func (p *UAPool) Next() string {
	idx := p.counter.Add(1) - 1
	return p.uas[idx%uint64(len(p.uas))]
}
