package signal

// DefaultHistoryCapacity bounds per-symbol signal history when no
// capacity is configured.
const DefaultHistoryCapacity = 256

// ring is a fixed-capacity circular buffer of signals. Once full, each
// push overwrites the oldest entry. Callers synchronize access.
type ring struct {
	buf  []*TradingSignal
	pos  int
	full bool
}

func newRing(capacity int) *ring {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &ring{buf: make([]*TradingSignal, capacity)}
}

func (r *ring) push(sig *TradingSignal) {
	r.buf[r.pos] = sig
	r.pos = (r.pos + 1) % len(r.buf)
	if r.pos == 0 {
		r.full = true
	}
}

func (r *ring) len() int {
	if r.full {
		return len(r.buf)
	}
	return r.pos
}

// at returns the i-th retained signal, 0 being the oldest.
func (r *ring) at(i int) *TradingSignal {
	if r.full {
		return r.buf[(r.pos+i)%len(r.buf)]
	}
	return r.buf[i]
}

// tail returns up to limit most recent signals, oldest first. limit <= 0
// returns everything retained.
func (r *ring) tail(limit int) []*TradingSignal {
	n := r.len()
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]*TradingSignal, 0, limit)
	for i := n - limit; i < n; i++ {
		out = append(out, r.at(i))
	}
	return out
}

// Stats aggregates emitted signals across all symbols.
type Stats struct {
	Total             int     `json:"total"`
	Buy               int     `json:"buy"`
	Sell              int     `json:"sell"`
	Hold              int     `json:"hold"`
	Neutral           int     `json:"neutral"`
	AvgConfidence     float64 `json:"avg_confidence"`
	HighConfidence    int     `json:"high_confidence"`
	HighConfidencePct float64 `json:"high_confidence_pct"`
}
