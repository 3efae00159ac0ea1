package promotion

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
)

// CodeSource lists the promotion codes known to exist, used to seed the
// prefilter at startup. Backed by the codes ingested by promo-ingest.
type CodeSource interface {
	ListCodes(ctx context.Context) ([]string, error)
}

// Prefilter is a bloom-filter screen over known promotion codes. A definite
// miss rejects the code locally without a round trip to the promotion
// service; a hit may be a false positive and still goes through full
// validation. An unseeded prefilter passes everything.
type Prefilter struct {
	fpr float64

	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewPrefilter creates an empty prefilter sized for the expected number of
// codes at the given false-positive rate.
func NewPrefilter(capacity uint, fpr float64) *Prefilter {
	return &Prefilter{
		fpr:    fpr,
		filter: bloom.NewWithEstimates(capacity, fpr),
	}
}

// Seed loads all known codes from the source into a filter sized for the
// actual code count, replacing any previous contents.
func (p *Prefilter) Seed(ctx context.Context, src CodeSource) (int, error) {
	codes, err := src.ListCodes(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "list promotion codes")
	}

	fresh := bloom.NewWithEstimates(uint(max(len(codes), 1)), p.fpr)
	for _, code := range codes {
		fresh.AddString(code)
	}

	p.mu.Lock()
	p.filter = fresh
	p.mu.Unlock()

	return len(codes), nil
}

// MayContain reports whether the code could be a known promotion code.
// False means the code definitely does not exist.
func (p *Prefilter) MayContain(code string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.filter.ApproximatedSize() == 0 {
		// Nothing seeded yet; fail open and let the service decide.
		return true
	}
	return p.filter.TestString(code)
}
