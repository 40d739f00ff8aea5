package pricesource

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
)

// Synthetic produces stand-in quotes when no live price is available. The
// price for a symbol is drawn uniformly from [50, 350) by a PCG generator
// seeded from the configured seed and the symbol, so a given (seed, symbol)
// pair always yields the same price.
type Synthetic struct {
	seed uint64
	now  func() time.Time
}

// NewSynthetic creates a generator with the given seed.
func NewSynthetic(seed uint64) *Synthetic {
	return &Synthetic{seed: seed, now: time.Now}
}

// Price returns the synthetic price for symbol, rounded to cents.
func (s *Synthetic) Price(symbol string) decimal.Decimal {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], s.seed)
	h.Write(buf[:])
	h.Write([]byte(domain.NormalizeSymbol(symbol)))
	sum := h.Sum64()

	r := rand.New(rand.NewPCG(sum, sum^s.seed))
	return decimal.NewFromFloat(50 + r.Float64()*300).Round(2)
}

// Quote wraps Price in a domain.Quote tagged Synthetic.
func (s *Synthetic) Quote(symbol string) domain.Quote {
	symbol = domain.NormalizeSymbol(symbol)
	return domain.Quote{
		Symbol:    symbol,
		Price:     s.Price(symbol),
		AsOf:      s.now().UTC(),
		Source:    "synthetic",
		Synthetic: true,
	}
}
