package mdg

import (
	"fmt"

	"github.com/shopspring/decimal"

	"main/internal/schema"
)

// Generator writes synthetic, tick-aligned quotes for every instrument in
// the registry. Prices drift deterministically around a base so runs are
// reproducible.
type Generator struct {
	meta        *schema.Registry
	base        decimal.Decimal
	spreadTicks int64
	step        int64
}

// NewGenerator creates a generator. base is the mid price all instruments
// oscillate around; spreadTicks is the half-spread in ticks.
func NewGenerator(meta *schema.Registry, base decimal.Decimal, spreadTicks int64) (*Generator, error) {
	if meta == nil || meta.InstrumentCount() == 0 {
		return nil, fmt.Errorf("registry has no instruments")
	}
	if !base.IsPositive() {
		return nil, fmt.Errorf("base price must be > 0")
	}
	if spreadTicks <= 0 {
		spreadTicks = 1
	}
	return &Generator{
		meta:        meta,
		base:        base,
		spreadTicks: spreadTicks,
	}, nil
}

// Publish writes the next round of quotes into the feed.
func (g *Generator) Publish(feed *Feed) {
	g.step++
	for i := 0; i < g.meta.InstrumentCount(); i++ {
		inst, ok := g.meta.InstrumentAt(i)
		if !ok {
			continue
		}
		mid := g.base.Add(inst.TickSize.Mul(decimal.NewFromInt(g.drift(int64(i)))))
		half := inst.TickSize.Mul(decimal.NewFromInt(g.spreadTicks))
		feed.SetQuote(inst.ID, schema.Quote{
			Bid: mid.Sub(half),
			Ask: mid.Add(half),
		})
		feed.SetTrade(inst.ID, mid)
	}
}

// drift walks the mid up and down a fixed range of ticks.
func (g *Generator) drift(offset int64) int64 {
	phase := (g.step + offset) % 20
	if phase < 10 {
		return phase
	}
	return 20 - phase
}
