package schema

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Instrument describes a tradable instrument and its market microstructure
// parameters.
type Instrument struct {
	ID       SymbolID
	Name     string
	TickSize decimal.Decimal
	LotSize  decimal.Decimal
	Tradable bool
}

// Registry stores instrument metadata in a compact form.
type Registry struct {
	instruments []Instrument
	byName      map[string]SymbolID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]SymbolID),
	}
}

// AddInstrument registers a new instrument and returns its ID.
func (r *Registry) AddInstrument(name string, tickSize, lotSize decimal.Decimal, tradable bool) (SymbolID, error) {
	if name == "" {
		return 0, fmt.Errorf("instrument name is empty")
	}
	if !tickSize.IsPositive() {
		return 0, fmt.Errorf("tick size must be > 0 for %s", name)
	}
	if !lotSize.IsPositive() {
		return 0, fmt.Errorf("lot size must be > 0 for %s", name)
	}
	if id, ok := r.byName[name]; ok {
		return id, fmt.Errorf("instrument already exists: %s", name)
	}
	id := SymbolID(len(r.instruments) + 1)
	r.instruments = append(r.instruments, Instrument{
		ID:       id,
		Name:     name,
		TickSize: tickSize,
		LotSize:  lotSize,
		Tradable: tradable,
	})
	r.byName[name] = id
	return id, nil
}

// Instrument returns the instrument by ID.
func (r *Registry) Instrument(id SymbolID) (Instrument, bool) {
	if id == 0 || int(id) > len(r.instruments) {
		return Instrument{}, false
	}
	return r.instruments[id-1], true
}

// InstrumentCount returns the number of registered instruments.
func (r *Registry) InstrumentCount() int {
	return len(r.instruments)
}

// InstrumentAt returns the instrument by zero-based index.
func (r *Registry) InstrumentAt(index int) (Instrument, bool) {
	if index < 0 || index >= len(r.instruments) {
		return Instrument{}, false
	}
	return r.instruments[index], true
}

// IDByName returns the instrument ID for a name.
func (r *Registry) IDByName(name string) (SymbolID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// Name returns the instrument name for an ID, or a numeric placeholder.
func (r *Registry) Name(id SymbolID) string {
	if inst, ok := r.Instrument(id); ok {
		return inst.Name
	}
	return fmt.Sprintf("#%d", id)
}
