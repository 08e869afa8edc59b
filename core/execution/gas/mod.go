// Package gas defines the resource budget that bounds a deployment. The host
// supplies the limit; the runtime charges every host call and every frame
// against it.
package gas

import (
	"golang.org/x/xerrors"
)

// ErrOutOfGas is returned when the budget is exhausted.
var ErrOutOfGas = xerrors.New("out of gas")

// Schedule is the cost of each host operation.
type Schedule struct {
	Call          uint64
	Read          uint64
	Write         uint64
	Add           uint64
	Mint          uint64
	NamedKey      uint64
	StoreFunction uint64
	PerByte       uint64
}

// DefaultSchedule is the schedule used when none is provided.
var DefaultSchedule = Schedule{
	Call:          1_000,
	Read:          100,
	Write:         200,
	Add:           200,
	Mint:          300,
	NamedKey:      50,
	StoreFunction: 2_000,
	PerByte:       1,
}

// Meter is the interface to charge the consumption of a deployment.
type Meter interface {
	// Consume charges the amount or returns ErrOutOfGas if the budget does not
	// allow it. A failed charge consumes the whole remaining budget.
	Consume(amount uint64) error

	// Used returns the amount consumed so far.
	Used() uint64
}

// Limited is a meter with a fixed budget.
//
// - implements gas.Meter
type Limited struct {
	limit uint64
	used  uint64
}

// NewMeter returns a meter that allows at most the limit.
func NewMeter(limit uint64) *Limited {
	return &Limited{limit: limit}
}

// Consume implements gas.Meter.
func (m *Limited) Consume(amount uint64) error {
	if amount > m.limit-m.used {
		m.used = m.limit
		return xerrors.Errorf("limit %d reached: %w", m.limit, ErrOutOfGas)
	}

	m.used += amount

	return nil
}

// Used implements gas.Meter.
func (m *Limited) Used() uint64 {
	return m.used
}

// unlimited is a meter that only counts.
//
// - implements gas.Meter
type unlimited struct {
	used uint64
}

// Unlimited returns a meter without limit.
func Unlimited() Meter {
	return &unlimited{}
}

// Consume implements gas.Meter. It never fails.
func (m *unlimited) Consume(amount uint64) error {
	m.used += amount
	return nil
}

// Used implements gas.Meter.
func (m *unlimited) Used() uint64 {
	return m.used
}
