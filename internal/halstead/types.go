// Package halstead derives Halstead operator/operand statistics per function
// and per file from a shared pyast parse tree.
package halstead

import "math"

// Metrics holds one scope's raw tallies and derived scalars.
type Metrics struct {
	OperatorsSeen map[string]bool
	OperandsSeen  map[string]bool
	TotalOperators int
	TotalOperands  int
}

// NewMetrics returns an empty Metrics ready for accumulation.
func NewMetrics() *Metrics {
	return &Metrics{
		OperatorsSeen: make(map[string]bool),
		OperandsSeen:  make(map[string]bool),
	}
}

// Merge folds other's tallies into m, used when a function's counter is
// composed into its enclosing scope's cumulative total.
func (m *Metrics) Merge(other *Metrics) {
	for tag := range other.OperatorsSeen {
		m.OperatorsSeen[tag] = true
	}

	for key := range other.OperandsSeen {
		m.OperandsSeen[key] = true
	}

	m.TotalOperators += other.TotalOperators
	m.TotalOperands += other.TotalOperands
}

// addOperatorOccurrence records one occurrence of the operator tagged tag.
func (m *Metrics) addOperatorOccurrence(tag string) {
	m.OperatorsSeen[tag] = true
	m.TotalOperators++
}

// addOperand records one occurrence of an operand, keyed by its enclosing
// context (module sentinel or function name) plus its representation, per
// spec.md §9's operand-context scoping.
func (m *Metrics) addOperand(ctx, repr string) {
	m.OperandsSeen[ctx+"\x00"+repr] = true
	m.TotalOperands++
}

// FunctionHalstead is one function body's own (non-cumulative from its own
// perspective, but merged upward into its enclosing scope) Halstead tally.
type FunctionHalstead struct {
	Name      string
	StartByte uint32
	EndByte   uint32
	Metrics   *Metrics
}

// Derived holds the scalars computed from a Metrics snapshot.
type Derived struct {
	H1         int
	H2         int
	N1         int
	N2         int
	Vocabulary int
	Length     int
	Volume     float64
	Difficulty float64
	Effort     float64
}

// Derive computes the derived scalars of spec.md §4.E from m.
func (m *Metrics) Derive() Derived {
	h1 := len(m.OperatorsSeen)
	h2 := len(m.OperandsSeen)
	n1 := m.TotalOperators
	n2 := m.TotalOperands

	vocabulary := h1 + h2
	length := n1 + n2

	var volume float64
	if vocabulary > 0 {
		volume = float64(length) * math.Log2(float64(vocabulary))
	}

	var difficulty float64
	if h2 > 0 {
		difficulty = float64(h1*n2) / float64(2*h2)
	}

	return Derived{
		H1:         h1,
		H2:         h2,
		N1:         n1,
		N2:         n2,
		Vocabulary: vocabulary,
		Length:     length,
		Volume:     volume,
		Difficulty: difficulty,
		Effort:     difficulty * volume,
	}
}
