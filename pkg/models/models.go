// Package models defines the structured records omegacalc emits for
// programmatic consumers (the -json output and the golden reference file).
package models

// Bound is the JSON form of a tail bound or error estimate.
type Bound struct {
	// Value is the decimal rendering. Bounds below the binary exponent
	// range are rendered from their logarithm and prefixed by "~".
	Value string `json:"value"`
	// Log10 is log10 of the bound; absent for zero and infinite bounds.
	Log10 *float64 `json:"log10,omitempty"`
	// Underflow is set when the bound is below the representable range.
	Underflow bool `json:"underflow,omitempty"`
	// Infinite is set when no finite bound exists.
	Infinite bool `json:"infinite,omitempty"`
}

// Diagnostic is the record of one truncation order.
type Diagnostic struct {
	RunID      string `json:"run_id,omitempty"`
	Order      int    `json:"order"`
	Digits     int    `json:"digits"`
	Root       string `json:"root,omitempty"`
	Residual   string `json:"residual,omitempty"`
	Derivative string `json:"derivative,omitempty"`

	SimpleBound    *Bound `json:"simple_bound,omitempty"`
	GeometricBound *Bound `json:"geometric_bound,omitempty"`
	CertifiedBound *Bound `json:"certified_bound,omitempty"`
	DeltaX         *Bound `json:"delta_x,omitempty"`

	// CertifiedDigits is -log10(DeltaX), the number of decimal digits of
	// Root guaranteed by the certified bound.
	CertifiedDigits *float64 `json:"certified_digits,omitempty"`

	Iterations int     `json:"iterations"`
	DurationMS float64 `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

// GoldenRoot is one entry of the reference file written by
// cmd/generate-golden.
type GoldenRoot struct {
	Order  int    `json:"order"`
	Digits int    `json:"digits"`
	Root   string `json:"root"`
}
