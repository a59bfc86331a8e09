package analysis

// Options are the numeric conventions shared by every component of the engine.
// Variance is always the population variance (N denominator).
type Options struct {
	// MarginZ scales the standard error into the margin of error
	MarginZ float64
	// TrimProportion is cut from each end of a sorted trial before the
	// trimmed-mean centered homogeneity test
	TrimProportion float64
}

// DefaultOptions returns a z of 2 (approximate 95% interval) and a 5% trim
func DefaultOptions() Options {
	return Options{
		MarginZ:        2,
		TrimProportion: 0.05,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MarginZ <= 0 {
		o.MarginZ = d.MarginZ
	}
	if o.TrimProportion < 0 || o.TrimProportion >= 0.5 {
		o.TrimProportion = d.TrimProportion
	}
	return o
}
