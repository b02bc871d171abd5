package sat

// EMA is an exponential moving average. The first value added initializes the
// average, subsequent values are weighted by (1 - decay).
type EMA struct {
	decay float64
	value float64
	count int64
}

func NewEMA(decay float64) EMA {
	return EMA{decay: decay}
}

func (ema *EMA) Add(x float64) {
	if ema.count == 0 {
		ema.value = x
	} else {
		ema.value = ema.decay*ema.value + x*(1-ema.decay)
	}
	ema.count++
}

// Val returns the current average, 0 if no value was added.
func (ema *EMA) Val() float64 {
	return ema.value
}

// Count returns the number of values added so far.
func (ema *EMA) Count() int64 {
	return ema.count
}
