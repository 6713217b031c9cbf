package neural

import "math"

// adamState keeps the first and second moment estimates for one parameter
// slice.
type adamState struct {
	m []float64
	v []float64
	t int
}

func newAdamState(n int) *adamState {
	return &adamState{m: make([]float64, n), v: make([]float64, n)}
}

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// step applies one bias-corrected Adam update to params in place.
func (s *adamState) step(params, grads []float64, lr float64) {
	s.t++
	correction1 := 1 - math.Pow(adamBeta1, float64(s.t))
	correction2 := 1 - math.Pow(adamBeta2, float64(s.t))
	for i := range params {
		s.m[i] = adamBeta1*s.m[i] + (1-adamBeta1)*grads[i]
		s.v[i] = adamBeta2*s.v[i] + (1-adamBeta2)*grads[i]*grads[i]
		mHat := s.m[i] / correction1
		vHat := s.v[i] / correction2
		params[i] -= lr * mHat / (math.Sqrt(vHat) + adamEpsilon)
	}
}

// sgdStep applies one plain gradient descent update to params in place.
func sgdStep(params, grads []float64, lr float64) {
	for i := range params {
		params[i] -= lr * grads[i]
	}
}
