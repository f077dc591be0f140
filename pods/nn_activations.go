package pods

import "math"

// Activation selects the elementwise nonlinearity of the layer pods.
type Activation int

const (
	ActScaledReLU Activation = iota // max(0, 1.1*v)
	ActSigmoid
	ActTanh
	ActSoftplus
	ActLeakyReLU // v < 0 -> 0.1*v
	ActLinear

	NumActivations = int(ActLinear) + 1
)

var activationNames = [...]string{"scaled_relu", "sigmoid", "tanh", "softplus", "leaky_relu", "linear"}

func (a Activation) String() string {
	if a >= 0 && int(a) < len(activationNames) {
		return activationNames[a]
	}
	return "unknown"
}

func (a Activation) valid() bool { return a >= 0 && int(a) < NumActivations }

// Activate applies a to v.
func Activate(v float32, a Activation) float32 {
	switch a {
	case ActScaledReLU:
		v = v * 1.1
		if v < 0 {
			v = 0
		}
		return v
	case ActSigmoid:
		return sigmoid(v)
	case ActTanh:
		return float32(math.Tanh(float64(v)))
	case ActSoftplus:
		return float32(math.Log1p(math.Exp(float64(v))))
	case ActLeakyReLU:
		if v < 0 {
			v = v * 0.1
		}
		return v
	}
	return v
}

func sigmoid(x float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(float64(-x))))
}
