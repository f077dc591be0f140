package tensor

// Numeric is the set of element types operators compute on.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Tensor is a dense row-major tensor.
type Tensor[T Numeric] struct {
	Data  []T
	Shape []int
}

// NewTensor allocates a zeroed tensor of the given shape.
func NewTensor[T Numeric](shape ...int) *Tensor[T] {
	n := 1
	for _, d := range shape {
		if d < 0 {
			d = 0
		}
		n *= d
	}
	return &Tensor[T]{Data: make([]T, n), Shape: append([]int(nil), shape...)}
}

// NewTensorFromSlice wraps data without copying.
func NewTensorFromSlice[T Numeric](data []T, shape ...int) *Tensor[T] {
	return &Tensor[T]{Data: data, Shape: append([]int(nil), shape...)}
}

// Size returns the number of elements.
func (t *Tensor[T]) Size() int { return len(t.Data) }

// Clone returns a deep copy.
func (t *Tensor[T]) Clone() *Tensor[T] {
	return &Tensor[T]{
		Data:  append([]T(nil), t.Data...),
		Shape: append([]int(nil), t.Shape...),
	}
}

// Reshape returns a view with a new shape, or nil when the element counts
// differ.
func (t *Tensor[T]) Reshape(shape ...int) *Tensor[T] {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil
		}
		n *= d
	}
	if n != len(t.Data) {
		return nil
	}
	return &Tensor[T]{Data: t.Data, Shape: append([]int(nil), shape...)}
}

// Dims converts an int64 shape to int. It reports false if any dimension is
// negative.
func Dims(shape []int64) ([]int, bool) {
	out := make([]int, len(shape))
	for i, d := range shape {
		if d < 0 {
			return nil, false
		}
		out[i] = int(d)
	}
	return out, true
}

// Float32 widens a payload to a float32 tensor of the same shape.
func Float32(p Payload) (*Tensor[float32], error) {
	data, err := AsFloat32(p)
	if err != nil {
		return nil, err
	}
	dims, ok := Dims(p.Shape)
	if !ok {
		return nil, ErrInvalidShape
	}
	return NewTensorFromSlice(data, dims...), nil
}
