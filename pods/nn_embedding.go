package pods

type EmbeddingIn struct {
	Tokens        []int32
	Table         []float32 // [Vocab, Dim]
	Vocab, Dim    int
	PaddingIdx    int  // rows equal to PaddingIdx come back zero when UsePadding
	UsePadding    bool
	StrictIndices bool // out-of-range tokens are an error instead of a zero row
}
type EmbeddingOut struct{ Y []float32 } // [len(Tokens), Dim]

type EmbeddingPod struct{}

func (EmbeddingPod) Name() string { return "nn/embedding" }

func (EmbeddingPod) Run(_ *ExecContext, in any) (any, error) {
	const op = "nn/embedding"
	a, ok := in.(EmbeddingIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	if a.Vocab <= 0 || a.Dim <= 0 {
		return nil, opErr(op, ErrInvalidArgument, "vocab=%d dim=%d", a.Vocab, a.Dim)
	}
	nt, ok1 := checkedMul(a.Vocab, a.Dim)
	ny, ok2 := checkedMul(len(a.Tokens), a.Dim)
	if !ok1 || !ok2 {
		return nil, opErr(op, ErrInvalidArgument, "sizes overflow")
	}
	if len(a.Table) != nt {
		return nil, opErr(op, ErrShapeMismatch, "len(Table)=%d want %d", len(a.Table), nt)
	}
	if a.UsePadding && (a.PaddingIdx < 0 || a.PaddingIdx >= a.Vocab) {
		return nil, opErr(op, ErrInvalidArgument, "padding index %d outside vocab %d", a.PaddingIdx, a.Vocab)
	}
	Y := make([]float32, ny)
	for i, tok := range a.Tokens {
		id := int(tok)
		if id < 0 || id >= a.Vocab {
			if a.StrictIndices {
				return nil, opErr(op, ErrInvalidArgument, "token %d outside vocab %d", id, a.Vocab)
			}
			continue
		}
		if a.UsePadding && id == a.PaddingIdx {
			continue
		}
		copy(Y[i*a.Dim:(i+1)*a.Dim], a.Table[id*a.Dim:(id+1)*a.Dim])
	}
	return EmbeddingOut{Y: Y}, nil
}
