package pods

type GEMMIn struct {
	M, N, K int
	A, B    []float32 // row-major A[M,K]; B[K,N], or B[N,K] when TransB
	C       []float32 // optional accumulator C[M,N]
	Alpha   float32   // C = alpha*A*B + beta*C
	Beta    float32
	TransB  bool
}
type GEMMOut struct {
	C []float32 // row-major C[M,N]
}

type GEMMPod struct{}

func (GEMMPod) Name() string { return "ml/gemm" }

func (GEMMPod) Run(x *ExecContext, in any) (any, error) {
	const op = "ml/gemm"
	args, ok := in.(GEMMIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	M, N, K := args.M, args.N, args.K
	sizeA, okA := checkedMul(M, K)
	sizeB, okB := checkedMul(K, N)
	sizeC, okC := checkedMul(M, N)
	if !okA || !okB || !okC {
		return nil, opErr(op, ErrInvalidArgument, "dims M=%d N=%d K=%d", M, N, K)
	}
	if len(args.A) != sizeA || len(args.B) != sizeB {
		return nil, opErr(op, ErrShapeMismatch, "len(A)=%d len(B)=%d for M=%d N=%d K=%d", len(args.A), len(args.B), M, N, K)
	}
	if args.C != nil && len(args.C) != sizeC {
		return nil, opErr(op, ErrShapeMismatch, "len(C)=%d, want %d", len(args.C), sizeC)
	}

	B := args.B
	if args.TransB {
		B = x.scratch(sizeB)
		defer x.release(B)
		for n := 0; n < N; n++ {
			for k := 0; k < K; k++ {
				B[k*N+n] = args.B[n*K+k]
			}
		}
	}

	C := make([]float32, sizeC)
	if args.C != nil && args.Beta != 0 {
		for i, v := range args.C {
			C[i] = args.Beta * v
		}
	}
	// CPU tiled (simple cache-friendly baseline)
	const TS = 64
	for i0 := 0; i0 < M; i0 += TS {
		for k0 := 0; k0 < K; k0 += TS {
			for j0 := 0; j0 < N; j0 += TS {
				iMax := min(i0+TS, M)
				kMax := min(k0+TS, K)
				jMax := min(j0+TS, N)
				for i := i0; i < iMax; i++ {
					for k := k0; k < kMax; k++ {
						ai := args.A[i*K+k] * args.Alpha
						rowC := i * N
						rowB := k * N
						for j := j0; j < jMax; j++ {
							C[rowC+j] += ai * B[rowB+j]
						}
					}
				}
			}
		}
	}
	return GEMMOut{C: C}, nil
}
