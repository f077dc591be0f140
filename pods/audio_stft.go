package pods

import "math"

// MaxSTFTWindow bounds the naive DFT.
const MaxSTFTWindow = 4096

type STFTIn struct {
	Audio   AudioBuffer
	Channel int
	WinSize int    // 0 means 1024
	Hop     int    // 0 means WinSize/4
	Window  string // "hann" (default) or "rect"
}
type STFTOut struct {
	Spectrogram [][]complex64 // [frame][bin]
}

type STFTPod struct{}

func (STFTPod) Name() string { return "audio/stft" }

func (STFTPod) Run(x *ExecContext, in any) (any, error) {
	const op = "audio/stft"
	a, ok := in.(STFTIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	if a.Channel < 0 || a.Channel >= len(a.Audio.Samples) {
		return nil, opErr(op, ErrInvalidArgument, "channel %d of %d", a.Channel, len(a.Audio.Samples))
	}
	if a.WinSize == 0 {
		a.WinSize = 1024
	}
	if a.WinSize < 0 || a.WinSize > MaxSTFTWindow {
		return nil, opErr(op, ErrInvalidArgument, "window size %d", a.WinSize)
	}
	if a.Hop == 0 {
		a.Hop = max(a.WinSize/4, 1)
	}
	if a.Hop < 0 {
		return nil, opErr(op, ErrInvalidArgument, "hop %d", a.Hop)
	}
	win := make([]float64, a.WinSize)
	for i := range win {
		switch a.Window {
		case "", "hann":
			win[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(a.WinSize))
		case "rect":
			win[i] = 1
		default:
			return nil, opErr(op, ErrUnsupportedType, "window %q", a.Window)
		}
	}
	mono := a.Audio.Samples[a.Channel]
	var frames [][]complex64
	frame := make([]float64, a.WinSize)
	for off := 0; off+a.WinSize <= len(mono); off += a.Hop {
		if err := x.Err(); err != nil {
			return nil, err
		}
		for i := range frame {
			frame[i] = float64(mono[off+i]) * win[i]
		}
		// Naive DFT (O(N^2)).
		out := make([]complex64, a.WinSize)
		for k := range out {
			var sum complex128
			for n, v := range frame {
				s, c := math.Sincos(-2 * math.Pi * float64(k*n) / float64(a.WinSize))
				sum += complex(v*c, v*s)
			}
			out[k] = complex64(sum)
		}
		frames = append(frames, out)
	}
	return STFTOut{Spectrogram: frames}, nil
}
