package ops

import (
	"fmt"

	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/pods"
)

func init() {
	register("video/rgb_to_yuv444", 4, rgbToYUV)
	register("render/cull_frustum", 2, cullFrustum)
	register("audio/stft", 4, stft)
}

var frameFormats = []string{"RGB", "RGBA", "NV12"}

// [w][h][format][stride pad][skew][pixels]
func rgbToYUV(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	const op = "video/rgb_to_yuv444"
	f := pods.ImageFrame{W: dim(c, 0, 32), H: dim(c, 0, 32)}
	f.Format = frameFormats[c.Enum(len(frameFormats), 0)]
	if pad := c.Range(0, 4); pad > 0 {
		f.Stride = f.W*f.Channels() + pad - 1
	}
	stride := f.Stride
	if stride == 0 {
		stride = f.W * f.Channels()
	}
	n := max(f.H-1, 0)*stride + f.W*f.Channels()
	f.Pixels = skew(c, fuzzbytes.Fill[float32](c, n))

	out, err := pods.Run(x, op, pods.RGBToYUVIn{Frame: f})
	if err != nil {
		return err
	}
	if got := out.(pods.RGBToYUVOut); len(got.Y) != f.W*f.H || len(got.U) != len(got.Y) || len(got.V) != len(got.Y) {
		return fmt.Errorf("%s: planes %d/%d/%d for %dx%d", op, len(got.Y), len(got.U), len(got.V), f.W, f.H)
	}
	return nil
}

// [6 planes x 4 f32][n boxes][raw][boxes x 6 f32]. Unless raw is set, each
// box is put in min/max order first.
func cullFrustum(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	const op = "render/cull_frustum"
	var in pods.CullingIn
	for i := range in.Frustum.Planes {
		for j := range in.Frustum.Planes[i] {
			in.Frustum.Planes[i][j] = float32(c.FloatIn(-1e3, 1e3, 0))
		}
	}
	in.Bounds = make([][6]float32, c.Range(0, 64))
	raw := c.Bool(false)
	for i := range in.Bounds {
		b := &in.Bounds[i]
		for j := range b {
			b[j] = float32(c.FloatIn(-1e3, 1e3, 0))
		}
		if raw {
			continue
		}
		for j := 0; j < 3; j++ {
			if b[j] > b[j+3] {
				b[j], b[j+3] = b[j+3], b[j]
			}
		}
	}
	out, err := pods.Run(x, op, in)
	if err != nil {
		return err
	}
	if got := out.(pods.CullingOut).Visible; len(got) != len(in.Bounds) {
		return fmt.Errorf("%s: %d verdicts for %d boxes", op, len(got), len(in.Bounds))
	}
	return nil
}

var stftWindows = []string{"", "hann", "rect", "kaiser"}

// [channels][channel][win log2][hop][window][n samples:u16][samples...]
func stft(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	const op = "audio/stft"
	channels := c.Range(0, 2)
	in := pods.STFTIn{Channel: c.Range(0, 2)}
	// 0 selects the pod default; otherwise 4..512.
	if k := c.Range(1, 9); k > 1 {
		in.WinSize = 1 << k
	}
	in.Hop = c.Range(0, 128)
	in.Window = stftWindows[c.Enum(len(stftWindows), 0)]
	n := int(c.Uint16() % 1025)

	win := in.WinSize
	if win == 0 {
		win = 1024
	}
	// Keep the naive DFT affordable: at most four frames per window.
	if in.Hop > 0 && in.Hop < win/4 {
		in.Hop = win / 4
	}
	in.Audio = pods.AudioBuffer{SampleRate: 16000, Channels: channels, Samples: make([][]float32, channels)}
	for ch := range in.Audio.Samples {
		in.Audio.Samples[ch] = values(c, n)
	}

	out, err := pods.Run(x, op, in)
	if err != nil {
		return err
	}
	for i, frame := range out.(pods.STFTOut).Spectrogram {
		if len(frame) != win {
			return fmt.Errorf("%s: frame %d has %d bins, want %d", op, i, len(frame), win)
		}
	}
	return nil
}
