// Package gpu runs the GPU variants of a few pods operators on WebGPU. The
// device code needs the gpu build tag; the WGSL generators below do not.
package gpu

import "fmt"

// WorkgroupSize is the fixed 1D workgroup every kernel here is written for.
const WorkgroupSize = 256

// ReduceKinds maps a reduction name to its WGSL combine expression.
var ReduceKinds = map[string]string{
	"sum":  "a + b",
	"mean": "a + b",
	"min":  "min(a, b)",
	"max":  "max(a, b)",
}

var reduceIdentity = map[string]string{
	"sum":  "0.0",
	"mean": "0.0",
	"min":  "3.402823e+38",
	"max":  "-3.402823e+38",
}

// SoftmaxShader returns a one-workgroup softmax over n elements:
// y_i = exp(x_i/T - max) / sum(exp(x_j/T - max)).
func SoftmaxShader(n int, temp float32) string {
	if temp <= 0 {
		temp = 1.0
	}
	elemsPerThread := (n + WorkgroupSize - 1) / WorkgroupSize

	return fmt.Sprintf(`
		@group(0) @binding(0) var<storage, read> input : array<f32>;
		@group(0) @binding(1) var<storage, read_write> output : array<f32>;

		const N: u32 = %du;
		const TEMP: f32 = %f;
		const ELEMS_PER_THREAD: u32 = %du;

		var<workgroup> shared_val: array<f32, 256>;
		var<workgroup> wg_max: f32;
		var<workgroup> wg_sum: f32;

		@compute @workgroup_size(256)
		fn main(@builtin(local_invocation_id) local_id: vec3<u32>) {
			let tid = local_id.x;

			var local_max: f32 = -3.402823e+38;
			for (var i: u32 = 0u; i < ELEMS_PER_THREAD; i++) {
				let idx = tid + i * 256u;
				if (idx < N) {
					local_max = max(local_max, input[idx] / TEMP);
				}
			}
			shared_val[tid] = local_max;
			workgroupBarrier();
			for (var s: u32 = 128u; s > 0u; s = s >> 1u) {
				if (tid < s) {
					shared_val[tid] = max(shared_val[tid], shared_val[tid + s]);
				}
				workgroupBarrier();
			}
			if (tid == 0u) { wg_max = shared_val[0]; }
			workgroupBarrier();
			let max_val = wg_max;

			var local_sum: f32 = 0.0;
			for (var i: u32 = 0u; i < ELEMS_PER_THREAD; i++) {
				let idx = tid + i * 256u;
				if (idx < N) {
					local_sum += exp(input[idx] / TEMP - max_val);
				}
			}
			shared_val[tid] = local_sum;
			workgroupBarrier();
			for (var s: u32 = 128u; s > 0u; s = s >> 1u) {
				if (tid < s) {
					shared_val[tid] = shared_val[tid] + shared_val[tid + s];
				}
				workgroupBarrier();
			}
			if (tid == 0u) { wg_sum = shared_val[0]; }
			workgroupBarrier();
			let sum_exp = wg_sum;

			for (var i: u32 = 0u; i < ELEMS_PER_THREAD; i++) {
				let idx = tid + i * 256u;
				if (idx < N) {
					output[idx] = exp(input[idx] / TEMP - max_val) / sum_exp;
				}
			}
		}
	`, n, temp, elemsPerThread)
}

// ReduceShader returns a one-workgroup reduction of n elements into
// output[0]. kind must be a key of ReduceKinds.
func ReduceShader(n int, kind string) (string, error) {
	combine, ok := ReduceKinds[kind]
	if !ok {
		return "", fmt.Errorf("unknown reduction %q", kind)
	}
	finish := ""
	if kind == "mean" {
		finish = " / f32(N)"
	}
	return fmt.Sprintf(`
		@group(0) @binding(0) var<storage, read> input : array<f32>;
		@group(0) @binding(1) var<storage, read_write> output : array<f32>;

		const N: u32 = %du;

		var<workgroup> shared_val: array<f32, 256>;

		fn combine(a: f32, b: f32) -> f32 { return %s; }

		@compute @workgroup_size(256)
		fn main(@builtin(local_invocation_id) local_id: vec3<u32>) {
			let tid = local_id.x;
			var acc: f32 = %s;
			for (var i: u32 = tid; i < N; i += 256u) {
				acc = combine(acc, input[i]);
			}
			shared_val[tid] = acc;
			workgroupBarrier();
			for (var s: u32 = 128u; s > 0u; s = s >> 1u) {
				if (tid < s) {
					shared_val[tid] = combine(shared_val[tid], shared_val[tid + s]);
				}
				workgroupBarrier();
			}
			if (tid == 0u) { output[0] = shared_val[0]%s; }
		}
	`, n, combine, reduceIdentity[kind], finish), nil
}

// ScanShader returns a one-workgroup u32 prefix sum: each thread scans a
// contiguous chunk, thread 0 scans the chunk totals. Sums wrap modulo 2^32.
func ScanShader(n int, inclusive bool) string {
	chunk := (n + WorkgroupSize - 1) / WorkgroupSize
	return fmt.Sprintf(`
		@group(0) @binding(0) var<storage, read> input : array<u32>;
		@group(0) @binding(1) var<storage, read_write> output : array<u32>;

		const N: u32 = %du;
		const CHUNK: u32 = %du;
		const INCLUSIVE: bool = %t;

		var<workgroup> sums: array<u32, 256>;

		@compute @workgroup_size(256)
		fn main(@builtin(local_invocation_id) local_id: vec3<u32>) {
			let tid = local_id.x;
			let start = tid * CHUNK;

			var acc: u32 = 0u;
			for (var i: u32 = 0u; i < CHUNK; i++) {
				let idx = start + i;
				if (idx < N) { acc += input[idx]; }
			}
			sums[tid] = acc;
			workgroupBarrier();

			if (tid == 0u) {
				var run: u32 = 0u;
				for (var t: u32 = 0u; t < 256u; t++) {
					let v = sums[t];
					sums[t] = run;
					run += v;
				}
			}
			workgroupBarrier();

			var prefix = sums[tid];
			for (var i: u32 = 0u; i < CHUNK; i++) {
				let idx = start + i;
				if (idx < N) {
					if (INCLUSIVE) {
						prefix += input[idx];
						output[idx] = prefix;
					} else {
						output[idx] = prefix;
						prefix += input[idx];
					}
				}
			}
		}
	`, n, chunk, inclusive)
}
