package ops

import (
	"fmt"
	"strings"

	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/pods"
)

func init() {
	register("text/bpe_merge", 2, bpeMerge)
	register("compress/varint_decode", 1, varintDecode)
}

// [word][n merges][merges...][vocab flag][max rounds]. A merge is either a
// raw string or two slices of the word, so most rules can actually fire.
func bpeMerge(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	const op = "text/bpe_merge"
	word, _ := c.String(0, 16)
	in := pods.BPEMergeIn{Word: word}
	for i, n := 0, c.Range(0, 12); i < n; i++ {
		if c.Enum(4, 1) == 0 {
			raw, _ := c.String(0, 8)
			in.Merges = append(in.Merges, raw)
			continue
		}
		a, b := slice(c, word), slice(c, word)
		in.Merges = append(in.Merges, a+" "+b)
	}
	if c.Bool(false) {
		in.Vocab = map[string]int32{}
		for i, m := range in.Merges {
			in.Vocab[strings.ReplaceAll(m, " ", "")] = int32(i)
		}
		for b := 0; b < 256; b++ {
			in.Vocab[fmt.Sprintf("<0x%02X>", b)] = int32(1000 + b)
		}
	}
	in.MaxRounds = c.Range(0, 16)

	out, err := pods.Run(x, op, in)
	if err != nil {
		return err
	}
	got := out.(pods.BPEMergeOut)
	if joined := strings.Join(got.Tokens, ""); joined != word {
		return fmt.Errorf("%s: tokens %q rejoin to %q, want %q", op, got.Tokens, joined, word)
	}
	if in.MaxRounds > 0 && got.Rounds > in.MaxRounds {
		return fmt.Errorf("%s: %d rounds over limit %d", op, got.Rounds, in.MaxRounds)
	}
	return nil
}

// slice reads [start][len] and cuts a 1..3 byte piece of word.
func slice(c *fuzzbytes.Cursor, word string) string {
	if word == "" {
		return "a"
	}
	start := c.Enum(len(word), 0)
	end := min(start+c.Range(1, 3), len(word))
	if s := word[start:end]; !strings.Contains(s, " ") {
		return s
	}
	return "a"
}

// [delta][packed...]. A successful delta decode must survive a re-encode.
func varintDecode(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	const op = "compress/varint_decode"
	in := pods.VarintDecodeIn{Delta: c.Bool(false), Packed: c.Rest()}
	out, err := pods.Run(x, op, in)
	if err != nil {
		return err
	}
	vals := out.(pods.VarintDecodeOut).Values
	if !in.Delta {
		return nil
	}
	again, err := pods.DeltaUnpack(pods.DeltaPack(vals))
	if err != nil {
		return fmt.Errorf("%s: re-encoded stream: %v", op, err)
	}
	if len(again) != len(vals) {
		return fmt.Errorf("%s: round trip gave %d values, want %d", op, len(again), len(vals))
	}
	for i := range vals {
		if again[i] != vals[i] {
			return fmt.Errorf("%s: value %d round-tripped %d -> %d", op, i, vals[i], again[i])
		}
	}
	return nil
}
