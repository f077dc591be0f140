package pods

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// BPEMergeIn applies ranked byte-pair merges to one word. Merges are "a b"
// rules; a rule's rank is its index.
type BPEMergeIn struct {
	Word      string
	Merges    []string
	Vocab     map[string]int32 // optional; enables id lookup with <0xHH> byte fallback
	MaxRounds int              // 0 means unbounded
}
type BPEMergeOut struct {
	Tokens []string
	IDs    []int32
	Rounds int
}

type BPEMergePod struct{}

func (BPEMergePod) Name() string { return "text/bpe_merge" }

func (BPEMergePod) Run(x *ExecContext, in any) (any, error) {
	const op = "text/bpe_merge"
	a, ok := in.(BPEMergeIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	if a.MaxRounds < 0 {
		return nil, opErr(op, ErrInvalidArgument, "max rounds %d", a.MaxRounds)
	}
	type pair struct{ first, second string }
	ranks := make(map[pair]int, len(a.Merges))
	for i, m := range a.Merges {
		first, second, ok := strings.Cut(m, " ")
		if !ok || first == "" || second == "" || strings.Contains(second, " ") {
			return nil, opErr(op, ErrInvalidArgument, "merge %d %q is not a pair", i, m)
		}
		if _, dup := ranks[pair{first, second}]; !dup {
			ranks[pair{first, second}] = i
		}
	}

	tokens := splitSymbols(a.Word)
	rounds := 0
	for len(tokens) > 1 && (a.MaxRounds == 0 || rounds < a.MaxRounds) {
		if err := x.Err(); err != nil {
			return nil, err
		}
		best, bestRank := pair{}, -1
		for i := 0; i+1 < len(tokens); i++ {
			p := pair{tokens[i], tokens[i+1]}
			if r, ok := ranks[p]; ok && (bestRank < 0 || r < bestRank) {
				best, bestRank = p, r
			}
		}
		if bestRank < 0 {
			break
		}
		merged := tokens[:0:0]
		for i := 0; i < len(tokens); i++ {
			if i+1 < len(tokens) && tokens[i] == best.first && tokens[i+1] == best.second {
				merged = append(merged, best.first+best.second)
				i++
				continue
			}
			merged = append(merged, tokens[i])
		}
		tokens = merged
		rounds++
	}

	out := BPEMergeOut{Tokens: tokens, Rounds: rounds}
	if a.Vocab != nil {
		for _, tok := range tokens {
			if id, ok := a.Vocab[tok]; ok {
				out.IDs = append(out.IDs, id)
				continue
			}
			for _, b := range []byte(tok) {
				if id, ok := a.Vocab[fmt.Sprintf("<0x%02X>", b)]; ok {
					out.IDs = append(out.IDs, id)
				}
			}
		}
	}
	return out, nil
}

// splitSymbols splits s into runes; invalid UTF-8 bytes become one-byte symbols.
func splitSymbols(s string) []string {
	out := make([]string, 0, len(s))
	for len(s) > 0 {
		_, size := utf8.DecodeRuneInString(s)
		out = append(out, s[:size])
		s = s[size:]
	}
	return out
}
