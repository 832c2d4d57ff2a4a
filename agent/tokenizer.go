package agent

import "github.com/tiktoken-go/tokenizer"

// Tokenizer estimates the token length of a text span, the abstraction
// compactPass needs to decide when to summarize. Generalized from the
// teacher's generators.BPETokenCounter/TokenCounter func-type abstraction
// (generators/count_tokens.go) into a named interface, since the Agent
// stores one as a struct field rather than a closure captured at
// construction time.
type Tokenizer interface {
	Count(text string) (int, error)
}

// bpeTokenizer wraps the teacher's tiktoken-go-backed BPE encoder
// (generators/count_tokens.go's BPETokenCounter), reused here as the
// default Tokenizer implementation instead of a hand-rolled estimator.
type bpeTokenizer struct {
	enc tokenizer.Codec
	err error
}

// NewBPETokenizer builds the default Tokenizer, grounded on the teacher's
// BPETokenCounter: an O200k-base tiktoken encoding. If the encoder fails to
// load, Count degrades to a byte/4 estimate rather than erroring every
// call, since compaction is advisory and should not block a Step on a
// tokenizer-loading failure.
func NewBPETokenizer() Tokenizer {
	enc, err := tokenizer.Get(tokenizer.O200kBase)
	return &bpeTokenizer{enc: enc, err: err}
}

func (b *bpeTokenizer) Count(text string) (int, error) {
	if b.err != nil {
		return len(text) / 4, nil
	}
	n, err := b.enc.Count(text)
	if err != nil {
		return len(text) / 4, nil
	}
	return n, nil
}
