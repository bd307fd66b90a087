package embedding

import "hash/fnv"

// BERT special tokens and vocabulary bound used by SimpleTokenizer.
const (
	tokenCLS  = 101
	tokenSEP  = 102
	vocabSize = 30000
)

// Tokenizer produces BERT-style model inputs.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// SimpleTokenizer maps each word to a hashed vocabulary ID. It stands in for a
// WordPiece vocabulary when only the model file is available.
type SimpleTokenizer struct{}

// Tokenize returns [CLS] words... [SEP] padded with zeros to maxTokens.
func (SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens < 2 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0], attentionMask[0] = tokenCLS, 1
	pos := 1
	for _, w := range Words(text) {
		if pos >= maxTokens-1 {
			break
		}
		h := fnv.New32a()
		h.Write([]byte(w))
		// Offset past the special-token range.
		inputIDs[pos] = int64(h.Sum32()%(vocabSize-1000)) + 1000
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos], attentionMask[pos] = tokenSEP, 1
	return inputIDs, attentionMask, tokenTypeIDs
}
