package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// MockClient produces deterministic L2-normalized vectors derived from the
// input text. Identical texts embed identically; different texts almost
// certainly do not. Useful for tests and offline development.
type MockClient struct {
	EmbedError error

	// Call tracking for assertions
	EmbedCalls []string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	c.EmbedCalls = append(c.EmbedCalls, text)
	if c.EmbedError != nil {
		return nil, c.EmbedError
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, Dimensions)
	var norm float64
	for i := range vec {
		// xorshift64 keeps the sequence deterministic per seed
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v := float64(int64(seed%2000)-1000) / 1000.0
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec, nil
}
