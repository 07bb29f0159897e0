package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// mockDimensions matches text-embedding-3-small so mock and real vectors
// are interchangeable in the store schema.
const mockDimensions = 1536

// MockClient produces deterministic embeddings derived from a hash of the
// input text. Identical texts embed identically, which is all the
// similarity lookup needs in tests and offline runs.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, mockDimensions)
	seed := sha256.Sum256([]byte(text))

	var norm float64
	for i := range vec {
		var buf [12]byte
		copy(buf[:8], seed[(i%3)*8:(i%3)*8+8])
		binary.LittleEndian.PutUint32(buf[8:], uint32(i))
		h := sha256.Sum256(buf[:])
		v := float32(int32(binary.LittleEndian.Uint32(h[:4]))) / float32(math.MaxInt32)
		vec[i] = v
		norm += float64(v) * float64(v)
	}

	// Unit-normalize so cosine distance behaves.
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}
