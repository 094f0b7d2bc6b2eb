package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/poiesic/groundit/ai"
	"github.com/stretchr/testify/assert"
)

func TestEmbedder_ConcurrentCalls(t *testing.T) {
	m := NewEmbedder()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.EmbedDocument(context.Background(), "text")
			assert.NoError(t, err)
			_, err = m.EmbedQuery(context.Background(), "text")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 64, m.CallCount())
}

func TestGenerator_ConcurrentStreams(t *testing.T) {
	g := NewGenerator("a", "b")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			answer, err := g.Stream(context.Background(), ai.GenerationRequest{Query: "q"}, nil)
			assert.NoError(t, err)
			assert.Equal(t, "ab", answer)
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, g.CallCount())
	assert.Equal(t, "q", g.LastRequest().Query)
}
