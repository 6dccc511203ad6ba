package interview

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "empty text",
			text:     "",
			expected: []string{},
		},
		{
			name:     "stopwords and short words dropped",
			text:     "Can you tell me about the API you used?",
			expected: []string{"api"},
		},
		{
			name:     "frequency times length ranking",
			text:     "Redis cache, redis cluster and redis sentinel",
			expected: []string{"redis", "sentinel", "cluster", "cache"},
		},
		{
			name:     "ties broken by first occurrence",
			text:     "kafka queue topic",
			expected: []string{"kafka", "queue", "topic"},
		},
		{
			name:     "language names keep their symbols",
			text:     "Explain templates in C++ versus generics in C# and Go",
			expected: []string{"templates", "generics", "versus", "c++", "c#"},
		},
		{
			name:     "leading symbols and bare symbols dropped",
			text:     "#kafka + ## ++",
			expected: []string{"kafka"},
		},
		{
			name:     "case insensitive dedup",
			text:     "Docker docker DOCKER",
			expected: []string{"docker"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractKeywords(tt.text))
		})
	}
}

func TestExtractKeywordsBoundedAndDeterministic(t *testing.T) {
	text := "postgres kubernetes terraform prometheus grafana jenkins ansible elasticsearch rabbitmq cassandra"

	first := ExtractKeywords(text)
	require.Len(t, first, maxKeywords)
	assert.Equal(t, first, ExtractKeywords(text))
	assert.Equal(t, lo.Uniq(first), first)
	assert.Equal(t, "elasticsearch", first[0])
}

func TestRecentTopics(t *testing.T) {
	history := []QA{
		{Question: "Describe the payment service architecture you built"},
		{Question: "How did the payment service handle retries and idempotency?"},
		{Question: "What monitoring did you add to the payment pipeline?"},
	}

	t.Run("window bounds picks and removes duplicates", func(t *testing.T) {
		for window := 1; window <= 5; window++ {
			topics := RecentTopics(history, window)
			assert.LessOrEqual(t, len(topics), topicsPerQuestion*window)
			assert.Equal(t, lo.Uniq(topics), topics)
		}
	})

	t.Run("only the last window questions count", func(t *testing.T) {
		topics := RecentTopics(history, 1)
		assert.Contains(t, topics, "monitoring")
		assert.NotContains(t, topics, "architecture")
	})

	t.Run("non positive window", func(t *testing.T) {
		assert.Empty(t, RecentTopics(history, 0))
	})

	t.Run("window larger than history", func(t *testing.T) {
		assert.Equal(t, RecentTopics(history, 3), RecentTopics(history, 10))
	})
}

func TestMemoryAddQA(t *testing.T) {
	m := NewMemory()
	m.AddQA("What is a goroutine?", "A lightweight thread")
	m.AddQA("What is a goroutine?", "A function running concurrently, scheduled by the runtime")
	m.AddQA("What is a channel?", "A typed conduit")

	pairs := m.Pairs()
	require.Len(t, pairs, 2)
	require.NotNil(t, pairs[0].Answer)
	assert.Equal(t, "A function running concurrently, scheduled by the runtime", *pairs[0].Answer)

	topics := m.CoveredTopics()
	assert.Contains(t, topics, "conduit")
	assert.NotContains(t, topics, "lightweight")
}
