package tool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr     string
		expected float64
	}{
		{"2+2", 4},
		{"(3 + 4) * 2", 14},
		{"10 / 4", 2.5},
		{"7 - 10", -3},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			v, err := Evaluate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, v, 1e-9)
		})
	}

	t.Run("rejects bad input", func(t *testing.T) {
		for _, in := range []string{"", "   ", "foo + 1", "2 +", "1/0", "pi > 3"} {
			_, err := Evaluate(in)
			assert.Error(t, err, in)
		}
	})
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "4", FormatNumber(4))
	assert.Equal(t, "2.5", FormatNumber(2.5))
	assert.Equal(t, "-3", FormatNumber(-3))
}

func TestCalculatorTool(t *testing.T) {
	r := NewRegistry().Add(Calculator())

	out, err := r.Invoke(context.Background(), "calculate", map[string]any{"expression": "2+2"})
	require.NoError(t, err)
	assert.Equal(t, "2+2 = 4", out)

	_, err = r.Invoke(context.Background(), "calculate", map[string]any{"expression": "nope("})
	assert.ErrorIs(t, err, ErrExecution)
}

func TestSimulatedTools(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry().Add(Weather(), StockPrice())

	t.Run("weather", func(t *testing.T) {
		out, err := r.Invoke(ctx, "get_weather", map[string]any{"location": "Seoul"})
		require.NoError(t, err)
		assert.Contains(t, out, "Seoul")
	})

	t.Run("known stocks", func(t *testing.T) {
		tests := map[string]string{
			"AAPL":  "$150",
			"googl": "$2800",
			" TSLA ": "$700",
		}
		for symbol, want := range tests {
			out, err := r.Invoke(ctx, "get_stock_price", map[string]any{"symbol": symbol})
			require.NoError(t, err)
			assert.Contains(t, out, want)
		}
	})

	t.Run("unknown stock", func(t *testing.T) {
		out, err := r.Invoke(ctx, "get_stock_price", map[string]any{"symbol": "MSFT"})
		require.NoError(t, err)
		assert.Contains(t, out, "unknown symbol")
	})
}

func TestWebSearch(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		_, err := WebSearch(SearchConfig{})
		assert.Error(t, err)
	})

	t.Run("queries the search api", func(t *testing.T) {
		var got searchRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"results":[
				{"title":"Go","url":"https://go.dev","content":"The Go language"},
				{"title":"Tour","url":"https://go.dev/tour","content":"A tour of Go"}
			]}`))
		}))
		defer srv.Close()

		d, err := WebSearch(SearchConfig{APIKey: "test-key", BaseURL: srv.URL, Client: srv.Client()})
		require.NoError(t, err)

		out, err := NewRegistry().Add(d).Invoke(context.Background(), "web_search", map[string]any{"query": "golang", "max_results": 2})
		require.NoError(t, err)

		assert.Equal(t, "golang", got.Query)
		assert.Equal(t, 2, got.MaxResults)
		assert.True(t, strings.HasPrefix(out, "1. Go"))
		assert.Contains(t, out, "https://go.dev/tour")
	})

	t.Run("surfaces api failures", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad key", http.StatusUnauthorized)
		}))
		defer srv.Close()

		d, err := WebSearch(SearchConfig{APIKey: "k", BaseURL: srv.URL, Client: srv.Client()})
		require.NoError(t, err)

		_, err = NewRegistry().Add(d).Invoke(context.Background(), "web_search", map[string]any{"query": "x"})
		assert.ErrorIs(t, err, ErrExecution)
		assert.Contains(t, err.Error(), "401")
	})
}
