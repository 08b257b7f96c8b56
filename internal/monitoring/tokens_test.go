package monitoring

import "testing"

func TestHeuristicTokens(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		expected int
	}{
		{"zero", 0, 0},
		{"below ratio", 3, 1},
		{"exact ratio", 4, 1},
		{"rounds up", 5, 2},
		{"larger payload", 4000, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := heuristicTokens(tt.n); got != tt.expected {
				t.Errorf("heuristicTokens(%d) = %d, want %d", tt.n, got, tt.expected)
			}
		})
	}
}

func TestTokenEstimator_ZeroValueUsesHeuristic(t *testing.T) {
	var e TokenEstimator

	payload := []byte(`{"model":"gpt-4","messages":[{"role":"user","content":"hi"}]}`)
	want := heuristicTokens(len(payload))

	if got := e.Estimate(payload); got != want {
		t.Errorf("Estimate = %d, want heuristic %d", got, want)
	}
	if got := e.Estimate(nil); got != 0 {
		t.Errorf("Estimate(nil) = %d, want 0", got)
	}
}
