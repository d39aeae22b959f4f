package recommend

import (
	"context"
	"testing"

	"github.com/rushteam/learnpath/core"
	"github.com/rushteam/learnpath/pkg/utils"
)

func TestNewPolicy_InvalidExpression(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"syntax error", "score >="},
		{"unknown variable", "unknown_var > 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPolicy(tt.expr)
			if !core.IsConfiguration(err) {
				t.Errorf("NewPolicy(%q) error = %v, want CONFIGURATION_ERROR", tt.expr, err)
			}
		})
	}
}

func TestPolicy_Allow(t *testing.T) {
	sc := score(4, 42, 0.7)
	sc.PutLabel("rank_model", utils.Label{Value: "ridge", Source: "rank"})

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"score gate passes", "score >= 0.5", true},
		{"score gate rejects", "score >= 0.9", false},
		{"item exclusion", "item_id != 42", false},
		{"label match", `labels["rank_model"] == "ridge"`, true},
		{"user bucketing", "user_id % 2 == 0 ? score > 0.3 : true", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPolicy(tt.expr)
			if err != nil {
				t.Fatalf("NewPolicy(%q) error = %v", tt.expr, err)
			}
			got, err := p.Allow(sc)
			if err != nil {
				t.Fatalf("Allow() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Allow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolicy_NonBoolResult(t *testing.T) {
	p, err := NewPolicy("score + 1.0")
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	_, err = p.Allow(score(1, 2, 0.5))
	if !core.IsConfiguration(err) {
		t.Errorf("non-bool policy error = %v, want CONFIGURATION_ERROR", err)
	}
}

func TestSelector_PolicyFiltersBeforeThreshold(t *testing.T) {
	p, err := NewPolicy("item_id != 2")
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	sel := &Selector{TopK: 5, MinRelevance: 0.2, Policy: p}
	scores := []*core.RelevanceScore{
		score(0, 1, 0.5),
		score(0, 2, 0.9),
	}

	recs, err := sel.RecommendUser(context.Background(), 0, scores, nil)
	if err != nil {
		t.Fatalf("RecommendUser() error = %v", err)
	}
	if len(recs) != 1 || recs[0].ItemID != 1 {
		t.Errorf("got items %v, want [1]", itemIDs(recs))
	}
}
