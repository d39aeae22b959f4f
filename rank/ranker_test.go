package rank

import (
	"context"
	"testing"

	"github.com/rushteam/learnpath/core"
	"github.com/rushteam/learnpath/model"
)

func trainingVectors(n int) []*core.FeatureVector {
	vectors := make([]*core.FeatureVector, 0, n)
	for i := 0; i < n; i++ {
		fv := core.NewFeatureVector(int64(i%4), int64(i%7))
		fv.Features["a"] = float64(i)
		fv.Features["b"] = float64(i % 3)
		fv.Label = 0.1*float64(i) + 0.05*float64(i%3)
		vectors = append(vectors, fv)
	}
	return vectors
}

func newFittedRanker(t *testing.T) (*Ranker, []*core.FeatureVector) {
	t.Helper()
	m, err := model.New(model.TypeRidge, model.Config{Columns: []string{"a", "b"}, Lambda: 1e-6})
	if err != nil {
		t.Fatalf("model.New() error = %v", err)
	}
	r := NewRanker(m)
	vectors := trainingVectors(20)
	if err := r.Fit(vectors); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	return r, vectors
}

func TestRanker_ScorePreservesOrder(t *testing.T) {
	r, vectors := newFittedRanker(t)

	scores, err := r.Score(context.Background(), vectors)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(scores) != len(vectors) {
		t.Fatalf("got %d scores, want %d", len(scores), len(vectors))
	}
	for i, sc := range scores {
		if sc.UserID != vectors[i].UserID || sc.ItemID != vectors[i].ItemID {
			t.Errorf("row %d = (%d,%d), want (%d,%d)",
				i, sc.UserID, sc.ItemID, vectors[i].UserID, vectors[i].ItemID)
		}
		lbl, ok := sc.Labels["rank_model"]
		if !ok || lbl.Value != "ridge" {
			t.Errorf("row %d rank_model label = %+v, want ridge", i, sc.Labels)
		}
	}
}

func TestRanker_ConcurrencyDoesNotChangeOutput(t *testing.T) {
	r, vectors := newFittedRanker(t)

	r.MaxConcurrent = 0
	sequential, err := r.Score(context.Background(), vectors)
	if err != nil {
		t.Fatalf("sequential Score() error = %v", err)
	}

	r.MaxConcurrent = 8
	parallel, err := r.Score(context.Background(), vectors)
	if err != nil {
		t.Fatalf("parallel Score() error = %v", err)
	}

	for i := range sequential {
		if sequential[i].Score != parallel[i].Score {
			t.Errorf("row %d: sequential %v, parallel %v",
				i, sequential[i].Score, parallel[i].Score)
		}
	}
}

func TestRanker_ScoreFailsWholeBatch(t *testing.T) {
	r, vectors := newFittedRanker(t)

	bad := core.NewFeatureVector(1, 2)
	bad.Features["a"] = 1 // column b missing
	vectors = append(vectors, bad)

	if _, err := r.Score(context.Background(), vectors); err == nil {
		t.Fatal("Score() expected error for missing column")
	} else if !core.IsConfiguration(err) {
		t.Errorf("error = %v, want CONFIGURATION_ERROR", err)
	}
}

func TestRanker_ScoreBeforeFit(t *testing.T) {
	m, _ := model.New(model.TypeRandomForest, model.Config{Columns: []string{"a", "b"}})
	r := NewRanker(m)

	_, err := r.Score(context.Background(), trainingVectors(3))
	if !core.IsModelUnavailable(err) {
		t.Errorf("error = %v, want MODEL_UNAVAILABLE", err)
	}
}
