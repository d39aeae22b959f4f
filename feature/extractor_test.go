package feature

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/learnpath/core"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func testUser(id int64, mastery []float64, lr float64) *core.User {
	return &core.User{ID: id, Mastery: mastery, LearningRate: lr, DifficultyTolerance: 1}
}

func testItem(id int64, skills []float64, difficulty, estTime float64) *core.Item {
	return &core.Item{ID: id, Skills: skills, Difficulty: difficulty, EstimatedTime: estTime}
}

func TestExtractor_BuildRow(t *testing.T) {
	user := testUser(1, []float64{0.5, 0.9, 0.2}, 0.1)
	item := testItem(10, []float64{1, 0, 1}, 3, 30)

	fv := NewExtractor().BuildRow(user, item, NewAccumulator())

	// required skills are #0 and #2; neither reaches the 0.8 mastery threshold
	wantFeatures := map[string]float64{
		core.FeatureSkillGap:               ((1 - 0.5) + (1 - 0.2)) / 2,
		core.FeatureFractionSkillsMastered: 0,
		core.FeatureSkillMatch:             (0.5 + 0.2) / 2,
		core.FeatureDifficultyGap:          3 - (1.6/3)*5,
		core.FeatureDifficulty:             3,
		core.FeatureItemNumSkills:          2,
		core.FeatureEstimatedTime:          30,
	}
	for key, want := range wantFeatures {
		got, ok := fv.Features[key]
		if !ok {
			t.Fatalf("missing feature %q", key)
		}
		if !almostEqual(got, want) {
			t.Errorf("feature %q = %v, want %v", key, got, want)
		}
	}

	// every declared column must be present
	for _, col := range core.FeatureColumns() {
		if _, ok := fv.Features[col]; !ok {
			t.Errorf("missing feature column %q", col)
		}
	}
	if len(fv.Features) != len(core.FeatureColumns()) {
		t.Errorf("got %d features, want %d", len(fv.Features), len(core.FeatureColumns()))
	}
}

func TestExtractor_ColdStartDefaults(t *testing.T) {
	users := map[int64]*core.User{1: testUser(1, []float64{0.3}, 0.1)}
	items := map[int64]*core.Item{10: testItem(10, []float64{1}, 2, 20)}
	logs := []*core.Interaction{
		{UserID: 1, ItemID: 10, Step: 0, Success: true, QuizScore: 80, TimeSpent: 12},
	}

	vectors, _, err := NewExtractor().Process(context.Background(), users, items, logs)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// no history exists before the first interaction
	f := vectors[0].Features
	wantCold := map[string]float64{
		core.FeatureUserSuccessRate: core.ColdSuccessRate,
		core.FeatureUserAvgQuiz:     core.ColdQuizScore,
		core.FeatureUserAvgTime:     core.ColdTimeSpent,
		core.FeatureUserNumAttempts: 0,
		core.FeatureItemAvgSuccess:  core.ColdSuccessRate,
		core.FeatureItemAvgQuiz:     core.ColdQuizScore,
		core.FeatureItemAvgTime:     core.ColdTimeSpent,
	}
	for key, want := range wantCold {
		if got := f[key]; !almostEqual(got, want) {
			t.Errorf("cold feature %q = %v, want %v", key, got, want)
		}
	}
}

func TestExtractor_NoLeakage(t *testing.T) {
	users := map[int64]*core.User{1: testUser(1, []float64{0.3}, 0.1)}
	items := map[int64]*core.Item{10: testItem(10, []float64{1}, 2, 20)}
	logs := []*core.Interaction{
		{UserID: 1, ItemID: 10, Step: 0, Success: true, QuizScore: 80, TimeSpent: 12},
		{UserID: 1, ItemID: 10, Step: 1, Success: false, QuizScore: 40, TimeSpent: 20},
		{UserID: 1, ItemID: 10, Step: 2, Success: true, QuizScore: 60, TimeSpent: 10},
	}

	vectors, acc, err := NewExtractor().Process(context.Background(), users, items, logs)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(vectors) != len(logs) {
		t.Fatalf("got %d vectors, want %d", len(vectors), len(logs))
	}

	// row 2 must only see row 1: one attempt, one success, quiz 80, time 12
	f := vectors[1].Features
	if got := f[core.FeatureUserNumAttempts]; got != 1 {
		t.Errorf("row 1 user_num_attempts = %v, want 1", got)
	}
	if got := f[core.FeatureUserSuccessRate]; !almostEqual(got, 1) {
		t.Errorf("row 1 user_success_rate = %v, want 1", got)
	}
	if got := f[core.FeatureUserAvgQuiz]; !almostEqual(got, 80) {
		t.Errorf("row 1 user_avg_quiz = %v, want 80", got)
	}
	if got := f[core.FeatureItemAvgTime]; !almostEqual(got, 12) {
		t.Errorf("row 1 item_avg_time = %v, want 12", got)
	}

	// row 3 sees rows 1-2: success rate 1/2, avg quiz 60
	f = vectors[2].Features
	if got := f[core.FeatureUserNumAttempts]; got != 2 {
		t.Errorf("row 2 user_num_attempts = %v, want 2", got)
	}
	if got := f[core.FeatureUserSuccessRate]; !almostEqual(got, 0.5) {
		t.Errorf("row 2 user_success_rate = %v, want 0.5", got)
	}
	if got := f[core.FeatureUserAvgQuiz]; !almostEqual(got, 60) {
		t.Errorf("row 2 user_avg_quiz = %v, want 60", got)
	}

	// the returned accumulator covers the full log
	if got := acc.UserAttempts(1); got != 3 {
		t.Errorf("final UserAttempts = %d, want 3", got)
	}
}

func TestExtractor_RowOrderPreserved(t *testing.T) {
	users := map[int64]*core.User{
		1: testUser(1, []float64{0.3}, 0.1),
		2: testUser(2, []float64{0.7}, 0.2),
	}
	items := map[int64]*core.Item{
		10: testItem(10, []float64{1}, 2, 20),
		11: testItem(11, []float64{1}, 3, 30),
	}
	logs := []*core.Interaction{
		{UserID: 1, ItemID: 10, Step: 0, Success: true, QuizScore: 70},
		{UserID: 2, ItemID: 11, Step: 0, Success: false, QuizScore: 30},
		{UserID: 1, ItemID: 11, Step: 1, Success: true, QuizScore: 90},
	}

	vectors, _, err := NewExtractor().Process(context.Background(), users, items, logs)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(vectors) != len(logs) {
		t.Fatalf("got %d vectors, want %d", len(vectors), len(logs))
	}
	for i, fv := range vectors {
		if fv.UserID != logs[i].UserID || fv.ItemID != logs[i].ItemID {
			t.Errorf("row %d = (%d,%d), want (%d,%d)",
				i, fv.UserID, fv.ItemID, logs[i].UserID, logs[i].ItemID)
		}
	}
}

func TestExtractor_RelevanceLabel(t *testing.T) {
	user := testUser(1, []float64{0.4, 0.6}, 0.2)
	item := testItem(10, []float64{1, 1}, 3, 25)
	users := map[int64]*core.User{1: user}
	items := map[int64]*core.Item{10: item}

	tests := []struct {
		name string
		in   *core.Interaction
		want float64
	}{
		{
			name: "success earns skill gain",
			in:   &core.Interaction{UserID: 1, ItemID: 10, Step: 0, Success: true, QuizScore: 80},
			want: 0.5*(0.2*((0.6+0.4)/2)) +
				0.3*math.Exp(-math.Abs(3-(0.5*5+1))) +
				0.2*(0.6*1+0.4*0.8),
		},
		{
			name: "failure drops skill gain term",
			in:   &core.Interaction{UserID: 1, ItemID: 10, Step: 0, Success: false, QuizScore: 40},
			want: 0.3*math.Exp(-math.Abs(3-(0.5*5+1))) +
				0.2*(0.4*0.4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vectors, _, err := NewExtractor().Process(
				context.Background(), users, items, []*core.Interaction{tt.in})
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if got := vectors[0].Label; !almostEqual(got, tt.want) {
				t.Errorf("label = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractor_RejectsBadInput(t *testing.T) {
	users := map[int64]*core.User{1: testUser(1, []float64{0.3}, 0.1)}
	items := map[int64]*core.Item{10: testItem(10, []float64{1}, 2, 20)}

	tests := []struct {
		name string
		logs []*core.Interaction
	}{
		{
			name: "step not increasing",
			logs: []*core.Interaction{
				{UserID: 1, ItemID: 10, Step: 1},
				{UserID: 1, ItemID: 10, Step: 1},
			},
		},
		{
			name: "step decreasing",
			logs: []*core.Interaction{
				{UserID: 1, ItemID: 10, Step: 2},
				{UserID: 1, ItemID: 10, Step: 0},
			},
		},
		{
			name: "nil interaction",
			logs: []*core.Interaction{nil},
		},
		{
			name: "unknown user",
			logs: []*core.Interaction{{UserID: 99, ItemID: 10, Step: 0}},
		},
		{
			name: "unknown item",
			logs: []*core.Interaction{{UserID: 1, ItemID: 99, Step: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewExtractor().Process(context.Background(), users, items, tt.logs)
			if err == nil {
				t.Fatal("Process() expected error, got nil")
			}
			if !core.IsDataIntegrity(err) {
				t.Errorf("error code = %v, want DATA_INTEGRITY_ERROR", err)
			}
		})
	}
}

func TestStaticUserLoader(t *testing.T) {
	loader := &StaticUserLoader{Users: map[int64]*core.User{
		1: testUser(1, []float64{0.5}, 0.1),
	}}

	got, err := loader.LoadUsers(context.Background(), []int64{1}, 1)
	if err != nil {
		t.Fatalf("LoadUsers() error = %v", err)
	}
	if len(got) != 1 || got[1] == nil {
		t.Fatalf("LoadUsers() = %v, want user 1", got)
	}

	if _, err := loader.LoadUsers(context.Background(), []int64{2}, 1); !core.IsNotFound(err) {
		t.Errorf("missing user error = %v, want NOT_FOUND", err)
	}
}
