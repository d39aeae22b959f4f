package simulate

import (
	"testing"
)

func TestRun_Deterministic(t *testing.T) {
	cfg := Config{NumUsers: 8, NumItems: 10, NumSkills: 4, StepsPerUser: 6, Seed: 42}

	_, _, first := Run(cfg)
	_, _, second := Run(cfg)

	if len(first) == 0 {
		t.Fatal("simulation produced no interactions")
	}
	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.UserID != b.UserID || a.ItemID != b.ItemID || a.Step != b.Step ||
			a.Success != b.Success || a.QuizScore != b.QuizScore || a.TimeSpent != b.TimeSpent {
			t.Fatalf("interaction %d differs: %+v vs %+v", i, a, b)
		}
	}
}

func TestRun_StepsStrictlyIncreasing(t *testing.T) {
	_, _, logs := Run(Config{NumUsers: 10, NumItems: 12, NumSkills: 5, StepsPerUser: 10, Seed: 7})

	lastStep := make(map[int64]int)
	for _, in := range logs {
		if prev, ok := lastStep[in.UserID]; ok && in.Step <= prev {
			t.Fatalf("user %d: step %d after %d", in.UserID, in.Step, prev)
		}
		lastStep[in.UserID] = in.Step
	}
}

func TestRun_ValidReferences(t *testing.T) {
	users, items, logs := Run(Config{NumUsers: 6, NumItems: 8, NumSkills: 3, StepsPerUser: 5, Seed: 1})

	for i, in := range logs {
		if _, ok := users[in.UserID]; !ok {
			t.Errorf("interaction %d references unknown user %d", i, in.UserID)
		}
		if _, ok := items[in.ItemID]; !ok {
			t.Errorf("interaction %d references unknown item %d", i, in.ItemID)
		}
		if in.QuizScore < 0 || in.QuizScore > 100 {
			t.Errorf("interaction %d quiz score %v out of range", i, in.QuizScore)
		}
		if in.TimeSpent < 1 {
			t.Errorf("interaction %d time spent %v below floor", i, in.TimeSpent)
		}
	}
}

func TestGenerateUsers(t *testing.T) {
	users := GenerateUsers(20, 5, 42)
	if len(users) != 20 {
		t.Fatalf("got %d users, want 20", len(users))
	}
	for id, u := range users {
		if len(u.Mastery) != 5 {
			t.Errorf("user %d has %d skills, want 5", id, len(u.Mastery))
		}
		for k, m := range u.Mastery {
			if m < 0 || m > 1 {
				t.Errorf("user %d mastery[%d] = %v out of [0,1]", id, k, m)
			}
		}
		if u.LearningRate < 0.05 || u.LearningRate > 0.3 {
			t.Errorf("user %d learning rate %v out of range", id, u.LearningRate)
		}
		if u.DifficultyTolerance < 0.5 || u.DifficultyTolerance > 1.5 {
			t.Errorf("user %d tolerance %v out of range", id, u.DifficultyTolerance)
		}
	}
}

func TestGenerateItems(t *testing.T) {
	items := GenerateItems(15, 6, 42)
	if len(items) != 15 {
		t.Fatalf("got %d items, want 15", len(items))
	}
	for id, it := range items {
		if it.Difficulty < 1 || it.Difficulty > 5 {
			t.Errorf("item %d difficulty %v out of range", id, it.Difficulty)
		}
		n := it.NumSkills()
		if n < 1 || n > 3 {
			t.Errorf("item %d has %d required skills, want 1-3", id, n)
		}
		if it.EstimatedTime < 5 {
			t.Errorf("item %d estimated time %v below floor", id, it.EstimatedTime)
		}
		for _, p := range it.Prerequisites {
			if p < 0 || p >= 6 {
				t.Errorf("item %d prerequisite %d out of range", id, p)
			}
		}
	}
}
