package feature

import "github.com/rushteam/learnpath/core"

// entityStats 是单个实体（用户或物品）的运行时历史聚合。
// 只保存可增量更新的量（次数与求和），均值按需计算。
type entityStats struct {
	attempts  int
	successes int
	quizSum   float64
	timeSum   float64
}

// observe 把一条交互折叠进聚合。必须在读取该行特征之后调用（先读后写）。
func (s *entityStats) observe(in *core.Interaction) {
	s.attempts++
	if in.Success {
		s.successes++
	}
	s.quizSum += in.QuizScore
	s.timeSum += in.TimeSpent
}

// 无历史时返回冷启动默认值，而不是 NaN。
func (s *entityStats) successRate() float64 {
	if s.attempts == 0 {
		return core.ColdSuccessRate
	}
	return float64(s.successes) / float64(s.attempts)
}

func (s *entityStats) avgQuiz() float64 {
	if s.attempts == 0 {
		return core.ColdQuizScore
	}
	return s.quizSum / float64(s.attempts)
}

func (s *entityStats) avgTime() float64 {
	if s.attempts == 0 {
		return core.ColdTimeSpent
	}
	return s.timeSum / float64(s.attempts)
}

// Accumulator 是特征抽取的显式运行状态：按实体 id 维护历史聚合。
//
// 它取代了"全局可变聚合"的做法：状态随遍历显式传递，
// 每个实体的聚合严格按交互顺序、先读后写地更新。
// 遍历结束后的 Accumulator 可以冻结下来，为任意 (user, item) 对
// 构造"截至日志末尾"的特征行（见 Extractor.BuildRow）。
type Accumulator struct {
	users map[int64]*entityStats
	items map[int64]*entityStats
}

// NewAccumulator 创建空的历史聚合状态。
func NewAccumulator() *Accumulator {
	return &Accumulator{
		users: make(map[int64]*entityStats),
		items: make(map[int64]*entityStats),
	}
}

func (a *Accumulator) userStats(id int64) *entityStats {
	s, ok := a.users[id]
	if !ok {
		s = &entityStats{}
		a.users[id] = s
	}
	return s
}

func (a *Accumulator) itemStats(id int64) *entityStats {
	s, ok := a.items[id]
	if !ok {
		s = &entityStats{}
		a.items[id] = s
	}
	return s
}

// Observe 把一条交互折叠进用户侧与物品侧聚合。
func (a *Accumulator) Observe(in *core.Interaction) {
	a.userStats(in.UserID).observe(in)
	a.itemStats(in.ItemID).observe(in)
}

// UserAttempts 返回某用户已累积的交互次数。
func (a *Accumulator) UserAttempts(id int64) int {
	if s, ok := a.users[id]; ok {
		return s.attempts
	}
	return 0
}
