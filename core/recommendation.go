package core

import "github.com/rushteam/learnpath/pkg/utils"

// RelevanceScore 是排序模型对一个 (user, item) 对的打分结果。
//
// Score 预期落在 [0,1]，但模型可能产出越界值；是否截断由调用方策略决定，
// 打分阶段本身不做截断。Labels 记录打分来源，便于 explain / 观测。
type RelevanceScore struct {
	UserID int64
	ItemID int64
	Score  float64
	Labels map[string]utils.Label
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (s *RelevanceScore) PutLabel(key string, lbl utils.Label) {
	if s.Labels == nil {
		s.Labels = make(map[string]utils.Label)
	}
	if old, ok := s.Labels[key]; ok {
		s.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	s.Labels[key] = lbl
}

// Recommendation 是最终推荐条目：派生实体，每次 Pipeline 运行重算，
// 只是打分结果的投影，从不作为事实来源持久化。
type Recommendation struct {
	UserID int64   `json:"user_id"`
	ItemID int64   `json:"item_id"`
	Score  float64 `json:"relevance_score"`

	// Rank 在该用户的列表内从 1 开始
	Rank int `json:"rank"`
}
