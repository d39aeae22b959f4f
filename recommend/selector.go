package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/rushteam/learnpath/core"
)

// Selector 把整批打分结果变成每个用户一份紧凑的、按策略过滤的有序推荐列表。
//
// 每个用户的算法：
//  1. 收集该用户的全部打分对（同一 (user,item) 出现多次时保留最后一次）
//  2. ExcludeSeen 为真时，剔除用户在源日志中交互过的物品
//  3. 过滤掉 score < MinRelevance 的对（可选的 Policy 表达式在阈值之前生效）
//  4. 按 score 降序排序，同分按 item id 升序，平手规则必须确定，
//     否则输出不可复现
//  5. 取前 TopK，按序赋 rank 1..len
//
// 批量保证：输入中出现过的每个用户都出现在输出里（可能是空列表），
// 调用方只需要判断"列表是否为空"，不需要判断"键是否存在"。
// 过滤掉一行（没过阈值、已读排除）是正常分支，不是错误。
type Selector struct {
	// TopK 是每个用户最多返回的条数，默认 core.DefaultTopK
	TopK int

	// MinRelevance 是最低相关度阈值，默认 core.DefaultMinRelevance
	MinRelevance float64

	// ExcludeSeen 为真时剔除用户已交互过的物品，默认 false
	ExcludeSeen bool

	// Policy 是可选的 CEL 选择策略，为 nil 时不启用
	Policy *Policy
}

// NewSelector 创建使用默认参数的选择器。
func NewSelector() *Selector {
	return &Selector{
		TopK:         core.DefaultTopK,
		MinRelevance: core.DefaultMinRelevance,
	}
}

// SeenItems 从交互日志构造每个用户的已读物品集合。
func SeenItems(logs []*core.Interaction) map[int64]map[int64]bool {
	seen := make(map[int64]map[int64]bool)
	for _, in := range logs {
		if in == nil {
			continue
		}
		s, ok := seen[in.UserID]
		if !ok {
			s = make(map[int64]bool)
			seen[in.UserID] = s
		}
		s[in.ItemID] = true
	}
	return seen
}

// RecommendBatch 为打分结果中出现的全部用户生成推荐。
func (s *Selector) RecommendBatch(
	ctx context.Context,
	scores []*core.RelevanceScore,
	seen map[int64]map[int64]bool,
) (map[int64][]*core.Recommendation, error) {
	// 按用户分组，同一 (user,item) 保留最后一次打分
	byUser := make(map[int64]map[int64]*core.RelevanceScore)
	for _, sc := range scores {
		if sc == nil {
			continue
		}
		m, ok := byUser[sc.UserID]
		if !ok {
			m = make(map[int64]*core.RelevanceScore)
			byUser[sc.UserID] = m
		}
		m[sc.ItemID] = sc
	}

	out := make(map[int64][]*core.Recommendation, len(byUser))
	for userID, pairs := range byUser {
		recs, err := s.selectForUser(userID, pairs, seen[userID])
		if err != nil {
			return nil, err
		}
		out[userID] = recs
	}
	return out, nil
}

// RecommendUser 为单个用户生成推荐。
// 该用户没有任何打分对时返回 NOT_FOUND（服务层可恢复，报告为"无推荐"）。
func (s *Selector) RecommendUser(
	ctx context.Context,
	userID int64,
	scores []*core.RelevanceScore,
	seen map[int64]map[int64]bool,
) ([]*core.Recommendation, error) {
	pairs := make(map[int64]*core.RelevanceScore)
	for _, sc := range scores {
		if sc != nil && sc.UserID == userID {
			pairs[sc.ItemID] = sc
		}
	}
	if len(pairs) == 0 {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeNotFound,
			fmt.Sprintf("recommend: no scored pairs for user %d", userID))
	}
	return s.selectForUser(userID, pairs, seen[userID])
}

func (s *Selector) selectForUser(
	userID int64,
	pairs map[int64]*core.RelevanceScore,
	seen map[int64]bool,
) ([]*core.Recommendation, error) {
	topK := s.TopK
	if topK <= 0 {
		topK = core.DefaultTopK
	}

	candidates := make([]*core.RelevanceScore, 0, len(pairs))
	for itemID, sc := range pairs {
		if s.ExcludeSeen && seen[itemID] {
			continue
		}
		if s.Policy != nil {
			ok, err := s.Policy.Allow(sc)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		if sc.Score < s.MinRelevance {
			continue
		}
		candidates = append(candidates, sc)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ItemID < candidates[j].ItemID
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	recs := make([]*core.Recommendation, len(candidates))
	for i, sc := range candidates {
		recs[i] = &core.Recommendation{
			UserID: userID,
			ItemID: sc.ItemID,
			Score:  sc.Score,
			Rank:   i + 1,
		}
	}
	return recs, nil
}
