package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/rushteam/learnpath/core"
	"github.com/rushteam/learnpath/feature"
	"github.com/rushteam/learnpath/model"
	"github.com/rushteam/learnpath/rank"
	"github.com/rushteam/learnpath/recommend"
)

// State 是 Pipeline 的阶段状态。
type State string

const (
	StateUninitialized        State = "uninitialized"
	StateFeaturesReady        State = "features_ready"
	StateModelTrained         State = "model_trained"
	StateScored               State = "scored"
	StateRecommendationsReady State = "recommendations_ready"
)

// Pipeline 串联三个阶段并在阶段间传递数据：
//
//	users + items + logs → 特征抽取 → 特征行
//	特征行 → 排序模型（fit 后 predict，或已加载模型直接 predict）→ 相关度分数
//	相关度分数 → 推荐选择 → 每用户 Top-K 列表 + 汇总元数据
//
// 任何阶段都可以重新进入（重新调用对应方法即可），但推荐选择要求
// 分数来自当前这份特征行：特征重抽取后旧分数作废，跨特征集复用
// 旧分数会报 CONFIGURATION_ERROR，而不是静默用错。
type Pipeline struct {
	Extractor *feature.Extractor
	Ranker    *rank.Ranker
	Selector  *recommend.Selector

	// PredictOnly 为真时 Run 跳过训练（模型已通过 Bundle 加载）
	PredictOnly bool

	state State

	users map[int64]*core.User
	items map[int64]*core.Item
	logs  []*core.Interaction

	vectors []*core.FeatureVector
	history *feature.Accumulator
	scores  []*core.RelevanceScore
	recs    map[int64][]*core.Recommendation

	// 代数标记：保证分数与特征行属于同一次抽取
	featGen  int
	scoreGen int
	recGen   int
}

// New 创建使用给定模型与默认选择参数的 Pipeline。
func New(m model.RankingModel) *Pipeline {
	return &Pipeline{
		Extractor: feature.NewExtractor(),
		Ranker:    rank.NewRanker(m),
		Selector:  recommend.NewSelector(),
		state:     StateUninitialized,
	}
}

// NewPretrained 创建使用已加载模型的 Pipeline，Run 时只预测不训练。
func NewPretrained(m model.RankingModel) *Pipeline {
	p := New(m)
	p.PredictOnly = true
	return p
}

// State 返回当前阶段状态。
func (p *Pipeline) State() State { return p.state }

// ExtractFeatures 执行特征抽取阶段。
func (p *Pipeline) ExtractFeatures(
	ctx context.Context,
	users map[int64]*core.User,
	items map[int64]*core.Item,
	logs []*core.Interaction,
) error {
	vectors, hist, err := p.Extractor.Process(ctx, users, items, logs)
	if err != nil {
		return err
	}
	p.users, p.items, p.logs = users, items, logs
	p.vectors, p.history = vectors, hist
	p.featGen++
	p.state = StateFeaturesReady
	return nil
}

// Train 在当前特征行上训练模型。
func (p *Pipeline) Train() error {
	if p.vectors == nil {
		return core.NewDomainError(core.ModulePipeline, core.ErrorCodeConfiguration,
			"pipeline: no features extracted, call ExtractFeatures first")
	}
	if err := p.Ranker.Fit(p.vectors); err != nil {
		return err
	}
	p.state = StateModelTrained
	return nil
}

// ScoreAll 对当前特征行批量打分。要求模型已训练或已加载，
// 否则由模型层报 MODEL_UNAVAILABLE。
func (p *Pipeline) ScoreAll(ctx context.Context) error {
	if p.vectors == nil {
		return core.NewDomainError(core.ModulePipeline, core.ErrorCodeConfiguration,
			"pipeline: no features extracted, call ExtractFeatures first")
	}
	scores, err := p.Ranker.Score(ctx, p.vectors)
	if err != nil {
		return err
	}
	p.scores = scores
	p.scoreGen = p.featGen
	p.state = StateScored
	return nil
}

// Recommend 在当前分数上执行推荐选择。
func (p *Pipeline) Recommend(ctx context.Context) error {
	if p.scores == nil {
		return core.NewDomainError(core.ModulePipeline, core.ErrorCodeConfiguration,
			"pipeline: no scores computed, call ScoreAll first")
	}
	if p.scoreGen != p.featGen {
		return core.NewDomainError(core.ModulePipeline, core.ErrorCodeConfiguration,
			"pipeline: scores are stale, re-run ScoreAll after re-extracting features")
	}

	var seen map[int64]map[int64]bool
	if p.Selector.ExcludeSeen {
		seen = recommend.SeenItems(p.logs)
	}
	recs, err := p.Selector.RecommendBatch(ctx, p.scores, seen)
	if err != nil {
		return err
	}
	p.recs = recs
	p.recGen = p.scoreGen
	p.state = StateRecommendationsReady
	return nil
}

// Run 顺序执行全部阶段并返回推荐与元数据。
func (p *Pipeline) Run(
	ctx context.Context,
	users map[int64]*core.User,
	items map[int64]*core.Item,
	logs []*core.Interaction,
) (map[int64][]*core.Recommendation, *Metadata, error) {
	if err := p.ExtractFeatures(ctx, users, items, logs); err != nil {
		return nil, nil, err
	}
	if !p.PredictOnly {
		if err := p.Train(); err != nil {
			return nil, nil, err
		}
	}
	if err := p.ScoreAll(ctx); err != nil {
		return nil, nil, err
	}
	if err := p.Recommend(ctx); err != nil {
		return nil, nil, err
	}
	return p.recs, p.Metadata(), nil
}

// UserRecommendations 返回单个用户的推荐列表。
// 用户不在输出中报 NOT_FOUND（服务层按"无推荐"处理）。
func (p *Pipeline) UserRecommendations(userID int64) ([]*core.Recommendation, error) {
	if p.recs == nil {
		return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeModelUnavailable,
			"pipeline: not executed, call Run first")
	}
	recs, ok := p.recs[userID]
	if !ok {
		return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeNotFound,
			fmt.Sprintf("pipeline: no recommendations for user %d", userID))
	}
	return recs, nil
}

// FeatureImportance 返回模型的前 n 个重要特征。
func (p *Pipeline) FeatureImportance(n int) []model.ImportanceEntry {
	return model.TopFeatures(p.Ranker.Model, n)
}

// History 返回最近一次抽取结束时的历史聚合（用于即席打分）。
func (p *Pipeline) History() *feature.Accumulator { return p.history }

// Scores 返回最近一次打分的全部结果（服务层按请求参数重新选择时使用）。
func (p *Pipeline) Scores() []*core.RelevanceScore { return p.scores }

// Interactions 返回本次运行的源交互日志。
func (p *Pipeline) Interactions() []*core.Interaction { return p.logs }

// ScoreStats 是相关度分数的汇总统计。
type ScoreStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Metadata 是一次 Pipeline 运行的汇总元数据。
type Metadata struct {
	NumUsers           int `json:"num_users"`
	NumItems           int `json:"num_items"`
	NumInteractions    int `json:"num_interactions"`
	NumFeatures        int `json:"num_features"`
	NumRecommendations int `json:"num_recommendations"`

	AvgRecommendationsPerUser float64       `json:"avg_recommendations_per_user"`
	PerUserCounts             map[int64]int `json:"per_user_counts"`
	ScoreStats                ScoreStats    `json:"relevance_stats"`

	TopFeatures []model.ImportanceEntry `json:"top_features,omitempty"`
}

// Metadata 汇总当前运行的元数据。推荐尚未生成时返回 nil。
func (p *Pipeline) Metadata() *Metadata {
	if p.recs == nil {
		return nil
	}

	md := &Metadata{
		NumUsers:        len(p.users),
		NumItems:        len(p.items),
		NumInteractions: len(p.logs),
		NumFeatures:     len(core.FeatureColumns()),
		PerUserCounts:   make(map[int64]int, len(p.recs)),
	}
	for userID, recs := range p.recs {
		md.PerUserCounts[userID] = len(recs)
		md.NumRecommendations += len(recs)
	}
	if len(p.users) > 0 {
		md.AvgRecommendationsPerUser = float64(md.NumRecommendations) / float64(len(p.users))
	}
	md.ScoreStats = scoreStats(p.scores)
	md.TopFeatures = model.TopFeatures(p.Ranker.Model, 10)
	return md
}

func scoreStats(scores []*core.RelevanceScore) ScoreStats {
	if len(scores) == 0 {
		return ScoreStats{}
	}
	st := ScoreStats{Min: scores[0].Score, Max: scores[0].Score}
	sum := 0.0
	for _, s := range scores {
		if s.Score < st.Min {
			st.Min = s.Score
		}
		if s.Score > st.Max {
			st.Max = s.Score
		}
		sum += s.Score
	}
	st.Mean = sum / float64(len(scores))
	varSum := 0.0
	for _, s := range scores {
		d := s.Score - st.Mean
		varSum += d * d
	}
	st.Std = math.Sqrt(varSum / float64(len(scores)))
	return st
}
