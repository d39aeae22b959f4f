package rank

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/learnpath/core"
	"github.com/rushteam/learnpath/model"
	"github.com/rushteam/learnpath/pkg/utils"
)

// Ranker 把排序模型套在特征行上：Fit 用特征行自带的标签训练，
// Score 对每一行产出一条 RelevanceScore。
//
// Score 的 (user, item) 集合与输入特征行严格一一对应、同序：
// 打分阶段不丢行，过滤是推荐选择阶段的职责。
// 模型 Predict 是纯函数，批量打分按行并行，并行度不影响输出。
type Ranker struct {
	Model model.RankingModel

	// MaxConcurrent 是批量打分的最大并发数（0 表示不并行）
	MaxConcurrent int
}

// NewRanker 创建使用给定模型的打分器。
func NewRanker(m model.RankingModel) *Ranker {
	return &Ranker{Model: m, MaxConcurrent: 4}
}

// Fit 在特征行与其派生标签上训练模型。
func (r *Ranker) Fit(vectors []*core.FeatureVector) error {
	X := make([]map[string]float64, len(vectors))
	y := make([]float64, len(vectors))
	for i, fv := range vectors {
		X[i] = fv.Features
		y[i] = fv.Label
	}
	return r.Model.Fit(X, y)
}

// Score 对每一行特征打分，输出与输入同序。
// 任何一行失败（如缺列）都让整批失败，不产出部分结果。
func (r *Ranker) Score(ctx context.Context, vectors []*core.FeatureVector) ([]*core.RelevanceScore, error) {
	scores := make([]*core.RelevanceScore, len(vectors))

	scoreRow := func(i int) error {
		fv := vectors[i]
		val, err := r.Model.Predict(fv.Features)
		if err != nil {
			return err
		}
		s := &core.RelevanceScore{
			UserID: fv.UserID,
			ItemID: fv.ItemID,
			Score:  val,
		}
		s.PutLabel("rank_model", utils.Label{Value: r.Model.Name(), Source: "rank"})
		scores[i] = s
		return nil
	}

	if r.MaxConcurrent <= 1 {
		for i := range vectors {
			if err := scoreRow(i); err != nil {
				return nil, err
			}
		}
		return scores, nil
	}

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(r.MaxConcurrent)
	for i := range vectors {
		i := i
		eg.Go(func() error { return scoreRow(i) })
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}
