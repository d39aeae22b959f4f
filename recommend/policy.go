package recommend

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/learnpath/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("user_id", cel.IntType),
			cel.Variable("item_id", cel.IntType),
			cel.Variable("score", cel.DoubleType),
			cel.Variable("labels", cel.MapType(cel.StringType, cel.StringType)),
		)
	})
	return celEnv, celEnvErr
}

// Policy 是选择策略的 CEL (Common Expression Language) 表达式。
// 表达式在阈值过滤之前对每个候选求值，返回 false 的候选被剔除。
//
// 可用变量：
//   - user_id / item_id：int
//   - score：double
//   - labels：map<string, string>（打分阶段写入的解释标记）
//
// 示例：
//   - `score >= 0.5`                          → 提高相关度门槛
//   - `item_id != 42`                         → 硬排除某个物品
//   - `labels["rank_model"] == "ridge"`       → 只保留某个模型的打分
//   - `user_id % 2 == 0 ? score > 0.3 : true` → 按用户分桶差异化策略
type Policy struct {
	expr string
	prg  cel.Program
}

// NewPolicy 编译一个选择策略表达式。表达式只编译一次，可多次求值。
// 编译失败报 CONFIGURATION_ERROR。
func NewPolicy(expr string) (*Policy, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeConfiguration,
			fmt.Sprintf("recommend: invalid policy expression %q: %v", expr, iss.Err()))
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeConfiguration,
			fmt.Sprintf("recommend: cannot build policy program %q: %v", expr, err))
	}

	return &Policy{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式文本。
func (p *Policy) Expr() string { return p.expr }

// Allow 对单个候选求值。表达式结果不是布尔值时报 CONFIGURATION_ERROR。
func (p *Policy) Allow(sc *core.RelevanceScore) (bool, error) {
	labels := make(map[string]string, len(sc.Labels))
	for k, lbl := range sc.Labels {
		labels[k] = lbl.Value
	}

	out, _, err := p.prg.Eval(map[string]any{
		"user_id": sc.UserID,
		"item_id": sc.ItemID,
		"score":   sc.Score,
		"labels":  labels,
	})
	if err != nil {
		return false, fmt.Errorf("policy eval: %w", err)
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return false, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeConfiguration,
			fmt.Sprintf("recommend: policy %q did not evaluate to bool", p.expr))
	}
	return allowed, nil
}
