// Package learnpath 是一个学习路径推荐工具包（Learning-Path Recommender）。
//
// 设计要点：
// - Pipeline-first: 特征抽取 → 排序模型 → 推荐选择 三阶段串联，阶段可单独复用
// - Leakage-safe: 特征只用"该交互发生之前"的历史（先读后写），离线训练与在线打分同分布
// - Labels-first: 打分结果携带 labels，支持 explain / 观测 / CEL 策略过滤
// - Model 可插拔: 随机森林与岭回归同接口，Bundle 持久化后可只预测不训练
package learnpath

import "github.com/rushteam/learnpath/pipeline"

// 轻量 facade：便于用户直接 import "learnpath" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type State = pipeline.State

const (
	StateUninitialized        = pipeline.StateUninitialized
	StateFeaturesReady        = pipeline.StateFeaturesReady
	StateModelTrained         = pipeline.StateModelTrained
	StateScored               = pipeline.StateScored
	StateRecommendationsReady = pipeline.StateRecommendationsReady
)
