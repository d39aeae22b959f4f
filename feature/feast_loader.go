package feature

import (
	"context"
	"fmt"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/learnpath/core"
)

// UserLoader 是用户画像源的抽象：按 id 批量加载学习者画像。
//
// 默认实现直接使用内存中的画像表；FeastUserLoader 则从 Feast
// Feature Store 的在线存储拉取画像，用于画像由离线作业物化、
// 推荐服务无本地画像表的部署形态。
type UserLoader interface {
	// LoadUsers 批量加载用户画像，numSkills 是技能集大小
	LoadUsers(ctx context.Context, ids []int64, numSkills int) (map[int64]*core.User, error)

	// Name 返回画像源名称（用于日志/监控）
	Name() string
}

// FeastUserLoader 是基于官方 Feast Go SDK 的画像加载器。
//
// 特征约定（在 Feast 中按如下名称注册）：
//   - {view}:mastery_<k>      第 k 个技能的掌握度
//   - {view}:learning_rate    学习率
//
// 实体键为 user_id。
type FeastUserLoader struct {
	client *feastsdk.GrpcClient

	// Project 是 Feast 项目名
	Project string

	// FeatureView 是画像特征视图名，默认 "learner_profile"
	FeatureView string
}

// NewFeastUserLoader 创建 Feast 画像加载器，连接 Feast Feature Server 的 gRPC 端口。
func NewFeastUserLoader(host string, port int, project string) (*FeastUserLoader, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("connect feast: %w", err)
	}
	return &FeastUserLoader{
		client:      client,
		Project:     project,
		FeatureView: "learner_profile",
	}, nil
}

func (l *FeastUserLoader) Name() string { return "feast" }

// LoadUsers 实现 UserLoader 接口。
func (l *FeastUserLoader) LoadUsers(ctx context.Context, ids []int64, numSkills int) (map[int64]*core.User, error) {
	if len(ids) == 0 {
		return map[int64]*core.User{}, nil
	}

	view := l.FeatureView
	if view == "" {
		view = "learner_profile"
	}

	features := make([]string, 0, numSkills+1)
	for k := 0; k < numSkills; k++ {
		features = append(features, fmt.Sprintf("%s:mastery_%d", view, k))
	}
	features = append(features, view+":learning_rate")

	entities := make([]feastsdk.Row, len(ids))
	for i, id := range ids {
		entities[i] = feastsdk.Row{"user_id": feastsdk.Int64Val(id)}
	}

	resp, err := l.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: features,
		Entities: entities,
		Project:  l.Project,
	})
	if err != nil {
		return nil, fmt.Errorf("feast get online features: %w", err)
	}

	rows := resp.Rows()
	if len(rows) != len(ids) {
		return nil, fmt.Errorf("feast response row count mismatch: expected %d, got %d", len(ids), len(rows))
	}

	users := make(map[int64]*core.User, len(ids))
	for i, id := range ids {
		row := rows[i]
		mastery := make([]float64, numSkills)
		for k := 0; k < numSkills; k++ {
			mastery[k] = valueToFloat(row[fmt.Sprintf("%s:mastery_%d", view, k)])
		}
		users[id] = &core.User{
			ID:           id,
			Mastery:      mastery,
			LearningRate: valueToFloat(row[view+":learning_rate"]),
		}
	}
	return users, nil
}

// Close 释放客户端资源。
func (l *FeastUserLoader) Close() error {
	l.client = nil
	return nil
}

// valueToFloat 从 Feast 的 Value oneof 中提取数值，无法提取时返回 0。
func valueToFloat(v *feasttypes.Value) float64 {
	if v == nil {
		return 0
	}
	switch val := v.GetVal().(type) {
	case *feasttypes.Value_DoubleVal:
		return val.DoubleVal
	case *feasttypes.Value_FloatVal:
		return float64(val.FloatVal)
	case *feasttypes.Value_Int64Val:
		return float64(val.Int64Val)
	case *feasttypes.Value_Int32Val:
		return float64(val.Int32Val)
	default:
		return 0
	}
}

// StaticUserLoader 直接返回内存中的画像表，用于测试与单机运行。
type StaticUserLoader struct {
	Users map[int64]*core.User
}

func (l *StaticUserLoader) Name() string { return "static" }

// LoadUsers 实现 UserLoader 接口。
func (l *StaticUserLoader) LoadUsers(_ context.Context, ids []int64, _ int) (map[int64]*core.User, error) {
	users := make(map[int64]*core.User, len(ids))
	for _, id := range ids {
		u, ok := l.Users[id]
		if !ok {
			return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeNotFound,
				fmt.Sprintf("feature: user %d not found in profile table", id))
		}
		users[id] = u
	}
	return users, nil
}
