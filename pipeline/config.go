package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/learnpath/core"
	"github.com/rushteam/learnpath/model"
	"github.com/rushteam/learnpath/pkg/conv"
	"github.com/rushteam/learnpath/recommend"
)

// Config 是 Pipeline 与服务的配置结构（YAML）。
//
// 示例：
//
//	model:
//	  type: random_forest
//	  params:
//	    num_trees: 100
//	    max_depth: 10
//	    seed: 42
//	selector:
//	  top_k: 5
//	  min_relevance: 0.2
//	  exclude_seen: false
//	  policy: 'score >= 0.2'
//	simulation:
//	  num_users: 50
//	  num_items: 30
//	  num_skills: 8
//	  steps_per_user: 20
//	  seed: 42
//	server:
//	  addr: ":8080"
//	  bundle_path: "models/ranking_model.json"
//	  cache_ttl: 300
//	  redis_addr: ""
type Config struct {
	Model struct {
		Type   string         `yaml:"type"`
		Params map[string]any `yaml:"params"`
	} `yaml:"model"`

	Selector struct {
		TopK         int     `yaml:"top_k"`
		MinRelevance float64 `yaml:"min_relevance"`
		ExcludeSeen  bool    `yaml:"exclude_seen"`
		Policy       string  `yaml:"policy"`
	} `yaml:"selector"`

	Simulation struct {
		NumUsers     int   `yaml:"num_users"`
		NumItems     int   `yaml:"num_items"`
		NumSkills    int   `yaml:"num_skills"`
		StepsPerUser int   `yaml:"steps_per_user"`
		Seed         int64 `yaml:"seed"`
	} `yaml:"simulation"`

	Server struct {
		Addr       string `yaml:"addr"`
		BundlePath string `yaml:"bundle_path"`
		CacheTTL   int    `yaml:"cache_ttl"`
		RedisAddr  string `yaml:"redis_addr"`
		RedisDB    int    `yaml:"redis_db"`

		// Feast 在线特征库（可选）。配置后启动时会用 Feast 中的
		// 用户画像覆盖模拟生成的画像。
		FeastHost    string `yaml:"feast_host"`
		FeastPort    int    `yaml:"feast_port"`
		FeastProject string `yaml:"feast_project"`
	} `yaml:"server"`
}

// DefaultConfig 返回可直接运行的默认配置。
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Model.Type = string(model.TypeRandomForest)
	cfg.Selector.TopK = core.DefaultTopK
	cfg.Selector.MinRelevance = core.DefaultMinRelevance
	cfg.Simulation.NumUsers = 50
	cfg.Simulation.NumItems = 30
	cfg.Simulation.NumSkills = 8
	cfg.Simulation.StepsPerUser = 20
	cfg.Simulation.Seed = 42
	cfg.Server.Addr = ":8080"
	cfg.Server.BundlePath = "models/ranking_model.json"
	cfg.Server.CacheTTL = 300
	return cfg
}

// LoadConfig 从 YAML 文件加载配置，文件中未出现的字段保持默认值。
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// BuildModel 按配置构造排序模型。
func (c *Config) BuildModel() (model.RankingModel, error) {
	p := c.Model.Params
	return model.New(model.Type(c.Model.Type), model.Config{
		Seed:     int64(conv.ConfigGetInt(p, "seed", 42)),
		NumTrees: conv.ConfigGetInt(p, "num_trees", 100),
		MaxDepth: conv.ConfigGetInt(p, "max_depth", 10),
		MinLeaf:  conv.ConfigGetInt(p, "min_leaf", 0),
		Lambda:   conv.ConfigGetFloat64(p, "lambda", 1.0),
	})
}

// BuildSelector 按配置构造推荐选择器。
func (c *Config) BuildSelector() (*recommend.Selector, error) {
	s := recommend.NewSelector()
	if c.Selector.TopK > 0 {
		s.TopK = c.Selector.TopK
	}
	if c.Selector.MinRelevance > 0 {
		s.MinRelevance = c.Selector.MinRelevance
	}
	s.ExcludeSeen = c.Selector.ExcludeSeen
	if c.Selector.Policy != "" {
		policy, err := recommend.NewPolicy(c.Selector.Policy)
		if err != nil {
			return nil, err
		}
		s.Policy = policy
	}
	return s, nil
}

// BuildPipeline 按配置构造完整 Pipeline。
func (c *Config) BuildPipeline() (*Pipeline, error) {
	m, err := c.BuildModel()
	if err != nil {
		return nil, err
	}
	p := New(m)
	sel, err := c.BuildSelector()
	if err != nil {
		return nil, err
	}
	p.Selector = sel
	return p, nil
}
