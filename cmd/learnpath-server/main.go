package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rushteam/learnpath/core"
	"github.com/rushteam/learnpath/feature"
	"github.com/rushteam/learnpath/model"
	"github.com/rushteam/learnpath/pipeline"
	"github.com/rushteam/learnpath/rank"
	"github.com/rushteam/learnpath/recommend"
	"github.com/rushteam/learnpath/simulate"
	"github.com/rushteam/learnpath/store"
)

type server struct {
	cfg      *pipeline.Config
	pipeline *pipeline.Pipeline
	cache    core.SetStore
}

func main() {
	configPath := flag.String("config", "", "YAML 配置文件路径（留空使用默认配置）")
	flag.Parse()

	cfg := pipeline.DefaultConfig()
	if *configPath != "" {
		loaded, err := pipeline.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	p, err := cfg.BuildPipeline()
	if err != nil {
		log.Fatalf("build pipeline: %v", err)
	}

	// 存在已训练的 Bundle 时直接加载，Run 只预测不再训练
	if model.BundleExists(cfg.Server.BundlePath) {
		m, err := model.LoadBundle(cfg.Server.BundlePath)
		if err != nil {
			log.Fatalf("load bundle %s: %v", cfg.Server.BundlePath, err)
		}
		p.Ranker = rank.NewRanker(m)
		p.PredictOnly = true
		log.Printf("loaded model bundle %s (%s)", cfg.Server.BundlePath, m.Name())
	}

	ctx := context.Background()

	users, items, logs := simulate.Run(simulate.Config{
		NumUsers:     cfg.Simulation.NumUsers,
		NumItems:     cfg.Simulation.NumItems,
		NumSkills:    cfg.Simulation.NumSkills,
		StepsPerUser: cfg.Simulation.StepsPerUser,
		Seed:         cfg.Simulation.Seed,
	})

	// 配置了 Feast 时用在线特征库里的用户画像覆盖模拟画像
	if cfg.Server.FeastHost != "" {
		loader, err := feature.NewFeastUserLoader(
			cfg.Server.FeastHost, cfg.Server.FeastPort, cfg.Server.FeastProject)
		if err != nil {
			log.Fatalf("connect feast: %v", err)
		}
		defer loader.Close()

		ids := make([]int64, 0, len(users))
		for id := range users {
			ids = append(ids, id)
		}
		loaded, err := loader.LoadUsers(ctx, ids, cfg.Simulation.NumSkills)
		if err != nil {
			log.Fatalf("load users from feast: %v", err)
		}
		for id, u := range loaded {
			users[id] = u
		}
		log.Printf("loaded %d user profiles from feast", len(loaded))
	}

	if _, _, err := p.Run(ctx, users, items, logs); err != nil {
		log.Fatalf("run pipeline: %v", err)
	}
	log.Printf("pipeline ready, state=%s", p.State())

	var cache core.SetStore
	if cfg.Server.RedisAddr != "" {
		rs, err := store.NewRedisStore(cfg.Server.RedisAddr, cfg.Server.RedisDB)
		if err != nil {
			log.Fatalf("connect redis %s: %v", cfg.Server.RedisAddr, err)
		}
		cache = rs
	} else {
		cache = store.NewMemoryStore()
	}
	defer cache.Close()

	s := &server{cfg: cfg, pipeline: p, cache: cache}
	if err := s.seedSeenSets(ctx); err != nil {
		log.Fatalf("seed seen sets: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	router.GET("/health", s.handleHealth)
	router.GET("/recommend/:user_id", s.handleRecommend)
	router.GET("/metadata", s.handleMetadata)
	router.GET("/features/importance", s.handleImportance)

	log.Printf("listening on %s (cache=%s)", cfg.Server.Addr, cache.Name())
	if err := router.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// seedSeenSets 把每个用户交互过的物品写入 Store 集合，
// exclude_seen 请求从这里读取已读集合。
func (s *server) seedSeenSets(ctx context.Context) error {
	for userID, items := range recommend.SeenItems(s.pipeline.Interactions()) {
		members := make([]string, 0, len(items))
		for itemID := range items {
			members = append(members, strconv.FormatInt(itemID, 10))
		}
		if err := s.cache.SAdd(ctx, seenKey(userID), members...); err != nil {
			return err
		}
	}
	return nil
}

func seenKey(userID int64) string {
	return fmt.Sprintf("seen:%d", userID)
}

func (s *server) handleHealth(c *gin.Context) {
	ready := s.pipeline.State() == pipeline.StateRecommendationsReady
	status, text := http.StatusOK, "ok"
	if !ready {
		status, text = http.StatusServiceUnavailable, "not_ready"
	}
	c.JSON(status, gin.H{
		"status": text,
		"state":  string(s.pipeline.State()),
		"model":  s.pipeline.Ranker.Model.Name(),
		"cache":  s.cache.Name(),
	})
}

type recommendationItem struct {
	ItemID int64   `json:"item_id"`
	Score  float64 `json:"relevance_score"`
	Rank   int     `json:"rank"`
}

type recommendationResponse struct {
	UserID          int64                `json:"user_id"`
	Count           int                  `json:"count"`
	Recommendations []recommendationItem `json:"recommendations"`
}

func (s *server) handleRecommend(c *gin.Context) {
	if s.pipeline.State() != pipeline.StateRecommendationsReady {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline not ready"})
		return
	}

	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be an integer"})
		return
	}

	sel := recommend.NewSelector()
	sel.TopK = s.pipeline.Selector.TopK
	sel.MinRelevance = s.pipeline.Selector.MinRelevance
	sel.ExcludeSeen = s.pipeline.Selector.ExcludeSeen
	sel.Policy = s.pipeline.Selector.Policy
	if v := c.Query("top_k"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil || k <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top_k must be a positive integer"})
			return
		}
		sel.TopK = k
	}
	if v := c.Query("min_relevance"); v != "" {
		mr, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_relevance must be a number"})
			return
		}
		sel.MinRelevance = mr
	}
	if v := c.Query("exclude_seen"); v != "" {
		ex, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "exclude_seen must be a boolean"})
			return
		}
		sel.ExcludeSeen = ex
	}

	ctx := c.Request.Context()
	cacheKey := fmt.Sprintf("rec:%d:%d:%g:%t", userID, sel.TopK, sel.MinRelevance, sel.ExcludeSeen)
	if data, err := s.cache.Get(ctx, cacheKey); err == nil {
		c.Data(http.StatusOK, "application/json; charset=utf-8", data)
		return
	}

	var seen map[int64]map[int64]bool
	if sel.ExcludeSeen {
		set, err := s.seenSet(ctx, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		seen = map[int64]map[int64]bool{userID: set}
	}

	recs, err := sel.RecommendUser(ctx, userID, s.pipeline.Scores(), seen)
	if err != nil {
		if core.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("user %d not found", userID)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := recommendationResponse{
		UserID:          userID,
		Count:           len(recs),
		Recommendations: make([]recommendationItem, 0, len(recs)),
	}
	for _, r := range recs {
		resp.Recommendations = append(resp.Recommendations, recommendationItem{
			ItemID: r.ItemID,
			Score:  round4(r.Score),
			Rank:   r.Rank,
		})
	}

	data, err := json.Marshal(resp)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := s.cache.Set(ctx, cacheKey, data, s.cfg.Server.CacheTTL); err != nil {
		log.Printf("cache set %s: %v", cacheKey, err)
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *server) seenSet(ctx context.Context, userID int64) (map[int64]bool, error) {
	members, err := s.cache.SMembers(ctx, seenKey(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	set := make(map[int64]bool, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		set[id] = true
	}
	return set, nil
}

func (s *server) handleMetadata(c *gin.Context) {
	md := s.pipeline.Metadata()
	if md == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline not ready"})
		return
	}
	c.JSON(http.StatusOK, md)
}

func (s *server) handleImportance(c *gin.Context) {
	topN := 10
	if v := c.Query("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top_n must be a positive integer"})
			return
		}
		topN = n
	}
	entries := s.pipeline.FeatureImportance(topN)
	if len(entries) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model not trained"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"model":    s.pipeline.Ranker.Model.Name(),
		"features": entries,
	})
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
