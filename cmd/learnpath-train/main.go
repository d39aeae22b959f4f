package main

import (
	"context"
	"flag"
	"log"

	"github.com/rushteam/learnpath/model"
	"github.com/rushteam/learnpath/pipeline"
	"github.com/rushteam/learnpath/simulate"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML 配置文件路径（留空使用默认配置）")
		outPath    = flag.String("out", "", "模型 Bundle 输出路径（覆盖配置中的 bundle_path）")
	)
	flag.Parse()

	cfg := pipeline.DefaultConfig()
	if *configPath != "" {
		loaded, err := pipeline.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}
	bundlePath := cfg.Server.BundlePath
	if *outPath != "" {
		bundlePath = *outPath
	}

	users, items, logs := simulate.Run(simulate.Config{
		NumUsers:     cfg.Simulation.NumUsers,
		NumItems:     cfg.Simulation.NumItems,
		NumSkills:    cfg.Simulation.NumSkills,
		StepsPerUser: cfg.Simulation.StepsPerUser,
		Seed:         cfg.Simulation.Seed,
	})
	log.Printf("simulated %d users, %d items, %d interactions",
		len(users), len(items), len(logs))

	p, err := cfg.BuildPipeline()
	if err != nil {
		log.Fatalf("build pipeline: %v", err)
	}

	_, md, err := p.Run(context.Background(), users, items, logs)
	if err != nil {
		log.Fatalf("run pipeline: %v", err)
	}

	log.Printf("model=%s features=%d recommendations=%d (avg %.2f per user)",
		p.Ranker.Model.Name(), md.NumFeatures, md.NumRecommendations,
		md.AvgRecommendationsPerUser)
	log.Printf("relevance scores: min=%.4f max=%.4f mean=%.4f std=%.4f",
		md.ScoreStats.Min, md.ScoreStats.Max, md.ScoreStats.Mean, md.ScoreStats.Std)
	for _, e := range md.TopFeatures {
		log.Printf("  feature %-28s importance %.4f", e.Feature, e.Importance)
	}

	if err := model.SaveBundle(p.Ranker.Model, bundlePath); err != nil {
		log.Fatalf("save bundle: %v", err)
	}
	log.Printf("model bundle saved to %s", bundlePath)
}
