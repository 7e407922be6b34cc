package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port             int              `json:"port"`
	AccessFile       string           `json:"access_file"`
	DocumentDir      string           `json:"document_dir"`
	DocumentExt      string           `json:"document_ext"`
	CORSAllowOrigins []string         `json:"cors_allow_origins"`
	RateLimitSeconds int              `json:"rate_limit_seconds"`
	LogConfig        logger.LogConfig `json:"log_config"`
	AI               AIConfig         `json:"ai"`
	Cache            CacheConfig      `json:"cache"`
}

type AIConfig struct {
	Provider        string      `json:"provider"`
	GenerateModel   string      `json:"generate_model"`
	EmbedModel      string      `json:"embed_model"`
	Timeout         int         `json:"timeout"`
	TopK            int         `json:"top_k"`
	NoAnswerPhrases []string    `json:"no_answer_phrases"`
	Data            interface{} `json:"data"`
}

type CacheConfig struct {
	Size       int `json:"size"`
	TTLMinutes int `json:"ttl_minutes"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.AccessFile == "" {
		return nil, fmt.Errorf("access_file is required")
	}
	if cfg.DocumentDir == "" {
		return nil, fmt.Errorf("document_dir is required")
	}
	if cfg.DocumentExt == "" {
		cfg.DocumentExt = ".pdf"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.GenerateModel == "" {
		return nil, fmt.Errorf("ai.generate_model is required")
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.AI.TopK <= 0 {
		cfg.AI.TopK = 4
	}
	if cfg.Cache.Size == 0 {
		cfg.Cache.Size = 10000
	}
	if cfg.Cache.TTLMinutes <= 0 {
		cfg.Cache.TTLMinutes = 120
	}
	return &cfg, nil
}
