package main

import (
	"sync"

	"gomoku-engine/engine"
)

// Config is the runtime tuning surface exposed over /api/config.
type Config struct {
	SearchLimits  engine.SearchLimits `json:"searchLimits"`
	EvalWeights   engine.EvalWeights  `json:"evalWeights"`
	TTSize        uint64              `json:"ttSize"`
	TTPersistPath string              `json:"ttPersistPath"`
}

func DefaultConfig() Config {
	return Config{
		SearchLimits:  engine.DefaultSearchLimits(),
		EvalWeights:   engine.DefaultEvalWeights(),
		TTSize:        engine.DefaultTTSize,
		TTPersistPath: "", // resolved next to the binary when empty
	}
}

// ConfigStore guards the live config for concurrent readers.
type ConfigStore struct {
	mu  sync.RWMutex
	cfg Config
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{cfg: DefaultConfig()}
}

func (s *ConfigStore) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *ConfigStore) Set(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.TTSize == 0 {
		cfg.TTSize = engine.DefaultTTSize
	}
	if cfg.SearchLimits.MaxDepth <= 0 {
		cfg.SearchLimits.MaxDepth = engine.DefaultSearchLimits().MaxDepth
	}
	s.cfg = cfg
}
