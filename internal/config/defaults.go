package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 120 * time.Second
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "."
	}
	if cfg.Data.ProfileFile == "" {
		cfg.Data.ProfileFile = "user_profile.json"
	}
	if cfg.Data.ChatFile == "" {
		cfg.Data.ChatFile = "chat_history.json"
	}
	if cfg.LLM.Endpoint == "" {
		cfg.LLM.Endpoint = "https://generativelanguage.googleapis.com"
	}
	if cfg.LLM.ChatModel == "" {
		cfg.LLM.ChatModel = "gemini-2.5-pro"
	}
	if cfg.LLM.VisionModel == "" {
		cfg.LLM.VisionModel = "gemini-2.5-flash"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 3
	}
	if cfg.LLM.RequestsPerMinute == 0 {
		cfg.LLM.RequestsPerMinute = 30
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "gemini"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "models/embedding-001"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Knowledge.Dir == "" {
		cfg.Knowledge.Dir = "knowledge_base"
	}
	if cfg.Knowledge.DatabasePath == "" {
		cfg.Knowledge.DatabasePath = "data/knowledge.db"
	}
	if cfg.Knowledge.VectorIndexPath == "" {
		cfg.Knowledge.VectorIndexPath = "data/vectors.bin"
	}
	if cfg.Knowledge.KeywordIndexPath == "" {
		cfg.Knowledge.KeywordIndexPath = "data/bleve"
	}
	if cfg.Knowledge.Extensions == nil {
		cfg.Knowledge.Extensions = []string{".pdf", ".docx", ".xlsx", ".txt", ".md"}
	}
	if cfg.Knowledge.ChunkSize == 0 {
		cfg.Knowledge.ChunkSize = 1000
	}
	if cfg.Knowledge.ChunkOverlap == 0 {
		cfg.Knowledge.ChunkOverlap = 200
	}
	if cfg.Knowledge.TopK == 0 {
		cfg.Knowledge.TopK = 3
	}
	if cfg.Knowledge.BatchSize == 0 {
		cfg.Knowledge.BatchSize = 16
	}
	if cfg.Knowledge.Workers == 0 {
		cfg.Knowledge.Workers = 4
	}
	if cfg.PDF.Title == "" {
		cfg.PDF.Title = "Omny AI Fitness Plan"
	}
	if cfg.PDF.LogoPath == "" {
		cfg.PDF.LogoPath = "Omny logo main 2.png"
	}
}
