package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	channelsFile = "channels.yaml"
	settingsFile = "settings.yaml"

	channelFeedPattern = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"
)

// Channel is one subscribed podcast channel.
type Channel struct {
	Handle      string `yaml:"handle"`
	DisplayName string `yaml:"display_name"`
	ChannelID   string `yaml:"channel_id"`
	FeedURL     string `yaml:"feed_url"`
	Enabled     *bool  `yaml:"enabled"`
}

// IsEnabled treats a missing enabled key as true.
func (c Channel) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// ResolveFeedURL returns the channel's Atom feed URL, deriving it from the
// channel id when no explicit feed_url is configured.
func (c Channel) ResolveFeedURL() string {
	if c.FeedURL != "" {
		return c.FeedURL
	}
	if c.ChannelID != "" {
		return fmt.Sprintf(channelFeedPattern, c.ChannelID)
	}
	return ""
}

// Defaults apply to every channel unless overridden.
type Defaults struct {
	LookbackDays     int    `yaml:"lookback_days"`
	VideosPerChannel int    `yaml:"videos_per_channel"`
	OutputDir        string `yaml:"output_dir"`
}

// ChannelsConfig mirrors channels.yaml.
type ChannelsConfig struct {
	Defaults Defaults  `yaml:"defaults"`
	Channels []Channel `yaml:"channels"`
}

// EnabledChannels returns the channels that are switched on.
func (c *ChannelsConfig) EnabledChannels() []Channel {
	var out []Channel
	for _, ch := range c.Channels {
		if ch.IsEnabled() {
			out = append(out, ch)
		}
	}
	return out
}

// ProcessingSettings tune the pipeline.
type ProcessingSettings struct {
	MaxChunkSize          int `yaml:"max_chunk_size"`
	ChunkOverlap          int `yaml:"chunk_overlap"`
	Concurrency           int `yaml:"concurrency"`
	RetryAttempts         int `yaml:"retry_attempts"`
	RetryBaseDelaySeconds int `yaml:"retry_base_delay_seconds"`
}

// RetryBaseDelay returns the configured base delay as a duration.
func (p ProcessingSettings) RetryBaseDelay() time.Duration {
	return time.Duration(p.RetryBaseDelaySeconds) * time.Second
}

// AnalysisSettings tune the merge step.
type AnalysisSettings struct {
	DedupThreshold float64 `yaml:"dedup_threshold"`
}

// Settings mirrors settings.yaml.
type Settings struct {
	Processing ProcessingSettings `yaml:"processing"`
	Analysis   AnalysisSettings   `yaml:"analysis"`
}

// Config is the loaded pair of configuration files.
type Config struct {
	Channels ChannelsConfig
	Settings Settings
}

// Load reads channels.yaml and settings.yaml from dir, writing default files
// first when they are missing so a fresh checkout runs without setup.
func Load(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	channelsPath := filepath.Join(dir, channelsFile)
	settingsPath := filepath.Join(dir, settingsFile)

	if err := ensureFile(channelsPath, defaultChannels()); err != nil {
		return nil, err
	}
	if err := ensureFile(settingsPath, defaultSettings()); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := loadYAML(channelsPath, &cfg.Channels); err != nil {
		return nil, err
	}
	if err := loadYAML(settingsPath, &cfg.Settings); err != nil {
		return nil, err
	}

	cfg.applyFallbacks()
	return cfg, nil
}

// applyFallbacks fills zero values so a sparse config file still yields a
// runnable pipeline.
func (c *Config) applyFallbacks() {
	d := &c.Channels.Defaults
	if d.LookbackDays <= 0 {
		d.LookbackDays = 7
	}
	if d.VideosPerChannel <= 0 {
		d.VideosPerChannel = 1
	}
	if d.OutputDir == "" {
		d.OutputDir = "podcast_summaries"
	}

	p := &c.Settings.Processing
	if p.MaxChunkSize <= 0 {
		p.MaxChunkSize = 8000
	}
	if p.ChunkOverlap <= 0 {
		p.ChunkOverlap = 500
	}
	if p.Concurrency <= 0 {
		p.Concurrency = 3
	}
	if p.RetryAttempts <= 0 {
		p.RetryAttempts = 3
	}
	if p.RetryBaseDelaySeconds <= 0 {
		p.RetryBaseDelaySeconds = 5
	}

	a := &c.Settings.Analysis
	if a.DedupThreshold <= 0 || a.DedupThreshold > 1 {
		a.DedupThreshold = 0.8
	}
}

func ensureFile(path string, defaults any) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write default config %s: %w", path, err)
	}

	log.Printf("[config] created default configuration at %s", path)
	return nil
}

func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func defaultChannels() ChannelsConfig {
	return ChannelsConfig{
		Defaults: Defaults{
			LookbackDays:     7,
			VideosPerChannel: 1,
			OutputDir:        "podcast_summaries",
		},
		Channels: []Channel{
			{Handle: "lexfridman", DisplayName: "Lex Fridman Podcast"},
			{Handle: "naval", DisplayName: "Naval"},
			{Handle: "allinchamath", DisplayName: "All-In Podcast"},
		},
	}
}

func defaultSettings() Settings {
	return Settings{
		Processing: ProcessingSettings{
			MaxChunkSize:          8000,
			ChunkOverlap:          500,
			Concurrency:           3,
			RetryAttempts:         3,
			RetryBaseDelaySeconds: 5,
		},
		Analysis: AnalysisSettings{
			DedupThreshold: 0.8,
		},
	}
}
