package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"podcast-summary/pkg/analysis"
	"podcast-summary/pkg/chunker"
	"podcast-summary/pkg/config"
	"podcast-summary/pkg/discovery"
	"podcast-summary/pkg/domain"
	"podcast-summary/pkg/progress"
	"podcast-summary/pkg/retry"
	"podcast-summary/pkg/runner"
	"podcast-summary/pkg/storage"
	"podcast-summary/pkg/transcript"
)

func main() {
	var (
		configDir = flag.String("config", "config", "Directory holding channels.yaml and settings.yaml")
		outputDir = flag.String("output", "", "Output directory for transcripts and summaries (overrides config)")
		channels  = flag.String("channels", "", "Comma-separated channel handles to process (default: all enabled)")
		videoIDs  = flag.String("videos", "", "Comma-separated video ids to process directly, skipping discovery")
		dryRun    = flag.Bool("dry-run", false, "Discover videos and print them without processing")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	dir := cfg.Channels.Defaults.OutputDir
	if *outputDir != "" {
		dir = *outputDir
	}
	store, err := storage.NewStore(dir)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}

	videos, err := collectVideos(ctx, cfg, *channels, *videoIDs)
	if err != nil {
		log.Fatalf("Video discovery failed: %v", err)
	}
	if len(videos) == 0 {
		log.Printf("No videos to process")
		return
	}

	if *dryRun {
		for _, v := range videos {
			log.Printf("Would process: %s (@%s) %q", v.VideoID, v.ChannelHandle, v.Title)
		}
		return
	}

	tracker := progress.NewTracker()
	log.Printf("Starting run %s: %d videos, %d workers",
		tracker.RunID(), len(videos), cfg.Settings.Processing.Concurrency)

	fetcher := transcript.NewFetcher(
		[]transcript.Source{
			transcript.NewCaptionsSource(),
			transcript.NewScrapeSource(),
			transcript.NewDocumentSource(),
		},
		retryPolicy(cfg),
	)
	fetcher.SetProgress(tracker.Update)

	coordinator := analysis.NewCoordinator(analysis.NewExtractiveAnalyzer())
	coordinator.SetDedupThreshold(cfg.Settings.Analysis.DedupThreshold)

	run := runner.New(
		fetcher,
		chunker.New(cfg.Settings.Processing.MaxChunkSize, cfg.Settings.Processing.ChunkOverlap),
		coordinator,
		store,
		tracker,
		cfg.Settings.Processing.Concurrency,
	)

	start := time.Now()
	summary, err := run.ProcessVideos(ctx, videos)
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	log.Printf("Run %s finished in %s: %d succeeded, %d failed, %d skipped (of %d)",
		tracker.RunID(), time.Since(start).Round(time.Second),
		summary.Succeeded, summary.Failed, summary.Skipped, summary.Total)
}

// collectVideos resolves the work list, either directly from -videos or by
// discovering recent uploads for the configured channels.
func collectVideos(ctx context.Context, cfg *config.Config, channelFilter, videoIDs string) ([]domain.VideoReference, error) {
	if videoIDs != "" {
		var videos []domain.VideoReference
		for _, id := range splitList(videoIDs) {
			videos = append(videos, domain.VideoReference{VideoID: id, ChannelHandle: "manual"})
		}
		return videos, nil
	}

	wanted := make(map[string]bool)
	for _, handle := range splitList(channelFilter) {
		wanted[strings.TrimPrefix(handle, "@")] = true
	}

	discoverer := discovery.NewDiscoverer()
	defaults := cfg.Channels.Defaults

	var videos []domain.VideoReference
	for _, channel := range cfg.Channels.EnabledChannels() {
		handle := strings.TrimPrefix(channel.Handle, "@")
		if len(wanted) > 0 && !wanted[handle] {
			continue
		}

		feedURL := channel.ResolveFeedURL()
		if feedURL == "" {
			log.Printf("Channel %s has no feed_url or channel_id, skipping", channel.Handle)
			continue
		}

		found, err := discoverer.RecentVideos(ctx, channel.Handle, feedURL,
			defaults.LookbackDays, defaults.VideosPerChannel)
		if err != nil {
			log.Printf("Discovery failed for %s: %v", channel.Handle, err)
			continue
		}
		videos = append(videos, found...)
	}
	return videos, nil
}

func retryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.Settings.Processing.RetryAttempts,
		BaseDelay:   cfg.Settings.Processing.RetryBaseDelay(),
		MaxDelay:    2 * time.Minute,
		Jitter:      true,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
