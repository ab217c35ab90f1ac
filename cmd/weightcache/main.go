package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jmgilman/go/errors"

	"weightcache/internal/cache"
	"weightcache/internal/logging"
	"weightcache/pkg/config"
)

var (
	configPath = flag.String("config", "configs/weightcache.yaml", "Path to configuration file")
	entries    = flag.Int("entries", 300, "Number of entries to insert")
	waitFor    = flag.Duration("wait", 5*time.Second, "How long to wait for eviction to settle")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Early error before logging is initialized
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.InitializeFromConfig("weightcache", logging.LogConfig{
		Level:         cfg.Logging.Level,
		EnableConsole: cfg.Logging.EnableConsole,
		EnableFile:    cfg.Logging.EnableFile,
		LogFile:       cfg.Logging.LogFile,
		BufferSize:    cfg.Logging.BufferSize,
		LogDir:        cfg.Logging.LogDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	ctx := logging.WithCorrelationID(context.Background(), logging.NewCorrelationID())
	logging.Debug(ctx, logging.ComponentConfig, logging.ActionLoad, "Configuration loaded", map[string]interface{}{
		"config_file": *configPath,
		"log_level":   cfg.Logging.Level,
	})
	logging.Info(ctx, logging.ComponentMain, logging.ActionStart, "Weighted cache demo starting", map[string]interface{}{
		"config_file": *configPath,
		"cache":       cfg.Cache.Name,
		"max_weight":  cfg.Cache.MaxWeight,
		"weigher":     cfg.Cache.Weigher,
	})

	c, err := newCache(cfg.Cache)
	if err != nil {
		logging.Fatal(ctx, logging.ComponentMain, logging.ActionStart, "Failed to create cache", err)
		logger.Close()
		os.Exit(1)
	}

	if err := run(ctx, c); err != nil {
		logging.Fatal(ctx, logging.ComponentMain, logging.ActionStop, "Demo failed", err)
		logger.Close()
		os.Exit(1)
	}

	logging.Info(ctx, logging.ComponentMain, logging.ActionStop, "Weighted cache demo finished")
}

// newCache builds a string cache from the configuration
func newCache(cfg config.CacheConfig) (*cache.Cache[string, string], error) {
	opts := cache.NewOptions[string, string](cfg.MaxWeight)
	opts.Name = cfg.Name
	opts.CleanupThresholdPercent = cfg.CleanupThresholdPercent

	if cfg.Weigher == config.WeigherLength {
		opts.Weigher = func(v string) int64 { return int64(len(v)) }
	}
	if cfg.CaseInsensitiveKeys {
		opts.Comparer = cache.FoldedStringComparer{}
	}

	opts.Retriever = func(_ context.Context, key string) (string, error) {
		return "Value from retriever for key = " + key, nil
	}
	opts.OnEvict = func(key, _ string) {
		logging.Debug(context.Background(), logging.ComponentEviction, logging.ActionEvict, "Entry evicted", map[string]interface{}{
			"key": key,
		})
	}

	return cache.New(opts)
}

func run(ctx context.Context, c *cache.Cache[string, string]) error {
	// Shown on an empty cache so the key cannot have been evicted yet
	if err := c.Add("DemoKey", "first"); err != nil {
		return err
	}
	if err := c.Add("DemoKey", "second"); errors.Is(err, cache.ErrDuplicateKey) {
		fmt.Printf("Add on an existing key fails: %v\n", err)
	}
	c.Set("DemoKey", "overwritten")

	for i := 0; i < *entries; i++ {
		key := fmt.Sprintf("MyKey%d", i)
		if err := c.Add(key, fmt.Sprintf("MyValue%d", i)); err != nil {
			return err
		}
	}

	value, err := c.GetContext(ctx, "NotAddedYet")
	if err != nil {
		return err
	}
	fmt.Printf("Retrieved on miss: %s\n", value)

	waitCtx, cancel := context.WithTimeout(ctx, *waitFor)
	defer cancel()
	if err := c.WaitForEviction(waitCtx); err != nil {
		logging.Warn(ctx, logging.ComponentMain, logging.ActionCleanup, "Eviction still running", map[string]interface{}{
			"error": err.Error(),
		})
	}

	for key, value := range c.All() {
		fmt.Printf("%s => %s\n", key, value)
	}

	stats := c.Stats()
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	fmt.Printf("Hit rate: %.2f%%\n", stats.HitRate())

	return nil
}
