package main

import (
	"fmt"
	"os"

	"github.com/aretw0/whiteboard/internal/cli"
	"github.com/aretw0/whiteboard/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "whiteboard",
	Short: "Whiteboard is a shared board of cards driven by model tool calls",
	Long: `Whiteboard lets a language model explain ideas by arranging colored cards
into clusters. Chat in the terminal, serve sessions over HTTP, or expose the
tool catalog to MCP clients.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file (default ./"+config.DefaultPath+" when present)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("provider", "", "Model provider: uistream or gemini")
	flags.String("endpoint", "", "UI message stream endpoint (uistream provider)")
	flags.String("model", "", "Model name")
	flags.String("store", "", "Session store: memory, file or redis")
	flags.String("store-dir", "", "Directory of the file store")
	flags.String("redis-addr", "", "Redis address for the redis store")
	flags.String("prompts", "", "Directory of prompt profiles (markdown with frontmatter)")
	flags.String("profile", "", "Prompt profile to use")
	flags.Bool("strict", false, "Fail updates and removals of missing cards or clusters")
	flags.Bool("seed", false, "Start new sessions on the demo board")
	flags.Int("max-steps", 0, "Maximum automatic continuations per message")
}

// loadConfig reads the config file and environment, then applies explicitly set flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	str("log-level", &cfg.LogLevel)
	str("provider", &cfg.Provider)
	str("endpoint", &cfg.Endpoint)
	str("model", &cfg.Model)
	str("store", &cfg.Store.Kind)
	str("store-dir", &cfg.Store.Dir)
	str("redis-addr", &cfg.Store.Redis.Addr)
	str("prompts", &cfg.PromptsDir)
	str("profile", &cfg.Profile)
	if flags.Changed("strict") {
		cfg.StrictMissing, _ = flags.GetBool("strict")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetBool("seed")
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps, _ = flags.GetInt("max-steps")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newRuntime loads the configuration and assembles a runtime for cmd.
func newRuntime(cmd *cobra.Command, opts ...cli.RuntimeOption) (*cli.Runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.NewRuntime(cmd.Context(), cfg, opts...)
}
