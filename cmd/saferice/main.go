package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/analysis"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/app"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/config"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/geminiservice"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/imagecapture"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	timeout    time.Duration

	// newAnalyzer is replaced in tests.
	newAnalyzer = func(ctx context.Context, cfg *config.Config) (analysis.Analyzer, error) {
		if cfg.Gemini.APIKey == "" {
			return nil, geminiservice.ErrNotConfigured
		}
		return app.NewAnalyzer(ctx, cfg)
	}
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "saferice",
	Short: "SafeRice Analyzer - AI rice quality and plant health analysis",
	Long: `SafeRice Analyzer classifies rice grains, detects rice plant diseases and
scores plant health from a single photo using a hosted Gemini model.

Run "saferice serve" to start the web app, or analyze a local image directly.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var classifyCmd = &cobra.Command{
	Use:   "classify <image>",
	Short: "Classify rice grains as long grain, short grain or broken",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFlow(cmd, args[0], func(ctx context.Context, a analysis.Analyzer, in geminiservice.ImageInput) (interface{}, error) {
			return analysis.Classify(ctx, a, in)
		})
	},
}

var diseaseCmd = &cobra.Command{
	Use:   "disease <image>",
	Short: "Detect diseases on a rice plant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFlow(cmd, args[0], func(ctx context.Context, a analysis.Analyzer, in geminiservice.ImageInput) (interface{}, error) {
			return analysis.DetectDisease(ctx, a, in)
		})
	},
}

var healthCmd = &cobra.Command{
	Use:   "health <image>",
	Short: "Score the health of a rice plant from 0 to 100",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFlow(cmd, args[0], func(ctx context.Context, a analysis.Analyzer, in geminiservice.ImageInput) (interface{}, error) {
			return analysis.AssessHealth(ctx, a, in)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $SAFERICE_CONFIG or saferice.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Analysis timeout")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(diseaseCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = zerolog.LevelDebugValue
	}
	cfg.SetupLogger()
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Run(ctx)
}

type flowFunc func(ctx context.Context, a analysis.Analyzer, in geminiservice.ImageInput) (interface{}, error)

// runFlow analyzes one local image file and prints the result as JSON.
func runFlow(cmd *cobra.Command, path string, run flowFunc) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	dataURI, err := imagecapture.FromBytes(data, "")
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	ctx = log.Logger.WithContext(ctx)

	analyzer, err := newAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}

	result, err := run(ctx, analyzer, geminiservice.ImageInput{PhotoDataURI: dataURI})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
