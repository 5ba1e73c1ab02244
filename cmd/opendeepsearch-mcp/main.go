package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sengokudaikon/opendeepsearch-mcp/internal/adapter"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/agent"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/config"
	"github.com/sengokudaikon/opendeepsearch-mcp/internal/credentials"
	"github.com/sengokudaikon/opendeepsearch-mcp/pkg/logger"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
)

var (
	cfgFile  string
	logLevel string
	active   bool
	showVer  bool
)

var rootCmd = &cobra.Command{
	Use:   "opendeepsearch-mcp",
	Short: "OpenDeepSearch MCP server",
	Long: `An MCP server speaking over stdio that exposes the perform_search tool:
web search, reranking, optional page fetching and an LLM answer with its
numbered sources.`,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	SilenceUsage:       true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := logger.ParseLevel(logLevel)
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVer {
			fmt.Printf("opendeepsearch-mcp %s (built %s)\n", Version, BuildDate)
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// The flag wins over the config file when it was given explicitly.
		if cmd.Flags().Changed("log-level") || cfg.Logging.Level == "" {
			cfg.Logging.Level = logLevel
		}

		logger.Init(cfg.Logging.Level, cfg.Logging.Format)
		defer logger.Sync()

		logger.Info("starting server",
			zap.String("version", Version),
			zap.String("level", cfg.Logging.Level),
			zap.Bool("active", active),
		)

		return serve(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "log level (DEBUG, INFO, WARNING, ERROR, CRITICAL)")
	rootCmd.PersistentFlags().BoolVar(&active, "active", false, "select the active runtime environment")
	rootCmd.Flags().BoolVarP(&showVer, "version", "v", false, "show version")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := server.NewMCPServer(cfg.Server.Name, cfg.Server.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	stager := credentials.NewStager(credentials.EnvStore{})
	factory := func(c agent.Config, out io.Writer) (adapter.Agent, error) {
		a, err := agent.New(c, agent.Deps{Defaults: cfg, Slots: stager.Store(), Output: out})
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	adapter.New(factory, stager).Register(s)

	logger.Info("serving on stdio", zap.String("name", cfg.Server.Name))

	err := server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout)
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		logger.Info("server stopped")
		return nil
	}
	logger.Error("server error", zap.Error(err))
	return err
}
