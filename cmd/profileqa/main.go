package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/profileqa/internal/config"
	"github.com/xxxsen/profileqa/internal/handler"
	"github.com/xxxsen/profileqa/internal/job"
	"github.com/xxxsen/profileqa/internal/middleware"
	"github.com/xxxsen/profileqa/internal/model"
	"github.com/xxxsen/profileqa/internal/pkg/jwt"
	"github.com/xxxsen/profileqa/internal/schedule"
	"github.com/xxxsen/profileqa/internal/tui"
)

func main() {
	var (
		configPath string
		envPath    string
	)

	rootCmd := &cobra.Command{
		Use:           "profileqa",
		Short:         "question answering over a professional profile",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json or config.yaml")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "dotenv file loaded before the config")

	load := func(quiet bool) (*config.Config, error) {
		if configPath == "" {
			return nil, fmt.Errorf("--config is required")
		}
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if quiet {
			// keep the terminal clean for interactive output
			cfg.LogConfig.Console = false
			if cfg.LogConfig.File == "" {
				cfg.LogConfig.Level = "error"
			}
		}
		logger.Init(
			cfg.LogConfig.File,
			cfg.LogConfig.Level,
			int(cfg.LogConfig.FileCount),
			int(cfg.LogConfig.FileSize),
			int(cfg.LogConfig.KeepDays),
			cfg.LogConfig.Console,
		)
		logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
		return cfg, nil
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "serve the http api",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(false)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	reindexCmd := &cobra.Command{
		Use:   "reindex",
		Short: "rebuild the retrieval index and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(false)
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			count, err := a.qa.Reindex(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d chunks into %s\n", count, a.retriever.StoreName())
			return nil
		},
	}

	var stream bool
	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "answer one question and print the sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(true)
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.qa.Init(cmd.Context()); err != nil {
				return err
			}
			return ask(cmd, a, strings.Join(args, " "), stream)
		},
	}
	askCmd.Flags().BoolVar(&stream, "stream", false, "print answer fragments as they arrive")

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "interactive terminal chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(true)
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			chat, err := a.withTemplate(cfg.ChatTemplate)
			if err != nil {
				return err
			}
			if err := chat.Init(cmd.Context()); err != nil {
				return err
			}
			p := tea.NewProgram(tui.New(cmd.Context(), chat, "Profile chat"), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	var (
		subject string
		ttl     time.Duration
	)
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "issue an admin token for the reindex api",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(true)
			if err != nil {
				return err
			}
			if cfg.AdminSecret == "" {
				return fmt.Errorf("admin_secret is not configured")
			}
			token, err := jwt.GenerateToken(subject, jwt.RoleAdmin, []byte(cfg.AdminSecret), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	tokenCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(runCmd, reindexCmd, askCmd, chatCmd, tokenCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logutil.GetLogger(context.Background()).Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func ask(cmd *cobra.Command, a *app, question string, stream bool) error {
	out := cmd.OutOrStdout()
	var (
		res *model.QueryResult
		err error
	)
	if stream {
		res, err = a.qa.AskStream(cmd.Context(), question, func(delta string) error {
			_, werr := fmt.Fprint(out, delta)
			return werr
		})
		fmt.Fprintln(out)
	} else {
		res, err = a.qa.Ask(cmd.Context(), question)
		if err == nil {
			fmt.Fprintln(out, res.Answer)
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nsources (%d):\n", len(res.Sources))
	for i, c := range res.Sources {
		line := fmt.Sprintf("  %d. %s", i+1, c.SectionType)
		if name, ok := c.Meta(model.MetaProjectName); ok {
			line += " " + name
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runServer(ctx context.Context, cfg *config.Config) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.qa.Init(ctx); err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	status := a.qa.Status()
	logutil.GetLogger(ctx).Info("index ready",
		zap.Int("chunks", status.ChunkCount),
		zap.Bool("reused", status.Reused),
		zap.String("store", status.Store),
	)

	deps := handler.RouterDeps{
		QA:              handler.NewQAHandler(a.qa, handler.NewAnswerFormatter(cfg.AnswerFormat)),
		Admin:           handler.NewAdminHandler(a.qa),
		AdminSecret:     []byte(cfg.AdminSecret),
		RateLimitWindow: time.Duration(cfg.RateLimitSeconds) * time.Second,
	}
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/query/stream"})),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	if cfg.ReindexCron != "" {
		scheduler := schedule.NewCronScheduler()
		if err := scheduler.AddJob(job.NewReindexJob(a.qa), cfg.ReindexCron); err != nil {
			return err
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
