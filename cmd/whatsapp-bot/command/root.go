package command

// root.go defines the whatsapp-bot command: load config, bootstrap the bot
// and serve the Twilio webhook until interrupted.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"whatsappbot/internal/bot"
	"whatsappbot/internal/chat"
	"whatsappbot/internal/config"
	"whatsappbot/internal/http-api/handler"
	"whatsappbot/internal/http-api/middleware"
	"whatsappbot/internal/logging"
	"whatsappbot/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	host string // listen host, overrides HOST
	port int    // listen port, overrides PORT
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "whatsapp-bot",
	Short: "whatsapp-bot - answer WhatsApp messages from your own data",
	Long: `whatsapp-bot receives WhatsApp messages from Twilio on POST /chat.

Messages starting with "add " store the last word of the message (a URL is fetched)
and every other message is answered from the stored data.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	RunE:         run,
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err) // Print error to standard error
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&host, "host", "0.0.0.0", "Host IP to bind")
	rootCmd.Flags().IntVar(&port, "port", 5000, "Port to bind")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := shutdownContext(context.Background())
	defer stop()

	knowledgeBot, cleanup, err := bot.Bootstrap(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("could not start bot: %w", err)
	}
	defer cleanup()

	chatHandler := handler.NewChatHandler(chat.NewRouter(knowledgeBot, logger), logger)

	var mw []gin.HandlerFunc
	if cfg.TwilioAuthToken != "" {
		mw = append(mw, middleware.TwilioSignature(cfg.TwilioAuthToken, cfg.PublicURL, logger))
	} else {
		logger.Warn("TWILIO_AUTH_TOKEN not set, webhook signatures are not checked")
	}

	srv := server.NewServer(cfg.Addr(), server.NewEngine(chatHandler, mw...), cfg.ShutdownTimeout, logger)

	logger.Info("starting_whatsapp_bot", "addr", cfg.Addr(), "store", cfg.KnowledgeStore)
	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Info("Gracefully shutting down the WhatsApp bot")
	return nil
}

// applyFlags lets explicitly set flags win over the environment
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Host = host
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}
}

// shutdownContext is cancelled by the first SIGINT or SIGTERM. Signal handling
// is released right after, so a second interrupt during a graceful drain
// terminates the process.
func shutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	releaseOnDone(ctx, stop)
	return ctx, stop
}

func releaseOnDone(ctx context.Context, release func()) {
	go func() {
		<-ctx.Done()
		release()
	}()
}
