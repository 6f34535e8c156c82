package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/api"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/docgen"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/flow"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/lockfile"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/messaging"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/recognition"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/scheduler"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/store"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/twiliowhatsapp"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/util"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/whatsapp"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for ChatBotCore state data
	DefaultStateDir = "/var/lib/chatbotcore"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "chatbotcore.db"
	// TransportWhatsApp selects the Whatsmeow-based transport
	TransportWhatsApp = "whatsapp"
	// TransportTwilio selects the Twilio webhook transport
	TransportTwilio = "twilio"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	slog.Info("Bootstrapping ChatBotCore with configured modules")
	if err := run(flags); err != nil {
		slog.Error("ChatBotCore failed to run", "error", err)
		lock.Release()
		os.Exit(1)
	}
	slog.Info("ChatBotCore exited successfully")
}

// Config holds environment configuration
type Config struct {
	DbDriver       string
	DbDSN          string
	DatabaseURL    string
	StateDir       string
	Transport      string
	RecognitionURL string
	DocgenURL      string
	APIAddr        string
	NumericCode    bool
}

// Flags holds command line flag values
type Flags struct {
	qrOutput       *string
	numeric        *bool
	stateDir       *string
	dbDriver       *string
	dbDSN          *string
	transport      *string
	recognitionURL *string
	docgenURL      *string
	apiAddr        *string
	janitorCron    *string
	stateTTL       *time.Duration
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DbDriver:       os.Getenv("CHATBOT_DB_DRIVER"),
		DbDSN:          os.Getenv("CHATBOT_DB_DSN"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		StateDir:       os.Getenv("CHATBOT_STATE_DIR"),
		Transport:      os.Getenv("CHATBOT_TRANSPORT"),
		RecognitionURL: os.Getenv("RECOGNITION_SERVICE_URL"),
		DocgenURL:      os.Getenv("DOCGEN_SERVICE_URL"),
		APIAddr:        os.Getenv("API_ADDR"),
		NumericCode:    util.ParseBoolEnv("CHATBOT_NUMERIC_CODE", false),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No CHATBOT_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	if config.DbDSN == "" {
		config.DbDSN = config.DatabaseURL
		if config.DatabaseURL != "" {
			slog.Debug("Using DATABASE_URL as CHATBOT_DB_DSN", "dsn_set", true)
		}
	}
	if config.DbDSN == "" {
		config.DbDSN = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DbDSN)
	}

	if config.Transport == "" {
		config.Transport = TransportWhatsApp
	}

	slog.Debug("environment variables loaded",
		"CHATBOT_DB_DRIVER", config.DbDriver,
		"CHATBOT_DB_DSN_SET", config.DbDSN != "",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"CHATBOT_STATE_DIR", config.StateDir,
		"CHATBOT_TRANSPORT", config.Transport,
		"RECOGNITION_SERVICE_URL_SET", config.RecognitionURL != "",
		"DOCGEN_SERVICE_URL_SET", config.DocgenURL != "",
		"API_ADDR", config.APIAddr)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		qrOutput:       flag.String("qr-output", "", "path to write login QR code"),
		numeric:        flag.Bool("numeric-code", config.NumericCode, "use numeric login code instead of QR code (overrides $CHATBOT_NUMERIC_CODE)"),
		stateDir:       flag.String("state-dir", config.StateDir, "state directory for ChatBotCore data (overrides $CHATBOT_STATE_DIR)"),
		dbDriver:       flag.String("db-driver", config.DbDriver, "database driver for WhatsApp session and state store (overrides $CHATBOT_DB_DRIVER)"),
		dbDSN:          flag.String("db-dsn", config.DbDSN, "database DSN for WhatsApp session and state store (overrides $CHATBOT_DB_DSN or $DATABASE_URL)"),
		transport:      flag.String("transport", config.Transport, "message transport: whatsapp or twilio (overrides $CHATBOT_TRANSPORT)"),
		recognitionURL: flag.String("recognition-url", config.RecognitionURL, "credential recognition service base URL (overrides $RECOGNITION_SERVICE_URL)"),
		docgenURL:      flag.String("docgen-url", config.DocgenURL, "document generation service base URL (overrides $DOCGEN_SERVICE_URL)"),
		apiAddr:        flag.String("api-addr", config.APIAddr, "operational HTTP server address (overrides $API_ADDR)"),
		janitorCron:    flag.String("janitor-cron", "", "cron expression for the idle-state janitor (default daily at 03:00)"),
		stateTTL:       flag.Duration("state-ttl", scheduler.DefaultIdleTTL, "how long idle conversations are kept before the janitor purges them"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"qrOutput", *flags.qrOutput,
		"numeric", *flags.numeric,
		"stateDir", *flags.stateDir,
		"dbDriver", *flags.dbDriver,
		"dbDSN_set", *flags.dbDSN != "",
		"transport", *flags.transport,
		"recognitionURL_set", *flags.recognitionURL != "",
		"docgenURL_set", *flags.docgenURL != "",
		"apiAddr", *flags.apiAddr,
		"janitorCron", *flags.janitorCron,
		"stateTTL", *flags.stateTTL)

	// Follow an overridden state directory when the DSN was defaulted from it.
	if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		return nil
	}
	stateDir := filepath.Dir(*flags.dbDSN)
	slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
		return err
	}
	return nil
}

// buildStore constructs the state store backend based on the DSN type.
func buildStore(flags Flags) (store.Store, error) {
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return store.NewPostgresStore(store.WithPostgresDSN(*flags.dbDSN))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", *flags.dbDSN)
	return store.NewSQLiteStore(store.WithSQLiteDSN(*flags.dbDSN))
}

// buildWhatsAppOptions constructs WhatsApp client configuration options
func buildWhatsAppOptions(flags Flags) []whatsapp.Option {
	var waOpts []whatsapp.Option
	if *flags.qrOutput != "" {
		waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
	}
	if *flags.numeric {
		waOpts = append(waOpts, whatsapp.WithNumericCode())
	}
	if *flags.dbDriver != "" {
		waOpts = append(waOpts, whatsapp.WithDBDriver(*flags.dbDriver))
	}
	if *flags.dbDSN != "" {
		waOpts = append(waOpts, whatsapp.WithDBDSN(*flags.dbDSN))
	}
	return waOpts
}

// buildTransport constructs the messaging service for the selected transport.
// For Twilio the inbound webhook is mounted on the operational HTTP server.
func buildTransport(flags Flags, apiServer *api.Server) (messaging.Service, error) {
	switch *flags.transport {
	case TransportTwilio:
		client, err := twiliowhatsapp.NewClient()
		if err != nil {
			return nil, err
		}
		svc := messaging.NewTwilioService(client)
		apiServer.RegisterWebhook("/webhook/twilio", svc.WebhookHandler)
		return svc, nil
	default:
		client, err := whatsapp.NewClient(buildWhatsAppOptions(flags)...)
		if err != nil {
			return nil, err
		}
		return messaging.NewWhatsAppService(client), nil
	}
}

func run(flags Flags) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := buildStore(flags)
	if err != nil {
		return err
	}
	defer st.Close()

	recognizer, err := recognition.NewClient(recognition.WithBaseURL(*flags.recognitionURL))
	if err != nil {
		return err
	}
	generator, err := docgen.NewClient(docgen.WithBaseURL(*flags.docgenURL))
	if err != nil {
		return err
	}

	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	apiServer := api.NewServer(apiOpts...)

	svc, err := buildTransport(flags, apiServer)
	if err != nil {
		return err
	}

	router := flow.NewRouter(
		flow.NewWelcomeModule(),
		flow.NewRequirementsModule(),
		flow.NewSimulationModule(recognizer),
		flow.NewAdvisorModule(),
		flow.NewFAQModule(),
		flow.NewApplicationModule(recognizer, generator),
	)
	dispatcher := messaging.NewDispatcher(svc, router, st)

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := sched.AddStateJanitor(*flags.janitorCron, st, *flags.stateTTL); err != nil {
		return err
	}

	apiServer.Start()
	if err := svc.Start(ctx); err != nil {
		return err
	}
	dispatcher.Start(ctx)

	slog.Info("ChatBotCore running", "transport", *flags.transport)
	<-ctx.Done()

	slog.Info("Shutdown signal received, draining")
	dispatcher.Wait()
	if err := svc.Stop(); err != nil {
		slog.Error("Failed to stop messaging service", "error", err)
	}
	if err := apiServer.Stop(); err != nil {
		slog.Error("Failed to stop HTTP server", "error", err)
	}
	return nil
}
