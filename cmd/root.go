package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/chat-session/internal"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	configPath  string
	storagePath string
	variantName string
	serverURL   string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chat-session",
	Short: "Chat with a Gemini or OpenAI backend from the terminal",
	Long: `A terminal chat client for the Gemini and OpenAI chat proxy.

Conversations survive restarts: every message is mirrored into a local
storage file and restored on the next run. Images travel with the message
that carries them and the most recent ones are kept on disk.

Quick Start:
  chat-session send "Hello there"             # Send one message
  chat-session send --image cat.png           # Ask about an image
  chat-session chat                           # Interactive session
  chat-session show -n 10                     # Print the last messages
  chat-session export --format md             # Export the conversation`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config and applies the persistent flag overrides
func loadConfig() (*internal.Config, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if storagePath != "" {
		cfg.StoragePath = storagePath
	}
	if variantName != "" {
		cfg.Variant = variantName
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app is the wired client a command works with
type app struct {
	cfg         *internal.Config
	store       *internal.Store
	codec       *internal.Codec
	persistence *internal.PersistenceSync
	session     *internal.Session
}

// openApp opens storage and hydrates the session for the configured variant
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	variant, err := internal.LookupVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}

	store, err := internal.OpenStore(cfg.StoragePath, cfg.StorageQuota)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	internal.LogDebug("Using storage %s (%s variant)", store.Path(), variant.Name)

	codec := internal.NewCodec(internal.NewHandleRegistry(), cfg.MaxAttachmentBytes)
	persistence := internal.NewPersistenceSync(store, variant, codec, cfg.Limits())

	return &app{
		cfg:         cfg,
		store:       store,
		codec:       codec,
		persistence: persistence,
		session:     persistence.Hydrate(),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		internal.LogWarn("Failed to close storage: %v", err)
	}
}

// warnUnsaved reports a storage write that failed during the last exchange
func (a *app) warnUnsaved() {
	if err := a.persistence.LastWriteError(); err != nil {
		internal.PrintWarning(fmt.Sprintf("Conversation not saved, it is only kept in memory: %v", err))
	}
}

func (a *app) newBridge() (*internal.Bridge, error) {
	transport, err := a.cfg.NewTransport(a.session.Variant())
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}
	return internal.NewBridge(a.session, transport, a.codec, a.cfg.BridgeOptions()), nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: "+internal.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Storage database file")
	rootCmd.PersistentFlags().StringVar(&variantName, "variant", "", "Backend variant (gemini, openai)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Chat proxy base URL")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
