package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/chat-session/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
	healthcheckOffline bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

const healthcheckProbeKey = "chat-session-healthcheck"

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, storage and backend access",
	Long: `Check the health of chat-session by verifying:
  • Configuration loading
  • Storage access and quota usage
  • Stored conversation readability
  • Backend reachability (skipped with --offline)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		say := func(a ...interface{}) { _, _ = fmt.Fprintln(out, a...) }
		sayf := func(format string, a ...interface{}) { _, _ = fmt.Fprintf(out, format, a...) }

		say(sectionStyle.Render("🔍 Chat Session Health Check"))
		say()

		// Step 1: Configuration
		say(infoStyle.Render("Step 1: Loading configuration..."))
		cfg, err := loadConfig()
		if err != nil {
			say(errorStyle.Render("❌ Failed to load configuration:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		say(successStyle.Render("✅ Configuration loaded"))
		if healthcheckVerbose {
			sayf("   Variant: %s\n", cfg.Variant)
			sayf("   Transport: %s\n", cfg.Transport)
			sayf("   Storage: %s\n", cfg.StoragePath)
		}
		say()

		// Step 2: Storage
		say(infoStyle.Render("Step 2: Opening storage..."))
		a, err := openApp()
		if err != nil {
			say(errorStyle.Render("❌ Failed to open storage:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		defer a.Close()
		say(successStyle.Render("✅ Storage opened"))

		usage, err := a.store.Usage()
		switch {
		case err != nil:
			say(warningStyle.Render("⚠️  Could not compute storage usage:"), err)
		case a.store.Quota() <= 0:
			say(successStyle.Render(fmt.Sprintf("✅ Storage usage: %d bytes (no quota)", usage)))
		default:
			pct := float64(usage) / float64(a.store.Quota()) * 100
			line := fmt.Sprintf("Storage usage: %d of %d bytes (%.1f%%)", usage, a.store.Quota(), pct)
			if pct >= 90 {
				say(warningStyle.Render("⚠️  " + line))
			} else {
				say(successStyle.Render("✅ " + line))
			}
		}

		storageOK := true
		if err := a.store.Set(healthcheckProbeKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
			storageOK = false
			var quotaErr *internal.QuotaExceededError
			if errors.As(err, &quotaErr) {
				say(errorStyle.Render("❌ Storage is full; new messages will only be kept in memory"))
			} else {
				say(errorStyle.Render("❌ Storage is not writable:"), err)
			}
		} else {
			_ = a.store.Remove(healthcheckProbeKey)
			say(successStyle.Render("✅ Storage is writable"))
		}

		if healthcheckVerbose {
			if keys, err := a.store.Keys("%"); err == nil {
				for _, key := range keys {
					sayf("   Key: %s\n", key)
				}
			}
		}
		say()

		// Step 3: Conversation
		say(infoStyle.Render("Step 3: Reading stored conversation..."))
		count := a.session.Len()
		if count > 0 {
			say(successStyle.Render(fmt.Sprintf("✅ %d message(s) restored", count)))
		} else {
			say(warningStyle.Render("⚠️  No stored messages"))
		}
		if id := a.session.SessionID(); id != "" {
			sayf("   Session: %s\n", id)
		}
		say()

		// Step 4: Backend
		backendOK := true
		say(infoStyle.Render("Step 4: Checking backend..."))
		switch {
		case healthcheckOffline:
			say(warningStyle.Render("⚠️  Skipped (--offline)"))
		case cfg.Transport == internal.TransportOpenAI:
			if cfg.OpenAI.APIKey == "" {
				backendOK = false
				say(errorStyle.Render("❌ No OpenAI API key configured (set CHAT_OPENAI_API_KEY or OPENAI_API_KEY)"))
			} else {
				say(successStyle.Render("✅ OpenAI API key configured"))
			}
		default:
			proxy, err := internal.NewProxyTransport(cfg.ServerURL, a.session.Variant(), internal.WithTimeout(5*time.Second))
			if err == nil {
				ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
				err = proxy.Ping(ctx)
				cancel()
			}
			if err != nil {
				backendOK = false
				say(errorStyle.Render("❌ Backend unreachable:"), err)
			} else {
				say(successStyle.Render("✅ Backend reachable at " + proxy.URL()))
			}
		}
		say()

		// Summary
		say(sectionStyle.Render("📊 Summary"))
		say()
		if storageOK && backendOK {
			say(successStyle.Render("✅ Health check passed!"))
			return nil
		}
		say(errorStyle.Render("❌ Health check failed"))
		if !storageOK {
			say("   • Storage cannot be written")
		}
		if !backendOK {
			say("   • Backend is not available")
		}
		return fmt.Errorf("health check failed")
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckVerbose, "details", false, "Show detailed diagnostic information")
	healthcheckCmd.Flags().BoolVar(&healthcheckOffline, "offline", false, "Skip the backend check")
}
