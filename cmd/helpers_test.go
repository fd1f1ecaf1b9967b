package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/chat-session/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags puts every command flag back to its default so runs don't leak
// state into each other
func resetFlags() {
	verbose, configPath, storagePath, variantName, serverURL = false, "", "", "", ""
	sendImages, sendAttach = nil, ""
	limit, since, saveImages = 0, "", ""
	format, outputDir = "jsonl", "./exports"
	chatHistory = 10
	healthcheckVerbose, healthcheckOffline = false, false

	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
			for _, name := range []string{"help", "version"} {
				if f := fs.Lookup(name); f != nil {
					_ = f.Value.Set("false")
					f.Changed = false
				}
			}
		}
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
}

// testEnv is an isolated config dir plus a storage file
type testEnv struct {
	dir     string
	storage string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := testutil.IsolateConfig(t)
	return &testEnv{dir: dir, storage: filepath.Join(dir, "storage.db")}
}

// run executes the root command with --storage pointing at the test storage
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	rootCmd.SetArgs(append(args, "--storage", e.storage))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))

	err := rootCmd.Execute()
	return out.String(), err
}
