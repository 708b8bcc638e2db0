// Package main provides the CLI entrypoint for tuicps.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuicps/internal/config"
	"github.com/verte-zerg/tuicps/internal/model"
	"github.com/verte-zerg/tuicps/internal/scores"
	"github.com/verte-zerg/tuicps/internal/stats"
	"github.com/verte-zerg/tuicps/internal/statsui"
	"github.com/verte-zerg/tuicps/internal/store"
	"github.com/verte-zerg/tuicps/internal/tui"
)

const (
	defaultTickMs      = 100
	minTickMs          = 10
	maxTickMs          = 1000
	defaultCurveWindow = 5
)

var (
	dbPath string

	testDuration int
	testTickMs   int
	testMouse    bool

	historyDuration    int
	historyLast        int
	historyCurveWindow int
	historyPlain       bool

	resetYes bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuicps",
		Short:         "TUI clicks-per-second test",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTestCmd,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: XDG data dir)")
	rootCmd.Flags().IntVar(&testDuration, "duration", model.DefaultDuration, "test length in seconds (1, 5, 10, 30, 60)")
	rootCmd.Flags().IntVar(&testTickMs, "tick-ms", defaultTickMs, "timer resolution in milliseconds")
	rootCmd.Flags().BoolVar(&testMouse, "mouse", true, "count mouse clicks")

	rootCmd.AddCommand(newBestCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}

func runTestCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "duration", &testDuration, fileCfg.Test.Duration)
	applyIntConfig(cmd, "tick-ms", &testTickMs, fileCfg.Test.TickMs)
	applyBoolConfig(cmd, "mouse", &testMouse, fileCfg.Test.Mouse)

	if err := validateConfig(testDuration, testTickMs); err != nil {
		return err
	}
	cfg := model.Config{
		Duration:     testDuration,
		TickInterval: time.Duration(testTickMs) * time.Millisecond,
		Mouse:        testMouse,
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	bests := scores.New(st)
	if _, err := bests.Load(context.Background()); err != nil {
		logErrf("%v\n", err)
	}

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	program := tea.NewProgram(tui.NewModel(cfg, bests, st), opts...)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newBestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "best",
		Short: "Print personal bests",
		Args:  cobra.NoArgs,
		RunE:  runBestCmd,
	}
}

func runBestCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	bests := scores.New(st)
	if _, err := bests.Load(cmd.Context()); err != nil {
		return err
	}
	if err := stats.RenderBests(cmd.OutOrStdout(), bests.All()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past sessions",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyDuration, "duration", 0, "only sessions of this length (0: all)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&historyCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print a text report instead of the TUI")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyDuration != 0 && !model.IsDuration(historyDuration) {
		return fmt.Errorf("--duration must be one of %s", durationList())
	}
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	cfg := model.HistoryConfig{
		Duration:    historyDuration,
		Last:        historyLast,
		CurveWindow: historyCurveWindow,
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if historyPlain {
		return renderPlainHistory(cmd, st, cfg)
	}
	program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func renderPlainHistory(cmd *cobra.Command, st *store.Store, cfg model.HistoryConfig) error {
	report, err := stats.BuildReport(cmd.Context(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	w := cmd.OutOrStdout()
	if err := stats.RenderSummary(w, report.Sessions); err != nil {
		return err
	}
	if err := stats.RenderTrend(w, report.Sessions, cfg.CurveWindow, 0); err != nil {
		return err
	}
	return stats.RenderSessions(w, report.Sessions)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear personal bests",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetYes, "yes", false, "confirm clearing all personal bests")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		return fmt.Errorf("refusing to clear personal bests without --yes")
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := scores.New(st).Clear(cmd.Context()); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), "Personal bests cleared."); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func openStore() (*store.Store, error) {
	path := dbPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tuicps configuration
# Uncomment a value to enable it. CLI flags override config values.

[test]
# duration = %d           # Test length in seconds: %s
# tick-ms = %d           # Timer resolution in milliseconds (%d-%d)
# mouse = true            # Count mouse clicks
`,
		model.DefaultDuration,
		durationList(),
		defaultTickMs,
		minTickMs,
		maxTickMs,
	)
}

func validateConfig(duration, tickMs int) error {
	if !model.IsDuration(duration) {
		return fmt.Errorf("--duration must be one of %s", durationList())
	}
	if tickMs < minTickMs || tickMs > maxTickMs {
		return fmt.Errorf("--tick-ms must be between %d and %d", minTickMs, maxTickMs)
	}
	return nil
}

func durationList() string {
	parts := make([]string, len(model.Durations))
	for i, d := range model.Durations {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return strings.Join(parts, ", ")
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
