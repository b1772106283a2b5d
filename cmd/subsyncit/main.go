package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/subsyncit/subsyncit/internal/syncconfig"
	"github.com/subsyncit/subsyncit/internal/utils"
	"github.com/subsyncit/subsyncit/internal/version"
)

var cyan = color.New(color.FgHiCyan, color.Bold).SprintFunc()

var rootCmd = &cobra.Command{
	Use:     "subsyncit remote_url local_root user",
	Short:   "Subsyncit: a bidirectional file synchronizer for Subversion",
	Version: version.Detailed(),
	Args:    cobra.ExactArgs(3),
	RunE:    runRoot,
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().String("passwd", "", "Subversion password; \"*NONE\" for anonymous; omit to be prompted")
	rootCmd.Flags().Bool("verify-ssl-cert", true, "verify the server's SSL certificate")
	rootCmd.Flags().Bool("no-verify-ssl-cert", false, "do not verify the server's SSL certificate")
	rootCmd.Flags().Bool("do-not-scan-file-system-periodically", false, "disable the periodic full directory scan")
	rootCmd.Flags().Bool("do-not-listen-for-file-system-events", false, "disable the fsnotify watcher")
	rootCmd.Flags().Int("sleep-secs-between-polling", 30, "seconds to sleep between reconciliation passes when idle")

	viper.SetEnvPrefix("SUBSYNCIT")
	viper.AutomaticEnv()
	viper.BindPFlag("passwd", rootCmd.Flags().Lookup("passwd"))
	viper.BindPFlag("sleep_secs_between_polling", rootCmd.Flags().Lookup("sleep-secs-between-polling"))
}

func runRoot(cmd *cobra.Command, args []string) error {
	passwd := viper.GetString("passwd")
	verifySSL, _ := cmd.Flags().GetBool("verify-ssl-cert")
	noVerifySSL, _ := cmd.Flags().GetBool("no-verify-ssl-cert")
	if noVerifySSL {
		verifySSL = false
	}
	noScan, _ := cmd.Flags().GetBool("do-not-scan-file-system-periodically")
	noWatch, _ := cmd.Flags().GetBool("do-not-listen-for-file-system-events")
	sleepSecs := viper.GetInt("sleep_secs_between_polling")

	cfg, err := syncconfig.Resolve(syncconfig.Options{
		RemoteURL:     args[0],
		LocalRoot:     args[1],
		User:          args[2],
		Password:      passwd,
		VerifySSL:     verifySSL,
		ScanEnabled:   !noScan,
		WatchEnabled:  !noWatch,
		SleepInterval: sleepSecs,
	})
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true
	showHeader()

	defer slog.Info("subsyncit: bye")
	return runDaemon(cmd.Context(), cfg)
}

func main() {
	logFile := defaultLogFilePath()
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		os.Exit(1)
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	logger := newLogger(file)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newLogger(file *os.File) *slog.Logger {
	stdoutHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})

	return slog.New(utils.NewMultiHandler(stdoutHandler, fileHandler))
}

func defaultLogFilePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".subsyncit", "subsyncit.log")
}

func showHeader() {
	fmt.Fprint(os.Stdout, cyan(fmt.Sprintf("Subsyncit %s\n", version.Version)))
}
