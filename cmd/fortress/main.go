package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/techfortress/fortress/pkg/config"
	"github.com/techfortress/fortress/pkg/output"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var (
	outputFile string
	noColor    bool
	quiet      bool
	verbose    bool
)

// Set up by the root PersistentPreRunE for every subcommand
var (
	tools     *app
	closeOut  = func() error { return nil }
	stdinRead io.Reader = os.Stdin
)

var rootCmd = &cobra.Command{
	Use:   "fortress",
	Short: "Tech Fortress reconnaissance toolkit",
	Long: `Fortress - reconnaissance toolkit for authorized testing

Tools:
  • Host discovery (ICMP ping)
  • TCP connect port scanning
  • Web info (headers, title) and path existence checks
  • Subdomain enumeration
  • Banner grabbing
  • IP geolocation

Run without a command to open the interactive menu.
Only scan systems you are authorized to test.`,

	Example: `  # Interactive menu
  fortress

  # Scan a port range with 100 concurrent probes
  fortress scan -p 1-1024 -c 100 scanme.nmap.org

  # Resolve through a specific DNS server
  fortress scan -p 22,80,443 --resolver 1.1.1.1 example.com

  # Ping sweep without root
  fortress ping --unprivileged 192.168.1.0/24

  # Path check with a custom wordlist, 20 requests/second
  fortress dirs -w common.txt --rate 20 http://example.com/`,

	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMenu(cmd.Context(), tools, stdinRead)
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		return closeOut()
	},
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("fortress %s (commit: %s, built: %s)\n", version, commit, date))

	f := rootCmd.PersistentFlags()
	f.StringVarP(&outputFile, "output", "o", "-", "Write results to file (- for stdout)")
	f.BoolVar(&noColor, "no-color", false, "Disable colored output")
	f.BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	f.BoolVarP(&verbose, "verbose", "v", false, "Verbose logging, show closed and filtered ports")

	rootCmd.AddCommand(scanCmd(), pingCmd(), bannerCmd(), webCmd(), dirsCmd(), subdomainsCmd(), geoCmd(), menuCmd())
}

func setup(cmd *cobra.Command, _ []string) error {
	initLogger()

	var w io.Writer = cmd.OutOrStdout()
	useColor := !noColor && !color.NoColor
	if outputFile != "-" && outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		w, useColor = f, false
		closeOut = f.Close
	}

	tools = newApp(output.NewConsole(w, useColor), verbose)
	return nil
}

func initLogger() {
	var level slog.Level
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// interruptible returns a context canceled by SIGINT or SIGTERM. After the
// first signal the default handling is restored, so a second one exits.
func interruptible(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			slog.Info("interrupted, stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func main() {
	config.Init()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
