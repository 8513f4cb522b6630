package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ironsheep/shape-finder-mcp/internal/config"
	"github.com/ironsheep/shape-finder-mcp/internal/history"
	"github.com/ironsheep/shape-finder-mcp/internal/server"
	"github.com/ironsheep/shape-finder-mcp/internal/tui"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Configure logging to stderr (stdout is for MCP protocol and results)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("shape-finder: %v", err)
	}
}

func run(args []string, stdout io.Writer) error {
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "--version", "-v", "version":
		printVersion(stdout)
		return nil
	case "--help", "-h", "help":
		printUsage(stdout)
		return nil
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if cfg.Debug() {
		log.Printf("shape-finder v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	switch cmd {
	case "serve":
		err = runServe(cfg)
	case "classify":
		err = runClassify(args, cfg, stdout)
	case "view":
		err = runView(args, cfg)
	case "history":
		err = runHistory(args, cfg, stdout)
	default:
		printUsage(stdout)
		return fmt.Errorf("unknown command %q", cmd)
	}
	// -h on a subcommand has already printed its flags
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "shape-finder %s\n", Version)
	fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "shape-finder - classify the dominant shape in an image")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: shape-finder [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve                 Run the MCP server on stdin/stdout (default)")
	fmt.Fprintln(w, "  classify image...     Classify images and print the results")
	fmt.Fprintln(w, "  view image            Open the terminal viewer")
	fmt.Fprintln(w, "  history               List recorded analyses")
	fmt.Fprintln(w, "  --version, -v         Print version information")
	fmt.Fprintln(w, "  --help, -h            Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'shape-finder <command> -h' for command options.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s=debug    Enable debug logging\n", config.EnvLogLevel)
	fmt.Fprintf(w, "  %s           History database (empty disables history)\n", config.EnvDB)
	fmt.Fprintf(w, "  %s, %s, %s, %s\n", config.EnvMinArea, config.EnvSimplifyFraction, config.EnvSquareMin, config.EnvSquareMax)
	fmt.Fprintf(w, "  %s, %s, %s, %s, %s\n", config.EnvCircularity, config.EnvMode, config.EnvThreshold, config.EnvBlur, config.EnvMaxDimension)
}

// openHistory opens the history database at path, creating its directory.
func openHistory(path string) (*history.Store, error) {
	if path == "" {
		return nil, errors.New("no history database configured")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("history dir: %w", err)
		}
	}
	return history.NewStore(path)
}

func runServe(cfg config.Config) error {
	var store *history.Store
	if cfg.DBPath != "" {
		s, err := openHistory(cfg.DBPath)
		if err != nil {
			// the server is still useful without history
			log.Printf("History disabled: %v", err)
		} else {
			store = s
			defer store.Close()
		}
	}

	server.Version = Version
	srv, err := server.New(cfg, store)
	if err != nil {
		return err
	}
	if err := srv.Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runView(args []string, cfg config.Config) error {
	fs, mf := newMaskFlagSet("view", cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("view: exactly one image is required")
	}
	p, err := mf.pipeline(cfg)
	if err != nil {
		return err
	}
	m := tui.NewWithPath(p, fs.Arg(0))
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	return nil
}
