// Command prism runs round-based social media simulations driven by LLM
// agents.
//
// Usage:
//
//	prism run --config sim.yaml
//	prism resume --config sim.yaml
//	prism validate sim.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/prism-sim/prism"
	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/runtime"
	"github.com/prism-sim/prism/pkg/simulation"
)

// CLI defines the command-line interface.
type CLI struct {
	Run      RunCmd      `cmd:"" help:"Run a simulation."`
	Resume   ResumeCmd   `cmd:"" help:"Resume a simulation from a checkpoint."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file."`
	Schema   SchemaCmd   `cmd:"" help:"Generate JSON Schema for configuration files."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to the configuration file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error). Overrides the config file."`
	LogFile   string `help:"Log file path (empty = stderr). Overrides the config file."`
	LogFormat string `help:"Log format (simple or verbose). Overrides the config file."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(prism.GetVersion().String())
	return nil
}

// RunCmd runs a fresh simulation from the seeded population.
type RunCmd struct{}

func (c *RunCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, cleanup, err := loadRunConfig(cli)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	rt, err := runtime.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.Run(ctx)
	if err != nil {
		return err
	}
	printSummary(result)
	return nil
}

// ResumeCmd resumes from a checkpoint file. Without an argument it picks the
// newest checkpoint in the configured checkpoint directory.
type ResumeCmd struct {
	Checkpoint string `arg:"" optional:"" help:"Checkpoint file (default: latest in simulation.checkpoint_dir)." type:"path"`
}

func (c *ResumeCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, cleanup, err := loadRunConfig(cli)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	path := c.Checkpoint
	if path == "" {
		if cfg.Simulation.CheckpointDir == "" {
			return fmt.Errorf("no checkpoint given and simulation.checkpoint_dir is not set")
		}
		checkpointer, err := simulation.NewCheckpointer(cfg.Simulation.CheckpointDir)
		if err != nil {
			return err
		}
		path, err = checkpointer.LatestCheckpoint()
		if err != nil {
			return err
		}
		if path == "" {
			return fmt.Errorf("no checkpoints found in %s", cfg.Simulation.CheckpointDir)
		}
	}

	rt, err := runtime.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.Resume(ctx, path)
	if err != nil {
		return err
	}
	printSummary(result)
	return nil
}

// loadRunConfig loads the config file for run/resume and switches logging
// over to the merged CLI/config settings.
func loadRunConfig(cli *CLI) (*config.Config, func(), error) {
	if cli.Config == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, nil, err
	}
	cleanup, err := setupLogging(cli, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, cleanup, nil
}

// signalContext cancels on SIGINT/SIGTERM so a run stops at the next round
// boundary with its last checkpoint intact.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()

	return ctx, cancel
}

// printSummary prints the final engagement tallies of a run.
func printSummary(result *simulation.Result) {
	fmt.Printf("\nSimulation complete: %d rounds (%d run now)\n", result.TotalRounds, len(result.Rounds))
	fmt.Printf("  Posts created: %d\n", result.FinalMetrics.PostsCreated)
	fmt.Printf("  Likes:         %d\n", result.FinalMetrics.TotalLikes)
	fmt.Printf("  Reshares:      %d\n", result.FinalMetrics.TotalReshares)
	fmt.Printf("  Replies:       %d\n", result.FinalMetrics.TotalReplies)
}

// printBanner prints a colored ASCII banner using prism-violet (#8b5cf6)
func printBanner() {
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			// Not a terminal, skip banner
			return
		}
	} else {
		return
	}

	violetColor := "\033[38;2;139;92;246m"
	resetColor := "\033[0m"

	banner := `
██████╗ ██████╗ ██╗███████╗███╗   ███╗
██╔══██╗██╔══██╗██║██╔════╝████╗ ████║
██████╔╝██████╔╝██║███████╗██╔████╔██║
██╔═══╝ ██╔══██╗██║╚════██║██║╚██╔╝██║
██║     ██║  ██║██║███████║██║ ╚═╝ ██║
╚═╝     ╚═╝  ╚═╝╚═╝╚══════╝╚═╝     ╚═╝
`
	fmt.Printf("%s%s%s\n", violetColor, banner, resetColor)
}

// shouldSkipBanner reports whether the invoked command is informational
// (validate, schema, version) rather than a simulation run.
func shouldSkipBanner(args []string) bool {
	for _, arg := range args[1:] {
		if arg == "validate" || arg == "schema" || arg == "version" {
			return true
		}
	}
	return false
}

func main() {
	if !shouldSkipBanner(os.Args) {
		printBanner()
	}

	// .env values must be in place before ${VAR} expansion in the config.
	_ = config.LoadEnvFiles()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("prism"),
		kong.Description("PRISM - LLM-agent social media simulation"),
		kong.UsageOnError(),
	)

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
