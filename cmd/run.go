package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quillworks/autoedit/pkg/intent"
	"github.com/quillworks/autoedit/pkg/oracle"
	"github.com/quillworks/autoedit/pkg/orchestration"
	"github.com/quillworks/autoedit/pkg/store"
	"github.com/quillworks/autoedit/pkg/types"
	"github.com/quillworks/autoedit/pkg/utils"
)

var (
	flagRoot   string
	flagNoSave bool
)

var runCmd = &cobra.Command{
	Use:   "run <document> <instruction>",
	Short: "Edit a document to satisfy an instruction",
	Long: `Run the autonomous editing loop against one document. The document path is
resolved relative to the store root (current directory by default). The final
content is written back unless --no-save is given.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		document := args[0]
		instruction := strings.Join(args[1:], " ")
		return runEdit(cmd.Context(), document, instruction)
	},
}

func init() {
	runCmd.Flags().StringVar(&flagRoot, "root", ".", "store root directory")
	runCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "do not write the edited document back")
}

func runEdit(ctx context.Context, document, instruction string) error {
	logger := utils.GetLogger(flagVerbose)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fileStore, err := store.NewFileStore(flagRoot)
	if err != nil {
		return err
	}
	doc, err := fileStore.Load(document)
	if err != nil {
		return err
	}

	o, err := buildOracle(cfg, os.Getenv("OPENAI_API_KEY"))
	if err != nil {
		return err
	}

	runner, err := orchestration.NewRunner(orchestration.Dependencies{
		Oracle: o,
		Config: cfg,
		Intent: intent.NewDetector(o, oracle.Options{Model: cfg.Model, Temperature: cfg.Temperature}, logger),
		Logger: logger,
	})
	if err != nil {
		return err
	}

	result := runner.Run(ctx, instruction, doc)
	printRunResult(os.Stdout, result)

	switch result.Status {
	case types.RunSuccess:
		if !flagNoSave {
			if err := fileStore.Save(document, result.Final); err != nil {
				return fmt.Errorf("saving edited document: %w", err)
			}
			fmt.Printf("Saved %s\n", document)
		}
		return nil
	case types.RunNoEdit:
		fmt.Println("No edit was warranted by the instruction.")
		return nil
	default:
		return fmt.Errorf("run ended %s: %s", result.Status, result.Error)
	}
}

// printRunResult writes a human-readable run summary, colorizing diff lines
// when stdout is a terminal.
func printRunResult(w *os.File, result *types.RunResult) {
	colorize := term.IsTerminal(int(w.Fd()))

	fmt.Fprintf(w, "Run %s: %s (%d change(s), %d iteration(s), %s)\n",
		result.RunID, result.Status, result.Changes, len(result.Iterations), result.Duration.Round(timeRounding))
	if result.Goal != nil {
		fmt.Fprintf(w, "Goal: %s [%s]\n", result.Goal.Description, result.Goal.Complexity)
	}

	for _, rec := range result.Iterations {
		if rec.ToolCall != nil {
			fmt.Fprintf(w, "  step %d: %s\n", rec.Step, rec.ToolCall.Describe())
		} else {
			fmt.Fprintf(w, "  step %d: (no tool call)\n", rec.Step)
		}
		if rec.Verification != nil {
			fmt.Fprintf(w, "    +%d/-%d lines, confidence %.2f\n",
				rec.Verification.LinesAdded, rec.Verification.LinesRemoved, rec.Verification.Confidence)
			printDiff(w, rec.Verification.DiffSummary, colorize)
			for _, warn := range rec.Verification.Warnings {
				fmt.Fprintf(w, "    warning: %s\n", warn)
			}
		}
	}
}

const (
	colorGreen = "\x1b[32m"
	colorRed   = "\x1b[31m"
	colorReset = "\x1b[0m"

	timeRounding = 10 * time.Millisecond
)

func printDiff(w *os.File, summary string, colorize bool) {
	if summary == "" || summary == "no changes" {
		return
	}
	for _, line := range strings.Split(summary, "\n") {
		switch {
		case colorize && strings.HasPrefix(line, "+"):
			fmt.Fprintf(w, "    %s%s%s\n", colorGreen, line, colorReset)
		case colorize && strings.HasPrefix(line, "-"):
			fmt.Fprintf(w, "    %s%s%s\n", colorRed, line, colorReset)
		default:
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}
