package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lenslabs/fieldlens/internal/javasrc"
	"github.com/lenslabs/fieldlens/internal/pipeline"
	"github.com/lenslabs/fieldlens/internal/report"
	"github.com/lenslabs/fieldlens/internal/result"
	"github.com/lenslabs/fieldlens/internal/stream"
)

var (
	analyzeEvents     string
	analyzeEmitEvents string
	analyzeOutput     string
	analyzeMaxDepth   int
	analyzeNoSetters  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a source tree and write the field-requirement document",
	Long: `Analyze runs the full pipeline: per-class property-access classification,
repository identification, call-graph construction and field-requirement
propagation, then writes the analysis document.

Input is either a Java source tree (the bundled front end) or a JSON event
dump produced by a host compiler integration (--events).`,
	Example: `  # Analyze a Java source tree
  fieldlens analyze ./src/main/java

  # Analyze an instruction-stream dump from another host
  fieldlens analyze --events streams.json -o analysis.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rep := report.New()

		classes, err := loadClasses(args, rep)
		if err != nil {
			return err
		}
		if len(classes) == 0 {
			return fmt.Errorf("no classes to analyze")
		}

		if analyzeEmitEvents != "" {
			if err := stream.WriteDump(analyzeEmitEvents, classes); err != nil {
				return err
			}
		}

		opts := cfg.PipelineOptions()
		if cmd.Flags().Changed("max-depth") {
			opts.Propagate.MaxDepth = analyzeMaxDepth
		}
		if cmd.Flags().Changed("exclude-setters") {
			opts.Propagate.ExcludeSetterMethods = analyzeNoSetters
		}

		res := pipeline.Run(classes, opts, time.Now(), rep)

		output := cfg.Output
		if analyzeOutput != "" {
			output = analyzeOutput
		}

		var writeErr error
		if err := result.Write(output, res); err != nil {
			// The in-memory result is intact; only the output step failed.
			rep.AddCause(report.OutputWrite, output, err, "analysis document not written")
			writeErr = err
		}

		rep.Print(os.Stderr)

		sites := 0
		for _, agg := range res.CallGraph {
			for _, m := range agg.Methods {
				sites += len(m.Calls)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "analyzed %d classes, %d aggregate roots, %d repository call sites\n",
			len(classes), len(res.CallGraph), sites)

		if writeErr != nil && cfg.FailOnError {
			return writeErr
		}
		return nil
	},
}

func loadClasses(args []string, rep *report.Report) ([]stream.Class, error) {
	if analyzeEvents != "" {
		classes, err := stream.LoadDump(analyzeEvents)
		if err != nil {
			return nil, err
		}
		return classes, nil
	}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	return javasrc.ParseTree(root, rep)
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeEvents, "events", "", "read classes from a JSON event dump instead of parsing sources")
	analyzeCmd.Flags().StringVar(&analyzeEmitEvents, "emit-events", "", "write the lowered instruction streams to this file")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "analysis document path (overrides config)")
	analyzeCmd.Flags().IntVar(&analyzeMaxDepth, "max-depth", 0, "propagation recursion depth bound (overrides config)")
	analyzeCmd.Flags().BoolVar(&analyzeNoSetters, "exclude-setters", false, "exclude pure setter methods from propagation (overrides config)")
	rootCmd.AddCommand(analyzeCmd)
}
