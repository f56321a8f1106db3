package main

import (
	"fmt"
	"strings"

	"samvartha/internal/knowledge"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var practiceIterations int

// practiceCmd resolves a task repeatedly to exercise the cache
var practiceCmd = &cobra.Command{
	Use:   "practice [task name]",
	Short: "Resolve a task repeatedly, reporting the source per iteration",
	Long: `Resolves the same task N times. The first iteration may walk the
backend chain; every later one must be a cache hit. The per-iteration
source column makes that visible.

Example:
  samvartha practice --iterations 5 "Machine Learning"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPractice,
}

func init() {
	practiceCmd.Flags().IntVar(&practiceIterations, "iterations", 10, "Number of practice iterations")
}

func runPractice(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	name := strings.Join(args, " ")
	logger.Info("Practicing task", zap.String("task", name), zap.Int("iterations", practiceIterations))

	lib, closeLib, err := knowledge.NewLibraryFromConfig(userCfg, workspace)
	if err != nil {
		return err
	}
	defer closeLib()

	results, err := lib.Practice(ctx, name, practiceIterations)
	if err != nil {
		return fmt.Errorf("practice failed: %w", err)
	}

	fmt.Println(titleStyle.Render(name))
	for _, r := range results {
		source := r.Source
		if source == "" {
			source = "-"
		}
		fmt.Printf("  %2d/%d  %-20s %s\n", r.Iteration, len(results),
			sourceStyle.Render(source), truncate(r.Payload, 60))
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
