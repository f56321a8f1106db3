package main

import (
	"fmt"
	"strings"

	"samvartha/internal/knowledge"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	ingestName        string
	ingestDescription string
)

// ingestCmd registers tasks from free text or an explicit description
var ingestCmd = &cobra.Command{
	Use:   "ingest [free text]",
	Short: "Register tasks from free text or an explicit description",
	Long: `Without flags, extracts candidate task names from the given free
text and resolves each through the knowledge chain.

With --name, registers a single task; adding --description makes the
write authoritative and overwrites any earlier entry for that name.

Examples:
  samvartha ingest "Learn Quantum Computing, practice Machine Learning"
  samvartha ingest --name "Quantum Computing" --description "..."`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "Task name to register directly")
	ingestCmd.Flags().StringVar(&ingestDescription, "description", "", "Authoritative description (requires --name)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	if ingestDescription != "" && ingestName == "" {
		return fmt.Errorf("--description requires --name")
	}
	if ingestName == "" && len(args) == 0 {
		return fmt.Errorf("provide free text to scan or --name to register")
	}

	lib, closeLib, err := knowledge.NewLibraryFromConfig(userCfg, workspace)
	if err != nil {
		return err
	}
	defer closeLib()

	if ingestName != "" {
		if err := lib.Register(ctx, ingestName, ingestDescription); err != nil {
			return fmt.Errorf("failed to register %q: %w", ingestName, err)
		}
		fmt.Printf("registered %s\n", titleStyle.Render(ingestName))
		return nil
	}

	text := strings.Join(args, " ")
	logger.Info("Ingesting free text", zap.Int("chars", len(text)))

	tasks := lib.DetectAndRegister(ctx, text)
	fmt.Printf("detected %d candidate tasks\n", len(tasks))
	for _, task := range tasks {
		status := errorStyle.Render("unresolved")
		if lib.Known(task) {
			status = tagStyle.Render("described")
		}
		fmt.Printf("  %-30s %s\n", task, status)
	}
	return nil
}
