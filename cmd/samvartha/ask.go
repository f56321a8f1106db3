package main

import (
	"fmt"
	"strings"

	"samvartha/internal/knowledge"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var askPlain bool

// askCmd resolves a task description through the knowledge chain
var askCmd = &cobra.Command{
	Use:   "ask [task name]",
	Short: "Resolve a task description through the knowledge chain",
	Long: `Resolves a task name through the knowledge chain:
cached/explicit description, external reference lookup, then the two
generative summarizer profiles in cost order. The first success is
cached for the lifetime of the process.

Example:
  samvartha ask Quantum Computing`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "Print the raw description without markdown rendering")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	name := strings.Join(args, " ")
	logger.Info("Resolving task", zap.String("task", name))

	lib, closeLib, err := knowledge.NewLibraryFromConfig(userCfg, workspace)
	if err != nil {
		return err
	}
	defer closeLib()

	v, err := lib.Describe(ctx, name)
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}

	fmt.Println(titleStyle.Render(name))
	if !v.IsResolved() {
		fmt.Println(errorStyle.Render(knowledge.NotFoundText))
		return nil
	}

	if askPlain {
		fmt.Println(v.Payload)
	} else {
		fmt.Print(resultStyle.Render(renderMarkdown(v.Payload)))
		fmt.Println()
	}
	fmt.Println(sourceStyle.Render(fmt.Sprintf("source: %s, resolved: %s", v.Source, v.ResolvedAt.Format("15:04:05"))))
	return nil
}
