package main

import (
	"fmt"
	"strings"

	"samvartha/internal/interpret"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// interpretCmd interprets a command through the fallback chain
var interpretCmd = &cobra.Command{
	Use:   "interpret [command text]",
	Short: "Interpret a free-form command through the fallback chain",
	Long: `Runs the interpretation chain: rule grammar first, generative
paraphrase-then-extraction second. A command no strategy recognizes
yields the unrecognized sentinel, never an error.

Examples:
  samvartha interpret play song 42
  samvartha interpret "what is the weather"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInterpret,
}

func runInterpret(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	command := strings.Join(args, " ")
	logger.Info("Interpreting command", zap.String("command", command))

	interp, closeInterp, err := interpret.NewInterpreterFromConfig(userCfg)
	if err != nil {
		return err
	}
	defer closeInterp()

	intent, err := interp.Interpret(ctx, command)
	if err != nil {
		return fmt.Errorf("interpretation failed: %w", err)
	}

	if !intent.Recognized() {
		fmt.Println(errorStyle.Render("unrecognized: ") + command)
		return nil
	}
	fmt.Println(titleStyle.Render(intent.String()))
	return nil
}
