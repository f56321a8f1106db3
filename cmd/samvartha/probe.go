package main

import (
	"fmt"
	"strings"

	"samvartha/internal/interpret"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// probeCmd runs every interpretation strategy independently
var probeCmd = &cobra.Command{
	Use:   "probe [command text]",
	Short: "Run every interpretation strategy independently",
	Long: `Runs all interpretation probes against the command and reports
what each saw: the rule grammar match, the part-of-speech tags, and the
generative task extraction. Probes are independent; a miss in one never
hides the others.

Example:
  samvartha probe play song 42`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProbe,
}

func runProbe(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	command := strings.Join(args, " ")
	logger.Info("Probing command", zap.String("command", command))

	interp, closeInterp, err := interpret.NewInterpreterFromConfig(userCfg)
	if err != nil {
		return err
	}
	defer closeInterp()

	result := interp.Inspect(ctx, command)

	fmt.Println(titleStyle.Render(command))

	fmt.Print("  rules:      ")
	if result.RuleHit {
		fmt.Println(tagStyle.Render(result.Rule.String()))
	} else {
		fmt.Println(sourceStyle.Render("no match"))
	}

	fmt.Print("  tags:       ")
	if len(result.Tags) == 0 {
		fmt.Println(sourceStyle.Render("none"))
	} else {
		parts := make([]string, len(result.Tags))
		for i, tt := range result.Tags {
			parts[i] = fmt.Sprintf("%s/%s", tt.Token, tagStyle.Render(tt.Tag))
		}
		fmt.Println(strings.Join(parts, " "))
	}

	fmt.Print("  generative: ")
	if result.TaskHit {
		fmt.Println(tagStyle.Render(result.Task))
	} else {
		fmt.Println(sourceStyle.Render("absent"))
	}
	return nil
}
