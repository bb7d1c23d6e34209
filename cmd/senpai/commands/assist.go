package commands

import (
	"cmp"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kim6922/senpai-ai/internal/studio"
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance [prompt]",
	Short: "Rewrite an image prompt with more detail",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssist(cmd, args, (*studio.Studio).EnhanceImagePrompt)
	},
}

var scriptCmd = &cobra.Command{
	Use:   "script [idea]",
	Short: "Turn an idea into a short script for speech",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssist(cmd, args, (*studio.Studio).WriteScript)
	},
}

type assistFunc func(*studio.Studio, context.Context, string) (string, error)

func runAssist(cmd *cobra.Command, args []string, fn assistFunc) error {
	var req request
	if inputFile != "" {
		if err := loadRequest(inputFile, &req); err != nil {
			return err
		}
	}
	prompt := cmp.Or(argText(args), req.Prompt, req.Text)
	if prompt == "" {
		return fmt.Errorf("a prompt is required, as an argument or with -f")
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	out, err := fn(a.Studio, cmd.Context(), prompt)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
