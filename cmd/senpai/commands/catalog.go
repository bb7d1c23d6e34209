package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kim6922/senpai-ai/internal/studio"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List speech voices",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		group := ""
		for _, v := range studio.Voices() {
			if v.Group != group {
				group = v.Group
				fmt.Fprintln(out, titleStyle.Render(group))
			}
			mark := "  "
			if v.Name == studio.DefaultVoice {
				mark = "* "
			}
			fmt.Fprintln(out, mark+v.Label)
		}
		return nil
	},
}

var examplesCmd = &cobra.Command{
	Use:   "examples [workflow]",
	Short: "Show example prompts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		workflows := studio.AllWorkflows
		if len(args) == 1 {
			workflows = []studio.Workflow{studio.Workflow(args[0])}
		}
		for _, w := range workflows {
			examples := studio.Examples(w)
			if len(examples) == 0 {
				if len(args) == 1 {
					return fmt.Errorf("no examples for %q", w)
				}
				continue
			}
			fmt.Fprintln(out, titleStyle.Render(string(w)))
			for _, e := range examples {
				fmt.Fprintln(out, "  "+e)
			}
		}
		if len(args) == 0 {
			printInfo(out, "Game systems: %v", studio.Systems())
			printInfo(out, "Content kinds: %v", studio.Kinds())
		}
		return nil
	},
}
