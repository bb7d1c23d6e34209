package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kim6922/senpai-ai/internal/job"
	"github.com/Kim6922/senpai-ai/internal/studio"
)

var subscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Activate the subscription",
	Long: `Activate the subscription that unlocks video, movie and image
generation. The flag is stored in DATA_DIR (default ~/.senpai) and stays
active across runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		out := cmd.OutOrStdout()
		if a.Subscription.Active() {
			printInfo(out, "Subscription is already active.")
			return nil
		}
		if err := a.Subscription.Activate(cmd.Context()); err != nil {
			return fmt.Errorf("activate subscription: %w", err)
		}
		printSuccess(out, "Subscription activated.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show credential, subscription and export settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		a.printAccount(cmd.OutOrStdout())
		return nil
	},
}

func (a *app) printAccount(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render("Senpai"))
	printField(w, "API key", yesNo(a.Studio.HasCredential(), "configured", "missing"))
	printField(w, "Subscribed", yesNo(a.Studio.Subscribed(), "yes", "no"))
	printField(w, "Output", a.cfg.OutputDir)
	printField(w, "S3 export", yesNo(a.cfg.S3Enabled(), a.cfg.S3Bucket, "off"))
	printField(w, "Playback", a.cfg.Playback)
}

func printStatuses(w io.Writer, statuses []studio.WorkflowStatus) {
	for _, s := range statuses {
		line := string(s.Status)
		if s.Status == job.StatusRunning {
			line += " for " + time.Since(s.StartedAt).Round(time.Second).String()
		}
		if s.Err != nil {
			line += ": " + s.Err.Message
		}
		printField(w, string(s.Workflow), line)
	}
}

func printHistory(w io.Writer, records []job.Record) {
	if len(records) == 0 {
		printInfo(w, "No attempts yet.")
		return
	}
	for _, r := range records {
		line := fmt.Sprintf("%s  %-9s %s", r.StartedAt.Format(time.TimeOnly), r.Status, r.ID)
		switch {
		case r.Discarded:
			line += "  cancelled"
		case r.Error != "":
			line += "  " + string(r.ErrorKind)
		}
		printField(w, r.Workflow, line)
	}
}

func yesNo(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
