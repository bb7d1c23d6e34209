package commands

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kim6922/senpai-ai/internal/config"
	"github.com/Kim6922/senpai-ai/internal/job"
	"github.com/Kim6922/senpai-ai/internal/studio"
)

var (
	sourcePath  string
	voiceName   string
	gameSystem  string
	contentKind string
)

var videoCmd = &cobra.Command{
	Use:   "video [prompt]",
	Short: "Animate an image into a video",
	Long: `Animate a source image into a short video.

The image is sent as the first frame. A video file works too: its first
frame is extracted with ffmpeg.

Example request file:

  source: photo.png
  prompt: Make the scene cinematic and dramatic.`,
	RunE: generateRun(studio.WorkflowVideo),
}

var movieCmd = &cobra.Command{
	Use:   "movie [prompt]",
	Short: "Generate a video from a prompt",
	RunE:  generateRun(studio.WorkflowMovie),
}

var imageCmd = &cobra.Command{
	Use:   "image [prompt]",
	Short: "Generate an image",
	RunE:  generateRun(studio.WorkflowImage),
}

var speechCmd = &cobra.Command{
	Use:     "speech [text]",
	Aliases: []string{"voice", "tts"},
	Short:   "Synthesize speech and play it",
	Long: `Synthesize speech from text and play it.

Example request file:

  text: Welcome to Senpai.
  voice: Kore`,
	RunE: generateRun(studio.WorkflowVoice),
}

var musicCmd = &cobra.Command{
	Use:   "music [prompt]",
	Short: "Perform a described piece of music",
	RunE:  generateRun(studio.WorkflowMusic),
}

var soundCmd = &cobra.Command{
	Use:   "sound [prompt]",
	Short: "Perform a described sound effect",
	RunE:  generateRun(studio.WorkflowSound),
}

var ttrpgCmd = &cobra.Command{
	Use:   "ttrpg [prompt]",
	Short: "Generate tabletop RPG content",
	Long: `Generate tabletop RPG content as Markdown.

Example request file:

  prompt: A grumpy dwarf blacksmith with a secret.
  system: D&D 5e
  kind: Character`,
	RunE: generateRun(studio.WorkflowTTRPG),
}

func init() {
	videoCmd.Flags().StringVar(&sourcePath, "source", "", "source image or video")
	for _, c := range []*cobra.Command{speechCmd, musicCmd} {
		c.Flags().StringVar(&voiceName, "voice", "", "voice name (see senpai voices)")
	}
	ttrpgCmd.Flags().StringVar(&gameSystem, "system", "", "game system")
	ttrpgCmd.Flags().StringVar(&contentKind, "kind", "", "content kind")
}

func generateRun(w studio.Workflow) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		req, err := buildRequest(w, args)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		out := cmd.OutOrStdout()
		task, err := submit(cmd.Context(), a.Studio, w, req)
		if err != nil {
			return describe(err)
		}
		if err := await(cmd.Context(), out, w, task); err != nil {
			return err
		}
		return a.report(cmd.Context(), out, w)
	}
}

// buildRequest merges the request file, flags and arguments, in that
// order of increasing precedence. An empty prompt falls back to the
// workflow's default.
func buildRequest(w studio.Workflow, args []string) (request, error) {
	var req request
	if inputFile != "" {
		if err := loadRequest(inputFile, &req); err != nil {
			return req, err
		}
	}
	req.Source = cmp.Or(sourcePath, req.Source)
	req.Voice = cmp.Or(voiceName, req.Voice)
	req.System = cmp.Or(gameSystem, req.System)
	req.Kind = cmp.Or(contentKind, req.Kind)
	if text := argText(args); text != "" {
		req.Prompt, req.Text = text, text
	}
	if req.Prompt == "" && req.Text == "" {
		req.Prompt = studio.DefaultPrompt(w)
	}
	return req, nil
}

func submit(ctx context.Context, st *studio.Studio, w studio.Workflow, req request) (*job.Task, error) {
	text := cmp.Or(req.Text, req.Prompt)
	switch w {
	case studio.WorkflowVideo:
		return st.Video.Submit(ctx, studio.VideoInput{SourcePath: req.Source, Prompt: req.Prompt})
	case studio.WorkflowMovie:
		return st.Movie.Submit(ctx, studio.MovieInput{Prompt: req.Prompt})
	case studio.WorkflowImage:
		return st.Image.Submit(ctx, studio.ImageInput{Prompt: req.Prompt})
	case studio.WorkflowVoice:
		return st.Voice.Submit(ctx, studio.VoiceInput{Text: text, Voice: req.Voice})
	case studio.WorkflowMusic:
		return st.Music.Submit(ctx, studio.MusicInput{Prompt: req.Prompt, Voice: req.Voice})
	case studio.WorkflowSound:
		return st.Sound.Submit(ctx, studio.SoundInput{Prompt: req.Prompt})
	case studio.WorkflowTTRPG:
		return st.TTRPG.Submit(ctx, studio.TTRPGInput{Prompt: req.Prompt, System: req.System, Kind: req.Kind})
	case studio.WorkflowChat:
		return st.SendChat(ctx, text)
	}
	return nil, fmt.Errorf("unknown workflow %q", w)
}

// await blocks until task finishes. Video workflows rotate the loading
// messages meanwhile. An interrupt cancels the attempt.
func await(ctx context.Context, w io.Writer, wf studio.Workflow, task *job.Task) error {
	start := time.Now()
	if wf == studio.WorkflowVideo || wf == studio.WorkflowMovie {
		printInfo(w, "%s", studio.LoadingMessage(0))
	} else {
		printInfo(w, "Generating %s...", wf)
	}

	ticker := time.NewTicker(studio.LoadingInterval)
	defer ticker.Stop()
	last := studio.LoadingMessage(0)
	for {
		select {
		case <-task.Done():
			return describe(task.Err())
		case <-ctx.Done():
			task.Cancel()
			return ctx.Err()
		case <-ticker.C:
			if wf != studio.WorkflowVideo && wf != studio.WorkflowMovie {
				continue
			}
			if msg := studio.LoadingMessage(time.Since(start)); msg != last {
				printInfo(w, "%s", msg)
				last = msg
			}
		}
	}
}

// report prints and downloads the result of a finished workflow.
func (a *app) report(ctx context.Context, w io.Writer, wf studio.Workflow) error {
	switch wf {
	case studio.WorkflowImage:
		if r := a.Studio.Image.Snapshot().Result; r != nil {
			printField(w, "MIME type", r.Media.MIMEType)
		}
	case studio.WorkflowVideo, studio.WorkflowMovie:
		h := a.Studio.Movie.Snapshot().Result
		if wf == studio.WorkflowVideo {
			h = a.Studio.Video.Snapshot().Result
		}
		if h != nil && h.Duration > 0 {
			printField(w, "Duration", h.Duration.Round(time.Second).String())
		}
	case studio.WorkflowVoice, studio.WorkflowMusic, studio.WorkflowSound:
		if r := audioResult(a.Studio, wf); r != nil {
			printField(w, "Duration", r.Duration.Round(10*time.Millisecond).String())
		}
		if a.cfg.Playback != config.PlaybackNone {
			printInfo(w, "Playing...")
		}
		if err := a.WaitPlayback(ctx); err != nil {
			return err
		}
	case studio.WorkflowTTRPG:
		fmt.Fprintln(w, a.Studio.TTRPG.Snapshot().Result)
	}

	d, err := a.Studio.Download(ctx, wf)
	if err != nil {
		return err
	}
	printSuccess(w, "Saved to %s", d.Path)
	if d.URL != "" {
		printField(w, "URL", d.URL)
	}
	return nil
}

func audioResult(st *studio.Studio, wf studio.Workflow) *studio.AudioResult {
	switch wf {
	case studio.WorkflowVoice:
		return st.Voice.Snapshot().Result
	case studio.WorkflowMusic:
		return st.Music.Snapshot().Result
	case studio.WorkflowSound:
		return st.Sound.Snapshot().Result
	}
	return nil
}

// describe turns job errors into their user-facing message.
func describe(err error) error {
	var jerr *job.Error
	if errors.As(err, &jerr) {
		return errors.New(jerr.Message)
	}
	if errors.Is(err, job.ErrDiscarded) {
		return errors.New("cancelled")
	}
	return err
}
