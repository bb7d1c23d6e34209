package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Kim6922/senpai-ai/internal/bootstrap"
	"github.com/Kim6922/senpai-ai/internal/job"
	"github.com/Kim6922/senpai-ai/internal/studio"
)

var studioCmd = &cobra.Command{
	Use:   "studio",
	Short: "Interactive studio running several workflows at once",
	Long: `Start an interactive studio. Generation commands run in the
background so several workflows can be in progress at the same time.

` + shellHelp,
	RunE: runStudio,
}

const shellHelp = `Commands:
  video|movie|image|voice|music|sound|ttrpg [prompt]
  chat <message>        search <message>
  enhance <prompt>      script <idea>
  set voice|system|kind|source <value>
  download <workflow>   cancel <workflow>   reset <workflow>
  status   history   subscribe   help   quit`

// shell holds the state of one interactive session.
type shell struct {
	*app
	cmd     *cobra.Command
	out     io.Writer
	printer *streamPrinter
	req     request

	mu    sync.Mutex
	tasks map[studio.Workflow]*job.Task
}

func runStudio(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	notify := func(ev job.Event) {
		if !ev.To.IsTerminal() || ev.Workflow == string(studio.WorkflowChat) {
			return
		}
		if ev.Err != nil {
			printError(out, "[%s] %s", ev.Workflow, ev.Err.Message)
			return
		}
		printSuccess(out, "[%s] ready, type \"download %s\" to save it", ev.Workflow, ev.Workflow)
	}

	a, err := newApp(cmd.Context(), bootstrap.WithObserver(notify))
	if err != nil {
		return err
	}
	defer a.close()

	sh := &shell{
		app:     a,
		cmd:     cmd,
		out:     out,
		printer: newStreamPrinter(out),
		tasks:   make(map[studio.Workflow]*job.Task),
	}
	if inputFile != "" {
		if err := loadRequest(inputFile, &sh.req); err != nil {
			return err
		}
	}
	a.Studio.Conversation().Transcript().Subscribe(sh.printer.onUpdate)

	a.printAccount(out)
	printInfo(out, "Type \"help\" for commands.")

	in := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, titleStyle.Render("senpai> "))
		if !in.Scan() {
			fmt.Fprintln(out)
			return in.Err()
		}
		quit, err := sh.exec(cmd.Context(), in.Text())
		if err != nil {
			printError(out, "%v", err)
		}
		if quit || cmd.Context().Err() != nil {
			return nil
		}
	}
}

// exec runs one line. It reports whether the session should end.
func (sh *shell) exec(ctx context.Context, line string) (bool, error) {
	name, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintln(sh.out, shellHelp)
	case "status":
		printStatuses(sh.out, sh.Studio.Statuses())
	case "history":
		records, err := sh.Studio.History(ctx)
		if err != nil {
			return false, err
		}
		printHistory(sh.out, records)
	case "subscribe":
		if err := sh.Subscription.Activate(ctx); err != nil {
			return false, err
		}
		printSuccess(sh.out, "Subscription activated.")
	case "set":
		return false, sh.set(rest)
	case "chat", "search":
		if name == "search" {
			rest = "/search " + rest
		}
		return false, sh.exchange(sh.cmd, sh.printer, rest)
	case "enhance":
		return false, sh.assist(ctx, rest, (*studio.Studio).EnhanceImagePrompt)
	case "script":
		return false, sh.assist(ctx, rest, (*studio.Studio).WriteScript)
	case "download":
		d, err := sh.Studio.Download(ctx, studio.Workflow(rest))
		if err != nil {
			return false, err
		}
		printSuccess(sh.out, "Saved to %s", d.Path)
		if d.URL != "" {
			printField(sh.out, "URL", d.URL)
		}
	case "cancel":
		return false, sh.cancel(studio.Workflow(rest))
	case "reset":
		return false, sh.reset(studio.Workflow(rest))
	default:
		w := studio.Workflow(name)
		if name == "speech" {
			w = studio.WorkflowVoice
		}
		if !slices.Contains(studio.AllWorkflows, w) || w == studio.WorkflowChat {
			return false, fmt.Errorf("unknown command %q, type \"help\"", name)
		}
		return false, sh.start(ctx, w, rest)
	}
	return false, nil
}

func (sh *shell) start(ctx context.Context, w studio.Workflow, text string) error {
	req := sh.req
	if text != "" {
		req.Prompt, req.Text = text, text
	}
	if req.Prompt == "" && req.Text == "" {
		req.Prompt = studio.DefaultPrompt(w)
	}

	task, err := submit(ctx, sh.Studio, w, req)
	if err != nil {
		return describe(err)
	}
	sh.mu.Lock()
	sh.tasks[w] = task
	sh.mu.Unlock()
	printInfo(sh.out, "[%s] started %s", w, task.ID())
	return nil
}

func (sh *shell) cancel(w studio.Workflow) error {
	sh.mu.Lock()
	task := sh.tasks[w]
	delete(sh.tasks, w)
	sh.mu.Unlock()

	if task == nil {
		return fmt.Errorf("%q is not running", w)
	}
	select {
	case <-task.Done():
		return fmt.Errorf("%q already finished", w)
	default:
	}
	task.Cancel()
	printInfo(sh.out, "[%s] cancelled", w)
	return nil
}

func (sh *shell) reset(w studio.Workflow) error {
	resets := map[studio.Workflow]func() error{
		studio.WorkflowVideo: sh.Studio.Video.Reset,
		studio.WorkflowMovie: sh.Studio.Movie.Reset,
		studio.WorkflowImage: sh.Studio.Image.Reset,
		studio.WorkflowVoice: sh.Studio.Voice.Reset,
		studio.WorkflowMusic: sh.Studio.Music.Reset,
		studio.WorkflowSound: sh.Studio.Sound.Reset,
		studio.WorkflowTTRPG: sh.Studio.TTRPG.Reset,
	}
	fn, ok := resets[w]
	if !ok {
		return fmt.Errorf("unknown workflow %q", w)
	}
	if err := fn(); err != nil {
		if errors.Is(err, job.ErrAlreadyRunning) {
			return fmt.Errorf("%q is running, cancel it first", w)
		}
		return err
	}
	return nil
}

func (sh *shell) set(arg string) error {
	key, value, _ := strings.Cut(arg, " ")
	value = strings.TrimSpace(value)
	switch key {
	case "voice":
		sh.req.Voice = value
	case "system":
		sh.req.System = value
	case "kind":
		sh.req.Kind = value
	case "source":
		sh.req.Source = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	printInfo(sh.out, "%s = %q", key, value)
	return nil
}

func (sh *shell) assist(ctx context.Context, prompt string, fn assistFunc) error {
	out, err := fn(sh.Studio, ctx, prompt)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintln(sh.out, out)
	return nil
}
