package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Kim6922/senpai-ai/internal/chat"
	"github.com/Kim6922/senpai-ai/internal/job"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with Senpai",
	Long: `Chat with Senpai. With a message argument one exchange is run;
otherwise an interactive session reads messages from stdin.

Prefix a message with /search to answer it with live web search.
Type /quit to leave.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	p := newStreamPrinter(out)
	tr := a.Studio.Conversation().Transcript()
	greeting, _ := tr.At(0)
	p.printModel(greeting)
	tr.Subscribe(p.onUpdate)

	if text := argText(args); text != "" {
		return a.exchange(cmd, p, text)
	}

	in := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, titleStyle.Render("you> "))
		if !in.Scan() {
			fmt.Fprintln(out)
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		}
		if err := a.exchange(cmd, p, line); err != nil {
			if cmd.Context().Err() != nil {
				return nil
			}
			printError(out, "%v", err)
		}
	}
}

// exchange sends one message and waits for the streamed reply.
func (a *app) exchange(cmd *cobra.Command, p *streamPrinter, line string) error {
	conv := a.Studio.Conversation()
	if rest, ok := strings.CutPrefix(line, "/search"); ok {
		conv.SetSearch(true)
		line = strings.TrimSpace(rest)
	}

	task, err := a.Studio.SendChat(cmd.Context(), line)
	if err != nil {
		conv.SetSearch(false)
		if job.IsKind(err, job.KindConfiguration) {
			// The not-configured reply is already in the transcript.
			p.end()
			return nil
		}
		return describe(err)
	}

	select {
	case <-task.Done():
	case <-cmd.Context().Done():
		task.Cancel()
		return cmd.Context().Err()
	}
	p.end()

	if err := task.Err(); err != nil {
		var jerr *job.Error
		if errors.As(err, &jerr) {
			// The apology is already in the transcript.
			return nil
		}
		return describe(err)
	}
	p.printCitations(a.Studio.Chat.Snapshot().Result.Citations)
	return nil
}

// streamPrinter writes model messages as they grow.
type streamPrinter struct {
	w       io.Writer
	mu      sync.Mutex
	index   int
	printed int
	open    bool
}

func newStreamPrinter(w io.Writer) *streamPrinter {
	return &streamPrinter{w: w, index: -1}
}

func (p *streamPrinter) onUpdate(u chat.Update) {
	if u.Message.Role != chat.RoleModel {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if u.Index != p.index {
		if p.open {
			fmt.Fprintln(p.w)
		}
		p.index, p.printed, p.open = u.Index, 0, true
		fmt.Fprint(p.w, titleStyle.Render("senpai> "))
	}
	if text := u.Message.Text; len(text) > p.printed {
		fmt.Fprint(p.w, text[p.printed:])
		p.printed = len(text)
	}
}

func (p *streamPrinter) printModel(m chat.Message) {
	fmt.Fprintln(p.w, titleStyle.Render("senpai> ")+m.Text)
}

// end terminates the current line.
func (p *streamPrinter) end() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		fmt.Fprintln(p.w)
		p.open = false
	}
}

func (p *streamPrinter) printCitations(cs []chat.Citation) {
	if len(cs) == 0 {
		return
	}
	printInfo(p.w, "Sources:")
	for i, c := range cs {
		title := c.Title
		if title == "" {
			title = c.URL
		}
		printInfo(p.w, "  [%d] %s %s", i+1, title, c.URL)
	}
}
