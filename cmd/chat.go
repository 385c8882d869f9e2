package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
	llmx "github.com/tanpawarit/storage-chat-agent/agent/llm"
)

var sessionFile string

const chatHelp = `Lines starting with / are commands:

  /model [id]    show or select the model
  /models        list available models
  /key <key>     set the API key (/key remove to forget it)
  /storage       show every storage key
  /clear         clear the conversation
  /save [path]   write the conversation to a YAML file
  /exit          quit`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long:  "Start an interactive chat. " + chatHelp,
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&sessionFile, "session-file", "", "resume from and save to this YAML file")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, sessionFile)
	if err != nil {
		return err
	}
	defer a.Close()

	in := newLineReader(os.Stdin, os.Stdout)
	defer in.Close()

	r := &repl{app: a, out: in.Writer()}
	fmt.Fprintln(r.out, renderInfo("model: "+a.settings.Model()+" · /help for commands"))
	for _, m := range a.orch.Messages() {
		fmt.Fprintln(r.out, renderMessage(m))
	}

	for {
		line, err := in.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if quit := r.handle(ctx, line); quit {
			return nil
		}
	}
}

type repl struct {
	app *app
	out io.Writer
}

// handle processes one input line and reports whether the REPL should stop.
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, "/") {
		return r.command(ctx, line)
	}

	turn, err := r.app.orch.Submit(ctx, line)
	r.printTurn(turn, err)

	if err == nil && r.app.chatCfg.SessionFile != "" {
		if _, err := r.app.save(""); err != nil {
			fmt.Fprintln(r.out, renderError("save session: "+err.Error()))
		}
	}
	return false
}

func (r *repl) printTurn(turn contractx.Turn, err error) {
	shownError := false
	for _, m := range turn.Messages {
		if m.Role == contractx.RoleUser {
			continue
		}
		if m.Error {
			shownError = true
		}
		fmt.Fprintln(r.out, renderMessage(m))
	}
	if turn.Kind == contractx.ReplyAcknowledgment && !hasAssistantText(turn.Messages) {
		fmt.Fprintln(r.out, renderInfo(turn.Reply))
	}
	if err == nil || shownError {
		return
	}

	switch {
	case errors.Is(err, contractx.ErrMissingCredential), errors.Is(err, contractx.ErrMissingModel):
		fmt.Fprintln(r.out, renderError(turn.Reply+" Use /key or /model."))
	case errors.Is(err, contractx.ErrInvalidMessage):
	case errors.Is(err, contractx.ErrConversationCleared):
		fmt.Fprintln(r.out, renderInfo("conversation was cleared"))
	default:
		fmt.Fprintln(r.out, renderError(err.Error()))
	}
}

func hasAssistantText(msgs []contractx.DisplayMessage) bool {
	for _, m := range msgs {
		if m.Role == contractx.RoleAssistant && !m.ToolActivity && !m.Error {
			return true
		}
	}
	return false
}

func (r *repl) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "exit", "quit":
		return true
	case "help":
		fmt.Fprintln(r.out, renderInfo(chatHelp))
	case "models":
		printModels(r.out, r.app.settings.Model())
	case "model":
		if arg == "" {
			fmt.Fprintln(r.out, renderInfo("model: "+r.app.settings.Model()))
			return false
		}
		if err := r.app.settings.SetModel(arg); err != nil {
			fmt.Fprintln(r.out, renderError(err.Error()))
			return false
		}
		fmt.Fprintln(r.out, renderInfo("model set to "+arg))
	case "key":
		switch arg {
		case "":
			fmt.Fprintln(r.out, renderError("usage: /key <api-key> | /key remove"))
		case "remove":
			r.app.settings.RemoveAPIKey()
			fmt.Fprintln(r.out, renderInfo("API key removed"))
		default:
			r.app.settings.SetAPIKey(arg)
			fmt.Fprintln(r.out, renderInfo("API key set"))
		}
	case "storage":
		if err := printStorage(ctx, r.out, r.app.registry, r.app.store); err != nil {
			fmt.Fprintln(r.out, renderError(err.Error()))
		}
	case "clear":
		r.app.orch.Clear()
		fmt.Fprintln(r.out, renderInfo("conversation cleared"))
	case "save":
		path, err := r.app.save(arg)
		if err != nil {
			fmt.Fprintln(r.out, renderError(err.Error()))
			return false
		}
		fmt.Fprintln(r.out, renderInfo("saved to "+path))
	default:
		fmt.Fprintln(r.out, renderError("unknown command /"+name))
	}
	return false
}

// lineReader reads from a raw-mode terminal when stdin is a TTY and falls
// back to plain line scanning for pipes.
type lineReader struct {
	fd       int
	terminal *term.Terminal
	scanner  *bufio.Scanner
	out      io.Writer
}

type stdio struct {
	io.Reader
	io.Writer
}

func newLineReader(in *os.File, out *os.File) *lineReader {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		return &lineReader{fd: fd, terminal: term.NewTerminal(stdio{in, out}, "> ")}
	}
	return &lineReader{fd: -1, scanner: bufio.NewScanner(in), out: out}
}

func (l *lineReader) Writer() io.Writer {
	if l.terminal != nil {
		return l.terminal
	}
	return l.out
}

func (l *lineReader) ReadLine() (string, error) {
	if l.terminal == nil {
		if !l.scanner.Scan() {
			if err := l.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return l.scanner.Text(), nil
	}

	oldState, err := term.MakeRaw(l.fd)
	if err != nil {
		return "", err
	}
	if width, height, err := term.GetSize(l.fd); err == nil {
		_ = l.terminal.SetSize(width, height)
	}
	line, err := l.terminal.ReadLine()
	if restoreErr := term.Restore(l.fd, oldState); restoreErr != nil && err == nil {
		err = restoreErr
	}
	return line, err
}

func (l *lineReader) Close() error { return nil }

func printModels(w io.Writer, selected string) {
	for _, m := range llmx.AvailableModels {
		marker := "  "
		if m.ID == selected {
			marker = "* "
		}
		fmt.Fprintf(w, "%s%-38s %s\n", marker, m.ID, renderInfo(m.Description))
	}
}
