package terminal

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/derekparker/trie"
	"github.com/go-delve/liner"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/go-delve/elfdb/pkg/config"
	"github.com/go-delve/elfdb/pkg/terminal/colorize"
	"github.com/go-delve/elfdb/pkg/terminal/starbind"
	"github.com/go-delve/elfdb/service"
)

const (
	historyFile                 string = ".elfdb_history"
	terminalHighlightEscapeCode string = "\033[%2dm"
	terminalBoldEscapeCode      string = "\033[1m"
	terminalResetEscapeCode     string = "\033[0m"
)

const (
	ansiBlack     = 30
	ansiRed       = 31
	ansiGreen     = 32
	ansiYellow    = 33
	ansiBlue      = 34
	ansiMagenta   = 35
	ansiCyan      = 36
	ansiWhite     = 37
	ansiBrBlack   = 90
	ansiBrRed     = 91
	ansiBrGreen   = 92
	ansiBrYellow  = 93
	ansiBrBlue    = 94
	ansiBrMagenta = 95
	ansiBrCyan    = 96
	ansiBrWhite   = 97
)

// Term represents the terminal running elfdb.
type Term struct {
	client       service.Client
	conf         *config.Config
	prompt       string
	line         *liner.State
	cmds         *Commands
	stdout       *transcriptWriter
	colorEscapes map[colorize.Style]string
	InitFile     string

	starlarkEnv *starbind.Env

	// lastCmd is repeated when the user enters an empty line.
	lastCmd string
}

// New returns a new Term.
func New(client service.Client, conf *config.Config) *Term {
	cmds := DebugCommands(client)
	if conf != nil && conf.Aliases != nil {
		cmds.Merge(conf.Aliases)
	}

	if conf == nil {
		conf = &config.Config{}
	}

	if (conf.SourceListLineColor > ansiWhite &&
		conf.SourceListLineColor < ansiBrBlack) ||
		conf.SourceListLineColor < ansiBlack ||
		conf.SourceListLineColor > ansiBrWhite {
		conf.SourceListLineColor = ansiBlue
	}

	t := &Term{
		client: client,
		conf:   conf,
		prompt: "(elfdb) ",
		line:   liner.NewLiner(),
		cmds:   cmds,
		stdout: &transcriptWriter{pw: &pagingWriter{w: os.Stdout}},
	}

	if !isDumbTerminal() {
		t.stdout.pw.w = colorable.NewColorableStdout()
		t.colorEscapes = map[colorize.Style]string{
			colorize.NormalStyle:  terminalResetEscapeCode,
			colorize.KeywordStyle: fmt.Sprintf(terminalHighlightEscapeCode, ansiYellow),
			colorize.NumberStyle:  fmt.Sprintf(terminalHighlightEscapeCode, ansiBrCyan),
			colorize.CommentStyle: fmt.Sprintf(terminalHighlightEscapeCode, ansiGreen),
			colorize.ArrowStyle:   fmt.Sprintf(terminalHighlightEscapeCode, ansiRed),
			colorize.LineNoStyle:  fmt.Sprintf(terminalHighlightEscapeCode, conf.SourceListLineColor),
		}
	}
	t.stdout.colorEscapes = t.colorEscapes

	t.starlarkEnv = starbind.New(starlarkContext{t}, t.stdout)
	return t
}

// isDumbTerminal reports whether output should be free of escape codes.
func isDumbTerminal() bool {
	if strings.ToLower(os.Getenv("TERM")) == "dumb" {
		return true
	}
	return !isatty.IsTerminal(os.Stdout.Fd())
}

// Close returns the terminal to its previous mode.
func (t *Term) Close() {
	t.line.Close()
	if err := t.stdout.CloseTranscript(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing transcript file: %v\n", err)
	}
}

func (t *Term) sigintGuard(ch <-chan os.Signal) {
	for range ch {
		t.starlarkEnv.Cancel()
		state, err := t.client.GetStateNonBlocking()
		if err == nil && !state.Running {
			continue
		}
		fmt.Fprintf(t.stdout, "received SIGINT, pausing program\n")
		if _, err := t.client.Halt(); err != nil {
			fmt.Fprintf(os.Stderr, "%v", err)
		}
	}
}

// Run begins running elfdb in the terminal.
func (t *Term) Run() (int, error) {
	defer t.Close()

	// Send the debugger a halt command on SIGINT
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT)
	go t.sigintGuard(ch)

	t.line.SetCompleter(t.completer())

	fullHistoryFile, err := config.GetConfigFilePath(historyFile)
	if err != nil {
		fmt.Printf("Unable to load history file: %v.", err)
	}

	f, err := os.Open(fullHistoryFile)
	if err != nil {
		f, err = os.Create(fullHistoryFile)
		if err != nil {
			fmt.Printf("Unable to open history file: %v. History will not be saved for this session.", err)
		}
	}

	if f != nil {
		t.line.ReadHistory(f)
		f.Close()
	}
	fmt.Fprintln(t.stdout, "Type 'help' for list of commands.")

	if t.InitFile != "" {
		err := t.cmds.sourceFile(t, t.InitFile)
		if err != nil {
			if _, ok := err.(ExitRequestError); ok {
				return t.handleExit()
			}
			fmt.Fprintf(os.Stderr, "Error executing init file: %s\n", err)
		}
	}

	for {
		cmdstr, err := t.promptForInput()
		if err != nil {
			if err == io.EOF {
				fmt.Fprintln(t.stdout, "exit")
				return t.handleExit()
			}
			return 1, fmt.Errorf("Prompt for input failed.\n")
		}
		t.stdout.Echo(t.prompt + cmdstr + "\n")

		if strings.TrimSpace(cmdstr) == "" {
			cmdstr = t.lastCmd
		} else {
			t.lastCmd = cmdstr
		}

		if err := t.cmds.Call(cmdstr, t); err != nil {
			if _, ok := err.(ExitRequestError); ok {
				return t.handleExit()
			}
			fmt.Fprintf(os.Stderr, "Command failed: %s\n", err)
		}

		t.stdout.Flush()
		t.stdout.pw.Reset()
	}
}

// completer completes command names and, for commands taking a register
// argument, register names.
func (t *Term) completer() liner.Completer {
	cmds := trie.New()
	for _, cmd := range t.cmds.cmds {
		for _, alias := range cmd.aliases {
			cmds.Add(alias, nil)
		}
	}
	regs := trie.New()
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "ip"} {
		regs.Add(name, nil)
	}

	return func(line string) (c []string) {
		if spc := strings.LastIndex(line, " "); spc > 0 {
			cmdname := strings.Fields(line)[0]
			if !t.cmds.takesRegister(cmdname) {
				return nil
			}
			prefix := line[:spc+1]
			for _, name := range regs.PrefixSearch(line[spc+1:]) {
				c = append(c, prefix+name)
			}
			return c
		}
		return cmds.PrefixSearch(strings.ToLower(line))
	}
}

// Println prints a line to the terminal.
func (t *Term) Println(prefix, str string) {
	if t.colorEscapes != nil {
		terminalColorEscapeCode := fmt.Sprintf(terminalHighlightEscapeCode, t.conf.SourceListLineColor)
		prefix = fmt.Sprintf("%s%s%s", terminalColorEscapeCode, prefix, terminalResetEscapeCode)
	}
	fmt.Fprintf(t.stdout, "%s%s\n", prefix, str)
}

// highlight returns s in bold when the terminal supports it.
func (t *Term) highlight(s string) string {
	if t.colorEscapes == nil {
		return s
	}
	return terminalBoldEscapeCode + s + terminalResetEscapeCode
}

func (t *Term) promptForInput() (string, error) {
	l, err := t.line.Prompt(t.prompt)
	if err != nil {
		return "", err
	}

	l = strings.TrimSuffix(l, "\n")
	if l != "" {
		t.line.AppendHistory(l)
	}

	return l, nil
}

func (t *Term) handleExit() (int, error) {
	fullHistoryFile, err := config.GetConfigFilePath(historyFile)
	if err != nil {
		fmt.Println("Error saving history file:", err)
	} else {
		if f, err := os.OpenFile(fullHistoryFile, os.O_RDWR, 0666); err == nil {
			_, err = t.line.WriteHistory(f)
			if err != nil {
				fmt.Println("readline history error:", err)
			}
			f.Close()
		}
	}

	if err := t.client.Detach(); err != nil {
		return 1, err
	}
	return 0, nil
}
