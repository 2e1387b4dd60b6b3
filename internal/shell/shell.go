// Package shell implements the interactive line-editing loop and its
// command dispatcher over a browser session.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/nbrowse/nbrowse"
	"github.com/nbrowse/nbrowse/config"
	"github.com/nbrowse/nbrowse/internal/util"
	"github.com/nbrowse/nbrowse/tree"
)

// Command is one shell command. It receives the shell and the argument
// words following the command name.
type Command func(sh *Shell, args []string) error

// Shell is the interactive layer: a prompt/dispatch loop over a session.
// All tree errors are recovered here and reported as messages.
type Shell struct {
	sess   *nbrowse.Session
	cfg    *config.Config
	in     io.Reader
	out    io.Writer
	cmds   map[string]Command
	logger util.Logger
}

// New creates a shell over the session with the base command set. The
// dispatch table is resolved once here; Register can extend it before Run.
func New(sess *nbrowse.Session, cfg *config.Config, in io.Reader, out io.Writer) *Shell {
	sh := &Shell{
		sess:   sess,
		cfg:    cfg,
		in:     in,
		out:    out,
		cmds:   map[string]Command{},
		logger: util.GetLogger("shell"),
	}
	for name, cmd := range baseCommands() {
		sh.cmds[name] = cmd
	}
	return sh
}

// Register adds or replaces a command.
func (sh *Shell) Register(name string, cmd Command) {
	sh.cmds[name] = cmd
}

// Run reads and dispatches commands until "exit" or end of input. When the
// input is a terminal the loop runs under a line editor with tab completion
// over commands and the current directory's children; otherwise it degrades
// to plain line reads.
func (sh *Shell) Run() {
	if f, ok := sh.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) && sh.runInteractive() {
		return
	}
	sh.runPlain()
}

// runInteractive drives the line-editing session. Returns false when the
// editor could not be set up, so the caller can fall back to plain reads.
func (sh *Shell) runInteractive() bool {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          sh.prompt(),
		AutoComplete:    &completer{sh: sh},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		sh.logger.Warn().Err(err).Msg("Line editing unavailable, using plain reads")
		return false
	}
	defer rl.Close()

	// Password entry goes through the editor so an interrupt aborts the
	// current command instead of the process.
	sh.sess.SetPasswordFunc(func(prompt string) (string, error) {
		data, err := rl.ReadPassword(prompt)
		if err != nil {
			return "", fmt.Errorf("password entry aborted: %w", err)
		}
		return string(data), nil
	})

	for {
		rl.SetPrompt(sh.prompt())
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			// Ctrl+C drops the current input line, never the session
			continue
		}
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "exit" {
			break
		}
		sh.Execute(line)
	}
	fmt.Fprintln(sh.out, "Exiting...")
	return true
}

func (sh *Shell) runPlain() {
	scanner := bufio.NewScanner(sh.in)
	for {
		fmt.Fprint(sh.out, sh.prompt())
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" {
			break
		}
		sh.Execute(line)
	}
	fmt.Fprintln(sh.out, "Exiting...")
}

// Execute dispatches a single command line. Errors are reported to the
// user, never propagated.
func (sh *Shell) Execute(line string) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return
	}
	cmd, ok := sh.cmds[words[0]]
	if !ok {
		fmt.Fprintln(sh.out, "Invalid command.")
		return
	}
	if err := cmd(sh, words[1:]); err != nil {
		fmt.Fprintln(sh.out, err)
	}
}

// prompt renders "<type> name$ ", with the type label colored by node kind.
func (sh *Shell) prompt() string {
	cur := sh.sess.Current()
	label := fmt.Sprintf("<%s>", cur.Type())
	if sh.cfg.Color {
		if style, ok := styleFor(cur); ok {
			label = style.Render(label)
		}
	}
	return fmt.Sprintf("%s %s$ ", label, cur.Name())
}

var (
	anchorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	virtualStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	dirStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	imageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	pdfStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	videoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	genericStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// styleFor picks the display style for a node: archive anchors red, nested
// archive directories cyan, plain directories blue, and leaves by type.
func styleFor(n tree.Node) (lipgloss.Style, bool) {
	if ad, ok := n.(*tree.ArchiveDir); ok {
		if ad.IsAnchor() {
			return anchorStyle, true
		}
		return virtualStyle, true
	}
	if _, ok := n.(tree.DirNode); ok {
		return dirStyle, true
	}
	switch n.Type() {
	case tree.TypeImage:
		return imageStyle, true
	case tree.TypePDF:
		return pdfStyle, true
	case tree.TypeVideo:
		return videoStyle, true
	case tree.TypeGeneric:
		return genericStyle, true
	}
	return lipgloss.Style{}, false
}

// completer feeds tab completion: command names at the first word, the
// current directory's children afterwards. Candidates are resolved on every
// invocation so completion follows navigation.
type completer struct {
	sh *Shell
}

func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	prefix := string(line[:pos])
	start := strings.LastIndexByte(prefix, ' ') + 1
	word := prefix[start:]

	var matches [][]rune
	for _, cand := range c.candidates(start == 0) {
		if strings.HasPrefix(cand, word) {
			matches = append(matches, []rune(cand[len(word):]))
		}
	}
	return matches, len([]rune(word))
}

func (c *completer) candidates(commandPosition bool) []string {
	var cands []string
	if commandPosition {
		for name := range c.sh.cmds {
			cands = append(cands, name)
		}
		cands = append(cands, "exit")
	} else {
		cands = append(cands, c.sh.sess.Current().Names()...)
		cands = append(cands, ".", "..")
	}
	sort.Strings(cands)
	return cands
}
