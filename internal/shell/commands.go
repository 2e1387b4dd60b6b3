package shell

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os/exec"
	"strconv"
	"strings"

	"github.com/nbrowse/nbrowse/config"
	"github.com/nbrowse/nbrowse/tree"
)

// baseCommands returns the built-in command set.
func baseCommands() map[string]Command {
	return map[string]Command{
		"ls":    cmdLs,
		"cd":    cmdCd,
		"pwd":   cmdPwd,
		"open":  cmdOpen,
		"ropen": cmdRopen,
		"type":  cmdType,
		"echo":  cmdEcho,
		"recho": cmdRecho,
	}
}

// cmdLs lists the contents of the current directory.
func cmdLs(sh *Shell, args []string) error {
	cur := sh.sess.Current()
	var parts []string
	for _, name := range cur.Names() {
		display := name
		if strings.Contains(name, " ") {
			display = "'" + name + "'"
		}
		if sh.cfg.Color {
			if node, ok := cur.Get(name); ok {
				if style, styled := styleFor(node); styled {
					display = style.Render(display)
				}
			}
		}
		parts = append(parts, display)
	}
	fmt.Fprintln(sh.out, strings.Join(parts, " "))
	return nil
}

// cmdCd moves into the specified directory. With no argument it returns to
// the directory the browser was started from.
func cmdCd(sh *Shell, args []string) error {
	return sh.sess.Chdir(strings.Join(args, " "))
}

// cmdPwd prints the path of the current directory.
func cmdPwd(sh *Shell, args []string) error {
	fmt.Fprintln(sh.out, sh.sess.Current().Path())
	return nil
}

// cmdOpen descends into directories and opens leaves with a type-appropriate
// handler.
func cmdOpen(sh *Shell, args []string) error {
	name := strings.Join(args, " ")
	node, err := sh.sess.Lookup(name)
	if err != nil {
		return err
	}
	switch n := node.(type) {
	case tree.DirNode:
		return sh.sess.Chdir(name)
	case *tree.File:
		return sh.openFile(n)
	default:
		return fmt.Errorf("%w: open called on an unrecognized node kind", tree.ErrInternal)
	}
}

// cmdRopen opens a randomly chosen entry of the current directory.
func cmdRopen(sh *Shell, args []string) error {
	names := sh.sess.Current().Names()
	if len(names) == 0 {
		return errors.New("the current directory is empty")
	}
	choice := names[rand.IntN(len(names))]
	fmt.Fprintf(sh.out, "Opening %s...\n", choice)
	return cmdOpen(sh, []string{choice})
}

// cmdType prints the concrete kind and type tag of an entry.
func cmdType(sh *Shell, args []string) error {
	name := strings.Join(args, " ")
	node, err := sh.sess.Lookup(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "%T %s\n", node, node.Type())
	return nil
}

func cmdEcho(sh *Shell, args []string) error {
	fmt.Fprintln(sh.out, strings.Join(args, " "))
	return nil
}

func cmdRecho(sh *Shell, args []string) error {
	fmt.Fprintln(sh.out, strconv.Quote(strings.Join(args, " ")))
	return nil
}

// openFile opens a leaf with its type-appropriate handler: text and binary
// files print their contents; everything else is materialized to a real
// path and handed to an external program.
func (sh *Shell) openFile(f *tree.File) error {
	switch f.Type() {
	case tree.TypeText:
		text, err := f.Text(sh.sess)
		if err != nil {
			return err
		}
		fmt.Fprintln(sh.out, text)
	case tree.TypeBinary:
		data, err := f.Bytes(sh.sess)
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "%q\n", data)
	case tree.TypeImage, tree.TypePDF, tree.TypeVideo, tree.TypeGeneric:
		path, err := f.RealPath(sh.sess)
		if err != nil {
			return err
		}
		return sh.launch(f.Type(), path)
	default:
		return fmt.Errorf("%w: opening %s files", tree.ErrUnsupported, f.Type())
	}
	return nil
}

// launch runs the configured external program for a type tag on a real
// filesystem path.
func (sh *Shell) launch(typ, path string) error {
	prog := sh.cfg.Programs[typ]
	if prog == "" {
		prog = config.DefaultOpenCommand
	}
	sh.logger.Debug().Str("program", prog).Str("path", path).Msg("Launching external handler")
	if err := exec.Command(prog, path).Run(); err != nil {
		return fmt.Errorf("%s: %w", prog, err)
	}
	return nil
}
