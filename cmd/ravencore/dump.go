package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/javanhut/ravencore/grid"
	"github.com/javanhut/ravencore/session"
	"github.com/javanhut/ravencore/theme"
)

type dumpFlags struct {
	command  string
	rows     uint16
	cols     uint16
	idle     time.Duration
	timeout  time.Duration
	showLog  bool
	color    bool
	themeArg string
}

func dumpCmd(g *globalFlags) *cobra.Command {
	f := &dumpFlags{}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Run a command in a fresh session and print the screen",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.command == "" {
				return errors.New("--cmd is required")
			}
			e, err := g.setup()
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			dir, _ := os.Getwd()
			s, err := session.New(session.Options{
				Rows:     f.rows,
				Cols:     f.cols,
				Dir:      dir,
				Terminal: e.cfg.Terminal,
				Spawn:    session.ShellSpawner(e.cfg.Shell, e.logger),
				Logger:   e.logger,
				Metrics:  e.metrics,
			})
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.SendCommand(f.command, true); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
			defer cancel()
			waitIdle(ctx, s, f.idle)

			name := f.themeArg
			if name == "" {
				name = e.cfg.Terminal.Theme
			}
			return writeDump(cmd.OutOrStdout(), s, f, theme.ByName(name))
		},
	}

	cmd.Flags().StringVar(&f.command, "cmd", "", "command line to run")
	cmd.Flags().Uint16Var(&f.rows, "rows", 24, "screen rows")
	cmd.Flags().Uint16Var(&f.cols, "cols", 80, "screen columns")
	cmd.Flags().DurationVar(&f.idle, "idle", 500*time.Millisecond, "quiet period that counts as done")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 10*time.Second, "give up waiting after this long")
	cmd.Flags().BoolVar(&f.showLog, "log", false, "also print the session log")
	cmd.Flags().BoolVar(&f.color, "color", false, "print the screen with 24-bit colors")
	cmd.Flags().StringVar(&f.themeArg, "theme", "", "theme for --color: "+strings.Join(theme.Names(), ", ")+" (default: configured theme)")
	return cmd
}

// waitIdle processes output until the session closes, nothing arrives for
// idle, or ctx ends.
func waitIdle(ctx context.Context, s *session.Session, idle time.Duration) {
	timer := time.NewTimer(idle)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.ProcessPendingInput()
			return
		case <-timer.C:
			if !s.ProcessPendingInput().HadInput {
				return
			}
			timer.Reset(idle)
		case <-s.Notify():
			res := s.ProcessPendingInput()
			if res.PTYClosed {
				return
			}
			if res.HadInput {
				timer.Reset(idle)
			}
		}
	}
}

func writeDump(w io.Writer, s *session.Session, f *dumpFlags, th theme.Theme) error {
	var b strings.Builder
	if f.color {
		b.WriteString(renderANSI(s.Grid(), th))
	} else {
		b.WriteString(s.Grid().VisibleText())
	}
	b.WriteByte('\n')

	if f.showLog {
		b.WriteString("--- log ---\n")
		for i := 0; i < s.LogLen(); i++ {
			entry, ok := s.LogEntry(i)
			if !ok {
				break
			}
			fmt.Fprintf(&b, "%-6s %s\n", entry.Kind, entry.Text)
		}
	}
	fmt.Fprintf(&b, "cwd: %s\n", s.CurrentDir())

	_, err := io.WriteString(w, b.String())
	return err
}

// renderANSI draws the viewport with truecolor SGR sequences resolved
// through th. Trailing blank cells and rows are dropped and every drawn line
// ends with a reset.
func renderANSI(g *grid.Grid, th theme.Theme) string {
	var lines []string
	for row := 0; row < g.Rows(); row++ {
		lines = append(lines, renderLine(g.Line(row), th))
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func blank(c grid.Cell) bool {
	return c.IsEmpty() && c.Bg == grid.DefaultBg() && !c.Flags.Has(grid.FlagInverse)
}

func renderLine(line []grid.Cell, th theme.Theme) string {
	end := len(line)
	for end > 0 && blank(line[end-1]) {
		end--
	}
	if end == 0 {
		return ""
	}

	var b strings.Builder
	for _, cell := range line[:end] {
		if cell.IsSpacer() {
			continue
		}
		fg, bg := th.CellColors(cell)
		fmt.Fprintf(&b, "\x1b[38;2;%d;%d;%d;48;2;%d;%d;%dm", fg.R, fg.G, fg.B, bg.R, bg.G, bg.B)
		ch := cell.Char
		if ch == 0 {
			ch = ' '
		}
		b.WriteRune(ch)
	}
	b.WriteString("\x1b[0m")
	return b.String()
}
