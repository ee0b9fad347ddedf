package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/javanhut/ravencore/session"
)

const livenessInterval = 250 * time.Millisecond

func runCmd(g *globalFlags) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Attach this terminal to a shell session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup()
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			if metricsAddr != "" {
				srv := serveMetrics(e, metricsAddr)
				defer func() { _ = srv.Shutdown(context.Background()) }()
			}
			return attach(cmd.Context(), e)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func serveMetrics(e *env, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	return srv
}

func attach(ctx context.Context, e *env) error {
	fd := int(os.Stdin.Fd())
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return fmt.Errorf("get terminal size (is this a terminal?): %w", err)
	}
	dir, _ := os.Getwd()

	m := session.NewManager(session.Options{
		Rows:     uint16(rows),
		Cols:     uint16(cols),
		Terminal: e.cfg.Terminal,
		Spawn:    session.ShellSpawner(e.cfg.Shell, e.logger),
		Logger:   e.logger,
		Metrics:  e.metrics,
		OnOutput: func(b []byte) { _, _ = os.Stdout.Write(b) },
	})
	defer m.CloseAll()

	s, err := m.Open(dir)
	if err != nil {
		return err
	}

	restore, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, restore)
		fmt.Printf("\r\n%s\n", s.CurrentDir())
	}()

	go forwardStdin(s)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)

	ticker := time.NewTicker(livenessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.Notify():
			if s.ProcessPendingInput().PTYClosed {
				return nil
			}
		case <-sigCh:
			if c, r, err := term.GetSize(fd); err == nil {
				m.ResizeAll(uint16(r), uint16(c))
			}
		case <-ticker.C:
			m.ProcessAll()
			if m.CleanupExited() > 0 && m.Len() == 0 {
				return nil
			}
		}
	}
}

// forwardStdin copies keystrokes to the session until stdin closes. The host
// terminal has already encoded keys, so bytes pass through unchanged.
func forwardStdin(s *session.Session) {
	buf := make([]byte, 1024)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			s.WriteToPTY(append([]byte(nil), buf[:n]...))
		}
		if err != nil {
			return
		}
	}
}
