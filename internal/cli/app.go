package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/phloxxx/user-management-system/internal/client"
)

// syncWriter serializes writes from the REPL and the session watcher.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

type App struct {
	client *client.Client
	reader *bufio.Reader
	out    io.Writer
	logger *zap.Logger
}

func NewApp(c *client.Client, in io.Reader, out io.Writer, logger *zap.Logger) *App {
	return &App{client: c, reader: bufio.NewReader(in), out: &syncWriter{w: out}, logger: logger}
}

// Run reads commands until EOF or exit and revokes the session on the way
// out.
func (a *App) Run(ctx context.Context) {
	events := a.client.Session.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.watch(events)
	}()

	runREPL(ctx, a, a.status, a.reader, a.out)

	a.client.Accounts.Logout()
	a.client.Accounts.Wait()
	a.client.Session.Unsubscribe(events)
	<-done
}

// watch announces the end of a session, including expiry detected by the
// transport.
func (a *App) watch(events <-chan client.Event) {
	for ev := range events {
		a.logger.Debug("session event", zap.Stringer("kind", ev.Kind))
		if ev.Kind == client.LoggedOut {
			a.println("Logged out")
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.client.Session.LoggedIn()
}

func (a *App) status() string {
	acc := a.client.Session.Current()
	if acc == nil {
		return "guest"
	}
	return fmt.Sprintf("%s (%s)", acc.Email, acc.Role)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
