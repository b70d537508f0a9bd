package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"reservo/internal/reservations/submission"
)

// consolePresenter prints notices and, when interactive, waits for Enter
// before letting the flow continue.
type consolePresenter struct {
	out         io.Writer
	in          *bufio.Reader
	interactive bool
}

func newConsolePresenter(out io.Writer, in io.Reader, interactive bool) *consolePresenter {
	return &consolePresenter{
		out:         out,
		in:          bufio.NewReader(in),
		interactive: interactive,
	}
}

func (p *consolePresenter) Alert(ctx context.Context, n submission.Notice) {
	fmt.Fprintf(p.out, "%s: %s\n", n.Title, n.Message)
	if !p.interactive {
		return
	}

	fmt.Fprint(p.out, "Press Enter to continue...")
	done := make(chan struct{})
	go func() {
		_, _ = p.in.ReadString('\n')
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		fmt.Fprintln(p.out)
	}
}

// consoleNavigator records where the flow asked to go. The command decides
// what the route means once the submission has returned.
type consoleNavigator struct {
	mu    sync.Mutex
	route submission.Route
}

func (n *consoleNavigator) Navigate(route submission.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.route = route
}

func (n *consoleNavigator) Route() submission.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.route
}
