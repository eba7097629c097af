package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jbarratt/duel/game"
	"github.com/jbarratt/duel/session"
)

var errQuit = errors.New("quit")

// console prints notifications for the player.
type console struct {
	mu  sync.Mutex
	out io.Writer
}

func (c *console) Notify(_ context.Context, n session.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch n.Kind {
	case session.KindError:
		fmt.Fprintf(c.out, "! %s (%v)\n", n.Text, n.Err)
	default:
		fmt.Fprintf(c.out, "* %s\n", n.Text)
	}
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

const help = `moves: fire water ice
gestures: tap up down left right
send     submit the selected move
state    show the match
quit`

// readInput feeds lines from in to ctrl until ctx ends, in is exhausted
// or the player quits.
func readInput(ctx context.Context, in io.Reader, ctrl *session.Controller, con *console) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return errQuit
			}
			if err := command(ctx, strings.TrimSpace(line), ctrl, con); err != nil {
				if errors.Is(err, errQuit) {
					return err
				}
				con.printf("! %v\n", err)
			}
		}
	}
}

func command(ctx context.Context, line string, ctrl *session.Controller, con *console) error {
	word := strings.ToLower(line)
	switch word {
	case "":
		return nil
	case "quit", "exit":
		return errQuit
	case "help", "?":
		con.printf("%s\n", help)
		return nil
	case "send":
		return ctrl.Submit(ctx)
	case "state":
		if m := ctrl.Match(); m != nil {
			con.printf("round %d, you are player %s, you %s / they %s, %s\n",
				m.Round, m.Current, m.LocalMove(), m.RemoteMove(), m.Result)
		} else {
			con.printf("no match yet, selected %s\n", ctrl.Selected())
		}
		return nil
	}
	if g, ok := session.ParseGesture(word); ok {
		return ctrl.HandleGesture(ctx, g)
	}
	move, err := game.ParseMove(word)
	if err != nil {
		return err
	}
	return ctrl.Select(ctx, move)
}
