package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gopkg.in/urfave/cli.v1"

	"github.com/jbarratt/duel/game"
	"github.com/jbarratt/duel/gpu"
	"github.com/jbarratt/duel/render"
	"github.com/jbarratt/duel/scene"
	"github.com/jbarratt/duel/session"
	"github.com/jbarratt/duel/snapshot"
	"github.com/jbarratt/duel/transport"
	"github.com/jbarratt/duel/wire"
)

const closeTimeout = 5 * time.Second

func play(c *cli.Context) error {
	relay := c.String("relay")
	if relay == "" {
		return cli.NewExitError("--relay or DUEL_RELAY is required", 2)
	}
	fps := c.Int("fps")
	if fps <= 0 {
		return cli.NewExitError("--fps must be positive", 2)
	}
	conversation := c.String("conversation")
	if conversation == "" {
		conversation = uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := transport.Dial(ctx, relay, transport.WithLogger(logger))
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Join(ctx, conversation); err != nil {
		return err
	}

	dev, err := gpu.Open(c.String("gpu"), gpu.WithLogger(logger))
	if err != nil {
		return err
	}
	defer dev.Close()
	st, err := newStage(dev)
	if err != nil {
		return err
	}
	defer closeObject(st)

	previews, err := snapshot.New()
	if err != nil {
		return err
	}
	defer previews.Close()

	con := &console{out: os.Stdout}
	ctrl, err := session.New(session.Config{
		Messenger: client,
		Notifier:  con,
		Scene:     st.object,
		Previewer: previews,
		Spells:    st.spells,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	if err := ctrl.OnActivate(ctx, nil); err != nil {
		return err
	}
	defer ctrl.OnDeactivate()

	con.printf("conversation %s, type help for commands\n", conversation)
	driver := render.NewDriver(dev, st.object, st.target, width, height, render.WithLogger(logger))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()
		return driver.Run(ctx, ticker.C)
	})
	g.Go(func() error {
		return client.Listen(ctx, func(f wire.Frame) {
			ctrl.OnFrame(ctx, f)
		})
	})
	g.Go(func() error {
		return readInput(ctx, os.Stdin, ctrl, con)
	})

	err = g.Wait()
	frames, dropped := driver.Stats()
	logger.Info("session ended", "frames", frames, "dropped", dropped)
	if errors.Is(err, errQuit) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func preview(c *cli.Context) error {
	move, err := game.ParseMove(c.String("move"))
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}
	r, err := snapshot.New()
	if err != nil {
		return err
	}
	defer r.Close()

	png, err := r.Render(move)
	if err != nil {
		return err
	}
	out := c.String("out")
	if err := os.WriteFile(out, png, 0o644); err != nil {
		return err
	}
	logger.Info("preview written", "move", move, "path", out, "bytes", len(png))
	return nil
}

// renderFrames drives the scene at a simulated frame rate as fast as the
// device allows, turning the cube through a spell per second.
func renderFrames(c *cli.Context) error {
	n, fps := c.Int("frames"), c.Int("fps")
	if n <= 0 || fps <= 0 {
		return cli.NewExitError("--frames and --fps must be positive", 2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dev, err := gpu.Open(c.String("gpu"), gpu.WithLogger(logger))
	if err != nil {
		return err
	}
	defer dev.Close()
	st, err := newStage(dev)
	if err != nil {
		return err
	}
	st.object.SetMoving(true)

	driver := render.NewDriver(dev, st.object, st.target, width, height, render.WithLogger(logger))
	step := time.Second / time.Duration(fps)
	start := time.Now()
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			break
		}
		if i%fps == 0 {
			spell := game.Moves[(i/fps)%len(game.Moves)]
			if err := st.object.SwapTexture(scene.Cube, st.spells[spell]); err != nil {
				return err
			}
		}
		// dropped frames are counted by the driver
		_ = driver.Tick(ctx, time.Duration(i)*step)
	}
	if err := closeObject(st); err != nil {
		return err
	}

	frames, dropped := driver.Stats()
	fmt.Printf("%d frames, %d dropped, %s\n", frames, dropped, time.Since(start).Round(time.Millisecond))
	return nil
}

func closeObject(st *stage) error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return st.object.Close(ctx)
}
