// Command duel plays the spell duel from a terminal: it joins a relay
// conversation, renders the scene headlessly and reads moves from stdin.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/gg"
	"gopkg.in/urfave/cli.v1"

	"github.com/jbarratt/duel/internal/logging"
)

var logger = logging.Nop()

func main() {
	app := cli.NewApp()
	app.Name = "duel"
	app.Usage = "fire, water, ice"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "log-level",
			Value:  "info",
			Usage:  "debug, info, warn or error",
			EnvVar: "DUEL_LOG_LEVEL",
		},
	}
	app.Before = func(c *cli.Context) error {
		logger = logging.New(os.Stderr, c.GlobalString("log-level"), "text")
		gg.SetLogger(logger.With("component", "gg"))
		slog.SetDefault(logger)
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:  "play",
			Usage: "join a conversation and duel",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "relay", Usage: "relay WebSocket URL", EnvVar: "DUEL_RELAY"},
				cli.StringFlag{Name: "conversation", Usage: "conversation to join, a new one when empty", EnvVar: "DUEL_CONVERSATION"},
				gpuFlag,
				cli.IntFlag{Name: "fps", Value: 30, Usage: "render rate"},
			},
			Action: play,
		},
		{
			Name:  "preview",
			Usage: "write the preview image for a move",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "move", Value: "fire"},
				cli.StringFlag{Name: "out", Value: "preview.png"},
			},
			Action: preview,
		},
		{
			Name:  "render",
			Usage: "render frames headlessly and report frame stats",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "frames", Value: 120},
				cli.IntFlag{Name: "fps", Value: 60},
				gpuFlag,
			},
			Action: renderFrames,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var gpuFlag = cli.StringFlag{
	Name:   "gpu",
	Value:  "noop",
	Usage:  "noop or vulkan",
	EnvVar: "DUEL_GPU",
}
