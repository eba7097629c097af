package main

import (
	"bytes"
	"context"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbarratt/duel/game"
	"github.com/jbarratt/duel/gpu/gputest"
	"github.com/jbarratt/duel/render"
	"github.com/jbarratt/duel/scene"
	"github.com/jbarratt/duel/session"
	"github.com/jbarratt/duel/transport"
)

func newController(t *testing.T, out *bytes.Buffer) (*session.Controller, *console) {
	t.Helper()
	end, _ := transport.NewLoopback()
	con := &console{out: out}
	ctrl, err := session.New(session.Config{Messenger: end, Notifier: con})
	require.NoError(t, err)
	require.NoError(t, ctrl.OnActivate(context.Background(), nil))
	return ctrl, con
}

func TestCommand(t *testing.T) {
	var out bytes.Buffer
	ctrl, con := newController(t, &out)
	ctx := context.Background()

	require.NoError(t, command(ctx, "Fire", ctrl, con))
	assert.Equal(t, game.MoveFire, ctrl.Selected())

	require.NoError(t, command(ctx, "up", ctrl, con))
	assert.Equal(t, game.MoveIce, ctrl.Selected())

	require.NoError(t, command(ctx, "state", ctrl, con))
	assert.Contains(t, out.String(), "no match yet, selected ice")

	assert.Error(t, command(ctx, "lightning", ctrl, con))
	assert.ErrorIs(t, command(ctx, "quit", ctrl, con), errQuit)
	assert.NoError(t, command(ctx, "", ctrl, con))
}

func TestReadInputStopsAtEOF(t *testing.T) {
	var out bytes.Buffer
	ctrl, con := newController(t, &out)

	err := readInput(context.Background(), strings.NewReader("water\nbogus\n"), ctrl, con)
	assert.ErrorIs(t, err, errQuit)
	assert.Equal(t, game.MoveWater, ctrl.Selected())
	assert.Contains(t, out.String(), "! ")
}

func TestConsoleNotify(t *testing.T) {
	var out bytes.Buffer
	con := &console{out: &out}
	con.Notify(context.Background(), session.Notification{Kind: session.KindOutcome, Text: "You won! water douses fire"})
	assert.Equal(t, "* You won! water douses fire\n", out.String())
}

func TestNewStage(t *testing.T) {
	dev := gputest.New()
	st, err := newStage(dev)
	require.NoError(t, err)

	tex := st.object.Textures()
	for _, id := range scene.DrawOrder {
		img := dev.Texture(tex[id])
		require.NotNil(t, img, "texture for %s", id)
		assert.Equal(t, rangeColors[id], img.RGBAAt(0, 0))
	}
	for m, c := range spellColors {
		assert.Equal(t, c, dev.Texture(st.spells[m]).RGBAAt(3, 3))
	}

	driver := render.NewDriver(dev, st.object, st.target, width, height)
	require.NoError(t, driver.Tick(context.Background(), 0))
	assert.Equal(t, 1, dev.Presented())
	require.NoError(t, closeObject(st))
}

func TestSolid(t *testing.T) {
	img := solid(color.RGBA{1, 2, 3, 255})
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, img.RGBAAt(2, 1))
}
