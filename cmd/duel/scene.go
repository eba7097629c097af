package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/jbarratt/duel/game"
	"github.com/jbarratt/duel/gpu"
	"github.com/jbarratt/duel/scene"
)

const (
	width  = 640
	height = 480
)

var rangeColors = map[scene.RangeID]color.RGBA{
	scene.Floor: {90, 80, 70, 255},
	scene.Walls: {120, 110, 140, 255},
	scene.Sky:   {150, 190, 230, 255},
	scene.Cloak: {70, 40, 110, 255},
	scene.Face:  {230, 200, 170, 255},
	scene.Cube:  {128, 128, 128, 255},
}

var spellColors = map[game.Move]color.RGBA{
	game.MoveNone:  {128, 128, 128, 255},
	game.MoveFire:  {220, 70, 20, 255},
	game.MoveWater: {30, 90, 220, 255},
	game.MoveIce:   {200, 235, 250, 255},
}

func solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// stage is everything drawn on one device.
type stage struct {
	object *scene.Object
	spells map[game.Move]gpu.TextureID
	target gpu.TargetID
}

func newStage(dev gpu.Device) (*stage, error) {
	mesh, err := scene.CharacterMesh()
	if err != nil {
		return nil, err
	}

	textures := scene.TextureTable{}
	for _, id := range scene.DrawOrder {
		tex, err := dev.CreateTexture(solid(rangeColors[id]))
		if err != nil {
			return nil, fmt.Errorf("texture for %s: %w", id, err)
		}
		textures[id] = tex
	}
	spells := make(map[game.Move]gpu.TextureID, len(spellColors))
	for m, c := range spellColors {
		tex, err := dev.CreateTexture(solid(c))
		if err != nil {
			return nil, fmt.Errorf("texture for %s: %w", m, err)
		}
		spells[m] = tex
	}

	target, err := dev.CreateTarget(width, height)
	if err != nil {
		return nil, err
	}
	obj, err := scene.NewObject(dev, mesh, textures, scene.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &stage{object: obj, spells: spells, target: target}, nil
}
