package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformSize is the packed size of Uniforms.
const UniformSize = 2*16*4 + 12*4

// Light is the single directional light of the scene.
type Light struct {
	Color            mgl32.Vec3
	AmbientIntensity float32
	Direction        mgl32.Vec3
	DiffuseIntensity float32
	Shininess        float32
	SpecularStrength float32
}

// DefaultLight is a white light shining down the view axis.
func DefaultLight() Light {
	return Light{
		Color:            mgl32.Vec3{1, 1, 1},
		AmbientIntensity: 0.1,
		Direction:        mgl32.Vec3{0, 0, 1},
		DiffuseIntensity: 0.8,
		Shininess:        10,
		SpecularStrength: 2,
	}
}

// Uniforms is the per-frame block the shader reads.
type Uniforms struct {
	Projection mgl32.Mat4
	ModelView  mgl32.Mat4
	Light      Light
}

// Bytes packs u in the layout of the Uniforms struct in scene.wgsl.
func (u Uniforms) Bytes() []byte {
	buf := make([]byte, 0, UniformSize)
	put := func(f float32) {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for _, f := range u.Projection {
		put(f)
	}
	for _, f := range u.ModelView {
		put(f)
	}
	l := u.Light
	put(l.Color[0])
	put(l.Color[1])
	put(l.Color[2])
	put(l.AmbientIntensity)
	put(l.Direction[0])
	put(l.Direction[1])
	put(l.Direction[2])
	put(l.DiffuseIntensity)
	put(l.Shininess)
	put(l.SpecularStrength)
	put(0)
	put(0)
	return buf
}
