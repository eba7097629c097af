package scene

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/jbarratt/duel/gpu"
)

// Vertex matches the vertex layout of the scene pipeline.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec4
	UV       mgl32.Vec2
	Normal   mgl32.Vec3
}

func (v Vertex) appendTo(buf []byte) []byte {
	floats := [12]float32{
		v.Position[0], v.Position[1], v.Position[2],
		v.Color[0], v.Color[1], v.Color[2], v.Color[3],
		v.UV[0], v.UV[1],
		v.Normal[0], v.Normal[1], v.Normal[2],
	}
	for _, f := range floats {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// Mesh is a vertex buffer plus the ranges it is drawn in.
type Mesh struct {
	Vertices []Vertex
	Layout   Layout
}

// Bytes is the vertex data as uploaded to the GPU.
func (m Mesh) Bytes() []byte {
	buf := make([]byte, 0, len(m.Vertices)*gpu.VertexStride)
	for _, v := range m.Vertices {
		buf = v.appendTo(buf)
	}
	return buf
}

// MeshBuilder appends sub-meshes one after another, so the resulting
// layout always partitions the buffer.
type MeshBuilder struct {
	mesh Mesh
	err  error
}

func NewMeshBuilder() *MeshBuilder {
	return &MeshBuilder{}
}

// Add appends verts as the range id.
func (b *MeshBuilder) Add(id RangeID, verts ...Vertex) *MeshBuilder {
	if b.err != nil {
		return b
	}
	if _, dup := b.mesh.Layout.Range(id); dup {
		b.err = fmt.Errorf("%w: %s added twice", ErrBadLayout, id)
		return b
	}
	start := uint32(len(b.mesh.Vertices))
	b.mesh.Vertices = append(b.mesh.Vertices, verts...)
	b.mesh.Layout = append(b.mesh.Layout, VertexRange{ID: id, Start: start, Count: uint32(len(verts))})
	return b
}

func (b *MeshBuilder) Build() (Mesh, error) {
	if b.err != nil {
		return Mesh{}, b.err
	}
	if err := b.mesh.Layout.Validate(uint32(len(b.mesh.Vertices))); err != nil {
		return Mesh{}, err
	}
	return b.mesh, nil
}

// Quad is two triangles over corners given counter-clockwise.
func Quad(a, b, c, d mgl32.Vec3, color mgl32.Vec4) []Vertex {
	normal := b.Sub(a).Cross(d.Sub(a)).Normalize()
	v := func(p mgl32.Vec3, s, t float32) Vertex {
		return Vertex{Position: p, Color: color, UV: mgl32.Vec2{s, t}, Normal: normal}
	}
	return []Vertex{
		v(a, 0, 1), v(b, 1, 1), v(c, 1, 0),
		v(a, 0, 1), v(c, 1, 0), v(d, 0, 0),
	}
}

// Box is an axis aligned box of 36 vertices around center.
func Box(center, size mgl32.Vec3, color mgl32.Vec4) []Vertex {
	h := size.Mul(0.5)
	p := func(x, y, z float32) mgl32.Vec3 {
		return center.Add(mgl32.Vec3{x * h[0], y * h[1], z * h[2]})
	}
	var out []Vertex
	out = append(out, Quad(p(-1, -1, 1), p(1, -1, 1), p(1, 1, 1), p(-1, 1, 1), color)...)     // front
	out = append(out, Quad(p(1, -1, -1), p(-1, -1, -1), p(-1, 1, -1), p(1, 1, -1), color)...) // back
	out = append(out, Quad(p(-1, -1, -1), p(-1, -1, 1), p(-1, 1, 1), p(-1, 1, -1), color)...) // left
	out = append(out, Quad(p(1, -1, 1), p(1, -1, -1), p(1, 1, -1), p(1, 1, 1), color)...)     // right
	out = append(out, Quad(p(-1, 1, 1), p(1, 1, 1), p(1, 1, -1), p(-1, 1, -1), color)...)     // top
	out = append(out, Quad(p(-1, -1, -1), p(1, -1, -1), p(1, -1, 1), p(-1, -1, 1), color)...) // bottom
	return out
}

// CharacterMesh builds the duel stage: a floor, three walls, a sky
// backdrop, the caster's cloak and face, and the spell cube.
func CharacterMesh() (Mesh, error) {
	white := mgl32.Vec4{1, 1, 1, 1}
	const r = 4

	walls := Quad(mgl32.Vec3{-r, 0, -r}, mgl32.Vec3{r, 0, -r}, mgl32.Vec3{r, r, -r}, mgl32.Vec3{-r, r, -r}, white)
	walls = append(walls, Quad(mgl32.Vec3{-r, 0, r}, mgl32.Vec3{-r, 0, -r}, mgl32.Vec3{-r, r, -r}, mgl32.Vec3{-r, r, r}, white)...)
	walls = append(walls, Quad(mgl32.Vec3{r, 0, -r}, mgl32.Vec3{r, 0, r}, mgl32.Vec3{r, r, r}, mgl32.Vec3{r, r, -r}, white)...)

	return NewMeshBuilder().
		Add(Floor, Quad(mgl32.Vec3{-r, 0, r}, mgl32.Vec3{r, 0, r}, mgl32.Vec3{r, 0, -r}, mgl32.Vec3{-r, 0, -r}, white)...).
		Add(Walls, walls...).
		Add(Sky, Quad(mgl32.Vec3{-r, r, -r}, mgl32.Vec3{r, r, -r}, mgl32.Vec3{r, r, r}, mgl32.Vec3{-r, r, r}, white)...).
		Add(Cloak, Box(mgl32.Vec3{-1.5, 1, 0}, mgl32.Vec3{1, 2, 0.6}, white)...).
		Add(Face, Box(mgl32.Vec3{-1.5, 2.4, 0}, mgl32.Vec3{0.7, 0.7, 0.7}, white)...).
		Add(Cube, Box(mgl32.Vec3{1.5, 1, 0}, mgl32.Vec3{1, 1, 1}, white)...).
		Build()
}
