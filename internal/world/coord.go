// Package world holds the value types of the generated world (tiles, chunks, regions,
// settlements, landmarks), the chunk coordinate math, and the structure placer.
package world

import (
	"fmt"
	"math"
	"time"
)

// Tile is one generated world coordinate. ID is 0 until the tile has been persisted.
type Tile struct {
	ID          int64  `json:"id" db:"id"`
	X           int    `json:"x" db:"x"`
	Y           int    `json:"y" db:"y"`
	BiomeID     int    `json:"biomeId" db:"biome_id"`
	Biome       string `json:"biome" db:"biome"`
	Description string `json:"description" db:"description"`
}

// Chunk is a Size×Size block of tiles ordered x-major (x outer, y inner).
type Chunk struct {
	ChunkX      int       `json:"chunkX"`
	ChunkY      int       `json:"chunkY"`
	Size        int       `json:"size"`
	Tiles       []Tile    `json:"tiles"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Bounds returns the inclusive world-coordinate box covered by the chunk.
func (c Chunk) Bounds() Bounds {
	return ChunkBounds(ChunkCoord{X: c.ChunkX, Y: c.ChunkY}, c.Size)
}

// ChunkCoord addresses a chunk.
type ChunkCoord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// WorldToChunk returns the chunk containing world coordinate (x, y).
func WorldToChunk(x, y, size int) ChunkCoord {
	return ChunkCoord{X: floorDiv(x, size), Y: floorDiv(y, size)}
}

// ChunkToWorld returns the lower corner of a chunk in world coordinates.
func ChunkToWorld(c ChunkCoord, size int) (startX, startY int) {
	return c.X * size, c.Y * size
}

// ChunkBounds returns the inclusive box covered by a chunk.
func ChunkBounds(c ChunkCoord, size int) Bounds {
	x, y := ChunkToWorld(c, size)
	return Bounds{MinX: x, MinY: y, MaxX: x + size - 1, MaxY: y + size - 1}
}

// Bounds is an inclusive axis-aligned box of world coordinates.
type Bounds struct {
	MinX int `json:"minX"`
	MinY int `json:"minY"`
	MaxX int `json:"maxX"`
	MaxY int `json:"maxY"`
}

// Point returns the 1×1 box at (x, y).
func Point(x, y int) Bounds {
	return Bounds{MinX: x, MinY: y, MaxX: x, MaxY: y}
}

// Contains reports whether (x, y) lies inside the box.
func (b Bounds) Contains(x, y int) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Empty reports whether the box covers no coordinates.
func (b Bounds) Empty() bool {
	return b.MaxX < b.MinX || b.MaxY < b.MinY
}

// Region is a rectangular area over which structures are placed as one batch.
type Region struct {
	CenterX int `json:"centerX"`
	CenterY int `json:"centerY"`
	Width   int `json:"width"`
	Height  int `json:"height"`
}

// Key identifies the region for memoization.
func (r Region) Key() string {
	return fmt.Sprintf("%d-%d-%d-%d", r.CenterX, r.CenterY, r.Width, r.Height)
}

// Bounds returns the inclusive box covered by the region. A region with a
// non-positive width or height yields an empty box.
func (r Region) Bounds() Bounds {
	minX := r.CenterX - r.Width/2
	minY := r.CenterY - r.Height/2
	return Bounds{MinX: minX, MinY: minY, MaxX: minX + r.Width - 1, MaxY: minY + r.Height - 1}
}

// Area is width·height, or 0 for a degenerate region.
func (r Region) Area() int {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Distance is the Euclidean distance between two coordinates.
func Distance(ax, ay, bx, by int) float64 {
	return math.Hypot(float64(ax-bx), float64(ay-by))
}

// FloorMod is the modulus with the sign of the divisor, so FloorMod(-1, 20) == 19.
func FloorMod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

func floorDiv(a, n int) int {
	q := a / n
	if (a%n != 0) && ((a < 0) != (n < 0)) {
		q--
	}
	return q
}
