// Package parallel splits an output image into rectangular tiles and runs
// per-tile work on a pool of goroutines.
//
// Tiles never overlap, so work functions writing only inside their own tile
// need no synchronization with each other.
//
// Thread safety: TileGrid is immutable after construction and safe for
// concurrent reads. WorkerPool is safe for concurrent use.
package parallel

// Default tile dimensions.
const (
	// TileWidth is the default width of a tile in pixels.
	TileWidth = 64

	// TileHeight is the default height of a tile in pixels.
	TileHeight = 64

	// TilePixels is the number of pixels in a full default tile.
	TilePixels = TileWidth * TileHeight
)

// Tile is a rectangular region of the output image.
//
// Edge tiles may be smaller than the grid's tile size when the image is not
// evenly divisible.
type Tile struct {
	// X is the tile column index (0-based).
	X int

	// Y is the tile row index (0-based).
	Y int

	// MinX is the left pixel column covered by the tile.
	MinX int

	// MinY is the top pixel row covered by the tile.
	MinY int

	// Width is the actual width in pixels.
	Width int

	// Height is the actual height in pixels.
	Height int
}

// Bounds returns the pixel bounds of this tile in image space.
// Returns (x, y, width, height) where x,y is the top-left corner.
func (t Tile) Bounds() (x, y, w, h int) {
	return t.MinX, t.MinY, t.Width, t.Height
}

// MaxX returns the exclusive right pixel bound.
func (t Tile) MaxX() int {
	return t.MinX + t.Width
}

// MaxY returns the exclusive bottom pixel bound.
func (t Tile) MaxY() int {
	return t.MinY + t.Height
}

// Contains returns true if the image-space pixel (px, py) is within this tile.
func (t Tile) Contains(px, py int) bool {
	return px >= t.MinX && px < t.MaxX() &&
		py >= t.MinY && py < t.MaxY()
}

// Pixels returns the number of pixels in the tile.
func (t Tile) Pixels() int {
	return t.Width * t.Height
}
