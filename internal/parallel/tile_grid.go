package parallel

// TileGrid divides a width x height image into tiles.
//
// Tiles are stored in a flat slice in row-major order, accessed via
// index = ty * tilesX + tx.
type TileGrid struct {
	tiles []Tile

	tilesX int
	tilesY int

	width  int
	height int

	tileW int
	tileH int
}

// NewTileGrid creates a grid covering width x height pixels with tiles of
// tileW x tileH. Non-positive tile dimensions take the defaults. A
// non-positive image dimension yields an empty grid.
func NewTileGrid(width, height, tileW, tileH int) *TileGrid {
	if tileW <= 0 {
		tileW = TileWidth
	}
	if tileH <= 0 {
		tileH = TileHeight
	}

	g := &TileGrid{tileW: tileW, tileH: tileH}
	if width <= 0 || height <= 0 {
		return g
	}

	g.width = width
	g.height = height
	g.tilesX = (width + tileW - 1) / tileW
	g.tilesY = (height + tileH - 1) / tileH
	g.tiles = make([]Tile, 0, g.tilesX*g.tilesY)

	for ty := range g.tilesY {
		for tx := range g.tilesX {
			minX := tx * tileW
			minY := ty * tileH
			g.tiles = append(g.tiles, Tile{
				X:      tx,
				Y:      ty,
				MinX:   minX,
				MinY:   minY,
				Width:  min(tileW, width-minX),
				Height: min(tileH, height-minY),
			})
		}
	}
	return g
}

// TileAt returns the tile at tile coordinates (tx, ty).
// The second result is false if the coordinates are out of range.
func (g *TileGrid) TileAt(tx, ty int) (Tile, bool) {
	if tx < 0 || tx >= g.tilesX || ty < 0 || ty >= g.tilesY {
		return Tile{}, false
	}
	return g.tiles[ty*g.tilesX+tx], true
}

// TileAtPixel returns the tile containing pixel (px, py).
func (g *TileGrid) TileAtPixel(px, py int) (Tile, bool) {
	if px < 0 || px >= g.width || py < 0 || py >= g.height {
		return Tile{}, false
	}
	return g.tiles[(py/g.tileH)*g.tilesX+px/g.tileW], true
}

// TileCount returns the total number of tiles in the grid.
func (g *TileGrid) TileCount() int {
	return len(g.tiles)
}

// TilesX returns the number of tiles horizontally.
func (g *TileGrid) TilesX() int {
	return g.tilesX
}

// TilesY returns the number of tiles vertically.
func (g *TileGrid) TilesY() int {
	return g.tilesY
}

// Width returns the image width in pixels.
func (g *TileGrid) Width() int {
	return g.width
}

// Height returns the image height in pixels.
func (g *TileGrid) Height() int {
	return g.height
}

// TileSize returns the nominal tile dimensions.
func (g *TileGrid) TileSize() (w, h int) {
	return g.tileW, g.tileH
}

// AllTiles returns all tiles in the grid.
// The returned slice should not be modified.
func (g *TileGrid) AllTiles() []Tile {
	return g.tiles
}

// ForEach calls fn for each tile in row-major order.
func (g *TileGrid) ForEach(fn func(tile Tile)) {
	for _, tile := range g.tiles {
		fn(tile)
	}
}
