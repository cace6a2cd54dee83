package parallel

import "context"

// Run calls fn once per tile of grid.
//
// With a nil pool, or a grid of a single tile, tiles run sequentially on the
// calling goroutine. Otherwise tiles are spread across the pool. Run checks
// ctx before starting each tile and returns ctx.Err() if it was cancelled.
func Run(ctx context.Context, pool *WorkerPool, grid *TileGrid, fn func(tile Tile)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tiles := grid.AllTiles()
	if pool == nil || len(tiles) <= 1 || !pool.IsRunning() {
		for _, tile := range tiles {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(tile)
		}
		return nil
	}

	work := make([]func(), len(tiles))
	for i, tile := range tiles {
		work[i] = func() { fn(tile) }
	}
	return pool.ExecuteAllContext(ctx, work)
}
