package grid

import (
	"math"
	"math/rand"

	"github.com/zwm-666/wargrid/engine/core"
)

var (
	elevationSalt uint64 = 0x9e3779b97f4a7c15
	moistureSalt  uint64 = 0x517cc1b727220a95
)

const (
	woodPerForestCell = 100
	goldPerMineCell   = 1200
)

// Generate builds a procedural map from a seed: layered value noise for
// terrain, gold patches scattered on open ground, wood on every forest
// cell, and one start position per player on cleared ground near a corner.
// The same seed always yields the same map.
func Generate(name string, width, height int, seed int64, players int) *Grid {
	g := New(name, width, height)
	g.Seed = seed

	base := uint64(seed)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			fx, fy := float64(x), float64(y)
			elev := 0.7*valueNoise2D(fx/14, fy/14, base^elevationSalt) +
				0.3*valueNoise2D(fx/6, fy/6, base^(elevationSalt<<1))
			moist := valueNoise2D(fx/11, fy/11, base^moistureSalt)

			c := g.At(x, y)
			switch {
			case elev < 0.32:
				c.Terrain = TerrainWater
			case elev < 0.62:
				if moist > 0.62 {
					c.Terrain = TerrainForest
				} else {
					c.Terrain = TerrainPlain
				}
			case elev < 0.80:
				c.Terrain = TerrainHighland
			case elev < 0.93:
				c.Terrain = TerrainMountain
			default:
				c.Terrain = TerrainLava
			}

			if c.Terrain == TerrainForest {
				vary := latticeValue(int64(x), int64(y), base)
				c.Resource = core.ResourceWood
				c.Amount = woodPerForestCell + int(60*vary)
			}
		}
	}

	r := rand.New(rand.NewSource(seed))
	placeGoldPatches(g, r, players)
	placeStarts(g, r, players)
	return g
}

func placeGoldPatches(g *Grid, r *rand.Rand, players int) {
	want := g.Width * g.Height / 700
	if min := players * 2; want < min {
		want = min
	}
	placed := 0
	for tries := 0; tries < want*20 && placed < want; tries++ {
		x := 1 + r.Intn(g.Width-2)
		y := 1 + r.Intn(g.Height-2)
		if !goldSiteOK(g, x, y) {
			continue
		}
		for dy := 0; dy < 2; dy++ {
			for dx := 0; dx < 2; dx++ {
				c := g.At(x+dx, y+dy)
				c.Resource = core.ResourceGold
				c.Amount = goldPerMineCell
			}
		}
		placed++
	}
}

// goldSiteOK accepts a 2x2 patch of open walkable ground with no deposits.
func goldSiteOK(g *Grid, x, y int) bool {
	for dy := 0; dy < 2; dy++ {
		for dx := 0; dx < 2; dx++ {
			c := g.At(x+dx, y+dy)
			if c == nil || !c.Terrain.Walkable() || c.Terrain == TerrainForest || c.Resource != core.ResourceNone {
				return false
			}
		}
	}
	return true
}

// placeStarts clears a disc of plain ground near one corner per player,
// records the start position, and drops a gold patch beside it so every
// base opens with an economy.
func placeStarts(g *Grid, r *rand.Rand, players int) {
	mx, my := g.Width/8, g.Height/8
	corners := [][2]int{
		{mx, my},
		{g.Width - 1 - mx, g.Height - 1 - my},
		{g.Width - 1 - mx, my},
		{mx, g.Height - 1 - my},
	}
	for i := 0; i < players && i < len(corners); i++ {
		sx, sy := corners[i][0], corners[i][1]
		clearDisc(g, sx, sy, 5)
		g.StartPositions = append(g.StartPositions, StartPos{PlayerSlot: i, X: sx, Y: sy})

		// Home gold just outside the cleared disc, direction jittered
		// per map so bases are not mirror images.
		gx := sx + 4 + r.Intn(3)
		gy := sy - 1 + r.Intn(3)
		if gx > g.Width-3 {
			gx = sx - 5
		}
		if gy < 1 {
			gy = 1
		}
		if gy > g.Height-3 {
			gy = g.Height - 3
		}
		for dy := 0; dy < 2; dy++ {
			for dx := 0; dx < 2; dx++ {
				if c := g.At(gx+dx, gy+dy); c != nil && c.Terrain.Walkable() {
					c.Resource = core.ResourceGold
					c.Amount = goldPerMineCell
				}
			}
		}
	}
}

func clearDisc(g *Grid, cx, cy, radius int) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			if c := g.At(cx+dx, cy+dy); c != nil {
				c.Terrain = TerrainPlain
				c.Resource = core.ResourceNone
				c.Amount = 0
			}
		}
	}
}

// valueNoise2D samples smoothed lattice noise in [0, 1). Corner values are
// hashed from integer coordinates and blended with a hermite fade, so the
// field is continuous and fully determined by the seed.
func valueNoise2D(x, y float64, seed uint64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	tx, ty := x-x0, y-y0
	ux := tx * tx * (3 - 2*tx)
	uy := ty * ty * (3 - 2*ty)

	ix, iy := int64(x0), int64(y0)
	v00 := latticeValue(ix, iy, seed)
	v10 := latticeValue(ix+1, iy, seed)
	v01 := latticeValue(ix, iy+1, seed)
	v11 := latticeValue(ix+1, iy+1, seed)

	a := v00 + (v10-v00)*ux
	b := v01 + (v11-v01)*ux
	return a + (b-a)*uy
}

// latticeValue hashes an integer lattice point to [0, 1).
func latticeValue(x, y int64, seed uint64) float64 {
	h := uint64(x)*0x517cc1b727220a95 ^ uint64(y)*0x6c62272e07bb0142 ^ seed
	h = h*0x2545f4914f6cdd1d + 0x14057b7ef767814f
	h ^= h >> 16
	h *= 0xd6e8feb86659fd93
	h ^= h >> 16
	return float64(h&0xffffffff) / float64(0xffffffff)
}
