// Package mapdata turns a YAML map descriptor into the static CollisionMap a
// match runs on. The descriptor is the interface boundary to the external
// map-authoring importer; a broken descriptor aborts startup.
package mapdata

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	server "fog-and-fang/server"
)

// Rect is an axis-aligned tile-space rectangle inside a zone definition.
type Rect struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// Descriptor is the on-disk map format: dimensions, optional walkability
// rows ('#' blocked, anything else walkable; missing rows are fully
// walkable), and hazard zones as rectangle lists.
type Descriptor struct {
	Width     int               `yaml:"width"`
	Height    int               `yaml:"height"`
	TileSize  int               `yaml:"tile_size"`
	FinalZone string            `yaml:"final_zone"`
	Rows      []string          `yaml:"rows"`
	Zones     map[string][]Rect `yaml:"zones"`
}

// Load reads and builds the collision map from a descriptor file.
func Load(path string) (*server.CollisionMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map %s: %w", path, err)
	}
	var desc Descriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("parse map %s: %w", path, err)
	}
	cmap, err := Build(desc)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	return cmap, nil
}

// Build validates a descriptor and assembles the collision map.
func Build(desc Descriptor) (*server.CollisionMap, error) {
	if len(desc.Rows) > desc.Height {
		return nil, fmt.Errorf("descriptor has %d rows for height %d", len(desc.Rows), desc.Height)
	}

	walkable := make([][]bool, desc.Height)
	for y := range walkable {
		row := make([]bool, desc.Width)
		for x := range row {
			row[x] = true
		}
		if y < len(desc.Rows) {
			line := desc.Rows[y]
			if len(line) > desc.Width {
				return nil, fmt.Errorf("row %d has %d columns for width %d", y, len(line), desc.Width)
			}
			for x := 0; x < len(line); x++ {
				if line[x] == '#' {
					row[x] = false
				}
			}
		}
		walkable[y] = row
	}

	cmap, err := server.NewCollisionMap(desc.Width, desc.Height, desc.TileSize, walkable)
	if err != nil {
		return nil, err
	}

	for name, rects := range desc.Zones {
		grid := make([][]bool, desc.Height)
		for y := range grid {
			grid[y] = make([]bool, desc.Width)
		}
		for _, rect := range rects {
			if rect.X < 0 || rect.Y < 0 || rect.X+rect.W > desc.Width || rect.Y+rect.H > desc.Height {
				return nil, fmt.Errorf("zone %q rect %+v outside %dx%d map", name, rect, desc.Width, desc.Height)
			}
			for y := rect.Y; y < rect.Y+rect.H; y++ {
				for x := rect.X; x < rect.X+rect.W; x++ {
					grid[y][x] = true
				}
			}
		}
		if err := cmap.AddZone(name, grid); err != nil {
			return nil, err
		}
	}

	if desc.FinalZone != "" {
		if err := cmap.SetFinalZone(desc.FinalZone); err != nil {
			return nil, err
		}
	}
	return cmap, nil
}

// Default builds the stock 4000x4000 px school map used when no map file is
// configured: five hazard zones with the central plaza activated last.
func Default() *server.CollisionMap {
	desc := Descriptor{
		Width:     125,
		Height:    125,
		TileSize:  32,
		FinalZone: "town-square",
		Zones: map[string][]Rect{
			"town-square":  {{X: 47, Y: 47, W: 31, H: 31}},
			"dormitory":    {{X: 5, Y: 5, W: 35, H: 35}},
			"library":      {{X: 85, Y: 5, W: 35, H: 35}},
			"classroom":    {{X: 5, Y: 85, W: 35, H: 35}},
			"alchemy-room": {{X: 85, Y: 85, W: 35, H: 35}},
		},
	}
	cmap, err := Build(desc)
	if err != nil {
		// The default descriptor is static; failure here is a programming error.
		panic(err)
	}
	return cmap
}
