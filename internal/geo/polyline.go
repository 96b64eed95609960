package geo

import (
	"encoding/json"
	"fmt"

	"github.com/markershare/markershare/pkg/core"
)

// ParsePositions parses a JSON array of engine positions.
// Input format: "[[x1,y1,z1],[x2,y2,z2],...]"
func ParsePositions(input string) ([]core.Position3D, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(input), &coords); err != nil {
		return nil, fmt.Errorf("failed to parse position list JSON: %w", err)
	}

	if len(coords) == 0 {
		return nil, fmt.Errorf("position list is empty")
	}

	out := make([]core.Position3D, len(coords))
	for i, coord := range coords {
		if len(coord) != 3 {
			return nil, fmt.Errorf("position %d has %d values, want 3", i, len(coord))
		}
		out[i] = core.Position3D{X: coord[0], Y: coord[1], Z: coord[2]}
	}

	return out, nil
}
