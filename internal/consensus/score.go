package consensus

import (
	"fmt"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/annolab-data/consensus.report/internal/table"
)

// Score computes the pairwise agreement between two geometries of the
// given instance type.
//
// For areal types (bbox, polygon) the score is intersection-over-union in
// [0, 1]; a zero union area (two degenerate shapes) scores 0 rather than
// dividing by zero. For points the score is the negative euclidean
// distance: closer is larger, and values are not confined to [0, 1].
// Any other type fails with UnsupportedInstanceTypeError.
func Score(a, b geom.Geometry, t table.InstanceType) (float64, error) {
	switch t {
	case table.TypeBBox, table.TypePolygon:
		inter, err := geom.Intersection(a, b)
		if err != nil {
			return 0, fmt.Errorf("failed to intersect geometries: %w", err)
		}
		union, err := geom.Union(a, b)
		if err != nil {
			return 0, fmt.Errorf("failed to union geometries: %w", err)
		}
		unionArea := union.Area()
		if unionArea == 0 {
			return 0, nil
		}
		return inter.Area() / unionArea, nil

	case table.TypePoint:
		d, ok := geom.Distance(a, b)
		if !ok {
			return 0, fmt.Errorf("failed to measure distance between point geometries")
		}
		return -d, nil
	}

	return 0, &UnsupportedInstanceTypeError{Type: t}
}
