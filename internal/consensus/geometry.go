package consensus

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/annolab-data/consensus.report/internal/table"
)

// buildGeometry turns an instance's geometry payload into a validated
// geometry object for one matching pass. Geometries are ephemeral: built
// fresh per pass, never persisted.
//
// Validation happens at construction; a degenerate or self-intersecting
// shape returns an error and the caller drops the instance from matching.
func buildGeometry(t table.InstanceType, meta table.Payload) (geom.Geometry, error) {
	switch t {
	case table.TypeBBox:
		p, ok := meta.(table.PointsPayload)
		if !ok {
			return geom.Geometry{}, fmt.Errorf("bbox instance has no points payload")
		}
		corners, err := p.BBox()
		if err != nil {
			return geom.Geometry{}, err
		}
		x1, x2 := minMax(corners.X1, corners.X2)
		y1, y2 := minMax(corners.Y1, corners.Y2)
		ring := []float64{x1, y1, x2, y1, x2, y2, x1, y2}
		return polygonFromRing(ring)

	case table.TypePolygon:
		p, ok := meta.(table.PointsPayload)
		if !ok {
			return geom.Geometry{}, fmt.Errorf("polygon instance has no points payload")
		}
		ring, err := p.Ring()
		if err != nil {
			return geom.Geometry{}, err
		}
		if len(ring) < 6 || len(ring)%2 != 0 {
			return geom.Geometry{}, fmt.Errorf("polygon needs at least 3 coordinate pairs, got %d values", len(ring))
		}
		return polygonFromRing(ring)

	case table.TypePoint:
		p, ok := meta.(table.PointPayload)
		if !ok {
			return geom.Geometry{}, fmt.Errorf("point instance has no point payload")
		}
		wkt := fmt.Sprintf("POINT(%s %s)", coord(p.X), coord(p.Y))
		return geom.UnmarshalWKT(wkt)
	}

	return geom.Geometry{}, &UnsupportedInstanceTypeError{Type: t}
}

// polygonFromRing builds a polygon from a flat x0,y0,x1,y1,... ring,
// closing it if the input does not repeat the first vertex.
func polygonFromRing(ring []float64) (geom.Geometry, error) {
	var sb strings.Builder
	sb.WriteString("POLYGON((")
	for i := 0; i+1 < len(ring); i += 2 {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(coord(ring[i]))
		sb.WriteByte(' ')
		sb.WriteString(coord(ring[i+1]))
	}
	if ring[0] != ring[len(ring)-2] || ring[1] != ring[len(ring)-1] {
		sb.WriteByte(',')
		sb.WriteString(coord(ring[0]))
		sb.WriteByte(' ')
		sb.WriteString(coord(ring[1]))
	}
	sb.WriteString("))")
	return geom.UnmarshalWKT(sb.String())
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func minMax(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}
