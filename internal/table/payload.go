package table

import (
	"encoding/json"
	"fmt"
)

// Payload is the type-dependent geometry payload of a record. It is a
// closed union: exactly one variant exists per instance-type family, and
// every variant marshals to JSON with the same key set the export format
// uses, so a normalized record re-serializes to the original payload.
type Payload interface {
	payload()
}

// PointsPayload carries the raw point data of bbox, polygon, polyline and
// cuboid instances. The wire shape differs per type (an object of corner
// coordinates for bbox and cuboid, a flat coordinate list for polygon and
// polyline) so it is kept undecoded until a consumer needs it.
type PointsPayload struct {
	Points json.RawMessage `json:"points"`
}

// PointPayload is a single point instance.
type PointPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EllipsePayload is an ellipse instance.
type EllipsePayload struct {
	CX    float64 `json:"cx"`
	CY    float64 `json:"cy"`
	RX    float64 `json:"rx"`
	RY    float64 `json:"ry"`
	Angle float64 `json:"angle"`
}

// MaskPayload carries the run-length parts of a pixel mask instance.
type MaskPayload struct {
	Parts json.RawMessage `json:"parts"`
}

// TemplatePayload carries the skeleton of a template instance.
type TemplatePayload struct {
	Connections json.RawMessage `json:"connections"`
	Points      json.RawMessage `json:"points"`
}

// CommentPayload is the position and thread of a comment row.
type CommentPayload struct {
	X        float64         `json:"x"`
	Y        float64         `json:"y"`
	Comments json.RawMessage `json:"comments"`
}

func (PointsPayload) payload()   {}
func (PointPayload) payload()    {}
func (EllipsePayload) payload()  {}
func (MaskPayload) payload()     {}
func (TemplatePayload) payload() {}
func (CommentPayload) payload()  {}

// DecodePayload parses a JSON payload back into the variant matching the
// instance type. Types without a payload (tag, or any unrecognized type)
// decode to nil.
func DecodePayload(t InstanceType, data []byte) (Payload, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	switch t {
	case TypeBBox, TypePolygon, TypePolyline, TypeCuboid:
		var p PointsPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode points payload: %w", err)
		}
		return p, nil
	case TypePoint:
		var p PointPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode point payload: %w", err)
		}
		return p, nil
	case TypeEllipse:
		var p EllipsePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode ellipse payload: %w", err)
		}
		return p, nil
	case TypeMask:
		var p MaskPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode mask payload: %w", err)
		}
		return p, nil
	case TypeTemplate:
		var p TemplatePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode template payload: %w", err)
		}
		return p, nil
	case TypeComment:
		var p CommentPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode comment payload: %w", err)
		}
		return p, nil
	}
	return nil, nil
}

// BBoxPoints is the decoded corner set of a bbox PointsPayload.
type BBoxPoints struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// BBox decodes the payload's points as bbox corners.
func (p PointsPayload) BBox() (BBoxPoints, error) {
	var b BBoxPoints
	if err := json.Unmarshal(p.Points, &b); err != nil {
		return BBoxPoints{}, fmt.Errorf("failed to decode bbox points: %w", err)
	}
	return b, nil
}

// Ring decodes the payload's points as the flat x0,y0,x1,y1,... coordinate
// list of a polygon or polyline.
func (p PointsPayload) Ring() ([]float64, error) {
	var coords []float64
	if err := json.Unmarshal(p.Points, &coords); err != nil {
		return nil, fmt.Errorf("failed to decode polygon points: %w", err)
	}
	return coords, nil
}
