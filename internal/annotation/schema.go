// Package annotation parses project export files: per-image annotation
// JSON documents plus the shared classes/classes.json definition table.
// It normalizes each image's export into flat table records and can write
// a table back out as export files.
package annotation

import (
	"encoding/json"
	"fmt"
	"time"
)

// ImageAnnotation is one decoded per-image export file.
type ImageAnnotation struct {
	Metadata  ImageMetadata `json:"metadata"`
	Instances []Instance    `json:"instances"`
	Comments  []Comment     `json:"comments,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
}

// ImageMetadata is the image-level block of an export file.
type ImageMetadata struct {
	Name           string `json:"name,omitempty"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Status         string `json:"status,omitempty"`
	Pinned         bool   `json:"pinned"`
	AnnotatorEmail string `json:"annotatorEmail,omitempty"`
	QAEmail        string `json:"qaEmail,omitempty"`
}

// Actor identifies who created or updated an instance.
type Actor struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// AttributeRef is one attribute selection on an instance.
type AttributeRef struct {
	GroupName string `json:"groupName"`
	Name      string `json:"name"`
}

// Instance is one annotated shape in an export file. The geometry fields
// are a superset: which ones are meaningful depends on Type. Point data
// stays raw because its wire shape differs per type (corner object for
// bbox/cuboid, flat coordinate list for polygon/polyline, labelled point
// list for template).
type Instance struct {
	Type      string `json:"type,omitempty"`
	ClassName string `json:"className,omitempty"`

	Points      json.RawMessage `json:"points,omitempty"`
	X           float64         `json:"x,omitempty"`
	Y           float64         `json:"y,omitempty"`
	CX          float64         `json:"cx,omitempty"`
	CY          float64         `json:"cy,omitempty"`
	RX          float64         `json:"rx,omitempty"`
	RY          float64         `json:"ry,omitempty"`
	Angle       float64         `json:"angle,omitempty"`
	Parts       json.RawMessage `json:"parts,omitempty"`
	Connections json.RawMessage `json:"connections,omitempty"`

	Attributes  []AttributeRef    `json:"attributes,omitempty"`
	Locked      bool              `json:"locked,omitempty"`
	Visible     bool              `json:"visible,omitempty"`
	TrackingID  string            `json:"trackingId,omitempty"`
	GroupID     int               `json:"groupId,omitempty"`
	Probability float64           `json:"probability,omitempty"`
	Error       bool              `json:"error,omitempty"`
	PointLabels map[string]string `json:"pointLabels,omitempty"`

	CreatedAt    string `json:"createdAt,omitempty"`
	CreatedBy    *Actor `json:"createdBy,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
	UpdatedBy    *Actor `json:"updatedBy,omitempty"`
	CreationType string `json:"creationType,omitempty"`
}

// Comment is one comment thread pinned to an image position.
type Comment struct {
	X              float64         `json:"x"`
	Y              float64         `json:"y"`
	Correspondence json.RawMessage `json:"correspondence,omitempty"`
	Resolved       bool            `json:"resolved"`

	CreatedAt    string `json:"createdAt,omitempty"`
	CreatedBy    *Actor `json:"createdBy,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
	UpdatedBy    *Actor `json:"updatedBy,omitempty"`
	CreationType string `json:"creationType,omitempty"`
}

// Parse decodes one per-image export file.
func Parse(data []byte) (*ImageAnnotation, error) {
	var ann ImageAnnotation
	if err := json.Unmarshal(data, &ann); err != nil {
		return nil, fmt.Errorf("failed to parse annotation file: %w", err)
	}
	return &ann, nil
}

// timestampLayouts are the wire formats timestamps have been observed in.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseTimestamp normalizes a wire timestamp to UTC. An empty or
// unparseable value yields the zero time; bad timestamps are a data
// quality issue, not a fatal one.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
