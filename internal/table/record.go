// Package table defines the typed row model for aggregated annotation data.
//
// An aggregation pass over a project export produces one Record per
// instance×attribute combination (plus optional comment and tag rows).
// Records are append-only: a Table is rebuilt from scratch on every
// aggregation call and never mutated in place.
package table

import "time"

// InstanceType identifies the kind of annotation a record describes.
type InstanceType string

// The closed set of instance types an export file can contain. Comment and
// tag are synthetic row types produced by the aggregator, not shapes.
const (
	TypeBBox     InstanceType = "bbox"
	TypePolygon  InstanceType = "polygon"
	TypePolyline InstanceType = "polyline"
	TypeCuboid   InstanceType = "cuboid"
	TypePoint    InstanceType = "point"
	TypeEllipse  InstanceType = "ellipse"
	TypeMask     InstanceType = "mask"
	TypeTemplate InstanceType = "template"
	TypeComment  InstanceType = "comment"
	TypeTag      InstanceType = "tag"
)

// Valid reports whether t is one of the known instance types.
func (t InstanceType) Valid() bool {
	switch t {
	case TypeBBox, TypePolygon, TypePolyline, TypeCuboid, TypePoint,
		TypeEllipse, TypeMask, TypeTemplate, TypeComment, TypeTag:
		return true
	}
	return false
}

// NoInstance is the InstanceID of rows that do not describe an instance:
// comment rows, tag rows, and classes-without-annotations backfill rows.
const NoInstance = -1

// Record is one row of the aggregated annotation table.
//
// Rows belong to exactly one (ImageName, FolderName) pair. InstanceID is
// unique within that pair except for attribute-expansion rows: an instance
// with several validated attributes emits one row per (group, name) pair,
// all sharing the InstanceID and differing only in AttributeGroupName and
// AttributeName.
type Record struct {
	ImageName   string `json:"imageName"`
	ImageHeight int    `json:"imageHeight"`
	ImageWidth  int    `json:"imageWidth"`
	ImageStatus string `json:"imageStatus"`
	ImagePinned bool   `json:"imagePinned"`

	// ImageAnnotator and ImageQA are the per-image assignment emails.
	ImageAnnotator string `json:"imageAnnotator"`
	ImageQA        string `json:"imageQA"`

	InstanceID         int          `json:"instanceId"`
	ClassName          string       `json:"className"`
	AttributeGroupName string       `json:"attributeGroupName"`
	AttributeName      string       `json:"attributeName"`
	Type               InstanceType `json:"type"`

	// Meta is the type-dependent geometry payload. Nil for tag rows and
	// for backfill rows.
	Meta Payload `json:"meta"`

	Error       bool    `json:"error"`
	Locked      bool    `json:"locked"`
	Visible     bool    `json:"visible"`
	TrackingID  string  `json:"trackingId"`
	Probability float64 `json:"probability"`

	// PointLabels carries the template/point label map verbatim from the
	// export file (keys are point indices rendered as strings).
	PointLabels map[string]string `json:"pointLabels,omitempty"`

	ClassColor string `json:"classColor"`
	GroupID    int    `json:"groupId"`

	CreatedAt    time.Time `json:"createdAt"`
	CreatorRole  string    `json:"creatorRole"`
	CreationType string    `json:"creationType"`
	CreatorEmail string    `json:"creatorEmail"`
	UpdatedAt    time.Time `json:"updatedAt"`
	UpdatorRole  string    `json:"updatorRole"`
	UpdatorEmail string    `json:"updatorEmail"`

	// FolderName is empty for annotations found directly under the export
	// root (the project root "folder").
	FolderName string `json:"folderName"`

	// CommentResolved is meaningful only on comment rows.
	CommentResolved bool `json:"commentResolved"`

	// Tag is the literal tag string on tag rows.
	Tag string `json:"tag"`
}

// HasInstance reports whether the record describes an annotation instance
// (as opposed to a comment, tag, or backfill row).
func (r *Record) HasInstance() bool {
	return r.InstanceID != NoInstance
}
