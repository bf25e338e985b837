package annotation

import (
	"log"

	"github.com/annolab-data/consensus.report/internal/table"
)

// Normalizer flattens one image's decoded export into table records: one
// record per instance×attribute combination, plus optional comment and tag
// records when the caller asks for them.
//
// Instances referencing a class missing from the definition table are
// skipped with a warning; so are attributes referencing an unknown group
// or value. An instance whose attributes all fail validation emits zero
// records and therefore vanishes from the table entirely, which downstream
// consumers rely on.
type Normalizer struct {
	Classes         *Classes
	IncludeComments bool
	IncludeTags     bool
}

// Normalize returns the records for one image, in discovery order:
// comments (when included), tags (when included), then instances.
// folderName is empty for images directly under the export root.
func (n *Normalizer) Normalize(imageName, folderName string, ann *ImageAnnotation) []table.Record {
	base := table.Record{
		ImageName:      imageName,
		ImageHeight:    ann.Metadata.Height,
		ImageWidth:     ann.Metadata.Width,
		ImageStatus:    ann.Metadata.Status,
		ImagePinned:    ann.Metadata.Pinned,
		ImageAnnotator: ann.Metadata.AnnotatorEmail,
		ImageQA:        ann.Metadata.QAEmail,
		FolderName:     folderName,
		InstanceID:     table.NoInstance,
	}

	var out []table.Record

	if n.IncludeComments {
		for _, c := range ann.Comments {
			rec := base
			rec.Type = table.TypeComment
			rec.Meta = table.CommentPayload{X: c.X, Y: c.Y, Comments: c.Correspondence}
			rec.CommentResolved = c.Resolved
			rec.CreatedAt = parseTimestamp(c.CreatedAt)
			rec.UpdatedAt = parseTimestamp(c.UpdatedAt)
			rec.CreationType = c.CreationType
			if c.CreatedBy != nil {
				rec.CreatorEmail = c.CreatedBy.Email
				rec.CreatorRole = c.CreatedBy.Role
			}
			if c.UpdatedBy != nil {
				rec.UpdatorEmail = c.UpdatedBy.Email
				rec.UpdatorRole = c.UpdatedBy.Role
			}
			out = append(out, rec)
		}
	}

	if n.IncludeTags {
		for _, tag := range ann.Tags {
			rec := base
			rec.Type = table.TypeTag
			rec.Tag = tag
			out = append(out, rec)
		}
	}

	instanceID := 0
	for i := range ann.Instances {
		inst := &ann.Instances[i]

		// Pixel exports omit the type field on mask instances.
		instType := table.InstanceType(inst.Type)
		if inst.Type == "" {
			instType = table.TypeMask
		}

		if inst.ClassName == "" || !n.Classes.HasClass(inst.ClassName) {
			log.Printf("annotation class %q not found in classes file, skipping instance", inst.ClassName)
			continue
		}

		rec := base
		rec.InstanceID = instanceID
		rec.ClassName = inst.ClassName
		rec.ClassColor = n.Classes.Color(inst.ClassName)
		rec.Type = instType
		rec.Meta = instancePayload(instType, inst)
		rec.Error = inst.Error
		rec.Locked = inst.Locked
		rec.Visible = inst.Visible
		rec.TrackingID = inst.TrackingID
		rec.Probability = inst.Probability
		rec.PointLabels = inst.PointLabels
		rec.GroupID = inst.GroupID
		rec.CreatedAt = parseTimestamp(inst.CreatedAt)
		rec.UpdatedAt = parseTimestamp(inst.UpdatedAt)
		rec.CreationType = inst.CreationType
		if inst.CreatedBy != nil {
			rec.CreatorEmail = inst.CreatedBy.Email
			rec.CreatorRole = inst.CreatedBy.Role
		}
		if inst.UpdatedBy != nil {
			rec.UpdatorEmail = inst.UpdatedBy.Email
			rec.UpdatorRole = inst.UpdatedBy.Role
		}

		added := 0
		if len(inst.Attributes) == 0 {
			out = append(out, rec)
			added = 1
		} else {
			for _, attr := range inst.Attributes {
				if !n.Classes.HasGroup(inst.ClassName, attr.GroupName) {
					log.Printf("attribute group %q not defined for class %q, skipping attribute", attr.GroupName, inst.ClassName)
					continue
				}
				if !n.Classes.HasAttribute(inst.ClassName, attr.GroupName, attr.Name) {
					log.Printf("attribute %q not defined in group %q of class %q, skipping attribute", attr.Name, attr.GroupName, inst.ClassName)
					continue
				}
				attrRec := rec
				attrRec.AttributeGroupName = attr.GroupName
				attrRec.AttributeName = attr.Name
				out = append(out, attrRec)
				added++
			}
		}

		// The id advances only when the instance produced rows, keeping
		// instance ids dense within the image.
		if added > 0 {
			instanceID++
		}
	}

	return out
}

// instancePayload builds the type-specific geometry payload. Types outside
// the known set carry no payload but are otherwise preserved as-is.
func instancePayload(t table.InstanceType, inst *Instance) table.Payload {
	switch t {
	case table.TypeBBox, table.TypePolygon, table.TypePolyline, table.TypeCuboid:
		return table.PointsPayload{Points: inst.Points}
	case table.TypePoint:
		return table.PointPayload{X: inst.X, Y: inst.Y}
	case table.TypeEllipse:
		return table.EllipsePayload{CX: inst.CX, CY: inst.CY, RX: inst.RX, RY: inst.RY, Angle: inst.Angle}
	case table.TypeMask:
		return table.MaskPayload{Parts: inst.Parts}
	case table.TypeTemplate:
		return table.TemplatePayload{Connections: inst.Connections, Points: inst.Points}
	}
	return nil
}
