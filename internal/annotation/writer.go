package annotation

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/annolab-data/consensus.report/internal/fsutil"
	"github.com/annolab-data/consensus.report/internal/table"
)

// vectorSuffix is the filename suffix of vector-format export files.
const vectorSuffix = "___objects.json"

// WriteAnnotations converts an aggregated table back into per-image export
// files under outDir, plus a classes/classes.json reconstructed from the
// class and attribute columns. Only the vector format is produced.
//
// Per-instance fields are taken from the instance's first row; attribute
// rows contribute one attributes entry each. Image metadata is taken from
// the first row that has it.
func WriteAnnotations(fsys fsutil.FileSystem, t table.Table, outDir string) error {
	if err := fsys.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, image := range t.Images() {
		doc, err := buildImageDocument(t, image)
		if err != nil {
			return fmt.Errorf("failed to build annotation for image %s: %w", image, err)
		}
		data, err := json.MarshalIndent(doc, "", "    ")
		if err != nil {
			return fmt.Errorf("failed to marshal annotation for image %s: %w", image, err)
		}
		path := filepath.Join(outDir, image+vectorSuffix)
		if err := fsys.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	return writeClasses(fsys, t, outDir)
}

// buildImageDocument reassembles one image's export document from its rows.
func buildImageDocument(t table.Table, image string) (map[string]any, error) {
	instances := []any{}
	comments := []any{}
	tags := []string{}

	var width, height int
	var status string
	var pinned bool

	// Instance rows grouped by id, first-appearance order.
	byID := make(map[int][]table.Record)
	var idOrder []int
	for _, r := range t {
		if r.ImageName != image {
			continue
		}
		switch {
		case r.Type == table.TypeComment:
			comment := map[string]any{"resolved": r.CommentResolved}
			if p, ok := r.Meta.(table.CommentPayload); ok {
				comment["x"] = p.X
				comment["y"] = p.Y
				comment["correspondence"] = p.Comments
			}
			comments = append(comments, comment)
		case r.Type == table.TypeTag:
			tags = append(tags, r.Tag)
		case r.HasInstance():
			if _, ok := byID[r.InstanceID]; !ok {
				idOrder = append(idOrder, r.InstanceID)
			}
			byID[r.InstanceID] = append(byID[r.InstanceID], r)
		}
	}

	for _, id := range idOrder {
		rows := byID[id]
		first := rows[0]

		inst := map[string]any{
			"className":   first.ClassName,
			"type":        string(first.Type),
			"probability": first.Probability,
			"error":       first.Error,
			"locked":      first.Locked,
			"visible":     first.Visible,
			"trackingId":  first.TrackingID,
			"groupId":     first.GroupID,
		}
		pointLabels := first.PointLabels
		if pointLabels == nil {
			pointLabels = map[string]string{}
		}
		inst["pointLabels"] = pointLabels

		if first.Meta != nil {
			metaJSON, err := json.Marshal(first.Meta)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal geometry payload: %w", err)
			}
			var metaKeys map[string]any
			if err := json.Unmarshal(metaJSON, &metaKeys); err != nil {
				return nil, fmt.Errorf("failed to expand geometry payload: %w", err)
			}
			for k, v := range metaKeys {
				inst[k] = v
			}
		}

		attributes := []any{}
		for _, r := range rows {
			if r.AttributeGroupName != "" {
				attributes = append(attributes, map[string]any{
					"groupName": r.AttributeGroupName,
					"name":      r.AttributeName,
				})
			}
		}
		inst["attributes"] = attributes
		instances = append(instances, inst)

		if width == 0 {
			width = first.ImageWidth
		}
		if height == 0 {
			height = first.ImageHeight
		}
		if status == "" {
			status = first.ImageStatus
		}
		if !pinned {
			pinned = first.ImagePinned
		}
	}

	return map[string]any{
		"metadata": map[string]any{
			"width":  width,
			"height": height,
			"status": status,
			"pinned": pinned,
		},
		"instances": instances,
		"comments":  comments,
		"tags":      tags,
	}, nil
}

// writeClasses rebuilds classes/classes.json from the observed className,
// classColor and attribute columns, preserving encounter order.
func writeClasses(fsys fsutil.FileSystem, t table.Table, outDir string) error {
	var defs []ClassDefinition
	classIdx := make(map[string]int)
	groupIdx := make(map[string]map[string]int)

	for _, r := range t {
		if r.ClassName == "" {
			continue
		}
		ci, ok := classIdx[r.ClassName]
		if !ok {
			ci = len(defs)
			classIdx[r.ClassName] = ci
			groupIdx[r.ClassName] = make(map[string]int)
			defs = append(defs, ClassDefinition{
				Name:            r.ClassName,
				Color:           r.ClassColor,
				AttributeGroups: []AttributeGroupDef{},
			})
		}
		if r.AttributeGroupName == "" || r.AttributeName == "" {
			continue
		}
		gi, ok := groupIdx[r.ClassName][r.AttributeGroupName]
		if !ok {
			gi = len(defs[ci].AttributeGroups)
			groupIdx[r.ClassName][r.AttributeGroupName] = gi
			defs[ci].AttributeGroups = append(defs[ci].AttributeGroups, AttributeGroupDef{
				Name:       r.AttributeGroupName,
				Attributes: []AttributeDef{},
			})
		}
		group := &defs[ci].AttributeGroups[gi]
		found := false
		for _, a := range group.Attributes {
			if a.Name == r.AttributeName {
				found = true
				break
			}
		}
		if !found {
			group.Attributes = append(group.Attributes, AttributeDef{Name: r.AttributeName})
		}
	}

	classesDir := filepath.Join(outDir, "classes")
	if err := fsys.MkdirAll(classesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create classes directory: %w", err)
	}
	data, err := json.MarshalIndent(defs, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal classes: %w", err)
	}
	if err := fsys.WriteFile(filepath.Join(classesDir, "classes.json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write classes file: %w", err)
	}
	return nil
}
