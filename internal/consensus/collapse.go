package consensus

import (
	"github.com/annolab-data/consensus.report/internal/table"
)

// Instance is one annotation instance collapsed from its table rows:
// attribute-expansion rows are folded into a single attributes map, the
// remaining per-instance fields taken from the instance's first row.
type Instance struct {
	ImageName    string
	FolderName   string
	InstanceID   int
	ClassName    string
	CreatorEmail string
	Type         table.InstanceType
	Meta         table.Payload

	// Attributes maps attribute group name to the selected attribute
	// names, in row order. Nil when the instance has no attribute rows.
	Attributes map[string][]string
}

// collapseInstances folds a table of instance rows into one Instance per
// (imageName, instanceId, folderName) group, preserving first-appearance
// order of the groups and row order within each attribute group.
func collapseInstances(t table.Table) []Instance {
	type key struct {
		image  string
		id     int
		folder string
	}

	idx := make(map[key]int)
	var out []Instance
	for _, r := range t {
		k := key{image: r.ImageName, id: r.InstanceID, folder: r.FolderName}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, Instance{
				ImageName:    r.ImageName,
				FolderName:   r.FolderName,
				InstanceID:   r.InstanceID,
				ClassName:    r.ClassName,
				CreatorEmail: r.CreatorEmail,
				Type:         r.Type,
				Meta:         r.Meta,
			})
		}
		if r.AttributeGroupName != "" {
			inst := &out[i]
			if inst.Attributes == nil {
				inst.Attributes = make(map[string][]string)
			}
			inst.Attributes[r.AttributeGroupName] = append(inst.Attributes[r.AttributeGroupName], r.AttributeName)
		}
	}
	return out
}
