package annotation

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/annolab-data/consensus.report/internal/fsutil"
)

// ClassesFile is the conventional location of the class definition table
// relative to a project export root.
var ClassesFile = filepath.Join("classes", "classes.json")

// AttributeDef is one selectable attribute value within a group.
type AttributeDef struct {
	Name string `json:"name"`
}

// AttributeGroupDef is a named, ordered set of attributes on a class.
type AttributeGroupDef struct {
	Name       string         `json:"name"`
	Attributes []AttributeDef `json:"attributes"`
}

// ClassDefinition is one entry of classes/classes.json.
type ClassDefinition struct {
	Name            string              `json:"name"`
	Color           string              `json:"color"`
	AttributeGroups []AttributeGroupDef `json:"attribute_groups"`
}

// Classes is the authoritative lookup of valid class names, attribute
// groups and attribute values for one export. Loaded once per aggregation
// pass and used to validate every instance against the definition table.
type Classes struct {
	defs   []ClassDefinition
	colors map[string]string
	groups map[string]map[string]map[string]bool
}

// ParseClasses builds a Classes lookup from the raw classes.json bytes.
func ParseClasses(data []byte) (*Classes, error) {
	var defs []ClassDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse classes file: %w", err)
	}

	c := &Classes{
		defs:   defs,
		colors: make(map[string]string, len(defs)),
		groups: make(map[string]map[string]map[string]bool, len(defs)),
	}
	for _, def := range defs {
		c.colors[def.Name] = def.Color
		groups := make(map[string]map[string]bool, len(def.AttributeGroups))
		for _, g := range def.AttributeGroups {
			attrs := make(map[string]bool, len(g.Attributes))
			for _, a := range g.Attributes {
				attrs[a.Name] = true
			}
			groups[g.Name] = attrs
		}
		c.groups[def.Name] = groups
	}
	return c, nil
}

// LoadClasses reads and parses the classes file at path.
func LoadClasses(fsys fsutil.FileSystem, path string) (*Classes, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classes file %s: %w", path, err)
	}
	return ParseClasses(data)
}

// Definitions returns the class definitions in file order.
func (c *Classes) Definitions() []ClassDefinition {
	return c.defs
}

// HasClass reports whether name is a defined class.
func (c *Classes) HasClass(name string) bool {
	_, ok := c.colors[name]
	return ok
}

// Color returns the hex color of a defined class.
func (c *Classes) Color(name string) string {
	return c.colors[name]
}

// HasGroup reports whether the class defines the attribute group.
func (c *Classes) HasGroup(class, group string) bool {
	_, ok := c.groups[class][group]
	return ok
}

// HasAttribute reports whether the class's group defines the attribute.
func (c *Classes) HasAttribute(class, group, attr string) bool {
	return c.groups[class][group][attr]
}
