package annotation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annolab-data/consensus.report/internal/table"
)

func testClasses(t *testing.T) *Classes {
	t.Helper()
	c, err := ParseClasses([]byte(classesJSON))
	require.NoError(t, err)
	return c
}

func TestNormalizeInstances(t *testing.T) {
	t.Parallel()

	t.Run("bbox instance without attributes yields one row", func(t *testing.T) {
		t.Parallel()
		n := &Normalizer{Classes: testClasses(t)}
		ann := &ImageAnnotation{
			Metadata: ImageMetadata{Name: "img.jpg", Width: 100, Height: 50, Status: "Completed"},
			Instances: []Instance{{
				Type:      "bbox",
				ClassName: "person",
				Points:    json.RawMessage(`{"x1":1,"y1":2,"x2":3,"y2":4}`),
				Visible:   true,
				CreatedBy: &Actor{Email: "a@example.com", Role: "Annotator"},
			}},
		}

		rows := n.Normalize("img.jpg", "batch1", ann)
		require.Len(t, rows, 1)
		r := rows[0]
		assert.Equal(t, 0, r.InstanceID)
		assert.Equal(t, "person", r.ClassName)
		assert.Equal(t, "#00ff00", r.ClassColor)
		assert.Equal(t, table.TypeBBox, r.Type)
		assert.Equal(t, "batch1", r.FolderName)
		assert.Equal(t, 100, r.ImageWidth)
		assert.Equal(t, 50, r.ImageHeight)
		assert.Equal(t, "a@example.com", r.CreatorEmail)
		assert.Empty(t, r.AttributeName)
	})

	t.Run("attributes expand to one row each", func(t *testing.T) {
		t.Parallel()
		n := &Normalizer{Classes: testClasses(t)}
		ann := &ImageAnnotation{
			Instances: []Instance{{
				Type:      "bbox",
				ClassName: "car",
				Attributes: []AttributeRef{
					{GroupName: "color", Name: "red"},
					{GroupName: "color", Name: "blue"},
				},
			}},
		}

		rows := n.Normalize("img.jpg", "", ann)
		require.Len(t, rows, 2)
		assert.Equal(t, 0, rows[0].InstanceID)
		assert.Equal(t, 0, rows[1].InstanceID)
		assert.Equal(t, "red", rows[0].AttributeName)
		assert.Equal(t, "blue", rows[1].AttributeName)
	})

	t.Run("unknown class skips the instance", func(t *testing.T) {
		t.Parallel()
		n := &Normalizer{Classes: testClasses(t)}
		ann := &ImageAnnotation{
			Instances: []Instance{
				{Type: "bbox", ClassName: "bicycle"},
				{Type: "bbox", ClassName: "car"},
			},
		}

		rows := n.Normalize("img.jpg", "", ann)
		require.Len(t, rows, 1)
		assert.Equal(t, "car", rows[0].ClassName)
		// the surviving instance takes id 0 because the skipped one
		// produced no rows
		assert.Equal(t, 0, rows[0].InstanceID)
	})

	t.Run("invalid attributes drop their rows", func(t *testing.T) {
		t.Parallel()
		n := &Normalizer{Classes: testClasses(t)}
		ann := &ImageAnnotation{
			Instances: []Instance{{
				Type:      "bbox",
				ClassName: "car",
				Attributes: []AttributeRef{
					{GroupName: "nope", Name: "red"},
					{GroupName: "color", Name: "green"},
					{GroupName: "color", Name: "red"},
				},
			}},
		}

		rows := n.Normalize("img.jpg", "", ann)
		require.Len(t, rows, 1)
		assert.Equal(t, "red", rows[0].AttributeName)
	})

	t.Run("instance with zero valid attributes vanishes", func(t *testing.T) {
		t.Parallel()
		n := &Normalizer{Classes: testClasses(t)}
		ann := &ImageAnnotation{
			Instances: []Instance{
				{
					Type:       "bbox",
					ClassName:  "car",
					Attributes: []AttributeRef{{GroupName: "nope", Name: "x"}},
				},
				{Type: "bbox", ClassName: "person"},
			},
		}

		rows := n.Normalize("img.jpg", "", ann)
		require.Len(t, rows, 1)
		assert.Equal(t, "person", rows[0].ClassName)
		// ids stay dense: the vanished instance did not consume id 0
		assert.Equal(t, 0, rows[0].InstanceID)
	})

	t.Run("missing type defaults to mask", func(t *testing.T) {
		t.Parallel()
		n := &Normalizer{Classes: testClasses(t)}
		ann := &ImageAnnotation{
			Instances: []Instance{{
				ClassName: "car",
				Parts:     json.RawMessage(`[{"color":"#ff0000"}]`),
			}},
		}

		rows := n.Normalize("img.jpg", "", ann)
		require.Len(t, rows, 1)
		assert.Equal(t, table.TypeMask, rows[0].Type)
		mask, ok := rows[0].Meta.(table.MaskPayload)
		require.True(t, ok)
		assert.JSONEq(t, `[{"color":"#ff0000"}]`, string(mask.Parts))
	})
}

func TestNormalizeCommentsAndTags(t *testing.T) {
	t.Parallel()

	ann := &ImageAnnotation{
		Metadata: ImageMetadata{Width: 10, Height: 10},
		Comments: []Comment{{
			X: 5, Y: 6,
			Correspondence: json.RawMessage(`[{"text":"look here"}]`),
			Resolved:       true,
			CreatedBy:      &Actor{Email: "qa@example.com", Role: "QA"},
		}},
		Tags: []string{"night", "rain"},
		Instances: []Instance{{
			Type: "bbox", ClassName: "car",
		}},
	}

	t.Run("excluded by default", func(t *testing.T) {
		t.Parallel()
		n := &Normalizer{Classes: testClasses(t)}
		rows := n.Normalize("img.jpg", "", ann)
		require.Len(t, rows, 1)
		assert.Equal(t, table.TypeBBox, rows[0].Type)
	})

	t.Run("comments first, then tags, then instances", func(t *testing.T) {
		t.Parallel()
		n := &Normalizer{Classes: testClasses(t), IncludeComments: true, IncludeTags: true}
		rows := n.Normalize("img.jpg", "", ann)
		require.Len(t, rows, 4)

		assert.Equal(t, table.TypeComment, rows[0].Type)
		assert.False(t, rows[0].HasInstance())
		assert.True(t, rows[0].CommentResolved)
		assert.Equal(t, "qa@example.com", rows[0].CreatorEmail)

		assert.Equal(t, table.TypeTag, rows[1].Type)
		assert.Equal(t, "night", rows[1].Tag)
		assert.Equal(t, table.TypeTag, rows[2].Type)
		assert.Equal(t, "rain", rows[2].Tag)

		assert.Equal(t, table.TypeBBox, rows[3].Type)
		assert.Equal(t, 0, rows[3].InstanceID)
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	assert.True(t, parseTimestamp("").IsZero())
	assert.True(t, parseTimestamp("not a time").IsZero())

	got := parseTimestamp("2024-03-01T12:30:00.500Z")
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, 500000000, got.Nanosecond())

	got = parseTimestamp("2024-03-01 12:30:00")
	assert.Equal(t, 12, got.Hour())
}
