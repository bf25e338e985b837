package table

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	in := Table{
		{
			ImageName:   "img1.jpg",
			ImageHeight: 1080,
			ImageWidth:  1920,
			ImageStatus: "Completed",
			ImagePinned: true,
			InstanceID:  0,
			ClassName:   "car",
			Type:        TypeBBox,
			Meta:        PointsPayload{Points: json.RawMessage(`{"x1":1,"y1":2,"x2":3,"y2":4}`)},
			Visible:     true,
			Probability: 0.75,
			ClassColor:  "#ff0000",
			CreatedAt:   created,
			CreatorRole: "Annotator",
			CreatorEmail: "a@example.com",
			FolderName:  "batch1",
		},
		{
			ImageName:          "img1.jpg",
			InstanceID:         0,
			ClassName:          "car",
			AttributeGroupName: "color",
			AttributeName:      "red",
			Type:               TypeBBox,
			Meta:               PointsPayload{Points: json.RawMessage(`{"x1":1,"y1":2,"x2":3,"y2":4}`)},
			FolderName:         "batch1",
		},
		{
			ImageName:       "img1.jpg",
			InstanceID:      NoInstance,
			Type:            TypeComment,
			Meta:            CommentPayload{X: 5, Y: 6, Comments: json.RawMessage(`[{"text":"check"}]`)},
			CommentResolved: true,
		},
		{
			ImageName:  "img1.jpg",
			InstanceID: NoInstance,
			Type:       TypeTag,
			Tag:        "night",
		},
		{
			ImageName:   "img2.jpg",
			InstanceID:  1,
			ClassName:   "person",
			Type:        TypePoint,
			Meta:        PointPayload{X: 10, Y: 20},
			PointLabels: map[string]string{"0": "head"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))

	out, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, out, len(in))

	// RawMessage cells survive as semantically equal JSON even if byte
	// layout changes.
	for i := range in {
		if diff := cmp.Diff(in[i], out[i], cmp.Comparer(func(a, b json.RawMessage) bool {
			return assert.ObjectsAreEqual(canonicalJSON(t, a), canonicalJSON(t, b))
		})); diff != "" {
			t.Errorf("row %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func canonicalJSON(t *testing.T, raw json.RawMessage) any {
	t.Helper()
	if len(raw) == 0 {
		return nil
	}
	var v any
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestReadCSVMissingColumn(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(strings.NewReader("imageName,type\nimg.jpg,bbox\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestCSVHeaderOrder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	header := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.True(t, strings.HasPrefix(header, "imageName,imageHeight,imageWidth"))
	assert.True(t, strings.HasSuffix(header, "commentResolved,tag"))
}
