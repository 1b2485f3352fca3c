package stats

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/imgstats/internal/components"
	"github.com/MeKo-Tech/imgstats/internal/report"
)

func TestContourCollector_FirstSeenOrder(t *testing.T) {
	c := NewContourCollector()
	r := func(area float64, x int) components.Region {
		return components.Region{Area: area, X: x, Y: 0, Width: 1, Height: 1}
	}

	c.Add("b.png", "weed", []components.Region{r(4, 1)})
	c.Add("a.png", SourceImage, []components.Region{r(9, 2), r(1, 3)})
	c.Add("b.png", SourceImage, []components.Region{r(2, 4)})
	c.Add("b.png", "crop", nil)
	c.Add("b.png", "weed", []components.Region{r(5, 5)})

	want := []ContourRow{
		{Image: "b.png", Source: "weed", Region: r(4, 1)},
		{Image: "b.png", Source: "weed", Region: r(5, 5)},
		{Image: "b.png", Source: SourceImage, Region: r(2, 4)},
		{Image: "a.png", Source: SourceImage, Region: r(9, 2)},
		{Image: "a.png", Source: SourceImage, Region: r(1, 3)},
	}
	if diff := cmp.Diff(want, c.Rows()); diff != "" {
		t.Errorf("Rows() mismatch (-want +got):\n%s", diff)
	}
}

func TestContourCollector_Document(t *testing.T) {
	c := NewContourCollector()
	c.Add("img.png", SourceImage, []components.Region{
		{Area: 9, X: 1, Y: 1, Width: 3, Height: 3},
		{Area: 9, X: 7, Y: 4, Width: 3, Height: 3},
	})

	var csvOut bytes.Buffer
	require.NoError(t, report.Render(&csvOut, c.Document(), report.FormatCSV))
	assert.Equal(t,
		"image,source,x,y,width,height,area\n"+
			"img.png,image,1,1,3,3,9\n"+
			"img.png,image,7,4,3,3,9\n",
		csvOut.String())

	var jsonOut bytes.Buffer
	require.NoError(t, report.Render(&jsonOut, c.Document(), report.FormatJSON))
	assert.Contains(t, jsonOut.String(), "\"image\": \"img.png\",\n    \"source\": \"image\",\n    \"x\": 1,")
}

func TestContourCollector_Empty(t *testing.T) {
	c := NewContourCollector()
	assert.Empty(t, c.Rows())

	var csvOut bytes.Buffer
	require.NoError(t, report.Render(&csvOut, c.Document(), report.FormatCSV))
	assert.Equal(t, "image,source,x,y,width,height,area\n", csvOut.String())
}
