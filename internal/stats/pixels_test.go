package stats

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/imgstats/internal/annotation"
	"github.com/MeKo-Tech/imgstats/internal/report"
)

func segImage(name string, w, h int, layers map[string]*annotation.Mask) *annotation.Image {
	return &annotation.Image{
		Name:         name,
		SourcePath:   "/data/" + name,
		Width:        w,
		Height:       h,
		Kind:         annotation.KindSegmentation,
		Segmentation: &annotation.Segmentation{Layers: layers},
	}
}

func weedCropImage() *annotation.Image {
	weed := annotation.NewMask(100, 100)
	weed.FillRect(0, 0, 10, 10, 255) // 100 px
	crop := annotation.NewMask(100, 100)
	crop.FillRect(20, 20, 50, 20, 1) // 1000 px
	return segImage("field.png", 100, 100, map[string]*annotation.Mask{"weed": weed, "crop": crop})
}

func TestNewPixelCounter_RequiresLabels(t *testing.T) {
	_, err := NewPixelCounter(nil, false)
	require.ErrorIs(t, err, ErrNoLabels)
}

func TestCountLabel(t *testing.T) {
	m := annotation.NewMask(4, 5)
	m.FillRect(0, 0, 2, 2, 7)

	count, pct, err := CountLabel(m, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.InDelta(t, 20.0, pct, 1e-12)

	count, pct, err = CountLabel(nil, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.InDelta(t, 0.0, pct, 0)

	_, _, err = CountLabel(m, 0, 5)
	require.ErrorIs(t, err, ErrZeroArea)
}

func TestPixelCounter_WeedCropRock(t *testing.T) {
	c, err := NewPixelCounter([]string{"weed", "crop", "rock"}, false)
	require.NoError(t, err)
	require.NoError(t, c.Add(weedCropImage()))

	require.Len(t, c.images, 1)
	got := c.images[0]
	assert.Equal(t, "field.png", got.Name)
	assert.Equal(t, "/data/field.png", got.Path)
	assert.Equal(t, []PixelCount{
		{Label: "weed", Count: 100, Percentage: 100.0 / 10000 * 100},
		{Label: "crop", Count: 1000, Percentage: 1000.0 / 10000 * 100},
		{Label: "rock", Count: 0, Percentage: 0},
	}, got.Labels)

	c.Reset()
	assert.Empty(t, c.images)
}

func TestPixelCounter_RejectsNonSegmentation(t *testing.T) {
	c, err := NewPixelCounter([]string{"weed"}, false)
	require.NoError(t, err)
	img := &annotation.Image{Name: "x", Width: 1, Height: 1, Kind: annotation.KindClassification}
	require.ErrorIs(t, c.Add(img), annotation.ErrInvalidImage)
}

func TestPixelCounter_Document(t *testing.T) {
	c, err := NewPixelCounter([]string{"weed", "rock"}, false)
	require.NoError(t, err)
	require.NoError(t, c.Add(weedCropImage()))

	var csvOut bytes.Buffer
	require.NoError(t, report.Render(&csvOut, c.Document(), report.FormatCSV))
	assert.Equal(t,
		"path,name,width,height,weed - count,weed - %,rock - count,rock - %\n"+
			"/data/field.png,field.png,100,100,100,1,0,0\n",
		csvOut.String())

	var text bytes.Buffer
	require.NoError(t, report.Render(&text, c.Document(), report.FormatText))
	assert.Equal(t,
		"/data/field.png\n"+
			"  name: field.png\n"+
			"  width: 100\n"+
			"  height: 100\n"+
			"  labels:\n"+
			"    weed: 100 (1.000000%)\n"+
			"    rock: 0 (0.000000%)\n\n",
		text.String())
}

func TestPixelCounter_SuppressPath(t *testing.T) {
	c, err := NewPixelCounter([]string{"weed"}, true)
	require.NoError(t, err)
	require.NoError(t, c.Add(weedCropImage()))

	var csvOut bytes.Buffer
	require.NoError(t, report.Render(&csvOut, c.Document(), report.FormatCSV))
	assert.Equal(t, "name,width,height,weed - count,weed - %\nfield.png,100,100,100,1\n", csvOut.String())

	var text bytes.Buffer
	require.NoError(t, report.Render(&text, c.Document(), report.FormatText))
	assert.Equal(t, "name: field.png\nwidth: 100\nheight: 100\nlabels:\n  weed: 100 (1.000000%)\n\n", text.String())

	var jsonOut bytes.Buffer
	require.NoError(t, report.Render(&jsonOut, c.Document(), report.FormatJSON))
	assert.NotContains(t, jsonOut.String(), "path")
	assert.Contains(t, jsonOut.String(), `"weed - %": 1`)
}
