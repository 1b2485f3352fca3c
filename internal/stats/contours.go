package stats

import (
	"github.com/MeKo-Tech/imgstats/internal/components"
	"github.com/MeKo-Tech/imgstats/internal/report"
)

// SourceImage is the source name of a record's base binary mask.
const SourceImage = "image"

// ContourRow is one region of one mask source of one image.
type ContourRow struct {
	Image  string
	Source string
	components.Region
}

type sourceRegions struct {
	source  string
	regions []components.Region
}

type imageRegions struct {
	name    string
	sources []*sourceRegions
}

// ContourCollector keeps extracted regions per image and source, both in
// the order they were first seen.
type ContourCollector struct {
	images []*imageRegions
	index  map[string]*imageRegions
}

// NewContourCollector returns an empty collector.
func NewContourCollector() *ContourCollector {
	return &ContourCollector{index: make(map[string]*imageRegions)}
}

// Add appends regions for the image and source. Empty region lists leave no
// trace.
func (c *ContourCollector) Add(image, source string, regions []components.Region) {
	if len(regions) == 0 {
		return
	}
	img, ok := c.index[image]
	if !ok {
		img = &imageRegions{name: image}
		c.index[image] = img
		c.images = append(c.images, img)
	}
	for _, s := range img.sources {
		if s.source == source {
			s.regions = append(s.regions, regions...)
			return
		}
	}
	img.sources = append(img.sources, &sourceRegions{source: source, regions: append([]components.Region(nil), regions...)})
}

// Rows flattens the collected regions: images in first-seen order, sources
// in first-seen order within an image, regions in extraction order.
func (c *ContourCollector) Rows() []ContourRow {
	var rows []ContourRow
	for _, img := range c.images {
		for _, s := range img.sources {
			for _, r := range s.regions {
				rows = append(rows, ContourRow{Image: img.name, Source: s.source, Region: r})
			}
		}
	}
	return rows
}

// Document renders one row per region.
func (c *ContourCollector) Document() *report.Document {
	flat := c.Rows()
	rows := make([][]any, len(flat))
	for i, r := range flat {
		rows[i] = []any{r.Image, r.Source, r.X, r.Y, r.Width, r.Height, r.Area}
	}
	return &report.Document{
		Kind: "contour-areas",
		Columns: []report.Column{
			{Name: "image"}, {Name: "source"}, {Name: "x"}, {Name: "y"},
			{Name: "width"}, {Name: "height"}, {Name: "area"},
		},
		Rows: rows,
	}
}
