package support

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/imgstats/internal/dataset"
	"github.com/MeKo-Tech/imgstats/internal/testutil"
)

// writeManifest writes records as JSON lines to a scenario file.
func (testCtx *TestContext) writeManifest(name string, records []testutil.Record) error {
	lines := make([]string, len(records))
	for i, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
		lines[i] = string(data)
	}
	return testCtx.writeFile(name, strings.Join(lines, "\n")+"\n")
}

func (testCtx *TestContext) writeFile(name, content string) error {
	path := testCtx.Path(name)
	if err := testutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	testCtx.TrackFile(path)
	return nil
}

// tableRows returns the body of a table as maps keyed by the header cells.
func tableRows(table *godog.Table) ([]map[string]string, error) {
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("table has no header")
	}
	header := table.Rows[0].Cells
	rows := make([]map[string]string, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		m := make(map[string]string, len(header))
		for i, cell := range row.Cells {
			m[header[i].Value] = cell.Value
		}
		rows = append(rows, m)
	}
	return rows, nil
}

func atoi(row map[string]string, key string) (int, error) {
	v, err := strconv.Atoi(row[key])
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", key, err)
	}
	return v, nil
}

func rect(row map[string]string) (x, y, w, h int, err error) {
	vals := make([]int, 4)
	for i, key := range []string{"x", "y", "width", "height"} {
		if vals[i], err = atoi(row, key); err != nil {
			return
		}
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}

func (testCtx *TestContext) aManifestWithClassificationRecords(name string, table *godog.Table) error {
	rows, err := tableRows(table)
	if err != nil {
		return err
	}
	records := make([]testutil.Record, len(rows))
	for i, row := range rows {
		records[i] = testutil.ClassRecord(row["name"], row["label"])
	}
	return testCtx.writeManifest(name, records)
}

func (testCtx *TestContext) aManifestWithDetectionRecords(name string, table *godog.Table) error {
	rows, err := tableRows(table)
	if err != nil {
		return err
	}
	// Objects of consecutive rows with the same image share one record.
	var records []testutil.Record
	var last string
	for _, row := range rows {
		x, y, w, h, err := rect(row)
		if err != nil {
			return err
		}
		obj := testutil.Object(row["label"], float64(x), float64(y), float64(w), float64(h))
		if row["name"] != last {
			records = append(records, testutil.DetRecord(row["name"], 100, 100))
			last = row["name"]
		}
		rec := records[len(records)-1]
		rec["objects"] = append(rec["objects"].([]map[string]any), obj)
	}
	return testCtx.writeManifest(name, records)
}

func (testCtx *TestContext) aSegmentationManifest(name string, width, height int, image string, table *godog.Table) error {
	rows, err := tableRows(table)
	if err != nil {
		return err
	}
	layers := map[string]string{}
	stem := strings.TrimSuffix(image, filepath.Ext(image))
	for _, row := range rows {
		x, y, w, h, err := rect(row)
		if err != nil {
			return err
		}
		maskPath := filepath.Join("masks", stem+"-"+row["label"]+".png")
		mask := testutil.RectMask(width, height, x, y, w, h)
		if err := dataset.SaveMask(mask, testCtx.Path(maskPath)); err != nil {
			return err
		}
		layers[row["label"]] = maskPath
	}
	return testCtx.writeManifest(name, []testutil.Record{{
		"name": image, "path": "images/" + image, "width": width, "height": height,
		"kind": "is", "layers": layers,
	}})
}

func (testCtx *TestContext) aBinaryMaskManifest(name string, width, height int, image string, table *godog.Table) error {
	rows, err := tableRows(table)
	if err != nil {
		return err
	}
	squares := make([]testutil.Square, 0, len(rows))
	for _, row := range rows {
		var s testutil.Square
		if s.X, err = atoi(row, "x"); err != nil {
			return err
		}
		if s.Y, err = atoi(row, "y"); err != nil {
			return err
		}
		if s.Size, err = atoi(row, "size"); err != nil {
			return err
		}
		squares = append(squares, s)
	}
	maskPath := filepath.Join("masks", strings.TrimSuffix(image, filepath.Ext(image))+"-binary.png")
	if err := dataset.SaveMask(testutil.SquaresMask(width, height, squares...), testCtx.Path(maskPath)); err != nil {
		return err
	}
	return testCtx.writeManifest(name, []testutil.Record{{
		"name": image, "width": width, "height": height, "kind": "ic", "label": "mask", "binary": maskPath,
	}})
}

func (testCtx *TestContext) aManifestWithAlternatingRecords(name string, n int) error {
	records := make([]testutil.Record, n)
	for i := range records {
		label := "cat"
		if i%2 == 1 {
			label = "dog"
		}
		records[i] = testutil.ClassRecord(fmt.Sprintf("img-%04d.png", i), label)
	}
	return testCtx.writeManifest(name, records)
}

func (testCtx *TestContext) aFileWith(name string, content *godog.DocString) error {
	return testCtx.writeFile(name, testCtx.substituteCommandVariables(content.Content)+"\n")
}

// RegisterDatasetSteps registers the steps that build datasets on disk.
func (testCtx *TestContext) RegisterDatasetSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a manifest "([^"]*)" with classification records:$`, testCtx.aManifestWithClassificationRecords)
	sc.Step(`^a manifest "([^"]*)" with detection records:$`, testCtx.aManifestWithDetectionRecords)
	sc.Step(`^a segmentation manifest "([^"]*)" of a (\d+)x(\d+) image "([^"]*)" with masks:$`, testCtx.aSegmentationManifest)
	sc.Step(`^a binary mask manifest "([^"]*)" of a (\d+)x(\d+) image "([^"]*)" with squares:$`, testCtx.aBinaryMaskManifest)
	sc.Step(`^a manifest "([^"]*)" with (\d+) alternating cat and dog records$`, testCtx.aManifestWithAlternatingRecords)
	sc.Step(`^a (?:correction|config) file "([^"]*)" with:$`, testCtx.aFileWith)
}
