package cmd

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/imgstats/internal/dataset"
	"github.com/MeKo-Tech/imgstats/internal/report"
	"github.com/MeKo-Tech/imgstats/internal/stats"
	"github.com/MeKo-Tech/imgstats/internal/testutil"
	"github.com/MeKo-Tech/imgstats/internal/writer"
)

func classManifest(t *testing.T, dir string) string {
	t.Helper()
	return testutil.WriteManifest(t, dir, "train.jsonl",
		testutil.ClassRecord("a.png", "cat"),
		testutil.ClassRecord("b.png", "dog"),
		testutil.ClassRecord("c.png", "cat"),
		testutil.ClassRecord("d.png", ""),
	)
}

func TestLabelDistCommand(t *testing.T) {
	path := classManifest(t, t.TempDir())

	out, _, err := execute(t, "", "label-dist", path, "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, "Label,Count\ncat,2\ndog,1\n", out)

	out, _, err = execute(t, "", "label-dist", path, "-f", "text", "--percentages")
	require.NoError(t, err)
	assert.Equal(t, "cat: 66.666667\ndog: 33.333333\n", out)
}

func TestReportCommands_DefaultToText(t *testing.T) {
	path := classManifest(t, t.TempDir())

	out, _, err := execute(t, "", "label-dist", path)
	require.NoError(t, err)
	assert.Equal(t, "cat: 2\ndog: 1\n", out)

	cfgPath := filepath.Join(t.TempDir(), "imgstats.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  format: csv\n"), 0o600))
	out, _, err = execute(t, "", "label-dist", path, "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "Label,Count\ncat,2\ndog,1\n", out, "configured format wins over the flag default")
}

func TestLabelDistCommand_VerboseConsoleProgress(t *testing.T) {
	path := classManifest(t, t.TempDir())

	out, logs, err := execute(t, "", "label-dist", path, "-f", "csv", "--progress", "console", "-v")
	require.NoError(t, err)
	assert.Equal(t, "Label,Count\ncat,2\ndog,1\n", out)
	assert.Contains(t, logs, "label-dist: Completed 4 records")
	assert.Contains(t, logs, `"msg":"stream completed"`)

	_, logs, err = execute(t, "", "label-dist", path, "-f", "csv", "--progress", "console")
	require.NoError(t, err)
	assert.Contains(t, logs, "label-dist: Completed 4 records")
	assert.NotContains(t, logs, "stream completed")
}

func TestLabelDistCommand_DirectoryAndStdin(t *testing.T) {
	dir := t.TempDir()
	classManifest(t, dir)
	testutil.WriteManifest(t, filepath.Join(dir, "nested"), "more.jsonl", testutil.ClassRecord("e.png", "dog"))

	out, _, err := execute(t, "", "label-dist", dir, "-f", "csv")
	require.NoError(t, err)
	assert.Equal(t, "Label,Count\ncat,2\ndog,1\n", out)

	out, _, err = execute(t, "", "label-dist", dir, "-r", "-f", "csv")
	require.NoError(t, err)
	assert.Equal(t, "Label,Count\ncat,2\ndog,2\n", out)

	stdin := testutil.ReadFile(t, filepath.Join(dir, "train.jsonl"))
	out, _, err = execute(t, stdin, "label-dist", "-", "-f", "csv")
	require.NoError(t, err)
	assert.Equal(t, "Label,Count\ncat,2\ndog,1\n", out)
}

func TestLabelDistCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	path := classManifest(t, dir)

	_, _, err := execute(t, "", "label-dist", path, "--format=")
	require.ErrorIs(t, err, writer.ErrNoOutputFormat)

	out, _, err := execute(t, "", "label-dist", path, "--format", "xml")
	require.ErrorIs(t, err, report.ErrUnknownFormat)
	assert.Empty(t, out)

	_, _, err = execute(t, "", "label-dist", filepath.Join(dir, "missing.jsonl"), "-f", "csv")
	require.ErrorIs(t, err, os.ErrNotExist)

	_, _, err = execute(t, "", "label-dist", t.TempDir(), "-f", "csv")
	require.ErrorIs(t, err, ErrNoManifests)
}

func TestAreaHistogramCommand(t *testing.T) {
	path := testutil.WeedCropDataset(t, t.TempDir())

	out, _, err := execute(t, "", "area-histogram", path, "-f", "csv", "--num-bins", "1")
	require.NoError(t, err)
	assert.Equal(t,
		"label,bin,from,to,count\n"+
			"ALL,0,100,1000,2\n"+
			"crop,0,999.5,1000.5,1\n"+
			"weed,0,99.5,100.5,1\n",
		out)

	out, _, err = execute(t, "", "area-histogram", path, "-f", "csv", "--num-bins", "1", "--normalized", "--all-label", "weed")
	require.NoError(t, err)
	assert.Contains(t, out, "_weed_,0,0.01,0.1,2\n")
}

func TestPixelCountCommand(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WeedCropDataset(t, dir)

	_, _, err := execute(t, "", "pixel-count", path, "-f", "csv")
	require.ErrorIs(t, err, stats.ErrNoLabels)

	out, _, err := execute(t, "", "pixel-count", path, "-f", "csv", "--labels", "weed,crop", "--suppress-path")
	require.NoError(t, err)
	assert.Equal(t, "name,width,height,weed - count,weed - %,crop - count,crop - %\nfield.png,100,100,100,1,1000,10\n", out)

	outDir := filepath.Join(t.TempDir(), "reports")
	require.NoError(t, testutil.EnsureDir(outDir))
	out, _, err = execute(t, "", "pixel-count", path, "-f", "json", "-l", "weed", "--per-image",
		"-o", filepath.Join(outDir, "{name_noext}.json"))
	require.NoError(t, err)
	assert.Empty(t, out)
	content := testutil.ReadFile(t, filepath.Join(outDir, "field.json"))
	assert.Contains(t, content, `"weed - count": 100`)
}

func TestContourAreasCommand(t *testing.T) {
	path := testutil.SquaresDataset(t, t.TempDir())

	out, _, err := execute(t, "", "contour-areas", path)
	require.NoError(t, err)
	assert.Equal(t,
		"image,source,x,y,width,height,area\n"+
			"squares.png,image,1,1,3,3,9\n"+
			"squares.png,image,7,4,3,3,9\n",
		out)

	out, _, err = execute(t, "", "contour-areas", path, "--max-area", "8")
	require.NoError(t, err)
	assert.Equal(t, "image,source,x,y,width,height,area\n", out)
}

func readManifest(t *testing.T, r io.Reader) []string {
	t.Helper()
	rd := dataset.NewReader(r, "", nil)
	var labels []string
	for {
		img, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return labels
		}
		require.NoError(t, err)
		labels = append(labels, img.Name+":"+img.Classification.Label)
	}
}

func TestBalanceCommand(t *testing.T) {
	dir := t.TempDir()
	path := classManifest(t, dir)
	corrections := filepath.Join(dir, "corrections.yaml")
	require.NoError(t, os.WriteFile(corrections, []byte("cat: 1.0\ndog: 0.0\n"), 0o600))

	out, logs, err := execute(t, "", "balance-labels-ic", path, "-c", corrections, "--seed", "7")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png:cat", "c.png:cat"}, readManifest(t, strings.NewReader(out)))
	assert.Contains(t, logs, `"seed":7`)

	kept := filepath.Join(t.TempDir(), "kept.jsonl")
	out, _, err = execute(t, "", "balance-labels-ic", path, "-c", corrections, "-o", kept)
	require.NoError(t, err)
	assert.Empty(t, out)
	f, err := os.Open(kept)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"a.png:cat", "c.png:cat"}, readManifest(t, f))
}

func TestBalanceCommand_Reproducible(t *testing.T) {
	dir := t.TempDir()
	records := make([]testutil.Record, 0, 200)
	for i := range 200 {
		label := "cat"
		if i%3 == 0 {
			label = "dog"
		}
		records = append(records, testutil.ClassRecord(strings.Repeat("x", i%7+1)+".png", label))
	}
	path := testutil.WriteManifest(t, dir, "many.jsonl", records...)

	first, _, err := execute(t, "", "balance-labels-ic", path, "--seed", "42", "--default-probability", "0.5")
	require.NoError(t, err)
	second, _, err := execute(t, "", "balance-labels-ic", path, "--seed", "42", "--default-probability", "0.5")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	n := len(readManifest(t, strings.NewReader(first)))
	assert.Greater(t, n, 50)
	assert.Less(t, n, 150)
}

func TestBalanceCommand_MissingCorrectionFile(t *testing.T) {
	path := classManifest(t, t.TempDir())
	out, _, err := execute(t, "", "balance-labels-ic", path, "-c", filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.Empty(t, out)
}

func TestMetricsFile(t *testing.T) {
	dir := t.TempDir()
	path := classManifest(t, dir)
	metrics := filepath.Join(dir, "run.prom")

	_, _, err := execute(t, "", "label-dist", path, "-f", "csv", "--metrics-file", metrics)
	require.NoError(t, err)
	content := testutil.ReadFile(t, metrics)
	assert.Contains(t, content, `imgstats_records_read_total{command="label-dist"} 4`)
}

func TestConfigFileDrivesCommand(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteManifest(t, dir, "det.jsonl",
		testutil.DetRecord("a.png", 10, 10, testutil.Object("car", 0, 0, 2, 2)),
	)
	cfg := filepath.Join(dir, "imgstats.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("output:\n  format: csv\nlabel_dist:\n  percentages: true\n"), 0o600))

	out, _, err := execute(t, "", "label-dist", path, "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "Label,Percent\ncar,100\n", out)

	// Flags win over the file.
	out, _, err = execute(t, "", "label-dist", path, "--config", cfg, "--percentages=false")
	require.NoError(t, err)
	assert.Equal(t, "Label,Count\ncar,1\n", out)
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgstats.yaml")

	out, _, err := execute(t, "", "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote default configuration")
	assert.FileExists(t, path)

	_, _, err = execute(t, "", "config", "init", path)
	require.Error(t, err)
	_, _, err = execute(t, "", "config", "init", path, "--force")
	require.NoError(t, err)

	out, _, err = execute(t, "", "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "num_bins: 20")
	assert.Contains(t, out, "all_label: ALL")
}
