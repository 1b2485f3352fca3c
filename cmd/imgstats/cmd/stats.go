package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/imgstats/internal/annotation"
	"github.com/MeKo-Tech/imgstats/internal/config"
	"github.com/MeKo-Tech/imgstats/internal/report"
	"github.com/MeKo-Tech/imgstats/internal/writer"
)

func newLabelDistCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label-dist [manifests...]",
		Short: "Count how often every label occurs",
		Long: `Count label occurrences across classification records, detected objects
and segmentation layers. Unlabeled records and objects are not counted.

Examples:
  imgstats label-dist train.jsonl --format csv
  imgstats label-dist data/ -r --format json --percentages`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := writer.NewLabelDist(labelDistOptions(a.cfg, cmd), a.logger)
			return a.runReport(cmd, args, "label-dist", w)
		},
	}
	addOutputFlags(cmd, string(report.FormatText))
	cmd.Flags().String("label-key", annotation.DefaultLabelKey, "object metadata key holding the label")
	cmd.Flags().Bool("percentages", false, "report percentages instead of counts")
	return cmd
}

// labelDistOptions maps configuration to writer options. CLI flags
// override config file values when they were set explicitly.
func labelDistOptions(cfg *config.Config, cmd *cobra.Command) writer.LabelDistOptions {
	opts := cfg.ToLabelDistOptions()
	applyOutputFlags(cmd, &opts.Output)
	if cmd.Flags().Changed("label-key") {
		opts.LabelKey, _ = cmd.Flags().GetString("label-key")
	}
	if cmd.Flags().Changed("percentages") {
		opts.Percentages, _ = cmd.Flags().GetBool("percentages")
	}
	return opts
}

func newAreaHistogramCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "area-histogram [manifests...]",
		Short: "Histogram of object and mask areas per label",
		Long: `Bin the areas of detected objects (polygon area, or bounding box area) and
segmentation layers (non-zero pixel count) per label. An extra bucket holds
the areas of all labels together; its name is wrapped in underscores until
it differs from every real label.

Examples:
  imgstats area-histogram train.jsonl --format text
  imgstats area-histogram train.jsonl --format csv --num-bins 10 --normalized`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := writer.NewAreaHistogram(areaHistogramOptions(a.cfg, cmd), a.logger)
			return a.runReport(cmd, args, "area-histogram", w)
		},
	}
	addOutputFlags(cmd, string(report.FormatText))
	cmd.Flags().String("label-key", annotation.DefaultLabelKey, "object metadata key holding the label")
	cmd.Flags().Int("num-bins", 20, "number of histogram bins")
	cmd.Flags().Bool("normalized", false, "divide every area by the image area")
	cmd.Flags().Bool("force-bbox", false, "use the bounding box even when a polygon is present")
	cmd.Flags().String("all-label", "ALL", "display name of the all-labels bucket")
	return cmd
}

func areaHistogramOptions(cfg *config.Config, cmd *cobra.Command) writer.AreaHistogramOptions {
	opts := cfg.ToAreaHistogramOptions()
	applyOutputFlags(cmd, &opts.Output)
	if cmd.Flags().Changed("label-key") {
		opts.LabelKey, _ = cmd.Flags().GetString("label-key")
	}
	if cmd.Flags().Changed("num-bins") {
		opts.NumBins, _ = cmd.Flags().GetInt("num-bins")
	}
	if cmd.Flags().Changed("normalized") {
		opts.Normalized, _ = cmd.Flags().GetBool("normalized")
	}
	if cmd.Flags().Changed("force-bbox") {
		opts.ForceBBox, _ = cmd.Flags().GetBool("force-bbox")
	}
	if cmd.Flags().Changed("all-label") {
		opts.AllLabel, _ = cmd.Flags().GetString("all-label")
	}
	return opts
}

func newPixelCountCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pixel-count [manifests...]",
		Short: "Pixel coverage of segmentation labels per image",
		Long: `Count the non-zero pixels of the selected segmentation layers of every
image, as absolute counts and as a percentage of the image area.

With --per-image a report is written after every record; the output path
may then contain {name} and {name_noext}.

Examples:
  imgstats pixel-count masks.jsonl --labels weed,crop --format csv
  imgstats pixel-count masks.jsonl --labels weed --format json --per-image -o 'out/{name_noext}.json'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := writer.NewPixelCount(pixelCountOptions(a.cfg, cmd), a.logger)
			return a.runReport(cmd, args, "pixel-count", w)
		},
	}
	addOutputFlags(cmd, string(report.FormatText))
	cmd.Flags().StringSliceP("labels", "l", nil, "segmentation labels to count (required)")
	cmd.Flags().Bool("per-image", false, "write one report per image")
	cmd.Flags().Bool("suppress-path", false, "leave the image path out of the report")
	return cmd
}

func pixelCountOptions(cfg *config.Config, cmd *cobra.Command) writer.PixelCountOptions {
	opts := cfg.ToPixelCountOptions()
	applyOutputFlags(cmd, &opts.Output)
	if cmd.Flags().Changed("labels") {
		opts.Labels, _ = cmd.Flags().GetStringSlice("labels")
	}
	if cmd.Flags().Changed("per-image") {
		opts.PerImage, _ = cmd.Flags().GetBool("per-image")
	}
	if cmd.Flags().Changed("suppress-path") {
		opts.SuppressPath, _ = cmd.Flags().GetBool("suppress-path")
	}
	return opts
}

func newContourAreasCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contour-areas [manifests...]",
		Short: "Bounding boxes and areas of connected mask regions",
		Long: `Extract 8-connected regions from the binary mask of every record and from
every segmentation layer, and report their bounding boxes and pixel areas.
Regions outside [--min-area, --max-area] are left out.

Examples:
  imgstats contour-areas masks.jsonl
  imgstats contour-areas masks.jsonl --invert --min-area 4 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := writer.NewContourAreas(contourAreasOptions(a.cfg, cmd), a.logger)
			return a.runReport(cmd, args, "contour-areas", w)
		},
	}
	addOutputFlags(cmd, "csv")
	cmd.Flags().Bool("invert", false, "extract regions of zero pixels instead")
	cmd.Flags().Float64("min-area", 0, "smallest region area to report (default unbounded)")
	cmd.Flags().Float64("max-area", 0, "largest region area to report (default unbounded)")
	return cmd
}

func contourAreasOptions(cfg *config.Config, cmd *cobra.Command) writer.ContourAreasOptions {
	opts := cfg.ToContourAreasOptions()
	applyOutputFlags(cmd, &opts.Output)
	if cmd.Flags().Changed("invert") {
		opts.Invert, _ = cmd.Flags().GetBool("invert")
	}
	if cmd.Flags().Changed("min-area") {
		v, _ := cmd.Flags().GetFloat64("min-area")
		opts.MinArea = &v
	}
	if cmd.Flags().Changed("max-area") {
		v, _ := cmd.Flags().GetFloat64("max-area")
		opts.MaxArea = &v
	}
	return opts
}
