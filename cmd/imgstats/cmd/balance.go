package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/imgstats/internal/balance"
	"github.com/MeKo-Tech/imgstats/internal/config"
	"github.com/MeKo-Tech/imgstats/internal/dataset"
)

func newBalanceCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance-labels-ic [manifests...]",
		Short: "Resample classification records to correct label imbalance",
		Long: `Keep every classification record with the probability configured for its
label in the correction file (YAML or JSON mapping label to probability).
Labels missing from the file use --default-probability. Unlabeled and
non-classification records are dropped.

The kept records are written as a manifest. The same seed and input always
keep the same records.

Examples:
  imgstats balance-labels-ic train.jsonl -c corrections.yaml --seed 42 -o balanced.jsonl
  cat train.jsonl | imgstats balance-labels-ic -c corrections.json > balanced.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBalance(cmd, args)
		},
	}
	cmd.Flags().StringP("correction-file", "c", "", "label to keep-probability file (.yaml, .yml or .json)")
	cmd.Flags().Int64("seed", 0, "random seed (default time based, logged for reproduction)")
	cmd.Flags().Float64("default-probability", balance.DefaultProbability, "keep probability of labels without a correction")
	cmd.Flags().StringP("output", "o", "", "manifest file for the kept records (default stdout)")
	return cmd
}

func balanceOptions(cfg *config.Config, cmd *cobra.Command) (balance.Options, string) {
	opts := cfg.ToBalanceOptions()
	if cmd.Flags().Changed("correction-file") {
		opts.CorrectionFile, _ = cmd.Flags().GetString("correction-file")
	}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetInt64("seed")
		opts.Seed = &seed
	}
	if cmd.Flags().Changed("default-probability") {
		p, _ := cmd.Flags().GetFloat64("default-probability")
		opts.DefaultProbability = &p
	}
	output := cfg.Balance.Output
	if cmd.Flags().Changed("output") {
		output, _ = cmd.Flags().GetString("output")
	}
	return opts, output
}

func (a *app) runBalance(cmd *cobra.Command, args []string) (err error) {
	opts, output := balanceOptions(a.cfg, cmd)

	src, closeSrc, err := a.openSource(cmd, args)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeSrc(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var sink *dataset.Writer
	if output == "" {
		sink = dataset.NewWriter(cmd.OutOrStdout())
	} else if sink, err = dataset.Create(output); err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	b := balance.New(opts, a.logger)
	r := a.newRunner(cmd, "balance-labels-ic")
	summary, runErr := r.RunFilter(cmd.Context(), src, b, sink)
	if runErr == nil {
		a.logger.Info("balanced records",
			"kept", summary.Emitted,
			"dropped", summary.Dropped,
			"seed", b.Seed(),
		)
	}
	return a.finish(r, "balance-labels-ic", summary, runErr)
}
