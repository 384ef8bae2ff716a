package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

func analyzeCMD(cfgPath *string) *cobra.Command {
	var verbose bool
	var analyze = &cobra.Command{
		Use:   "analyze <url>",
		Short: "Score a single page and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			a, closeFn, err := buildAnalyzer(cfg, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			// spinner stays silent unless stderr is a terminal
			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
				spinner.WithWriterFile(os.Stderr),
				spinner.WithSuffix(" analyzing "+args[0]),
			)
			s.Start()
			res, err := a.Analyze(cmd.Context(), args[0])
			s.Stop()
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if verbose {
				return enc.Encode(res)
			}
			if err := enc.Encode(res.Report); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
			return nil
		},
	}
	analyze.Flags().BoolVarP(&verbose, "verbose", "v", false, "include raw per-chunk scores and pipeline counts")
	return analyze
}
