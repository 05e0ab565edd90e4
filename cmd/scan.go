package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkravets/resume-exporter/internal/logging"
)

var showStrategies bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the applicant page and report what would be downloaded",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan()
	},
}

func init() {
	scanCmd.Flags().BoolVar(&showStrategies, "strategies", false, "Report every discovery strategy's matches instead of the first hit")
	rootCmd.AddCommand(scanCmd)
}

func runScan() error {
	logging.Init(debug)

	bctx, err := openConsole()
	if err != nil {
		return err
	}
	defer bctx.Close()

	st, err := buildStack(bctx)
	if err != nil {
		return err
	}

	if showStrategies {
		rep, err := st.controller.DebugScan()
		if err != nil {
			return err
		}
		for _, sr := range rep.Strategies {
			fmt.Printf("%-20s %d matches\n", sr.Name, sr.Matches)
			for _, sample := range sr.Samples {
				fmt.Printf("    %s\n", sample)
			}
		}
		return nil
	}

	n, err := st.controller.ScanCandidates()
	if err != nil {
		return err
	}
	fmt.Printf("%d candidates found\n", n)
	return nil
}
