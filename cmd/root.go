// cmd/root.go
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/qftphys/fk-mc/fkmc"
	"github.com/qftphys/fk-mc/fkmc/persist"
)

var (
	configPath  string
	latticeKind string
	dimensions  int
	nChains     int
	logLevel    string
	resumeFrom  string
)

var rootCmd = &cobra.Command{
	Use:   "fk-mc",
	Short: "Monte Carlo simulation engine for the Falicov-Kimball model",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an FK Monte Carlo simulation",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		params, err := loadParams(configPath)
		if err != nil {
			return err
		}

		dims := make([]int, dimensions)
		for i := range dims {
			dims[i] = params.L
		}
		lattice, err := buildLattice(latticeKind, dims, params.T)
		if err != nil {
			return err
		}

		var prior *persist.Dataset
		if resumeFrom != "" {
			prior, err = persist.LoadCompatible(resumeFrom, params)
			if err != nil {
				return err
			}
			logrus.Infof("resumed from %s: %d prior samples", resumeFrom, prior.MCData.NSamples)
		}

		logrus.Infof("starting run: V=%d, beta=%.3f, U=%.3f, n_cycles=%d, chains=%d",
			lattice.V(), params.Beta, params.U, params.NCycles, nChains)

		store, err := fkmc.RunMany(lattice, params, nChains, func(s *fkmc.Sampler) {
			s.BuildMoves()
			s.BuildMeasurements()
		})
		if err != nil {
			logrus.Errorf("run failed: %v", err)
			return err
		}

		logrus.Infof("run complete: %d samples collected across %d chains", store.NSamples, nChains)

		if params.OutputFile != "" {
			mcData := persist.NewMCData(store)
			if prior != nil {
				mcData = persist.Append(prior.MCData, mcData)
			}
			ds := &persist.Dataset{
				Parameters: params,
				MCData:     mcData,
			}
			if err := persist.Save(params.OutputFile, ds); err != nil {
				logrus.Errorf("failed to save output: %v", err)
				return err
			}
			logrus.Infof("wrote %s (%d total samples)", params.OutputFile, ds.MCData.NSamples)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML parameter file (defaults used for any field omitted)")
	runCmd.Flags().StringVar(&latticeKind, "lattice", "hypercubic", "Lattice geometry: hypercubic or triangular")
	runCmd.Flags().IntVar(&dimensions, "dims", 2, "Number of lattice dimensions (triangular requires 2)")
	runCmd.Flags().IntVar(&nChains, "chains", 1, "Number of independent Markov chains to run concurrently")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&resumeFrom, "resume", "", "Prior output file to check compatibility against before running")

	rootCmd.AddCommand(runCmd)
}
