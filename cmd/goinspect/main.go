// Command goinspect trains two regressors on the California housing
// dataset and renders partial dependence plots for them.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gopherml/goinspect/pkg/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.GetLoggerWithName("goinspect").Error("run failed", log.ErrAttrKey, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "goinspect",
		Short: "Partial dependence plots for Go regression models",
		Long: `goinspect fits a gradient boosted tree ensemble and a multi-layer
perceptron on the California housing dataset and visualizes the partial
dependence of the predicted house value on selected features.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(log.LevelDebug)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newRunCmd())
	return root
}
