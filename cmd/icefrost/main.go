// Command icefrost runs simulated ICE-FROST ceremonies.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/f3rmion/icefrost/log"
)

var (
	// Path to the configuration file.
	configFile string

	logLevel  = log.LevelInfo
	logFormat = log.FmtLogfmt

	rootCmd = &cobra.Command{
		Use:          "icefrost",
		Short:        "ICE-FROST threshold Schnorr signatures with identifiable cheating",
		SilenceUsage: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Var(&logLevel, "log-level", "log level")
	rootCmd.PersistentFlags().Var(&logFormat, "log-format", "log format")

	for _, f := range []func(*cobra.Command){
		registerSimulate,
		registerVersion,
	} {
		f(rootCmd)
	}
}
