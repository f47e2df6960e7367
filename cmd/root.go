package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/pKV/cmd/bench"
	"github.com/ValentinKolb/pKV/cmd/shell"
	"github.com/ValentinKolb/pKV/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "pkv",
		Short: "prefix-indexed in-memory key-value cache",
		Long: fmt.Sprintf(`pKV (v%s)

An in-memory key-value cache library written in Go. Keys are indexed
in a concurrent radix tree, so whole key ranges can be searched and
dropped by prefix.`, Version),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := util.BindCommandFlags(cmd); err != nil {
				return err
			}
			return util.SetupLogging()
		},
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of pKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pKV v%s\n", Version)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(shell.ShellCmd)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "warning", util.WrapString("Log level (debug, info, warning, error)"))
	key = "stripes"
	RootCmd.PersistentFlags().Int(key, 0, util.WrapString("Number of stripe locks of the radix tree (0 = 8 per CPU)"))
	key = "gc-interval"
	RootCmd.PersistentFlags().Duration(key, util.DefaultGCInterval, util.WrapString("Time between two runs of the garbage collector of the database"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
