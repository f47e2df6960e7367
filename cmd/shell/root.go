package shell

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/pKV/cmd/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// ShellCmd starts the interactive shell
	ShellCmd = &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell for an in-memory cache",
		Long: `Starts a line oriented shell on top of an in-memory cache.
Type "help" for a list of commands. Commands are read from stdin or
from the file given with --file.`,
		Args: cobra.NoArgs,
		RunE: run,
	}
)

func init() {
	key := "file"
	ShellCmd.Flags().String(key, "", util.WrapString("Read commands from this file instead of stdin"))
	key = "namespace"
	ShellCmd.Flags().String(key, "cache:", util.WrapString("Namespace of all cache keys in the store"))
	key = "serializer"
	ShellCmd.Flags().String(key, "json", util.WrapString("serializer used for typed values (json, gob)"))
	key = "lock-timeout"
	ShellCmd.Flags().Uint64(key, 1<<12, util.WrapString("Lifetime of the lock taken while a missing entry is created (in writes)"))
	key = "lock-wait"
	ShellCmd.Flags().Duration(key, 0, util.WrapString("How long to wait for the lock of an entry before checking again (0 = default)"))
}

func run(cmd *cobra.Command, _ []string) error {
	m, err := util.NewCacheManager()
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Store().Close(); err != nil {
			util.Logger.Errorf("could not close store: %v", err)
		}
	}()

	in := os.Stdin
	interactive := true
	if path := viper.GetString("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("could not open %s: %w", path, err)
		}
		defer f.Close()
		in = f
		interactive = false
	}

	return New(m, cmd.OutOrStdout()).Run(in, interactive)
}
