// Command readalong-cli manages a readalong database and reads along with a
// group from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "development"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	// Remote flags may also come from READALONG_SERVER, READALONG_USER and
	// READALONG_PASSWORD.
	v := viper.New()
	v.SetEnvPrefix("READALONG")
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "readalong-cli",
		Short:         "Readalong command line",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("server", "http://localhost:8080", "readalong server URL")
	root.PersistentFlags().String("user", "", "username for remote commands")
	root.PersistentFlags().String("password", "", "password for remote commands")
	_ = v.BindPFlags(root.PersistentFlags())

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newCreateUserCmd())
	root.AddCommand(newAddBookCmd())

	root.AddCommand(newGroupsCmd(v))
	root.AddCommand(newProgressCmd(v))
	root.AddCommand(newRemindersCmd(v))
	root.AddCommand(newChaptersCmd(v))
	root.AddCommand(newScheduleCmd(v))
	root.AddCommand(newReadCmd(v))
	return root
}
