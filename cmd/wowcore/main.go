// The wowcore command runs the authentication server and bundles the tools used to
// administer it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var ConfigFlag string

func main() {
	rootCmd := &cobra.Command{
		Use:   "wowcore",
		Short: "wowcore 1.12 authentication server and related tools",
		Run:   ServerCommand,
	}
	rootCmd.PersistentFlags().StringVarP(&ConfigFlag, "config", "c", "./", "Path to the server config/data directory")

	accountCmd.AddCommand(accountAddCmd)
	accountCmd.AddCommand(accountDeleteCmd)
	accountCmd.AddCommand(accountBanCmd)
	accountDeleteCmd.Flags().BoolVar(&PermanentFlag, "permanent", false, "Permanently delete the account (as opposed to a soft delete)")
	accountBanCmd.Flags().BoolVar(&UnbanFlag, "lift", false, "Lift the ban instead of setting it")

	banCmd.AddCommand(banAddCmd)
	banCmd.AddCommand(banRemoveCmd)
	banCmd.AddCommand(banListCmd)
	banAddCmd.Flags().StringVarP(&BanReasonFlag, "reason", "r", "", "Reason recorded with the ban")
	banAddCmd.Flags().DurationVarP(&BanDurationFlag, "duration", "d", 0, "How long the ban lasts (0 bans permanently)")

	sniffCmd.Flags().Uint16VarP(&SniffPortFlag, "port", "p", 3724, "Port the auth server was listening on in the capture")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(banCmd)
	rootCmd.AddCommand(sniffCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
