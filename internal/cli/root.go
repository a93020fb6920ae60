// Package cli wires the storefront commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Wallet-settled shop and document workflow API",
	Long: `Storefront serves two small applications from one process:
a shop (products, carts, wallet ledger, order settlement) and a document
approval workflow with an audit trail. State lives in an embedded SQLite
database; every multi-step mutation is transactional.`,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the storefront version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("storefront", Version)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
