package main

import (
	"fmt"
	"os"

	"github.com/codeshield-ai/codeshield/internal/cli"
	"github.com/codeshield-ai/codeshield/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "codeshieldd",
		Short: "CodeShield daemon and CLI",
		Long:  "CodeShield daemon for serving the security-knowledge API and loading policy documents",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
