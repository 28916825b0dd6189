package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/covercraft/docrag/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "docragd",
		Short: "Docrag daemon",
		Long:  "Docrag daemon for serving document ingestion and retrieval-augmented querying",
	}

	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
