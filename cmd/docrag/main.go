package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/covercraft/docrag/internal/cli/client"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "docrag",
		Short: "Docrag client",
		Long:  "Client for the docrag document ingestion and question-answering API",
	}

	rootCmd.PersistentFlags().String("server", "", "Server URL (defaults to DOCRAG_SERVER or http://localhost:8080)")

	rootCmd.AddCommand(client.IngestCmd())
	rootCmd.AddCommand(client.QueryCmd())
	rootCmd.AddCommand(client.HealthCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
