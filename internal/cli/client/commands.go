package client

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func serverURL(cmd *cobra.Command) string {
	if flag, _ := cmd.Flags().GetString("server"); flag != "" {
		return flag
	}
	if env := os.Getenv("DOCRAG_SERVER"); env != "" {
		return env
	}
	return defaultServerURL
}

// IngestCmd returns the ingest command. Input must already be plain
// text; binary formats are extracted by an external tool before they
// reach docrag.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Ingest a plain-text document",
		Long:  "Ingest a plain-text document from a file, or from stdin when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if len(args) == 1 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			c := New(serverURL(cmd))
			count, err := c.Ingest(cmd.Context(), string(data))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "stored %d passages\n", count)
			return nil
		},
	}
	return cmd
}

// QueryCmd returns the query command.
func QueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a question against the ingested corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := New(serverURL(cmd))
			result, err := c.Query(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Answer)
			if len(result.Sources) > 0 {
				fmt.Fprintln(out, "\nSources:")
				for i, s := range result.Sources {
					fmt.Fprintf(out, "[%d] %s\n", i+1, s)
				}
			}
			return nil
		},
	}
	return cmd
}

// HealthCmd returns the health command.
func HealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := New(serverURL(cmd))
			if err := c.Health(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	return cmd
}
