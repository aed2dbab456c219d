/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imai1205/zumen-connect-backend/internal/errs"
)

// extractCmd runs the field-extraction cascade over an OCR text file and
// prints the result. Useful for tuning the rule engine against real
// drawings without going through the queue.
var extractCmd = &cobra.Command{
	Use:   "extract <ocr-text-file>",
	Short: "Run title-block extraction over an OCR text file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, svcs services) error {
		data, err := os.ReadFile(cmd.Flags().Arg(0))
		if err != nil {
			return errs.Wrap(err, "read ocr text file")
		}

		result, err := svcs.Extraction.Extract(cmd.Context(), "", string(data))
		if err != nil {
			return errs.Wrap(err, "extract fields")
		}
		if result.Empty() {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no fields extracted"); err != nil {
				return errs.Wrap(err, "write extract output")
			}
			return nil
		}

		out, err := json.MarshalIndent(map[string]any{
			"source": result.Source,
			"fields": result.Raw,
		}, "", "  ")
		if err != nil {
			return errs.Wrap(err, "encode extraction result")
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(out)); err != nil {
			return errs.Wrap(err, "write extract output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
