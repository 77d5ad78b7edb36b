package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/prop/internal/errors"
)

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain [code]",
		Short: "Describe error codes",
		Long: `Describe an error code, or list all codes.

Examples:
  propctl explain
  propctl explain E050`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				listCodes(cmd.OutOrStdout())
				return nil
			}
			return explainCode(cmd.OutOrStdout(), args[0])
		},
	}
}

func listCodes(w io.Writer) {
	for _, code := range errors.GetAllCodes() {
		t, _ := errors.GetTemplate(code)
		fmt.Fprintf(w, "  %s  %-11s %s\n", code, t.Category, t.Message)
	}
}

func explainCode(w io.Writer, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	t, ok := errors.GetTemplate(code)
	if !ok {
		return errors.New("E141").WithDetailf("%q", code)
	}
	fmt.Fprintf(w, "%s: %s\n", code, t.Message)
	fmt.Fprintf(w, "  Category: %s\n", t.Category)
	if t.Suggestion != "" {
		fmt.Fprintf(w, "  Hint:     %s\n", t.Suggestion)
	}
	return nil
}
