package main

import (
	"context"
	"fmt"
	"io"

	linereader "github.com/luhtfiimanal/go-linereader"
	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat",
	Short: "Print every line of the input",
	RunE: func(cmd *cobra.Command, args []string) error {
		number, _ := cmd.Flags().GetBool("number")

		ctx, r, cleanup, err := openReader(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		return printLines(ctx, r, cmd.OutOrStdout(), number)
	},
}

func init() {
	catCmd.Flags().BoolP("number", "n", false, "number the output lines")
}

func printLines(ctx context.Context, r *linereader.Reader, w io.Writer, number bool) error {
	n := 0
	for line, err := range r.Lines(ctx) {
		if interrupted(ctx, err) {
			return nil
		}
		if err != nil {
			return err
		}
		n++
		if number {
			_, err = fmt.Fprintf(w, "%6d\t%s\n", n, line)
		} else {
			_, err = fmt.Fprintln(w, line)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
