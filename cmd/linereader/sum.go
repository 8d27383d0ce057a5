package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	linereader "github.com/luhtfiimanal/go-linereader"
	"github.com/spf13/cobra"
)

var sumCmd = &cobra.Command{
	Use:   "sum",
	Short: "Add up numbers given one per line, until an empty line or the end of input",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, r, cleanup, err := openReader(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		fmt.Fprintln(cmd.ErrOrStderr(), "Please enter some numbers, line-wise. Enter an empty line when you are done.")

		total, err := sumLines(ctx, r)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Sum:", total)
		return nil
	},
}

func sumLines(ctx context.Context, r *linereader.Reader) (int64, error) {
	var total int64
	for n := 1; ; n++ {
		line, err := r.ReadLine(ctx)
		if err == io.EOF || interrupted(ctx, err) {
			return total, nil
		}
		if err != nil {
			return total, err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			return total, nil
		}
		v, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return total, fmt.Errorf("line %d: %w", n, err)
		}
		total += v
	}
}
