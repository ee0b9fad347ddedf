package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/javanhut/ravencore/fonts"
)

func fontsCmd() *cobra.Command {
	var (
		size          float64
		dpi           float64
		width, height int
	)

	cmd := &cobra.Command{
		Use:   "fonts",
		Short: "Show which system font would be used and the grid it gives",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fonts.Locate(fonts.SystemCandidates(runtime.GOOS))
			if err != nil {
				return err
			}
			cw, ch, err := f.CellSize(size, dpi)
			if err != nil {
				return err
			}
			cols, rows := fonts.GridSize(cw, ch, width, height)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "font: %s\n", f.Path)
			fmt.Fprintf(out, "cell: %dx%d px\n", cw, ch)
			fmt.Fprintf(out, "grid: %d cols x %d rows in %dx%d px\n", cols, rows, width, height)
			return nil
		},
	}
	cmd.Flags().Float64Var(&size, "size", 14, "font size in points")
	cmd.Flags().Float64Var(&dpi, "dpi", 96, "screen DPI")
	cmd.Flags().IntVar(&width, "width", 1200, "window width in pixels")
	cmd.Flags().IntVar(&height, "height", 800, "window height in pixels")
	return cmd
}
