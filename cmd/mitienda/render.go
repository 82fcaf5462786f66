package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRenderCmd(c *cli) *cobra.Command {
	var (
		fragment string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the storefront page for the local cart",
		Long: `Render writes the page the local visitor would see when opening the storefront
at the given fragment, e.g. --fragment product-3 or --fragment carrito.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := a.storefront.Open(ctx, localVisitor, c.cfg.DefaultLang, fragment)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := sess.Render(&buf); err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fragment, "fragment", "", "address fragment to open, e.g. product-3")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
