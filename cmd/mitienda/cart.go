package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"finitefield.org/mitienda-web/internal/binding"
	"finitefield.org/mitienda-web/internal/cart"
	"finitefield.org/mitienda-web/internal/format"
)

func newCartCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and edit the local cart",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <product-id> [qty]",
			Short: "Add units of a product to the cart",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				qty := 1
				if len(args) == 2 {
					n, err := strconv.Atoi(args[1])
					if err != nil || n < 1 {
						return fmt.Errorf("qty %q: %w", args[1], cart.ErrInvalidQuantity)
					}
					qty = n
				}
				return c.dispatch(cmd, binding.Event{Control: binding.AddToCart, ProductID: args[0], Quantity: qty})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.dispatch(cmd, binding.Event{Control: binding.ClearCart})
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the cart lines",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.showCart(cmd)
			},
		},
	)
	return cmd
}

// dispatch activates a control on the local visitor's page and prints the resulting cart.
func (c *cli) dispatch(cmd *cobra.Command, ev binding.Event) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.storefront.Open(ctx, localVisitor, c.cfg.DefaultLang, "")
	if err != nil {
		return err
	}
	if err := sess.Dispatch(ctx, ev); err != nil {
		return err
	}
	st, err := sess.Store.Load(ctx)
	if err != nil {
		return err
	}
	return a.printCart(cmd.OutOrStdout(), st)
}

func (c *cli) showCart(cmd *cobra.Command) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.storefront.Open(ctx, localVisitor, c.cfg.DefaultLang, "")
	if err != nil {
		return err
	}
	st, err := sess.Store.Load(ctx)
	if err != nil {
		return err
	}
	return a.printCart(cmd.OutOrStdout(), st)
}

// printCart lists the lines in cart order. Lines whose product left the catalog are not
// listed but still count.
func (a *app) printCart(w io.Writer, st cart.State) error {
	if st.IsEmpty() {
		_, err := fmt.Fprintln(w, a.bundle.T(a.cfg.DefaultLang, "cart.empty"))
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, it := range st.Items() {
		p, ok := a.catalog.Lookup(it.ProductID)
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s x %d\n", p.ID, p.Title, format.Price(p.Price), it.Quantity)
	}
	fmt.Fprintf(tw, "items:\t%d\n", st.Count())
	return tw.Flush()
}
