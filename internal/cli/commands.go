package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/zm-storefront/internal/domain/cart"
	"github.com/xenking/zm-storefront/internal/domain/catalog"
	"github.com/xenking/zm-storefront/internal/domain/pricing"
)

func (r *runner) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the cart contents and total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printCart(cmd.OutOrStdout(), r.env.Cart.Items())
		},
	}
}

func (r *runner) addCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <slug> [quantity]",
		Short: "Add a product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity := 1
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n < 1 {
					return errors.Errorf("quantity must be a positive integer, got %q", args[1])
				}
				quantity = n
			}

			ctx := cmd.Context()
			p, err := r.product(ctx, args[0])
			if err != nil {
				return err
			}
			r.env.Cart.AddItem(ctx, cart.ItemFromProduct(*p), quantity)
			zctx.From(ctx).Debug("Added to cart", zap.String("slug", p.Slug), zap.Int("quantity", quantity))

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added %d x %s (%d items in cart)\n", quantity, p.Name, r.env.Cart.Count())
			return err
		},
	}
}

func (r *runner) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <slug>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r.env.Cart.RemoveItem(cmd.Context(), args[0])
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%d items in cart)\n", args[0], r.env.Cart.Count())
			return err
		},
	}
}

func (r *runner) qtyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "qty <slug> <quantity>",
		Short: "Set the quantity of a product in the cart",
		Long: `Set the quantity of a product already in the cart. Fractions are
rounded down and anything below one, including non-numbers, becomes one.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				q = math.NaN()
			}
			r.env.Cart.SetQuantity(cmd.Context(), args[0], q)
			return printCart(cmd.OutOrStdout(), r.env.Cart.Items())
		},
	}
}

func (r *runner) clearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r.env.Cart.Clear(cmd.Context())
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared")
			return err
		},
	}
}

func (r *runner) linkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "link",
		Short: "Print the WhatsApp link that sends the cart as an order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items := r.env.Cart.Items()
			if len(items) == 0 {
				return errors.New("cart is empty")
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), r.env.Links.CartLink(items))
			return err
		},
	}
}

func (r *runner) productLinkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "product-link <slug>",
		Short: "Print the WhatsApp link that asks about one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := r.product(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), r.env.Links.ProductLink(*p))
			return err
		},
	}
}

func (r *runner) categoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List catalog categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			repo, err := r.catalog(ctx)
			if err != nil {
				return err
			}
			categories, err := repo.Categories(ctx)
			if err != nil {
				return errors.Wrap(err, "list categories")
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, c := range categories {
				fmt.Fprintf(w, "%s\t%s\n", c.Slug, c.Name)
			}
			return w.Flush()
		},
	}
}

func (r *runner) productsCommand() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List featured products, or the products of a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			repo, err := r.catalog(ctx)
			if err != nil {
				return err
			}

			var products []catalog.Product
			if category == "" {
				products, err = repo.FeaturedProducts(ctx)
				if err != nil {
					return errors.Wrap(err, "list featured products")
				}
			} else {
				var c *catalog.Category
				products, c, err = repo.ProductsByCategory(ctx, category)
				if err != nil {
					return errors.Wrapf(err, "list category %q", category)
				}
				if c == nil {
					return errors.Errorf("category %q not found", category)
				}
			}
			return printProducts(cmd.OutOrStdout(), products)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category slug")
	return cmd
}

func printCart(out io.Writer, items []cart.LineItem) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, "Your cart is empty")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%d x %s\t%s\n",
			item.Key,
			item.Name,
			item.Quantity,
			pricing.Format(item.Pricing().Discounted),
			pricing.Format(item.Subtotal()),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	totals := cart.Summarize(items)
	_, err := fmt.Fprintf(out, "\nItems: %d\nTotal: %s\n", totals.Quantity, pricing.Format(totals.Price))
	return err
}

func printProducts(out io.Writer, products []catalog.Product) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, p := range products {
		price := p.Pricing()
		line := pricing.Format(price.Discounted)
		if price.HasDiscount {
			line = fmt.Sprintf("%s (was %s, -%s%%)", line, pricing.Format(p.Price), price.Pct.String())
		}
		stock := "in stock"
		if !p.InStock {
			stock = "out of stock"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Slug, p.Name, line, stock)
	}
	return w.Flush()
}
