package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"PosTerminal/app/models"
	"PosTerminal/app/services"

	"github.com/spf13/cobra"
)

type opener func(context.Context) (*env, error)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func newCategoriesCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List and arrange product categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print categories in display order with product counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()
			printCategories(cmd.OutOrStdout(), e.categories.Categories())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME",
		Short: "Append a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			created, err := e.categories.CreateCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created category %s (%s)\n", created.Name, created.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reorder ID...",
		Short: "Store a new display order; every category id must be given exactly once",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.categories.Reorder(cmd.Context(), args); err != nil {
				return err
			}
			printCategories(cmd.OutOrStdout(), e.categories.Categories())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Delete products whose category no longer exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			removed, err := e.categories.SweepOrphans(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d orphaned products\n", removed)
			return nil
		},
	})
	return cmd
}

func printCategories(w io.Writer, categories []models.Category) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ORDER\tID\tNAME\tPRODUCTS")
	for _, c := range categories {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", c.DisplayOrder, c.ID, c.Name, c.Count)
	}
	tw.Flush()
}

func newProductsCmd(open opener) *cobra.Command {
	var categoryID, query string

	cmd := &cobra.Command{
		Use:   "products",
		Short: "Inspect the menu",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "Print products, optionally filtered by category or search text",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			var products []models.Product
			if query != "" {
				products, err = e.products.SearchProducts(cmd.Context(), query)
			} else {
				products, err = e.products.ListProducts(cmd.Context(), categoryID)
			}
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tSKU\tNAME\tPRICE\tSTOCK\tSTATUS")
			for _, p := range products {
				stock := "-"
				if p.Stock != nil {
					stock = fmt.Sprint(*p.Stock)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.SKU, p.Name, p.Price.StringFixed(0), stock, p.Status)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&categoryID, "category", "", "only products of this category id")
	list.Flags().StringVarP(&query, "query", "q", "", "match name or SKU")
	cmd.AddCommand(list)
	return cmd
}

func newStaffCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage staff accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every staff account",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			users, err := e.staff.ListStaff(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "USERNAME\tNAME\tEMAIL\tROLE\tSTATUS")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.Username, u.Name, u.Email, u.Role, u.Status)
			}
			return tw.Flush()
		},
	})

	var input services.StaffInput
	var role string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a staff account",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			input.Role = models.UserRole(role)
			user, err := e.staff.CreateStaff(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s) with username %s\n", user.Name, user.Role, user.Username)
			return nil
		},
	}
	add.Flags().StringVar(&input.Name, "name", "", "full name")
	add.Flags().StringVar(&input.Email, "email", "", "e-mail address")
	add.Flags().StringVar(&role, "role", string(models.RoleCashier), "ADMIN, CASHIER, KITCHEN or SERVER")
	add.Flags().StringVar(&input.Password, "password", "", "initial password (default "+services.DefaultStaffPassword+")")
	cmd.AddCommand(add)
	return cmd
}

func newOrdersCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect the kitchen board",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "board",
		Short: "Print active orders grouped by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			board, err := e.kitchen.Board(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "STATUS\tNUMBER\tTYPE\tTABLE\tITEMS\tTOTAL")
			for _, group := range [][]models.Order{board.Pending, board.Preparing, board.Ready} {
				for _, o := range group {
					fmt.Fprintf(tw, "%s\t#%d\t%s\t%s\t%d\t%s\n", o.Status, o.Number, o.Type, o.TableID, len(o.Items), o.Total.StringFixed(0))
				}
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "advance ORDER_ID",
		Short: "Move an order to its next status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			order, err := e.kitchen.Advance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order #%d is now %s\n", order.Number, order.Status)
			return nil
		},
	})
	return cmd
}
