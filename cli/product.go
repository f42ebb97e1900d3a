package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/intrence/catalog/engine/core"
	"github.com/intrence/catalog/engine/product"
	"github.com/spf13/cobra"
)

// ProductCmd groups product data-access commands.
func ProductCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Read and write catalog products",
	}
	cmd.AddCommand(
		productGetCmd(),
		productUpsertCmd(),
		productDeleteCmd(),
	)
	return cmd
}

func productGetCmd() *cobra.Command {
	var sourceOnly bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a product as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseID(args[0])
			if err != nil {
				return err
			}
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			products, err := a.provider.NewProductRepo(a.ctx)
			if err != nil {
				return err
			}
			if sourceOnly {
				src, err := products.Source(a.ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), src)
				return nil
			}
			p, err := products.Read(a.ctx, id)
			if err != nil {
				return err
			}
			return printJSON(cmd, p)
		},
	}
	cmd.Flags().BoolVar(&sourceOnly, "source", false, "Print only the product source")
	return cmd
}

func productUpsertCmd() *cobra.Command {
	var (
		sample bool
		atomic bool
	)
	cmd := &cobra.Command{
		Use:   "upsert",
		Short: "Insert or update a product",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !sample {
				return errors.New("nothing to upsert: pass --sample")
			}
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			products, err := a.provider.NewProductRepo(a.ctx)
			if err != nil {
				return err
			}
			p := product.Sample()
			if atomic {
				err = products.WithTransaction(a.ctx, func(tx product.Repository) error {
					return tx.Upsert(a.ctx, p)
				})
			} else {
				err = products.Upsert(a.ctx, p)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "upserted %s\n", p.ID())
			return nil
		},
	}
	cmd.Flags().BoolVar(&sample, "sample", false, "Upsert the built-in sample product")
	cmd.Flags().BoolVar(&atomic, "atomic", false, "Run the existence check and write in one transaction")
	return cmd
}

func productDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseID(args[0])
			if err != nil {
				return err
			}
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			products, err := a.provider.NewProductRepo(a.ctx)
			if err != nil {
				return err
			}
			if err := products.Delete(a.ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
