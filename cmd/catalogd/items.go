package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/catalogops/app"
	"github.com/jonwraymond/catalogops/catalog"
)

// withApp bootstraps the process for a single command and closes it after.
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	a, _, err := c.bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.WithoutCancel(ctx)) }()
	return fn(ctx, a)
}

func (c *cli) queryCmd() *cobra.Command {
	var (
		id, category, seller, status, search string
		minPrice, maxPrice, orderBy, dir     string
		limit                                int
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "List items matching the given filters",
		Example: `  catalogd query --category books --status active --limit 10
  catalogd query --search lamp --order-by price --direction asc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := url.Values{}
			for k, s := range map[string]string{
				catalog.ParamID:             id,
				catalog.ParamCategory:       category,
				catalog.ParamSellerID:       seller,
				catalog.ParamStatus:         status,
				catalog.ParamSearch:         search,
				catalog.ParamMinPrice:       minPrice,
				catalog.ParamMaxPrice:       maxPrice,
				catalog.ParamOrderByField:   orderBy,
				catalog.ParamOrderDirection: dir,
			} {
				if s != "" {
					v.Set(k, s)
				}
			}
			if limit > 0 {
				v.Set(catalog.ParamLimit, strconv.Itoa(limit))
			}
			filters, err := catalog.ParseValues(v)
			if err != nil {
				return err
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				items, err := a.Service.Query(ctx, filters)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), items)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&id, "id", "", "match a single item id")
	f.StringVar(&category, "category", "", "category equality filter")
	f.StringVar(&seller, "seller", "", "owner id equality filter")
	f.StringVar(&status, "status", "", "status equality filter")
	f.StringVar(&search, "search", "", "case-insensitive text search")
	f.StringVar(&minPrice, "min-price", "", "inclusive lower price bound")
	f.StringVar(&maxPrice, "max-price", "", "inclusive upper price bound")
	f.StringVar(&orderBy, "order-by", "", "createdAt, updatedAt, price, rating, viewCount or title")
	f.StringVar(&dir, "direction", "", "asc or desc")
	f.IntVar(&limit, "limit", 0, "maximum number of items")
	return cmd
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print one item, or null when it does not exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				it, err := a.Service.GetByID(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), it)
			})
		},
	}
}

func (c *cli) createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create an item from a JSON document on stdin",
		Long: `Create an item from a JSON document read from stdin and print its id.

The store assigns id, timestamps and counters; status defaults to pending.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var it catalog.Item
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&it); err != nil {
				return fmt.Errorf("decode item: %w", err)
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				id, err := a.Service.Create(ctx, it)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]string{"id": id})
			})
		},
	}
}

func (c *cli) updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <id>",
		Short: "Apply a partial update read as JSON from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p catalog.Patch
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&p); err != nil {
				return fmt.Errorf("decode patch: %w", err)
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				it, err := a.Service.Update(ctx, args[0], p)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), it)
			})
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "set-status <id> <transition>",
		Short:     "Apply a status transition",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"activate", "deactivate", "approve", "decline", "draft"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				it, err := a.Service.SetStatus(ctx, args[0], catalog.Transition(args[1]))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), it)
			})
		},
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Service.Delete(ctx, args[0])
			})
		},
	}
}
