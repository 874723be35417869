package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rushteam/shopreco/core"
	"github.com/rushteam/shopreco/recall"
)

var (
	topN       int
	userID     string
	strategy   string
	criteria   recall.Criteria
	minPrice   float64
	maxPrice   float64
	actionName string
)

var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Import products and interactions from a JSON dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := openRecommender(ctx)
		if err != nil {
			return err
		}
		defer r.Close()

		products, events, err := seedFile(ctx, r, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]int{"products": products, "interactions": events})
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the semantic index and recommendation models",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := openRecommender(ctx)
		if err != nil {
			return err
		}
		defer r.Close()

		if err := r.RebuildAll(ctx); err != nil {
			return err
		}
		l := logger()
		l.Info().Msg("models rebuilt")
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantic product search with constraint filtering",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := openRecommender(ctx)
		if err != nil {
			return err
		}
		defer r.Close()

		if _, err := r.RebuildSemanticIndex(ctx); err != nil {
			return err
		}
		list, c, err := r.SearchProducts(ctx, strings.Join(args, " "), topN)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{"constraints": c, "result": list})
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Personalised recommendations for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := openRecommender(ctx)
		if err != nil {
			return err
		}
		defer r.Close()

		var list *core.RankedList
		switch strategy {
		case "cf":
			list, err = r.RecommendCollaborative(ctx, userID, topN)
		case "content":
			list, err = r.RecommendContentBased(ctx, userID, topN)
		case "hybrid":
			list, err = r.Hybrid(ctx, userID, topN)
		default:
			return fmt.Errorf("unknown strategy %q (cf|content|hybrid)", strategy)
		}
		if err != nil {
			return err
		}
		return printJSON(cmd, list)
	},
}

var similarCmd = &cobra.Command{
	Use:   "similar <product-id>",
	Short: "Products similar to the given product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := openRecommender(ctx)
		if err != nil {
			return err
		}
		defer r.Close()

		list, err := r.SimilarProducts(ctx, args[0], topN)
		if err != nil {
			return err
		}
		return printJSON(cmd, list)
	},
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter the catalog by attributes, best rated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := openRecommender(ctx)
		if err != nil {
			return err
		}
		defer r.Close()

		c := criteria
		if cmd.Flags().Changed("min-price") {
			c.MinPrice = &minPrice
		}
		if cmd.Flags().Changed("max-price") {
			c.MaxPrice = &maxPrice
		}
		list, err := r.FilterByAttributes(ctx, c, topN)
		if err != nil {
			return err
		}
		return printJSON(cmd, list)
	},
}

var availabilityCmd = &cobra.Command{
	Use:   "availability <question>",
	Short: "Answer a stock question such as \"do you have a blue shirt?\"",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := openRecommender(ctx)
		if err != nil {
			return err
		}
		defer r.Close()

		list, q, err := r.CheckAvailability(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{"query": q, "result": list})
	},
}

var interactCmd = &cobra.Command{
	Use:   "interact <user-id> <product-id>",
	Short: "Record a user interaction",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := openRecommender(ctx)
		if err != nil {
			return err
		}
		defer r.Close()

		return r.RecordInteraction(ctx, core.InteractionEvent{UserID: args[0], ProductID: args[1], Action: core.Action(actionName)})
	},
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Show semantic index, collaborative and content model state for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := openRecommender(ctx)
		if err != nil {
			return err
		}
		defer r.Close()

		if _, err := r.RebuildSemanticIndex(ctx); err != nil {
			return err
		}
		out := map[string]any{"semantic": r.DebugSemantic()}
		if stats, err := r.DebugCollaborative(ctx, userID); err == nil {
			out["collaborative"] = stats
		} else {
			out["collaborative_error"] = err.Error()
		}
		if profile, err := r.DebugContent(ctx, userID); err == nil {
			out["content"] = profile
		} else {
			out["content_error"] = err.Error()
		}
		return printJSON(cmd, out)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd, indexCmd, searchCmd, recommendCmd, similarCmd, filterCmd, availabilityCmd, interactCmd, debugCmd)

	for _, c := range []*cobra.Command{searchCmd, recommendCmd, similarCmd, filterCmd} {
		c.Flags().IntVarP(&topN, "top-n", "n", 0, "number of results (default from config)")
	}

	recommendCmd.Flags().StringVarP(&userID, "user", "u", "", "user id (required)")
	recommendCmd.Flags().StringVarP(&strategy, "strategy", "s", "hybrid", "cf | content | hybrid")
	_ = recommendCmd.MarkFlagRequired("user")

	debugCmd.Flags().StringVarP(&userID, "user", "u", "", "user id (required)")
	_ = debugCmd.MarkFlagRequired("user")

	filterCmd.Flags().StringVar(&criteria.Title, "title", "", "title keywords")
	filterCmd.Flags().StringVar(&criteria.Category, "category", "", "category")
	filterCmd.Flags().StringVar(&criteria.Gender, "gender", "", "men | women")
	filterCmd.Flags().Float64Var(&minPrice, "min-price", 0, "minimum price")
	filterCmd.Flags().Float64Var(&maxPrice, "max-price", 0, "maximum price")
	filterCmd.Flags().StringVar(&criteria.Expr, "expr", "", `CEL rule, e.g. 'product.rating >= 4.0'`)

	interactCmd.Flags().StringVarP(&actionName, "action", "a", string(core.ActionView), "view | click | add_to_cart | purchase | search")
}
