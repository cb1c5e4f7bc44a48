package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/threadfit/backend/internal/cli/api"
	"github.com/threadfit/backend/internal/cli/output"
)

// columns shown per kind in text and table output.
var kindColumns = map[string][]string{
	"users":    {"id", "email", "password", "batch_id"},
	"posts":    {"id", "title", "user_id", "is_published"},
	"comments": {"id", "post_id", "user_id", "content"},
}

var pullFlags struct {
	amount int
	userID string
	postID string
	seed   int64
	speed  float64
}

var pullCmd = &cobra.Command{
	Use:       "pull <users|posts|comments>",
	Short:     "Generate a batch and print it when done",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: api.Kinds,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := authedClient()
		if err != nil {
			return err
		}

		req := api.PullRequest{Amount: pullFlags.amount, UserID: pullFlags.userID, PostID: pullFlags.postID}
		if cmd.Flags().Changed("seed") {
			req.Seed = &pullFlags.seed
		}
		if cmd.Flags().Changed("speed") {
			req.SpeedMultiplier = &pullFlags.speed
		}

		resp, err := c.Pull(cmd.Context(), args[0], req)
		if err != nil {
			return explain(err)
		}
		if err := printer.List(resp.Msg, resp.Data, kindColumns[args[0]]); err != nil {
			return err
		}
		if printer.Format() != output.FormatJSON {
			printer.Info("batch %s", resp.BatchID)
		}
		return nil
	},
}

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List your batches, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := authedClient()
		if err != nil {
			return err
		}
		batches, err := c.Batches(cmd.Context())
		if err != nil {
			return explain(err)
		}

		rows := make([]map[string]any, 0, len(batches))
		for _, b := range batches {
			rows = append(rows, map[string]any{"id": b.ID, "created_at": b.CreatedAt.Local().Format(time.DateTime)})
		}
		return printer.List("Batches", rows, []string{"id", "created_at"})
	},
}

var dataFlags struct {
	batchID string
	limit   int
}

var dataCmd = &cobra.Command{
	Use:       "data <users|posts|comments>",
	Short:     "Show what one of your batches produced",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: api.Kinds,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := authedClient()
		if err != nil {
			return err
		}
		data, err := c.BatchData(cmd.Context(), args[0], dataFlags.batchID, dataFlags.limit)
		if err != nil {
			return explain(err)
		}
		return printer.List(args[0], data.Data, kindColumns[args[0]])
	},
}

func init() {
	pf := pullCmd.Flags()
	pf.IntVarP(&pullFlags.amount, "amount", "n", 10, "Number of entities to generate")
	pf.StringVar(&pullFlags.userID, "user-id", "", "Author of generated posts or comments (default: you)")
	pf.StringVar(&pullFlags.postID, "post-id", "", "Post that generated comments reply to")
	pf.Int64Var(&pullFlags.seed, "seed", 0, "Seed for reproducible output")
	pf.Float64Var(&pullFlags.speed, "speed", 1, "Speed multiplier")

	dataCmd.Flags().StringVar(&dataFlags.batchID, "batch-id", "", "Batch to show")
	dataCmd.Flags().IntVar(&dataFlags.limit, "limit", 0, "Maximum rows (default: server page size)")
	_ = dataCmd.MarkFlagRequired("batch-id")
}
