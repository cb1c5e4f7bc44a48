package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/threadfit/backend/internal/cli/api"
	"github.com/threadfit/backend/internal/cli/config"
	"github.com/threadfit/backend/internal/cli/output"
)

var genFlags struct {
	amount  int
	userID  string
	postID  string
	batchID string
	seed    int64
	speed   float64
	quiet   bool
}

var generateCmd = &cobra.Command{
	Use:       "generate <users|posts|comments>",
	Short:     "Stream a generation run live",
	Long:      "Open a streaming session and print each entity as the server persists it.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: api.Kinds,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := authedClient()
		if err != nil {
			return err
		}

		stream, err := c.OpenStream(cmd.Context())
		if err != nil {
			return explain(err)
		}
		defer stream.Close()

		command := buildStreamCommand(cmd, args[0])
		start := time.Now()
		total, err := stream.Run(cmd.Context(), command, printEvent)
		if err != nil {
			var closeErr *api.CloseError
			if errors.As(err, &closeErr) && closeErr.Reason != "" {
				return fmt.Errorf("server ended the session: %s", closeErr.Reason)
			}
			if cmd.Context().Err() != nil {
				return fmt.Errorf("interrupted; the server stops the run when the stream closes")
			}
			return err
		}

		printer.Success("%d %s generated in %s", total, args[0], time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func buildStreamCommand(cmd *cobra.Command, kind string) api.StreamCommand {
	payload := map[string]any{"amount": genFlags.amount}
	if genFlags.userID != "" {
		payload["user_id"] = genFlags.userID
	}
	if genFlags.postID != "" {
		payload["post_id"] = genFlags.postID
	}
	if genFlags.batchID != "" {
		payload["batch_id"] = genFlags.batchID
	}
	if cmd.Flags().Changed("seed") {
		payload["seed"] = genFlags.seed
	}

	speed := genFlags.speed
	if !cmd.Flags().Changed("speed") {
		speed = config.GetFloat("generate.speed")
	}
	return api.StreamCommand{
		Action:          "generate_" + kind,
		Payload:         payload,
		SpeedMultiplier: &speed,
	}
}

func printEvent(ev api.Event) {
	if ev.Type != api.EventProgress || genFlags.quiet {
		return
	}
	if printer.Format() == output.FormatJSON {
		_ = printer.Value(ev)
		return
	}
	printer.Info("[%d] %s", ev.Count, describe(ev.Payload))
}

// describe is a one-line summary of a generated entity.
func describe(payload map[string]any) string {
	id, _ := payload["id"].(string)
	switch {
	case payload["email"] != nil:
		return fmt.Sprintf("user %s %v (password %v)", id, payload["email"], payload["password"])
	case payload["title"] != nil:
		return fmt.Sprintf("post %s %q", id, payload["title"])
	case payload["post_id"] != nil:
		return fmt.Sprintf("comment %s on post %v", id, payload["post_id"])
	default:
		return id
	}
}

func init() {
	f := generateCmd.Flags()
	f.IntVarP(&genFlags.amount, "amount", "n", 1, "Number of entities to generate")
	f.StringVar(&genFlags.userID, "user-id", "", "Author of generated posts or comments (default: you)")
	f.StringVar(&genFlags.postID, "post-id", "", "Post that generated comments reply to (required for comments)")
	f.StringVar(&genFlags.batchID, "batch-id", "", "Append to one of your existing batches")
	f.Int64Var(&genFlags.seed, "seed", 0, "Seed for reproducible output")
	f.Float64Var(&genFlags.speed, "speed", 1, "Speed multiplier (default from generate.speed)")
	f.BoolVarP(&genFlags.quiet, "quiet", "q", false, "Only print the summary")
}
