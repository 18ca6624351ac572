package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/theramind/theramind/internal/logging"
)

var evalRecord string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <session-index>",
	Short: "Score a closed session",
	Long: `Run the post-session evaluator over a closed session and store the
result on the record. Requires a post_session_evaluation module in the
configuration. Without --record the most recent record is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evalRecord, "record", "", "Record ID (defaults to the most recent)")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("session index must be an integer: %q", args[0])
	}

	app, err := bootstrap()
	if err != nil {
		return err
	}
	defer logging.Close()

	ctx := context.Background()
	if evalRecord != "" {
		if _, err := app.orchestrator.Load(ctx, evalRecord); err != nil {
			return err
		}
	} else {
		if _, err := app.orchestrator.Resume(ctx); err != nil {
			return err
		}
	}

	eval, err := app.orchestrator.EvaluateSession(ctx, index)
	if err != nil {
		return err
	}

	fmt.Printf("Session %d evaluation (%s):\n", index, app.orchestrator.Record().ID)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(eval)
}
