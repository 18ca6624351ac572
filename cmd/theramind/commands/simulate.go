package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theramind/theramind/internal/logging"
)

var (
	simProfile     string
	simProfileFile string
	simSessions    int
	simMaxTurns    int
	simVerbose     bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run autonomous counseling sessions with a simulated client",
	Long: `Run counseling sessions end to end with a model playing the client.
Requires a client_agent module in the configuration. The simulated client
produces each utterance from the dialogue so far; sessions close when the
end detector fires or the per-session turn cap is hit.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simProfile, "profile", "", "Client profile text")
	simulateCmd.Flags().StringVar(&simProfileFile, "profile-file", "", "File containing the client profile")
	simulateCmd.Flags().IntVar(&simSessions, "sessions", 1, "Number of sessions to run")
	simulateCmd.Flags().IntVar(&simMaxTurns, "max-turns", 20, "Maximum turns per session")
	simulateCmd.Flags().BoolVar(&simVerbose, "verbose", false, "Show per-turn analysis details")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	app, err := bootstrap()
	if err != nil {
		return err
	}
	defer logging.Close()

	if app.pipeline.Client == nil {
		return fmt.Errorf("no client_agent module configured; simulation needs one")
	}

	profile := simProfile
	if simProfileFile != "" {
		data, err := os.ReadFile(simProfileFile)
		if err != nil {
			return fmt.Errorf("failed to read profile file: %w", err)
		}
		profile = strings.TrimSpace(string(data))
	}
	if profile == "" {
		return fmt.Errorf("a client profile is required (--profile or --profile-file)")
	}

	ctx := context.Background()
	if _, err := app.orchestrator.Init(ctx, profile); err != nil {
		return err
	}

	rec := app.orchestrator.Record()
	fmt.Printf("Record: %s\n", rec.ID)
	fmt.Printf("Initial therapy: %s\n\n", rec.CurrentTherapy)

sessions:
	for session := 0; session < simSessions; session++ {
		open := app.orchestrator.Record().OpenSession()
		fmt.Printf("=== Session %d (%s) ===\n", open.Index, open.Therapy)

		ended := false
		for turn := 0; turn < simMaxTurns; turn++ {
			dialogue := app.orchestrator.Record().OpenSession().Dialogue
			utterance, clientDone, err := app.pipeline.Client.Respond(ctx, profile, dialogue)
			if err != nil {
				return fmt.Errorf("client simulation failed: %w", err)
			}

			result, err := app.orchestrator.ProcessTurn(ctx, utterance)
			if err != nil {
				return err
			}

			fmt.Printf("Client:    %s\n", utterance)
			if simVerbose {
				fmt.Printf("  [emotion=%s(%.2f) resistance=%v phase=%q strategy=%s]\n",
					result.PrimaryEmotion, result.EmotionalIntensity, result.Resistance, result.Phase, result.Strategy)
			}
			fmt.Printf("Counselor: %s\n\n", result.CounselorResponse)

			if result.SessionEnded {
				ended = true
				if result.TherapyChange != nil {
					fmt.Printf("Therapy changed: %s -> %s (%s)\n",
						result.TherapyChange.Previous, result.TherapyChange.Next, result.TherapyChange.Reason)
				}
				break
			}
			if clientDone {
				fmt.Printf("Client chose to stop; session %d left open.\n", open.Index)
				break sessions
			}
		}
		if !ended {
			fmt.Printf("Turn cap reached; session %d left open.\n", open.Index)
			break
		}
		fmt.Println("--- session ended ---")
		fmt.Println()
	}

	fmt.Printf("Done. Record saved as %s\n", app.orchestrator.Record().ID)
	return nil
}
