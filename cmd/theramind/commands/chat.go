package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theramind/theramind/internal/analysis"
	"github.com/theramind/theramind/internal/logging"
)

var (
	chatRecord  string
	chatResume  bool
	chatIntake  string
	chatVerbose bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive counseling session",
	Long: `Start an interactive counseling session on the terminal.

Examples:
  theramind chat                       # fresh counseling history
  theramind chat --intake "..."        # pick initial therapy from intake
  theramind chat --resume              # continue the latest history
  theramind chat --record counseling_x # continue a specific history`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatRecord, "record", "", "Record ID to continue")
	chatCmd.Flags().BoolVar(&chatResume, "resume", false, "Continue the most recent history")
	chatCmd.Flags().StringVar(&chatIntake, "intake", "", "Intake description for initial therapy selection")
	chatCmd.Flags().BoolVar(&chatVerbose, "verbose", false, "Show per-turn analysis details")
}

func runChat(cmd *cobra.Command, args []string) error {
	// Keep the console clean for the dialogue; logs go to a file.
	logToFile = true

	app, err := bootstrap()
	if err != nil {
		return err
	}
	defer logging.Close()

	ctx := context.Background()
	switch {
	case chatRecord != "":
		if _, err := app.orchestrator.Load(ctx, chatRecord); err != nil {
			return err
		}
	case chatResume:
		if _, err := app.orchestrator.Resume(ctx); err != nil {
			return err
		}
	default:
		if _, err := app.orchestrator.Init(ctx, chatIntake); err != nil {
			return err
		}
	}

	rec := app.orchestrator.Record()
	fmt.Printf("Record: %s\n", rec.ID)
	fmt.Printf("Therapy: %s (session %d)\n", rec.CurrentTherapy, rec.OpenSession().Index)
	fmt.Println("Type your message, or 'exit' to leave.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		result, err := app.orchestrator.ProcessTurn(ctx, input)
		if err != nil {
			var modelErr *analysis.ModelError
			var classErr *analysis.ClassificationError
			if errors.As(err, &modelErr) || errors.As(err, &classErr) {
				fmt.Printf("[turn failed: %v; nothing was saved, try again]\n\n", err)
				continue
			}
			return err
		}

		if chatVerbose {
			fmt.Printf("  [emotion=%s(%.2f) resistance=%v phase=%q strategy=%s]\n",
				result.PrimaryEmotion, result.EmotionalIntensity, result.Resistance, result.Phase, result.Strategy)
		}
		fmt.Printf("Counselor: %s\n\n", result.CounselorResponse)

		if !result.Persisted {
			fmt.Println("[warning: saving failed; the dialogue continues in memory]")
		}
		if result.SessionEnded {
			fmt.Println("--- session ended ---")
			if result.TherapyChange != nil {
				fmt.Printf("Therapy changed: %s -> %s (%s)\n",
					result.TherapyChange.Previous, result.TherapyChange.Next, result.TherapyChange.Reason)
			}
			fmt.Printf("A new session has started under %s.\n\n", app.orchestrator.Record().CurrentTherapy)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Println("\nGoodbye.")
	return nil
}
