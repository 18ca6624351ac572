package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var recordsJSON bool

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List persisted counseling records",
	RunE:  runRecords,
}

func init() {
	recordsCmd.Flags().BoolVar(&recordsJSON, "json", false, "Output as JSON")
}

func runRecords(cmd *cobra.Command, args []string) error {
	app, err := bootstrap()
	if err != nil {
		return err
	}

	ctx := context.Background()
	ids, err := app.store.ListRecords(ctx)
	if err != nil {
		return err
	}

	if recordsJSON {
		return json.NewEncoder(os.Stdout).Encode(ids)
	}

	if len(ids) == 0 {
		fmt.Println("No records found.")
		return nil
	}
	for _, id := range ids {
		rec, err := app.store.LoadRecord(ctx, id)
		if err != nil {
			fmt.Printf("%s  (unreadable: %v)\n", id, err)
			continue
		}
		fmt.Printf("%s  sessions=%d  therapy=%s  updated=%s\n",
			id, len(rec.AllSessions), rec.CurrentTherapy, rec.LastUpdated.Format("2006-01-02 15:04"))
	}
	return nil
}
