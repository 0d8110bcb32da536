package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDBCommand() *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the database file",
	}

	dbCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the database file and schema",
		Long:  "Create the database file and its schema. Safe to run against an existing file: schema creation is idempotent.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := st.DB(); err != nil {
				return err
			}
			fmt.Printf("Initialized database at %s\n", st.Path())
			return nil
		},
	})

	dbCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show record counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			personCount, err := personService().Count(ctx)
			if err != nil {
				return err
			}
			tagCount, err := tagService().Count(ctx)
			if err != nil {
				return err
			}
			eventCount, err := eventService().Count(ctx)
			if err != nil {
				return err
			}

			fmt.Println(titleStyle.Render("hitolog store"))
			fmt.Println(dimStyle.Render(st.Path()))
			w := newTable()
			fmt.Fprintf(w, "persons\t%d\n", personCount)
			fmt.Fprintf(w, "tags\t%d\n", tagCount)
			fmt.Fprintf(w, "events\t%d\n", eventCount)
			return w.Flush()
		},
	})

	return dbCmd
}
