package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mzfrvt/hitolog/internal/service"
)

func newEventCommand() *cobra.Command {
	eventCmd := &cobra.Command{
		Use:     "event",
		Aliases: []string{"e"},
		Short:   "Manage events and their participants",
	}

	eventCmd.AddCommand(newEventListCommand())
	eventCmd.AddCommand(newEventShowCommand())
	eventCmd.AddCommand(newEventAddCommand())
	eventCmd.AddCommand(newEventRemoveCommand())
	eventCmd.AddCommand(newEventJoinCommand())
	eventCmd.AddCommand(newEventLeaveCommand())

	return eventCmd
}

func newEventListCommand() *cobra.Command {
	var name, location string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List events, newest date first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *service.EventFilter
			if name != "" || location != "" {
				filter = &service.EventFilter{Name: name, Location: location}
			}

			events, err := eventService().FindMany(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No events found. Use 'hitolog event add' to record one.")
				return nil
			}

			w := newTable()
			tableHeader(w, "ID", "NAME", "DATE", "LOCATION", "PARTICIPANTS")
			for _, e := range events {
				count, err := eventService().GetParticipantCount(cmd.Context(), e.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
					shortID(e.ID),
					truncate(e.Name, 40),
					orDash(e.Date),
					orDash(e.Location),
					count)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "filter by name substring")
	cmd.Flags().StringVar(&location, "location", "", "filter by location substring")
	return cmd
}

func newEventShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one event and its participants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			event, err := eventService().FindByID(ctx, args[0])
			if err != nil {
				return err
			}
			if event == nil {
				return fmt.Errorf("event %s not found", args[0])
			}

			fmt.Println(titleStyle.Render(event.Name))
			w := newTable()
			fmt.Fprintf(w, "ID\t%s\n", event.ID)
			fmt.Fprintf(w, "Date\t%s\n", orDash(event.Date))
			fmt.Fprintf(w, "Location\t%s\n", orDash(event.Location))
			if err := w.Flush(); err != nil {
				return err
			}

			participants, err := eventService().FindPersonsByEventID(ctx, event.ID)
			if err != nil {
				return err
			}
			if len(participants) == 0 {
				fmt.Println(dimStyle.Render("No participants yet."))
				return nil
			}
			for _, p := range participants {
				fmt.Printf("  %s  %s\n", shortID(p.ID), p.Name)
			}
			return nil
		},
	}
}

func newEventAddCommand() *cobra.Command {
	var in service.EventInput
	var date, location string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new event",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Date = optional(date)
			in.Location = optional(location)

			event, err := eventService().Create(cmd.Context(), in)
			if err != nil {
				return err
			}

			fmt.Printf("Recorded event %s (%s)\n", event.Name, shortID(event.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "event name (required)")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD")
	cmd.Flags().StringVar(&location, "location", "", "where it happened")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newEventRemoveCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete an event (refused while it has participants)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(fmt.Sprintf("Delete event %s?", shortID(args[0]))) {
				fmt.Println("Aborted.")
				return nil
			}
			if err := eventService().DeleteByID(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newEventJoinCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "join <event-id> <person-id>",
		Short: "Link a person to an event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := eventService().AddPersonToEvent(cmd.Context(), args[1], args[0]); err != nil {
				return err
			}
			fmt.Println("Linked.")
			return nil
		},
	}
}

func newEventLeaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <event-id> <person-id>",
		Short: "Unlink a person from an event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := eventService().RemovePersonFromEvent(cmd.Context(), args[1], args[0]); err != nil {
				return err
			}
			fmt.Println("Unlinked.")
			return nil
		},
	}
}
