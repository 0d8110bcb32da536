package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mzfrvt/hitolog/internal/model"
)

func newTagCommand() *cobra.Command {
	tagCmd := &cobra.Command{
		Use:     "tag",
		Aliases: []string{"t"},
		Short:   "Manage tags",
	}

	tagCmd.AddCommand(newTagListCommand())
	tagCmd.AddCommand(newTagAddCommand())
	tagCmd.AddCommand(newTagRenameCommand())
	tagCmd.AddCommand(newTagRemoveCommand())

	return tagCmd
}

func newTagListCommand() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tags alphabetically",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var tags []model.Tag
			var err error
			if search != "" {
				tags, err = tagService().Search(ctx, search)
			} else {
				tags, err = tagService().FindAll(ctx)
			}
			if err != nil {
				return err
			}
			if len(tags) == 0 {
				fmt.Println("No tags found.")
				return nil
			}

			w := newTable()
			tableHeader(w, "ID", "NAME", "PEOPLE")
			for _, tag := range tags {
				tagged, err := personService().FindByTagID(ctx, tag.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%d\n", shortID(tag.ID), tag.Name, len(tagged))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "filter by name substring")
	return cmd
}

func newTagAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>...",
		Short: "Create tags (existing names are reused, not duplicated)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				tag, created, err := tagService().Create(cmd.Context(), name)
				if err != nil {
					return err
				}
				if created {
					fmt.Printf("Created tag %s (%s)\n", tag.Name, shortID(tag.ID))
				} else {
					fmt.Printf("Tag %s already exists (%s)\n", tag.Name, shortID(tag.ID))
				}
			}
			return nil
		},
	}
}

func newTagRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, err := tagService().Update(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Renamed tag to %s\n", tag.Name)
			return nil
		},
	}
}

func newTagRemoveCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a tag (people keep their other tags)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(fmt.Sprintf("Delete tag %s?", shortID(args[0]))) {
				fmt.Println("Aborted.")
				return nil
			}
			if err := tagService().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
