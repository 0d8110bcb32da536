package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mzfrvt/hitolog/internal/service"
)

func newPersonCommand() *cobra.Command {
	personCmd := &cobra.Command{
		Use:     "person",
		Aliases: []string{"p"},
		Short:   "Manage people",
	}

	personCmd.AddCommand(newPersonListCommand())
	personCmd.AddCommand(newPersonShowCommand())
	personCmd.AddCommand(newPersonAddCommand())
	personCmd.AddCommand(newPersonRemoveCommand())

	return personCmd
}

func newPersonListCommand() *cobra.Command {
	var name, company string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List people, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *service.PersonFilter
			if name != "" || company != "" {
				filter = &service.PersonFilter{Name: name, Company: company}
			}

			persons, err := personService().FindMany(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(persons) == 0 {
				fmt.Println("No people found. Use 'hitolog person add' to record one.")
				return nil
			}

			w := newTable()
			tableHeader(w, "ID", "NAME", "COMPANY", "POSITION", "MET")
			for _, p := range persons {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					shortID(p.ID),
					p.Name,
					orDash(p.Company),
					orDash(p.Position),
					p.CreatedAt.Local().Format("2006-01-02"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "filter by name substring")
	cmd.Flags().StringVar(&company, "company", "", "filter by company substring")
	return cmd
}

func newPersonShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one person with tags, events and relations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			person, err := personService().FindByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if person == nil {
				return fmt.Errorf("person %s not found", args[0])
			}

			fmt.Println(titleStyle.Render(person.Name))
			w := newTable()
			fmt.Fprintf(w, "ID\t%s\n", person.ID)
			fmt.Fprintf(w, "Handle\t%s\n", orDash(person.Handle))
			fmt.Fprintf(w, "Company\t%s\n", orDash(person.Company))
			fmt.Fprintf(w, "Position\t%s\n", orDash(person.Position))
			fmt.Fprintf(w, "Product\t%s\n", orDash(person.ProductName))
			fmt.Fprintf(w, "GitHub\t%s\n", orDash(person.GithubID))
			fmt.Fprintf(w, "Description\t%s\n", orDash(person.Description))
			fmt.Fprintf(w, "Memo\t%s\n", orDash(person.Memo))
			fmt.Fprintf(w, "Met\t%s\n", person.CreatedAt.Local().Format("2006-01-02 15:04"))
			if err := w.Flush(); err != nil {
				return err
			}

			if len(person.Tags) > 0 {
				names := make([]string, len(person.Tags))
				for i, tag := range person.Tags {
					names[i] = tag.Name
				}
				fmt.Printf("Tags: %s\n", strings.Join(names, ", "))
			}
			for _, event := range person.Events {
				fmt.Printf("Event: %s", event.Name)
				if event.Date != nil {
					fmt.Printf(" (%s)", *event.Date)
				}
				fmt.Println()
			}
			for _, rel := range person.Relations {
				fmt.Printf("Relation: %s -> %s\n", rel.RelationType, shortID(rel.TargetPersonID))
			}
			return nil
		},
	}
}

func newPersonAddCommand() *cobra.Command {
	var in service.PersonInput
	var handle, company, position, description, product, memo, github string
	var tagNames []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new person",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			in.Handle = optional(handle)
			in.Company = optional(company)
			in.Position = optional(position)
			in.Description = optional(description)
			in.ProductName = optional(product)
			in.Memo = optional(memo)
			in.GithubID = optional(github)

			if len(tagNames) > 0 {
				ids, err := tagService().FindOrCreateByNames(ctx, tagNames)
				if err != nil {
					return err
				}
				in.TagIDs = ids
			}

			person, err := personService().Create(ctx, in)
			if err != nil {
				return err
			}

			fmt.Printf("Recorded %s (%s)\n", person.Name, shortID(person.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "person name (required)")
	cmd.Flags().StringVar(&handle, "handle", "", "social handle")
	cmd.Flags().StringVar(&company, "company", "", "company")
	cmd.Flags().StringVar(&position, "position", "", "position or role")
	cmd.Flags().StringVar(&description, "description", "", "how you met")
	cmd.Flags().StringVar(&product, "product", "", "product they work on")
	cmd.Flags().StringVar(&memo, "memo", "", "free-form memo")
	cmd.Flags().StringVar(&github, "github", "", "GitHub id")
	cmd.Flags().StringArrayVar(&tagNames, "tag", nil, "tag name (repeatable; created on demand)")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newPersonRemoveCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a person and their associations",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(fmt.Sprintf("Delete person %s?", shortID(args[0]))) {
				fmt.Println("Aborted.")
				return nil
			}
			if err := personService().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
