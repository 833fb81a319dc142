package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bookshelf/internal/app/book"
)

func newSearchCommand(o *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Args:  cobra.MinimumNArgs(1),
		Short: "Search the book catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := o.api().Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), books)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tAUTHORS")
			for _, b := range books {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", b.BookID, b.Title, strings.Join(b.Authors, ", "))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print full records as JSON")
	return cmd
}

func newSaveCommand(o *options) *cobra.Command {
	var b book.Book

	cmd := &cobra.Command{
		Use:   "save <bookId>",
		Args:  cobra.ExactArgs(1),
		Short: "Save a book to your list",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.session()
			if err != nil {
				return err
			}
			b.BookID = args[0]
			p, err := s.SaveBook(cmd.Context(), b)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s. You have %d saved books.\n", b.BookID, p.BookCount)
			return err
		},
	}

	cmd.Flags().StringVar(&b.Title, "title", "", "book title")
	cmd.Flags().StringSliceVar(&b.Authors, "author", nil, "author (repeatable)")
	cmd.Flags().StringVar(&b.Description, "description", "", "description")
	cmd.Flags().StringVar(&b.Image, "image", "", "cover image URL")
	cmd.Flags().StringVar(&b.Link, "link", "", "external link")

	return cmd
}

func newRemoveCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <bookId>",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		Short:   "Remove a book from your list",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.session()
			if err != nil {
				return err
			}
			p, err := s.RemoveBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s. You have %d saved books.\n", args[0], p.BookCount)
			return err
		},
	}
}
