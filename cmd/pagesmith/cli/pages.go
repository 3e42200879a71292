package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newPagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Inspect pages created through the API",
	}
	cmd.AddCommand(newPagesListCmd())
	return cmd
}

func newPagesListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List created pages with key attribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPagesList(limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of pages to show")
	return cmd
}

func runPagesList(limit int) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	recs, err := st.ListCreatedPages(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("list created pages: %w", err)
	}
	if len(recs) == 0 {
		fmt.Println("No pages have been created through the API.")
		return nil
	}

	fmt.Printf("%-8s %-30s %-18s %-20s %s\n",
		"PAGE ID", "TITLE", "CREATED BY", "TIME", "URL")
	for _, r := range recs {
		fmt.Printf("%-8d %-30s %-18s %-20s %s\n",
			r.PageID,
			truncate(r.PageTitle, 30),
			truncate(r.APIKeyName, 18),
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.PageURL)
	}
	return nil
}
