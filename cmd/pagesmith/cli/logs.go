package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect the request audit log",
	}
	cmd.AddCommand(newLogsListCmd())
	return cmd
}

func newLogsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent request log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogsList(limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries to show")
	return cmd
}

func runLogsList(limit int) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	entries, err := st.ListRequestLogs(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("list request logs: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No request log entries.")
		return nil
	}

	fmt.Printf("%-20s %-18s %-22s %-8s %-5s %-6s %-8s %s\n",
		"TIME", "KEY", "ENDPOINT", "STATUS", "CODE", "PAGES", "WEBHOOK", "ERROR")
	for _, e := range entries {
		errDetail := ""
		if e.ErrorDetails != nil {
			errDetail = *e.ErrorDetails
		}
		fmt.Printf("%-20s %-18s %-22s %-8s %-5d %-6d %-8s %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			truncate(e.APIKeyName, 18),
			truncate(e.Endpoint, 22),
			e.Status, e.StatusCode, e.PagesCreated, e.WebhookStatus, errDetail)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
