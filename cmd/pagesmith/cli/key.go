package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagesmith/pagesmith/internal/service"
	"github.com/pagesmith/pagesmith/internal/store"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
		Long:    "Create, list, revoke, and regenerate the API keys used to authenticate against the Pagesmith API.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyShowCmd())
	cmd.AddCommand(newKeyRevokeCmd())
	cmd.AddCommand(newKeyRegenerateCmd())

	return cmd
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	var (
		name    string
		expires string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long:  "Generate a new API key. The raw key is shown once and cannot be retrieved again.",
		Example: `  pagesmith key create --name "CI pipeline"
  pagesmith key create --name "import job" --expires 2026-12-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(name, expires)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Human-readable name for the key (required)")
	cmd.Flags().StringVar(&expires, "expires", "", "Expiration date (YYYY-MM-DD); default comes from settings")
	cmd.MarkFlagRequired("name")

	return cmd
}

func runKeyCreate(name, expires string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	var expiresAt *time.Time
	if expires != "" {
		t, err := time.Parse("2006-01-02", expires)
		if err != nil {
			return fmt.Errorf("invalid --expires date %q: %w", expires, err)
		}
		expiresAt = &t
	}

	settings, err := st.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	keys := service.NewKeyService(st)
	key, plaintext, err := keys.Create(ctx, name, expiresAt, settings.KeyExpirationDefault)
	if err != nil {
		return fmt.Errorf("create key: %w", err)
	}

	fmt.Printf("API key created (id %d)\n\n", key.ID)
	fmt.Printf("  %s\n\n", plaintext)
	fmt.Println("Store this key now. It will not be shown again.")
	fmt.Printf("  name:    %s\n", key.Name)
	fmt.Printf("  prefix:  %s\n", key.Prefix)
	fmt.Printf("  status:  %s\n", key.Status)
	if key.ExpiresAt != nil {
		fmt.Printf("  expires: %s\n", key.ExpiresAt.Format("2006-01-02"))
	}
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList()
		},
	}
}

func runKeyList() error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	keys, err := st.ListAPIKeys(context.Background())
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}
	if len(keys) == 0 {
		fmt.Println("No API keys. Create one with: pagesmith key create --name <name>")
		return nil
	}

	fmt.Printf("%-5s %-24s %-10s %-9s %-12s %-8s %s\n",
		"ID", "NAME", "PREFIX", "STATUS", "PERMISSIONS", "USES", "EXPIRES")
	for _, k := range keys {
		expires := "never"
		if k.ExpiresAt != nil {
			expires = k.ExpiresAt.Format("2006-01-02")
		}
		fmt.Printf("%-5d %-24s %-10s %-9s %-12s %-8d %s\n",
			k.ID, k.Name, k.Prefix, k.Status, k.Permissions, k.RequestCount, expires)
	}
	return nil
}

// ---------- key show ----------

func newKeyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one API key's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key id %q", args[0])
			}
			return runKeyShow(id)
		},
	}
}

func runKeyShow(id int64) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	key, err := st.GetAPIKey(context.Background(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("key %d not found", id)
		}
		return fmt.Errorf("get key: %w", err)
	}

	fmt.Printf("  id:            %d\n", key.ID)
	fmt.Printf("  name:          %s\n", key.Name)
	fmt.Printf("  prefix:        %s\n", key.Prefix)
	fmt.Printf("  status:        %s\n", key.Status)
	fmt.Printf("  permissions:   %s\n", key.Permissions)
	fmt.Printf("  request count: %d\n", key.RequestCount)
	fmt.Printf("  created:       %s\n", key.CreatedAt.Format(time.RFC3339))
	if key.ExpiresAt != nil {
		fmt.Printf("  expires:       %s\n", key.ExpiresAt.Format("2006-01-02"))
	} else {
		fmt.Println("  expires:       never")
	}
	if key.LastUsed != nil {
		fmt.Printf("  last used:     %s\n", key.LastUsed.Format(time.RFC3339))
	} else {
		fmt.Println("  last used:     never")
	}
	return nil
}

// ---------- key revoke ----------

func newKeyRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key id %q", args[0])
			}
			return runKeyRevoke(id)
		},
	}
}

func runKeyRevoke(id int64) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	keys := service.NewKeyService(st)
	if err := keys.Revoke(context.Background(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("key %d not found", id)
		}
		return fmt.Errorf("revoke key: %w", err)
	}
	fmt.Printf("Key %d revoked.\n", id)
	return nil
}

// ---------- key regenerate ----------

func newKeyRegenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <id>",
		Short: "Regenerate an API key's secret",
		Long: `Issue a fresh secret for an existing key, invalidating the old one. The
key's name, expiration, and creation date are preserved; its usage counter
resets. Expired keys cannot be regenerated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key id %q", args[0])
			}
			return runKeyRegenerate(id)
		},
	}
}

func runKeyRegenerate(id int64) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	keys := service.NewKeyService(st)
	key, plaintext, err := keys.Regenerate(context.Background(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("key %d not found", id)
		}
		return fmt.Errorf("regenerate key: %w", err)
	}

	fmt.Printf("Key %d (%s) regenerated\n\n", key.ID, key.Name)
	fmt.Printf("  %s\n\n", plaintext)
	fmt.Println("Store this key now. It will not be shown again.")
	return nil
}
