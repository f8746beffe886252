package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartsupport-ai/supportline/internal/config"
	"github.com/smartsupport-ai/supportline/internal/memory"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List all clients with remembered conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, closeStore, err := loadManager(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		clients := manager.ListClients()
		if len(clients) == 0 {
			fmt.Println("No remembered clients.")
			return nil
		}
		for _, c := range clients {
			intent := c.CurrentIntent
			if intent == "" {
				intent = "-"
			}
			fmt.Printf("%s\tmessages=%d\tintents=%d\tcurrent_intent=%s\n",
				c.ClientID, c.MessageCount, c.IntentCount, intent)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <client-id>",
	Short: "Show stats for one client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, closeStore, err := loadManager(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		stats, ok := manager.Stats(args[0])
		if !ok {
			return fmt.Errorf("no memory for client %q", args[0])
		}
		fmt.Printf("messages:       %d\n", stats.MessageCount)
		fmt.Printf("intents:        %d\n", stats.IntentCount)
		fmt.Printf("current intent: %s\n", orDash(stats.CurrentIntent))
		fmt.Printf("attempts:       %d\n", stats.Attempts)
		if stats.LastSeen.IsZero() {
			fmt.Printf("last seen:      never\n")
		} else {
			fmt.Printf("last seen:      %s\n", stats.LastSeen.Format(memory.TimeLayout))
		}
		return nil
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget <client-id>",
	Short: "Clear one client's remembered conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, closeStore, err := loadManager(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		if !manager.Forget(cmd.Context(), args[0]) {
			return fmt.Errorf("no memory for client %q", args[0])
		}
		fmt.Printf("Cleared memory for %s.\n", args[0])
		return nil
	},
}

// loadManager builds just the memory layer for one-shot commands.
func loadManager(ctx context.Context) (*memory.Manager, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config error: %w", err)
	}

	store, err := memory.NewStore(ctx, cfg.DatabaseURL, cfg.MemoryFile)
	if err != nil {
		return nil, nil, fmt.Errorf("memory store init failed: %w", err)
	}

	manager := memory.NewManager(store, nil)
	if err := manager.RestoreAll(ctx); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return manager, func() { _ = store.Close() }, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
