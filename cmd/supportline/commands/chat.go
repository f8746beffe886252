package commands

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smartsupport-ai/supportline/internal/app"
	"github.com/smartsupport-ai/supportline/internal/config"
	"github.com/smartsupport-ai/supportline/internal/dialogue"
)

const defaultClientID = "guest"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive support chat session",
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	ctx := context.Background()
	built, err := app.Build(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	// Memories are saved on every exit path, interrupt included.
	defer func() {
		if err := built.Cleanup(); err != nil {
			log.Printf("memory persist failed: %v", err)
		}
	}()

	sessionCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader := bufio.NewScanner(os.Stdin)

	fmt.Printf("Client ID (press Enter for %s): ", defaultClientID)
	clientID := defaultClientID
	if reader.Scan() {
		if id := strings.TrimSpace(reader.Text()); id != "" {
			clientID = id
		}
	}
	fmt.Printf("Chatting as %s. Type 'exit' to leave.\n\n", clientID)

	lines := make(chan string)
	go func() {
		defer close(lines)
		for reader.Scan() {
			select {
			case lines <- reader.Text():
			case <-sessionCtx.Done():
				return
			}
		}
	}()

	for {
		fmt.Print("You: ")
		var line string
		var open bool
		select {
		case <-sessionCtx.Done():
			fmt.Println()
			fmt.Println("Bot:", dialogue.FarewellReply)
			return nil
		case line, open = <-lines:
			if !open {
				fmt.Println()
				return nil
			}
		}

		message := strings.TrimSpace(line)
		if message == "" {
			continue
		}

		result, err := built.Engine.HandleTurn(sessionCtx, clientID, message)
		if err != nil {
			// A failed turn never ends the session.
			fmt.Println("Bot: Something went wrong with that one, let's try again.")
			log.Printf("turn failed for %s: %v", clientID, err)
			continue
		}

		fmt.Println("Bot:", result.Reply)
		if result.Exit {
			return nil
		}
	}
}
