package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zonewatch/docreport/cmd/docreport/ui"
	"github.com/zonewatch/docreport/internal/chat"
	"github.com/zonewatch/docreport/internal/llm"
	"github.com/zonewatch/docreport/internal/observability"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat about previously generated reports",
	Long: `Starts an interactive session over the generated reports. Report text is
embedded once at startup; each question retrieves the most relevant passage
and attaches it to the prompt when the similarity is high enough.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if err := requireAPIKey(cfg); err != nil {
		return err
	}

	client := llm.NewClient(cfg.LLM, observability.Component(log, "llm"))
	chatLog := observability.Component(log, "chat")

	chunks, err := chat.LoadChunks(cfg.Dirs.Output, cfg.Chat, chatLog)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		ui.Warning("no reports in %s, answering without reference material", cfg.Dirs.Output)
	}

	var cache *chat.Cache
	if cfg.Chat.CachePath != "" {
		cache, err = chat.OpenCache(cfg.Chat.CachePath, cfg.LLM.EmbeddingModel)
		if err != nil {
			ui.Warning("embedding cache unavailable: %v", err)
		} else {
			defer cache.Close()
		}
	}

	ctx := context.Background()

	spin := ui.NewSpinner(fmt.Sprintf("Indexing %d chunk(s)...", len(chunks)))
	spin.Start()
	index, err := chat.BuildIndex(ctx, chunks, client, cache, chatLog)
	spin.Stop()
	if err != nil {
		return err
	}

	session := chat.NewSession(client, index, cfg.Chat, chatLog)

	ui.Section("Chat")
	ui.Info("type 'exit' or 'quit' to leave")

	prompt := color.New(color.FgCyan)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		prompt.Fprint(os.Stdout, "\nYou > ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if lower := strings.ToLower(input); lower == "exit" || lower == "quit" {
			break
		}

		reply, err := session.Ask(ctx, input)
		if err != nil {
			ui.Error("%v", err)
			continue
		}
		if reply.RAGUsed {
			fmt.Fprintf(os.Stdout, "chat : (RAG) %s\n", reply.Text)
		} else {
			fmt.Fprintf(os.Stdout, "chat : %s\n", reply.Text)
		}
	}
	return scanner.Err()
}
