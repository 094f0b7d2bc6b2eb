// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/groundit"
	"github.com/poiesic/groundit/ai"
	"github.com/poiesic/groundit/core"
	"github.com/poiesic/groundit/retrieval"
	"github.com/poiesic/groundit/session"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "groundit",
		Usage: "Retrieval-grounded question answering over your documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Chunk, embed, and index a text file",
				Action:    ingestCommand,
				ArgsUsage: "FILE",
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:  "id",
						Usage: "Document identifier (defaults to the file name)",
					},
					&cli.StringFlag{
						Name:  "owner",
						Usage: "Owner the document is scoped to",
						Value: "local",
					},
				),
			},
			{
				Name:   "chat",
				Usage:  "Ask questions grounded on indexed documents",
				Action: chatCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:  "owner",
						Usage: "Owner whose documents ground the answers (empty for ungrounded chat)",
						Value: "local",
					},
					&cli.StringFlag{
						Name:  "session",
						Usage: "Session key for conversation continuity (default: derived per process)",
					},
				),
			},
			{
				Name:      "delete",
				Usage:     "Remove a document from the index",
				Action:    deleteCommand,
				ArgsUsage: "DOCUMENT_ID",
				Flags:     engineFlags(),
			},
			{
				Name:   "status",
				Usage:  "Show index dimension and chunks awaiting embedding",
				Action: statusCommand,
				Flags:  engineFlags(),
			},
			{
				Name:   "reembed",
				Usage:  "Retry embedding for chunks that previously failed",
				Action: reembedCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:  "id",
						Usage: "Limit the retry to one document",
					},
				),
			},
			{
				Name:      "quiz",
				Usage:     "Generate a quiz from an indexed document",
				Action:    quizCommand,
				ArgsUsage: "DOCUMENT_ID",
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "count",
						Usage: "Number of questions",
						Value: 5,
					},
				),
			},
			{
				Name:      "flashcards",
				Usage:     "Generate flashcards from an indexed document",
				Action:    flashcardsCommand,
				ArgsUsage: "DOCUMENT_ID",
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "count",
						Usage: "Number of cards",
						Value: 5,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to the index directory",
			Value:   "./groundit_db",
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "generation-model",
			Usage: "Generation model name",
			Value: "qwen2.5:3b",
		},
	}
}

func openEngine(c *cli.Context) (*groundit.Engine, error) {
	config := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGenerationModel(c.String("generation-model")),
	)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	engine, err := groundit.New(c.String("db"), groundit.WithAIConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return engine, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one FILE argument")
	}
	path := c.Args().First()

	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	documentID := c.String("id")
	if documentID == "" {
		documentID = filepath.Base(path)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	chunks, err := engine.IngestSync(context.Background(), documentID, c.String("owner"), string(text))
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	markers, err := engine.Unembedded(context.Background(), documentID)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %q: %d chunks", documentID, chunks)
	if len(markers) > 0 {
		fmt.Printf(" (%d awaiting embedding, run 'groundit reembed')", len(markers))
	}
	fmt.Println()
	return nil
}

func chatCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	owner := c.String("owner")
	sessionKey := c.String("session")
	if sessionKey == "" {
		// Two concurrent chats on the same machine must not share history.
		host, _ := os.Hostname()
		sessionKey = session.ConnectionSessionKey(fmt.Sprintf("%s-%d", host, os.Getpid()))
	}
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Println("Ask a question (empty line to quit):")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			break
		}

		fragments, err := engine.Query(c.Context, retrieval.Request{
			SessionKey: sessionKey,
			Owner:      owner,
			Query:      query,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		for fragment := range fragments {
			if fragment.Err != nil {
				fmt.Fprintf(os.Stderr, "\nerror: %v\n", fragment.Err)
				break
			}
			fmt.Print(fragment.Text)
		}
		fmt.Println()
	}
	return scanner.Err()
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one DOCUMENT_ID argument")
	}
	documentID := c.Args().First()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.DeleteDocument(context.Background(), documentID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("document %q is not in the index", documentID)
		}
		return err
	}

	fmt.Printf("Deleted %q\n", documentID)
	return nil
}

func statusCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	dim, err := engine.VectorRepository().Dimension(ctx)
	if err != nil {
		return err
	}

	markers, err := engine.Unembedded(ctx, "")
	if err != nil {
		return err
	}

	if dim == 0 {
		fmt.Println("Index is empty")
	} else {
		fmt.Printf("Vector dimension: %d\n", dim)
	}
	fmt.Printf("Chunks awaiting embedding: %d\n", len(markers))
	for _, marker := range markers {
		fmt.Printf("  %s[%d]: %s (attempts: %d)\n",
			marker.DocumentID, marker.Index, marker.Reason, marker.Attempts)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	recovered, err := engine.Reembed(context.Background(), c.String("id"))
	if err != nil {
		return err
	}

	fmt.Printf("Recovered %d chunks\n", recovered)
	return nil
}

func quizCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one DOCUMENT_ID argument")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	quiz, err := engine.Quiz(context.Background(), c.Args().First(), c.Int("count"))
	if err != nil {
		return err
	}

	return printJSON(quiz)
}

func flashcardsCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one DOCUMENT_ID argument")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	cards, err := engine.Flashcards(context.Background(), c.Args().First(), c.Int("count"))
	if err != nil {
		return err
	}

	return printJSON(cards)
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
