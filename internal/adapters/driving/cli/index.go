package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/recallkit/recall/internal/core/domain"
)

var (
	indexFile string
	indexText string
	indexID   string
)

var indexCmd = &cobra.Command{
	Use:   "index [namespace]",
	Short: "Index documents into a namespace",
	Long: `Indexes documents into a namespace. Documents in a raw namespace are
classified first: durable personal and world facts are extracted and
routed into their category namespaces; everything else is dropped.
Documents in any other namespace are embedded and stored as-is.

Documents are read as a JSON array from --file (or stdin with
--file -), or a single document is given with --text and --id.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexFile, "file", "f", "", "JSON file with documents, - for stdin")
	indexCmd.Flags().StringVar(&indexText, "text", "", "single document text")
	indexCmd.Flags().StringVar(&indexID, "id", "", "single document id (with --text)")
	rootCmd.AddCommand(indexCmd)
}

// indexInput is the accepted document shape on the wire.
type indexInput struct {
	ID      string         `json:"id"`
	Text    string         `json:"text"`
	Context map[string]any `json:"context,omitempty"`
}

func runIndex(cmd *cobra.Command, args []string) error {
	namespace := args[0]

	if memoryService == nil {
		return errors.New("memory service not configured")
	}

	docs, err := readDocuments(namespace)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return errors.New("no documents given: use --file or --text")
	}

	count, err := memoryService.Index(context.Background(), namespace, docs)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	cmd.Printf("Indexed %d of %d documents into %s.\n", count, len(docs), namespace)
	if count < len(docs) {
		cmd.Println("Documents without durable content are dropped.")
	}
	return nil
}

// readDocuments assembles the document batch from flags.
func readDocuments(namespace string) ([]domain.Document, error) {
	if indexText != "" {
		if indexID == "" {
			return nil, errors.New("--text requires --id")
		}
		return []domain.Document{{
			ID:        indexID,
			Text:      indexText,
			Namespace: namespace,
		}}, nil
	}
	if indexFile == "" {
		return nil, nil
	}

	var data []byte
	var err error
	if indexFile == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(indexFile)
	}
	if err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}

	var inputs []indexInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("parse documents: %w", err)
	}

	docs := make([]domain.Document, 0, len(inputs))
	for i, in := range inputs {
		if in.ID == "" {
			return nil, fmt.Errorf("document %d has no id", i)
		}
		docs = append(docs, domain.Document{
			ID:        in.ID,
			Text:      in.Text,
			Namespace: namespace,
			Context:   in.Context,
		})
	}
	return docs, nil
}
