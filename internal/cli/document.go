package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/feichai0017/document-client/internal/models"
)

var getCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Fetch and show a document",
	Long: `Fetches a document from the server. A document still processing is
followed over its push channel when --wait is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the current user's documents",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var (
	waitFor    time.Duration
	jsonOutput bool
)

func init() {
	getCmd.Flags().DurationVarP(&waitFor, "wait", "w", 0, "Wait up to this long for a processing document")
	getCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the document as JSON")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := documentService.FetchDocument(ctx, docID)
	if err != nil {
		return err
	}

	if result.Status == models.StatusProcessing {
		if waitFor <= 0 {
			cmd.Printf("Document %s is still processing\n", docID)
			return nil
		}
		cmd.PrintErrf("Waiting for %s to complete...\n", docID)
		waitCtx, cancel := context.WithTimeout(ctx, waitFor)
		defer cancel()
		if _, err := documentService.WaitForDocument(waitCtx, docID); err != nil {
			return fmt.Errorf("document %s did not complete: %w", docID, err)
		}
	}

	doc, ok := documentService.GetDocument(result.ID)
	if !ok {
		return fmt.Errorf("document %s not stored after fetch", result.ID)
	}
	if jsonOutput {
		return printJSON(cmd, doc)
	}
	printDocument(cmd, doc)
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := documentService.FetchDocumentBriefs(ctx); err != nil {
		return err
	}

	briefs := documentService.GetBriefs()
	if len(briefs) == 0 {
		cmd.Println("No documents found")
		return nil
	}

	for _, b := range briefs {
		title := b.Title
		if title == "" {
			title = "(untitled)"
		}
		cmd.Printf("  %-36s  %-10s  %s\n", b.ID, b.ProcessingStatus, title)
	}
	cmd.Printf("\nTotal: %d documents\n", len(briefs))
	return nil
}

func printDocument(cmd *cobra.Command, doc models.Document) {
	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:    %s\n", doc.Title)
	cmd.Printf("  Status:   %s\n", doc.ProcessingStatus)
	if doc.Keywords != nil {
		cmd.Printf("  Keywords: %s\n", *doc.Keywords)
	}
	if len(doc.Tags) > 0 {
		cmd.Printf("  Tags:     %s\n", strings.Join(doc.Tags, ", "))
	}
	if doc.Summary != "" {
		cmd.Printf("\n  %s\n", doc.Summary)
	}
	for i, b := range doc.Blocks {
		cmd.Printf("\n  [%d] %s\n", i+1, b.Title)
		if b.Summary != "" {
			cmd.Printf("      %s\n", b.Summary)
		}
	}
	if len(doc.Recommendations) > 0 {
		cmd.Println("\n  Recommendations:")
		for _, r := range doc.Recommendations {
			cmd.Printf("    - %s\n", r)
		}
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
