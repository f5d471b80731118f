package main

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/models"
)

// errOperationFailed is returned when the operation itself reported an
// error; the message has already been printed.
var errOperationFailed = errors.New("operation failed")

var pageNumber int

var extractCmd = &cobra.Command{
	Use:   "extract [pdf]",
	Short: "Extract the text of every page",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(newRequest(models.OpExtractAll, args))
	},
}

var pageCmd = &cobra.Command{
	Use:   "page [pdf]",
	Short: "Extract the text of one page, including text in its images",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := newRequest(models.OpExtractPage, args)
		req.PageNumber = pageNumber
		return execute(req)
	},
}

var imagesCmd = &cobra.Command{
	Use:   "images [pdf]",
	Short: "OCR the images embedded in one page",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := newRequest(models.OpExtractImages, args)
		req.PageNumber = pageNumber
		return execute(req)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [pdf] [query]",
	Short: "Find the pages that mention a phrase",
	Long: `Search looks for the query in the text layer first, case-insensitively.
When no page matches, pages without a text layer are OCR'd and searched.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := newRequest(models.OpSearch, args)
		if len(args) > 1 {
			req.Query = args[1]
		}
		return execute(req)
	},
}

func init() {
	pageCmd.Flags().IntVarP(&pageNumber, "page", "p", 1, "page number, starting at 1")
	imagesCmd.Flags().IntVarP(&pageNumber, "page", "p", 1, "page number, starting at 1")

	rootCmd.AddCommand(extractCmd, pageCmd, imagesCmd, searchCmd)
}

// newRequest builds a request for op. A missing path is passed through so
// the operation can answer with its upload prompt.
func newRequest(op models.Operation, args []string) models.Request {
	req := models.Request{Operation: op}
	if len(args) > 0 && args[0] != "" {
		req.DocumentPath = args[0]
		req.DocumentName = filepath.Base(args[0])
	}
	return req
}
