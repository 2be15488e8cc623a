package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/harrison/dora/internal/models"
	"github.com/harrison/dora/internal/parser"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <catalog-file-or-directory>",
		Short: "Validate a question catalog",
		Long: `Parse and validate a question catalog, checking for:
  - Unknown fields and malformed YAML/JSON
  - Missing question IDs, prompts and options
  - Duplicate question or category IDs
  - Questions that reference an undefined category
  - Catalogs with no questions

Exit code: 0 if valid, 1 if errors found`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateCatalog(args[0], cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	return cmd
}

// validateCatalog validates the catalog at path and writes a summary to output
func validateCatalog(path string, output io.Writer) error {
	warnIgnoredParts(path, output)

	catalog, err := parser.LoadCatalog(path)
	if err != nil {
		color.New(color.FgRed).Fprintf(output, "Validation failed: %v\n", err)
		return fmt.Errorf("catalog %s is invalid", path)
	}

	fmt.Fprintf(output, "Parsed %d questions in %d categories\n", len(catalog.Questions), len(catalog.Categories))
	for _, c := range catalog.Categories {
		fmt.Fprintf(output, "  %-12s %-40s %d questions\n", c.ID, c.Name.In(models.LanguageES), len(catalog.QuestionsIn(c.ID)))
	}
	color.New(color.FgGreen).Fprintln(output, "Catalog is valid")
	return nil
}
