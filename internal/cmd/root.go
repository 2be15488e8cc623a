package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for dora
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dora",
		Short: "DORA compliance self-assessment questionnaire",
		Long: `Dora walks a respondent through the DORA (Digital Operational
Resilience Act) assessment questionnaire, one question at a time.

Answers and observations can be saved as drafts and resumed later. On
submission the answers are scored per category and a report with a score
chart is written to disk and, optionally, posted to a webhook.`,
		Version:      Version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .dora/config.yaml)")
	cmd.PersistentFlags().String("storage", "", "Storage backend: sqlite or file")
	cmd.PersistentFlags().String("storage-path", "", "Database file or storage directory")

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewDraftsCommand())
	cmd.AddCommand(NewSubmissionsCommand())
	cmd.AddCommand(NewStoreCommand())

	return cmd
}
