package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/harrison/dora/internal/config"
	"github.com/harrison/dora/internal/logger"
	"github.com/harrison/dora/internal/metrics"
	"github.com/harrison/dora/internal/models"
	"github.com/harrison/dora/internal/parser"
	"github.com/harrison/dora/internal/report"
	"github.com/harrison/dora/internal/session"
	"github.com/harrison/dora/internal/storage"
	"github.com/harrison/dora/internal/submission"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// NewRunCommand creates and returns the run subcommand
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <catalog-file-or-directory>",
		Short: "Answer the assessment questionnaire interactively",
		Long: `Load a question catalog (YAML or JSON file, or a directory of numbered
parts such as 01-governance.yaml) and walk through it one question at a time.

The prompt placeholders {providerName} and {financialEntityName} are filled
from --provider and --entity.

With --resume the most recent unfinished draft of --user is restored before
the first question is shown.`,
		Args: cobra.ExactArgs(1),
		RunE: runAssessment,
	}

	cmd.Flags().String("user", "", "Respondent name (required)")
	cmd.Flags().String("provider", "", "ICT provider name")
	cmd.Flags().String("entity", "", "Financial entity name")
	cmd.Flags().String("lang", "", "Questionnaire language: es or pt (default from config)")
	cmd.Flags().Bool("resume", false, "Resume the latest draft of --user")
	cmd.Flags().String("log-dir", "", "Directory for log files")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runAssessment(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	lang, _ := models.ParseLanguage(cfg.Language)

	warnIgnoredParts(args[0], cmd.ErrOrStderr())
	catalog, err := parser.LoadCatalog(args[0])
	if err != nil && !errors.Is(err, models.ErrEmptyCatalog) {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	identity := models.Identity{}
	identity.UserName, _ = cmd.Flags().GetString("user")
	identity.ProviderName, _ = cmd.Flags().GetString("provider")
	identity.FinancialEntityName, _ = cmd.Flags().GetString("entity")

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	consoleLog := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	fileLog, err := logger.NewFileLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer fileLog.Close()
	log := logger.NewMultiLogger(consoleLog, fileLog)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := session.New(catalog, identity)
	if resume, _ := cmd.Flags().GetBool("resume"); resume {
		if err := resumeDraft(ctx, sess, store, log); err != nil {
			return err
		}
	}

	orch := newOrchestrator(ctx, sess, cfg, store, log, lang)
	out := cmd.OutOrStdout()
	q := newQuestionnaire(sess, orch, store, log, lang, cmd.InOrStdin(), out, isTTY(out))

	result, err := q.run(ctx)
	if err != nil {
		return err
	}
	if result != nil && cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.LogWarn(fmt.Sprintf("failed to write metrics textfile: %v", err))
		}
	}
	return nil
}

// resumeDraft restores the newest unfinished draft of the session's user.
// A missing draft is not an error; the questionnaire simply starts fresh.
func resumeDraft(ctx context.Context, sess *session.Session, store storage.Store, log logger.Logger) error {
	draft, err := store.LatestDraft(ctx, sess.Identity().UserName)
	if errors.Is(err, storage.ErrNotFound) {
		log.LogInfo(fmt.Sprintf("No draft found for %s, starting a new assessment", sess.Identity().UserName))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load draft: %w", err)
	}

	if err := sess.Restore(*draft); err != nil {
		if errors.Is(err, session.ErrStaleDraft) {
			log.LogWarn(fmt.Sprintf("Draft %s no longer matches the catalog, starting a new assessment", draft.ID))
			return nil
		}
		return fmt.Errorf("restore draft %s: %w", draft.ID, err)
	}
	log.LogDraftRestored(*draft)
	return nil
}

// newOrchestrator wires the chart renderer, the report pipeline and the
// storage handoff around sess.
func newOrchestrator(ctx context.Context, sess *session.Session, cfg *config.Config, store storage.Store,
	log logger.Logger, lang models.Language) *submission.Orchestrator {
	sinks := []report.Sink{report.NewFileSink(cfg.Delivery.ReportDir)}
	if cfg.Delivery.Enabled && cfg.Delivery.WebhookURL != "" {
		sinks = append(sinks, report.NewWebhookSink(cfg.Delivery.WebhookURL, cfg.Delivery.Timeout))
	}

	pipeline := report.NewPipeline(report.NewBuilder(), sinks...)
	log.LogDebug(fmt.Sprintf("Report sinks: %s", strings.Join(pipeline.Sinks(), ", ")))

	return submission.NewOrchestrator(sess, submission.Config{
		Charts:   report.NewSVGChart(cfg.Chart.Width, cfg.Chart.BarHeight),
		Reports:  pipeline,
		Handoff:  storeHandoff(ctx, sess, store, log),
		Logger:   log,
		Language: lang,
		OnStateChange: func(s submission.State) {
			if s == submission.StateSubmitting {
				log.LogInfo("Submitting assessment...")
			}
		},
	})
}

// storeHandoff records the payload and removes the draft the session was
// resumed from or saved under, since a submitted session is not resumable.
// The store calls ignore cancellation of ctx: once the orchestrator reports
// completion an interrupt must not drop the submission.
func storeHandoff(ctx context.Context, sess *session.Session, store storage.Store, log logger.Logger) submission.HandoffFunc {
	ctx = context.WithoutCancel(ctx)
	return func(payload models.SubmissionPayload) {
		if err := store.RecordSubmission(ctx, payload); err != nil {
			log.LogError(fmt.Sprintf("failed to record submission %s: %v", payload.ID, err))
		}
		if id := sess.DraftID(); id != "" {
			if err := store.DeleteDraft(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
				log.LogWarn(fmt.Sprintf("failed to delete draft %s: %v", id, err))
			}
		}
	}
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && !color.NoColor && isatty.IsTerminal(f.Fd())
}
