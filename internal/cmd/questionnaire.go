package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/harrison/dora/internal/logger"
	"github.com/harrison/dora/internal/metrics"
	"github.com/harrison/dora/internal/models"
	"github.com/harrison/dora/internal/session"
	"github.com/harrison/dora/internal/storage"
	"github.com/harrison/dora/internal/submission"
)

const questionnaireHelp = `Commands:
  <n>          choose option n and move to the next question
  :back        previous question
  :next        next question without answering
  :note <text> attach an observation to this question
  :save        save a draft you can resume with --resume
  :submit      submit the assessment
  :quit        save a draft and leave
  :help        show this help`

// submitter is the part of the orchestrator the questionnaire drives.
type submitter interface {
	Submit(ctx context.Context) (*submission.Result, error)
}

// questionnaire is the interactive presentation layer over a session. It
// reads one command per line from in and never touches session state except
// through the session's commands.
type questionnaire struct {
	sess     *session.Session
	orch     submitter
	store    storage.Store
	log      logger.Logger
	lang     models.Language
	in       *bufio.Scanner
	out      io.Writer
	progress *logger.ProgressBar
}

func newQuestionnaire(sess *session.Session, orch submitter, store storage.Store, log logger.Logger,
	lang models.Language, in io.Reader, out io.Writer, colorOutput bool) *questionnaire {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	progress := logger.NewProgressBar(30, colorOutput)
	progress.SetPrefix(models.LabelsFor(lang).Progress + " ")
	return &questionnaire{
		sess:     sess,
		orch:     orch,
		store:    store,
		log:      log,
		lang:     lang,
		in:       bufio.NewScanner(in),
		out:      out,
		progress: progress,
	}
}

// run drives the session until it is submitted, the user quits, or input
// ends. It returns the result of a successful submission, or nil.
func (q *questionnaire) run(ctx context.Context) (*submission.Result, error) {
	if _, ok := q.sess.CurrentQuestion(); !ok {
		fmt.Fprintln(q.out, session.ErrNoQuestions.Error())
		return nil, nil
	}

	fmt.Fprintln(q.out, questionnaireHelp)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q.show()

		fmt.Fprint(q.out, "> ")
		if !q.in.Scan() {
			if err := q.in.Err(); err != nil {
				return nil, fmt.Errorf("read input: %w", err)
			}
			return nil, q.quit(ctx)
		}
		line := strings.TrimSpace(q.in.Text())

		result, done, err := q.handle(ctx, line)
		if err != nil {
			return nil, err
		}
		if done {
			return result, nil
		}
	}
}

// handle executes one input line. done reports that the loop should stop.
func (q *questionnaire) handle(ctx context.Context, line string) (result *submission.Result, done bool, err error) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "":
		return nil, false, nil
	case ":back":
		return nil, false, q.sess.Retreat()
	case ":next":
		return nil, false, q.sess.Advance()
	case ":note":
		text := strings.TrimSpace(arg)
		if text == "" {
			fmt.Fprintln(q.out, "usage: :note <text>")
			return nil, false, nil
		}
		return nil, false, q.sess.RecordObservation(text)
	case ":save":
		_, err := q.saveDraft(ctx)
		return nil, false, err
	case ":submit":
		return q.submit(ctx)
	case ":quit":
		return nil, true, q.quit(ctx)
	case ":help":
		fmt.Fprintln(q.out, questionnaireHelp)
		return nil, false, nil
	}

	n, convErr := strconv.Atoi(cmd)
	if convErr != nil {
		fmt.Fprintf(q.out, "unknown command %q, type :help\n", line)
		return nil, false, nil
	}
	return nil, false, q.choose(n)
}

// choose selects the n-th option (1-based) of the current question.
func (q *questionnaire) choose(n int) error {
	current, ok := q.sess.CurrentQuestion()
	if !ok {
		return session.ErrNoQuestions
	}
	if n < 1 || n > len(current.Options) {
		fmt.Fprintf(q.out, "choose an option between 1 and %d\n", len(current.Options))
		return nil
	}
	wasLast := q.sess.IsLast()
	if err := q.sess.Select(current.Options[n-1].Value); err != nil {
		return err
	}
	if wasLast {
		fmt.Fprintln(q.out, "Last question answered. Type :submit to send the assessment.")
	}
	return nil
}

func (q *questionnaire) show() {
	current, ok := q.sess.CurrentQuestion()
	if !ok {
		return
	}
	total := len(q.sess.Catalog().Questions)

	q.progress.Update(q.sess.Progress())
	fmt.Fprintf(q.out, "\n%s\n", q.progress.Render())

	category := current.CategoryID
	if c, ok := q.sess.Catalog().Category(current.CategoryID); ok {
		category = c.Name.In(q.lang)
	}
	fmt.Fprintf(q.out, "[%d/%d] %s\n", q.sess.Position()+1, total, category)
	fmt.Fprintln(q.out, q.sess.Prompt(current, q.lang))

	selected, answered := q.sess.Answer(current.ID)
	for i, opt := range current.Options {
		marker := " "
		if answered && opt.Value == selected {
			marker = "*"
		}
		fmt.Fprintf(q.out, " %s %d) %s\n", marker, i+1, opt.Label.In(q.lang))
	}
	if note, ok := q.sess.Observation(current.ID); ok {
		fmt.Fprintf(q.out, "   note: %s\n", note)
	}
}

func (q *questionnaire) saveDraft(ctx context.Context) (models.Draft, error) {
	draft := q.sess.SaveDraft()
	if err := q.store.SaveDraft(ctx, draft); err != nil {
		return draft, fmt.Errorf("save draft: %w", err)
	}
	metrics.RecordDraftSaved()
	q.log.LogDraftSaved(draft)
	fmt.Fprintf(q.out, "Draft %s saved.\n", draft.ID)
	return draft, nil
}

// quit saves a draft when anything was captured, so leaving never loses work.
func (q *questionnaire) quit(ctx context.Context) error {
	snap := q.sess.Snapshot()
	if len(snap.Answers) == 0 && len(snap.Observations) == 0 {
		return nil
	}
	draft, err := q.saveDraft(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(q.out, "Resume later with: dora run <catalog> --user %q --resume\n", draft.Identity.UserName)
	return nil
}

func (q *questionnaire) submit(ctx context.Context) (*submission.Result, bool, error) {
	result, err := q.orch.Submit(ctx)
	if err != nil {
		var assemblyErr *submission.AssemblyError
		switch {
		case errors.As(err, &assemblyErr):
			fmt.Fprintf(q.out, "%s\n", color.RedString("Submission failed: %v", err))
			fmt.Fprintln(q.out, "Your answers are intact; you can :submit again.")
			return nil, false, nil
		case errors.Is(err, submission.ErrSubmissionInProgress):
			fmt.Fprintln(q.out, "A submission is already in progress.")
			return nil, false, nil
		case errors.Is(err, submission.ErrAlreadyCompleted):
			return nil, true, nil
		}
		return nil, false, err
	}

	fmt.Fprintf(q.out, "\n%s\n", color.GreenString("Assessment %s submitted.", result.Payload.ID))
	if !result.Delivered {
		fmt.Fprintln(q.out, color.YellowString("The report could not be delivered: %v", result.DeliveryErr))
	}
	return result, true, nil
}
