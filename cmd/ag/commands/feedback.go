package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/feedback"
)

func newFeedbackCommand(app *App) (*command.Descriptor, error) {
	return &command.Descriptor{
		Name:    "feedback",
		Summary: "Submit and track feedback about the environment",
		Subcommands: []*command.Subcommand{
			app.subcommand("feedback", app.newFeedbackSubmitCmd),
			app.subcommand("feedback", app.newFeedbackListCmd),
			app.subcommand("feedback", app.newFeedbackGetCmd),
			app.subcommand("feedback", app.newFeedbackUpdateCmd),
			app.subcommand("feedback", app.newFeedbackCommentCmd),
			app.subcommand("feedback", app.newFeedbackStatsCmd),
		},
	}, nil
}

func (a *App) openFeedback() (*feedback.Store, error) {
	cfg, err := a.Store.Config()
	if err != nil {
		return nil, err
	}
	return feedback.Open(cfg.Paths.Feedback)
}

// pipedInput returns stdin when it is not an interactive terminal.
func (a *App) pipedInput() (string, error) {
	if a.Stdin == nil {
		return "", nil
	}
	if f, ok := a.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", nil
	}
	data, err := io.ReadAll(a.Stdin)
	if err != nil {
		return "", fmt.Errorf("read description from stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (a *App) newFeedbackSubmitCmd() *cobra.Command {
	var title, typ, priority, description string
	var tags []string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Record a new feedback item",
		Long: `Record a new feedback item. When --description is omitted and stdin is
not a terminal, the description is read from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(title) == "" {
				return command.ArgErrorf("--title is required")
			}
			t, ok := feedback.ParseType(typ)
			if !ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: warning: unknown feedback type %q, using %q\n", program, typ, t)
			}
			p, ok := feedback.ParsePriority(priority)
			if !ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: warning: unknown priority %q, using %q\n", program, priority, p)
			}
			if description == "" {
				piped, err := a.pipedInput()
				if err != nil {
					return err
				}
				description = piped
			}

			store, err := a.openFeedback()
			if err != nil {
				return err
			}
			defer store.Close()

			item, err := store.Submit(cmd.Context(), feedback.Submission{
				Type:        t,
				Title:       title,
				Description: description,
				Priority:    p,
				Tags:        tags,
			})
			if err != nil {
				return err
			}
			a.Log.Info("feedback submitted", "id", item.ID, "type", item.Type)
			fmt.Fprintln(cmd.OutOrStdout(), item.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Short title (required)")
	cmd.Flags().StringVar(&typ, "type", string(feedback.TypeOther), "issue, improvement, question, compliance or other")
	cmd.Flags().StringVar(&priority, "priority", string(feedback.PriorityMedium), "low, medium, high or critical")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Tag (repeatable)")
	cmd.Flags().StringVar(&description, "description", "", "Detailed description")
	return cmd
}

func (a *App) newFeedbackListCmd() *cobra.Command {
	var typ, status, priority, tag string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List feedback, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := feedback.Filter{Tag: tag, Limit: limit}
			if typ != "" {
				t, ok := feedback.ParseType(typ)
				if !ok {
					return command.ArgErrorf("unknown feedback type %q", typ)
				}
				f.Type = t
			}
			if status != "" {
				s, err := feedback.ParseStatus(status)
				if err != nil {
					return &command.ArgumentError{Err: err}
				}
				f.Status = s
			}
			if priority != "" {
				p, ok := feedback.ParsePriority(priority)
				if !ok {
					return command.ArgErrorf("unknown priority %q", priority)
				}
				f.Priority = p
			}

			store, err := a.openFeedback()
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if items == nil {
					items = []*feedback.Item{}
				}
				return writeJSON(out, items)
			}
			if len(items) == 0 {
				fmt.Fprintln(out, "No feedback found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tPRIORITY\tSTATUS\tTITLE")
			for _, it := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.Type, it.Priority, it.Status, it.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&typ, "type", "", "Filter by type")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&priority, "priority", "", "Filter by priority")
	cmd.Flags().StringVar(&tag, "tag", "", "Filter by tag")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Maximum number of items")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func (a *App) newFeedbackGetCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one feedback item with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openFeedback()
			if err != nil {
				return err
			}
			defer store.Close()

			item, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, item)
			}
			fmt.Fprintf(out, "ID:          %s\n", item.ID)
			fmt.Fprintf(out, "Title:       %s\n", item.Title)
			fmt.Fprintf(out, "Type:        %s\n", item.Type)
			fmt.Fprintf(out, "Priority:    %s\n", item.Priority)
			fmt.Fprintf(out, "Status:      %s\n", item.Status)
			if len(item.Tags) > 0 {
				fmt.Fprintf(out, "Tags:        %s\n", strings.Join(item.Tags, ", "))
			}
			fmt.Fprintf(out, "Created:     %s\n", item.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Updated:     %s\n", item.UpdatedAt.Format("2006-01-02 15:04:05"))
			if item.Description != "" {
				fmt.Fprintf(out, "\n%s\n", item.Description)
			}
			for _, c := range item.Comments {
				fmt.Fprintf(out, "\n[%s] %s:\n  %s\n", c.CreatedAt.Format("2006-01-02 15:04"), c.Author, c.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func (a *App) newFeedbackUpdateCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the status of a feedback item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if status == "" {
				return command.ArgErrorf("--status is required")
			}
			s, err := feedback.ParseStatus(status)
			if err != nil {
				return &command.ArgumentError{Err: err}
			}
			store, err := a.openFeedback()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.UpdateStatus(cmd.Context(), args[0], s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Feedback %s is now %s\n", args[0], s)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "New status (required)")
	return cmd
}

func (a *App) newFeedbackCommentCmd() *cobra.Command {
	var author string
	cmd := &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Add a comment to a feedback item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openFeedback()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.AddComment(cmd.Context(), args[0], author, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Comment added to %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&author, "author", "AI Agent", "Comment author")
	return cmd
}

func (a *App) newFeedbackStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count feedback by type, status and priority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openFeedback()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total: %d\n", stats.Total)
			fmt.Fprintln(out, "\nBy type:")
			for _, t := range feedback.Types {
				fmt.Fprintf(out, "  %-14s %d\n", t, stats.ByType[t])
			}
			fmt.Fprintln(out, "\nBy status:")
			for _, s := range feedback.Statuses {
				fmt.Fprintf(out, "  %-14s %d\n", s, stats.ByStatus[s])
			}
			fmt.Fprintln(out, "\nBy priority:")
			for _, p := range feedback.Priorities {
				fmt.Fprintf(out, "  %-14s %d\n", p, stats.ByPriority[p])
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
