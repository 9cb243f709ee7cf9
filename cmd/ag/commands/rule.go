package commands

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/rules"
)

func newRuleCommand(app *App) (*command.Descriptor, error) {
	return &command.Descriptor{
		Name:    "rule",
		Summary: "Query the workspace rules and verify they are understood",
		Subcommands: []*command.Subcommand{
			app.subcommand("rule", app.newRuleVerifyCmd),
			app.subcommand("rule", app.newRuleQueryCmd),
			app.subcommand("rule", app.newRuleListCmd),
		},
	}, nil
}

func (a *App) loadRules(cmd *cobra.Command, file string) (*rules.Document, error) {
	if file == "" {
		cfg, err := a.Store.Config()
		if err != nil {
			return nil, err
		}
		file = cfg.Paths.Rules
	}
	return rules.Load(cmd.Context(), file)
}

func (a *App) newRuleVerifyCmd() *cobra.Command {
	var file, output string
	var nonInteractive bool
	var count int
	var seed uint64

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Quiz an agent on the rules",
		Long: `Ask questions generated from the rules and score the answers, read one per
line from stdin. The exit status is 1 unless the score reaches 80%.
With --non-interactive the expected answers are printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count <= 0 {
				return command.ArgErrorf("--count must be positive")
			}
			doc, err := a.loadRules(cmd, file)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = uint64(a.now().UnixNano())
			}
			questions := rules.Questions(doc, rand.New(rand.NewPCG(seed, seed)), count)
			if len(questions) == 0 {
				return errors.New("the rules do not contain anything to ask about")
			}

			quiz := &rules.Quiz{In: a.Stdin, Out: cmd.OutOrStdout(), Interactive: !nonInteractive}
			res := quiz.Run(questions, a.now())
			if output != "" {
				if err := rules.WriteResult(output, res); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Results saved to %s\n", output)
			}
			a.Log.Info("rule verification", "score", res.Score, "passed", res.Passed, "interactive", res.Interactive)
			if res.Interactive && !res.Passed {
				return command.Exit(int(command.ExitFailure))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "rules", "", "Rules file or URL (default: paths.rules_file)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the results as JSON to this file")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Print the expected answers instead of asking")
	cmd.Flags().IntVarP(&count, "count", "n", 10, "Maximum number of questions")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for question selection")
	return cmd
}

func (a *App) newRuleQueryCmd() *cobra.Command {
	var file, subcategory, key string
	cmd := &cobra.Command{
		Use:   "query <category>",
		Short: "Print a rule category, subcategory or key as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if key != "" && subcategory == "" {
				return command.ArgErrorf("--key needs --subcategory")
			}
			doc, err := a.loadRules(cmd, file)
			if err != nil {
				return err
			}
			val, err := doc.Query(args[0], subcategory, key)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), val)
		},
	}
	cmd.Flags().StringVar(&file, "rules", "", "Rules file or URL (default: paths.rules_file)")
	cmd.Flags().StringVar(&subcategory, "subcategory", "", "Rule subcategory")
	cmd.Flags().StringVar(&key, "key", "", "Key within the subcategory")
	return cmd
}

func (a *App) newRuleListCmd() *cobra.Command {
	var file string
	var scripts bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rule categories or utility scripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := a.loadRules(cmd, file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if scripts {
				fmt.Fprintln(out, "Utility scripts:")
				for _, s := range doc.Scripts() {
					purpose, ok := doc.Purpose(s)
					if !ok {
						purpose = "no purpose given"
					}
					fmt.Fprintf(out, "  - %s: %s\n", s, purpose)
				}
				return nil
			}
			fmt.Fprintln(out, "Rule categories:")
			for _, c := range doc.Categories() {
				fmt.Fprintf(out, "  - %s\n", c)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "rules", "", "Rules file or URL (default: paths.rules_file)")
	cmd.Flags().BoolVar(&scripts, "utility-scripts", false, "List utility scripts instead of categories")
	return cmd
}
