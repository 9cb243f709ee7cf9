package rules

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PassScore is the percentage needed to pass verification.
const PassScore = 80.0

// Question asks for one value from the rules document.
type Question struct {
	Text     string `json:"question"`
	Answer   any    `json:"expected_answer"`
	Category string `json:"category"`
}

// Questions generates up to n questions from d, at most three per category.
func Questions(d *Document, rng *rand.Rand, n int) []Question {
	var qs []Question

	if dirs := section(d, "directory_structure"); dirs != nil {
		keys := sample(rng, without(sortedKeys(dirs), "project_structure"), 3)
		for _, k := range keys {
			qs = append(qs, Question{
				Text:     fmt.Sprintf("What is the path for the %s directory?", strings.TrimSuffix(k, "_dir")),
				Answer:   dirs[k],
				Category: "directory_structure",
			})
		}
	}

	if py := section(d, "python_environment"); py != nil {
		if pm, ok := py["package_manager"]; ok {
			qs = append(qs, Question{
				Text:     "What package manager should be used for Python package management?",
				Answer:   pm,
				Category: "python_environment",
			})
			if venvs, ok := py["virtual_environments"].(map[string]any); ok {
				if loc, ok := venvs["location"]; ok {
					qs = append(qs, Question{
						Text:     "Where should virtual environments be located relative to a project?",
						Answer:   loc,
						Category: "python_environment",
					})
				}
			}
		}
	}

	if naming := section(d, "naming_conventions"); naming != nil {
		for _, k := range sample(rng, sortedKeys(naming), 2) {
			qs = append(qs, Question{
				Text:     fmt.Sprintf("What naming convention should be used for %s?", k),
				Answer:   naming[k],
				Category: "naming_conventions",
			})
		}
	}

	if sec := section(d, "security"); sec != nil {
		if ac, ok := sec["access_control"].(map[string]any); ok {
			if storage, ok := ac["storage"]; ok {
				qs = append(qs, Question{
					Text:     "What should be used to store sensitive information instead of hardcoding it?",
					Answer:   storage,
					Category: "security",
				})
			}
		}
	}

	for _, s := range sample(rng, d.Scripts(), 2) {
		if purpose, ok := d.Purpose(s); ok {
			qs = append(qs, Question{
				Text:     fmt.Sprintf("What is the purpose of the %s utility script?", s),
				Answer:   purpose,
				Category: "utility_scripts",
			})
		}
	}

	rng.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	if limit := min(n, len(d.Rules)*3); len(qs) > limit {
		qs = qs[:limit]
	}
	return qs
}

func sample(rng *rand.Rand, keys []string, n int) []string {
	if n >= len(keys) {
		return keys
	}
	out := make([]string, 0, n)
	for _, i := range rng.Perm(len(keys))[:n] {
		out = append(out, keys[i])
	}
	return out
}

func without(keys []string, drop string) []string {
	out := keys[:0:0]
	for _, k := range keys {
		if k != drop {
			out = append(out, k)
		}
	}
	return out
}

// CheckAnswer reports whether given matches expected. A list matches when
// any element does. Matching ignores case and surrounding space, treats
// $HOME paths as equal regardless of slashes, and accepts answers that
// contain the expected text or cover more than half of it.
func CheckAnswer(given string, expected any) bool {
	if list, ok := expected.([]any); ok {
		for _, e := range list {
			if checkOne(given, e) {
				return true
			}
		}
		return false
	}
	return checkOne(given, expected)
}

func checkOne(given string, expected any) bool {
	g := strings.ToLower(strings.TrimSpace(given))
	e := strings.ToLower(strings.TrimSpace(fmt.Sprint(expected)))
	if g == "" {
		return e == ""
	}
	if g == e {
		return true
	}
	if strings.Contains(g, "$home") && strings.Contains(e, "$home") && homePath(g) == homePath(e) {
		return true
	}
	if strings.Contains(g, e) {
		return true
	}
	return strings.Contains(e, g) && len(g) > len(e)/2
}

func homePath(s string) string {
	s = strings.ReplaceAll(s, "$home", "")
	s = strings.ReplaceAll(s, `\`, "/")
	return strings.Trim(s, "/")
}

// FormatAnswer renders an expected answer for display.
func FormatAnswer(v any) string {
	if list, ok := v.([]any); ok {
		parts := make([]string, len(list))
		for i, e := range list {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}

// Answered is a question with the given answer and its verdict.
type Answered struct {
	Question
	Given   string `json:"user_answer,omitempty"`
	Correct bool   `json:"correct"`
}

// Result summarizes a verification run.
type Result struct {
	Timestamp   time.Time  `json:"timestamp"`
	Interactive bool       `json:"interactive"`
	Passed      bool       `json:"passed"`
	Score       float64    `json:"score"`
	Total       int        `json:"total_questions"`
	Correct     int        `json:"correct_answers"`
	Questions   []Answered `json:"questions"`
}

// Quiz asks questions on Out and, when Interactive, reads one answer per line
// from In.
type Quiz struct {
	In          io.Reader
	Out         io.Writer
	Interactive bool
}

// Run asks every question and scores the answers. Without Interactive it only
// prints the expected answers and the result never passes.
func (q *Quiz) Run(questions []Question, now time.Time) Result {
	res := Result{Timestamp: now, Interactive: q.Interactive, Total: len(questions)}
	var scanner *bufio.Scanner
	if q.Interactive && q.In != nil {
		scanner = bufio.NewScanner(q.In)
	}

	fmt.Fprintf(q.Out, "Rule verification: %d questions\n\n", len(questions))
	for i, question := range questions {
		fmt.Fprintf(q.Out, "Question %d: %s\n", i+1, question.Text)
		a := Answered{Question: question}
		if !q.Interactive {
			fmt.Fprintf(q.Out, "Expected answer: %s\n\n", FormatAnswer(question.Answer))
			res.Questions = append(res.Questions, a)
			continue
		}

		fmt.Fprint(q.Out, "Your answer: ")
		if scanner != nil && scanner.Scan() {
			a.Given = strings.TrimSpace(scanner.Text())
		}
		fmt.Fprintln(q.Out)
		a.Correct = CheckAnswer(a.Given, question.Answer)
		if a.Correct {
			res.Correct++
			fmt.Fprintln(q.Out, "Correct!")
		} else {
			fmt.Fprintf(q.Out, "Incorrect. The correct answer is: %s\n", FormatAnswer(question.Answer))
		}
		fmt.Fprintln(q.Out)
		res.Questions = append(res.Questions, a)
	}

	if q.Interactive && res.Total > 0 {
		res.Score = float64(res.Correct) / float64(res.Total) * 100
		res.Passed = res.Score >= PassScore
		fmt.Fprintf(q.Out, "Score: %.1f%% (%d/%d)\n", res.Score, res.Correct, res.Total)
		if res.Passed {
			fmt.Fprintln(q.Out, "Passed.")
		} else {
			fmt.Fprintln(q.Out, "Not passed. Review the rules and try again.")
		}
	}
	return res
}

// WriteResult saves res as indented JSON at path.
func WriteResult(path string, res Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal verification result: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create result directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write verification result: %w", err)
	}
	return nil
}
