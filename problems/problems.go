// Package problems holds the built-in "bug or feature" questions that ship
// with the server.
package problems

import (
	"embed"
	"fmt"
	"strings"

	"tupilaqs/models"
)

//go:embed scripts/*.py explanations/*.md
var files embed.FS

type entry struct {
	script      string
	answer      string
	title       string
	explanation string
	difficulty  int
}

var official = []entry{
	{"problem_1_multiplication.py", models.AnswerFeature, "Multiplication", "problem_1.md", 0},
	{"problem_2_square_of_a_number.py", models.AnswerBug, "Square of a number", "problem_2.md", 0},
	{"problem_3_slot_machine.py", models.AnswerBug, "Slot machine", "problem_3.md", 1},
	{"problem_4_double_base_palindrome.py", models.AnswerBug, "Double base palindrome", "problem_4.md", 1},
	{"problem_5_count_ways_to_make_number.py", models.AnswerFeature, "Count Ways to make a number", "problem_5.md", 2},
	{"problem_6_truncatable_number.py", models.AnswerFeature, "Is it truncatable?", "problem_6.md", 2},
	{"problem_7_lychrel_numbers.py", models.AnswerFeature, "Is it Lychrel?", "problem_7.md", 2},
	{"problem_8_count_letter.py", models.AnswerBug, "Count letter of a number?", "problem_8.md", 2},
	{"problem_9_amicable_numbers.py", models.AnswerBug, "Are amicable numbers", "problem_9.md", 2},
	{"problem_10_monopoly_simulation.py", models.AnswerFeature, "Monopoly Probabilities", "problem_10.md", 3},
	{"problem_11_are_equal.py", models.AnswerBug, "Are equal?", "problem_11.md", 0},
	{"problem_12_equal_except_integers.py", models.AnswerFeature, "integers do the opposite", "problem_12.md", 0},
}

// Official returns the built-in questions in their canonical order.
func Official() ([]models.NewQuestion, error) {
	out := make([]models.NewQuestion, 0, len(official))
	for _, e := range official {
		txt, err := files.ReadFile("scripts/" + e.script)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.script, err)
		}
		expl, err := files.ReadFile("explanations/" + e.explanation)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.explanation, err)
		}
		out = append(out, models.NewQuestion{
			Txt:        strings.TrimRight(string(txt), "\n"),
			Title:      e.title,
			Expl:       strings.TrimSpace(string(expl)),
			Answer:     e.answer,
			Difficulty: e.difficulty,
		})
	}
	return out, nil
}
