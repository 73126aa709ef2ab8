package scoring

// Question is a fixed multiple-choice assessment question.
type Question struct {
	ID           string
	Prompt       string
	Options      []string
	CorrectIndex int
}

// Answers maps a question ID to the selected option index.
type Answers map[string]int

// Score counts the questions whose selected option matches the correct index.
// Unanswered questions score nothing.
func Score(questions []Question, answers Answers) int {
	score := 0
	for _, q := range questions {
		if idx, ok := answers[q.ID]; ok && idx == q.CorrectIndex {
			score++
		}
	}
	return score
}

// Assessment is the five-question bank used to place a learner.
var Assessment = []Question{
	{
		ID:           "q1",
		Prompt:       "What is the next number in the sequence: 2, 6, 12, 20, 30, ?",
		Options:      []string{"40", "42", "44", "36"},
		CorrectIndex: 1,
	},
	{
		ID:           "q2",
		Prompt:       "If all Bloops are Razzies and all Razzies are Lazzies, then all Bloops are definitely Lazzies.",
		Options:      []string{"True", "False", "Cannot be determined", "None"},
		CorrectIndex: 0,
	},
	{
		ID:           "q3",
		Prompt:       "Which word does not belong: Apple, Banana, Carrot, Mango?",
		Options:      []string{"Apple", "Banana", "Carrot", "Mango"},
		CorrectIndex: 2,
	},
	{
		ID:           "q4",
		Prompt:       "A bat and ball cost $1.10 total. The bat costs $1.00 more than the ball. How much does the ball cost?",
		Options:      []string{"$0.05", "$0.10", "$0.15", "$0.20"},
		CorrectIndex: 0,
	},
	{
		ID:           "q5",
		Prompt:       "Complete the pattern: 1, 1, 2, 3, 5, 8, ?",
		Options:      []string{"11", "12", "13", "14"},
		CorrectIndex: 2,
	},
}
