package interview

// profile is the fixed text a session kind needs without asking a model.
type profile struct {
	opening   string
	intro     string
	fallbacks []string
}

var profiles = map[Kind]profile{
	KindTechnical: {
		opening: "Can you briefly describe one technical project from your resume and the technologies you used?",
		intro:   "Let's begin the technical round.",
		fallbacks: []string{
			"Could you walk me through a technical decision you made in that work and the trade-offs you considered?",
			"What was the hardest bug you have had to track down, and how did you find it?",
			"How would you test and monitor the system you just described in production?",
		},
	},
	KindCoding: {
		opening: "Let's start with a warm-up: write a function that returns the first non-repeating character in a string, and explain its time complexity.",
		intro:   "Okay! Now let's move to the live coding round.",
		fallbacks: []string{
			"Can you explain how your solution behaves on an empty input and on very large inputs?",
			"Write a function that checks whether two strings are anagrams of each other, then walk me through it.",
			"How would you refactor your last solution to make it easier to test?",
		},
	},
	KindBehavioral: {
		opening: "Tell me about your strengths and weaknesses.",
		intro:   "Okay. Now let's start the behavioral (HR) round.",
		fallbacks: []string{
			"Tell me about a time you disagreed with a teammate. How did you resolve it?",
			"Describe a situation where you had to meet a tight deadline. What did you prioritise?",
			"What motivates you in your work, and how does this role fit that?",
		},
	},
}

func profileFor(kind Kind) (profile, bool) {
	p, ok := profiles[kind]
	return p, ok
}

// OpeningQuestion is the seeded first question for a session kind.
func OpeningQuestion(kind Kind) string {
	return profiles[kind].opening
}

// fallbackFor picks the first fallback that does not repeat prev.
func (p profile) fallbackFor(round int, prev string) string {
	n := len(p.fallbacks)
	for i := 0; i < n; i++ {
		candidate := p.fallbacks[(round+i)%n]
		if !sameQuestion(candidate, prev) {
			return candidate
		}
	}
	return p.fallbacks[0]
}
