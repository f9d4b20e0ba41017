package cli

import "live-question-service/internal/domain"

// sampleQuestions is the general-knowledge pool used when no database is
// configured and by the seed command.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "geo-france-capital", Prompt: "What is the capital of France?", Options: []string{"London", "Berlin", "Paris", "Madrid"}, CorrectOptionIndex: 2, Category: "geography"},
		{ID: "math-5-plus-7", Prompt: "What is 5 + 7?", Options: []string{"10", "11", "12", "13"}, CorrectOptionIndex: 2, Category: "math", Difficulty: "easy"},
		{ID: "lit-romeo-juliet", Prompt: "Who wrote 'Romeo and Juliet'?", Options: []string{"Charles Dickens", "William Shakespeare", "Jane Austen", "Mark Twain"}, CorrectOptionIndex: 1, Category: "literature"},
		{ID: "sci-largest-planet", Prompt: "What is the largest planet in our solar system?", Options: []string{"Earth", "Mars", "Jupiter", "Saturn"}, CorrectOptionIndex: 2, Category: "science"},
		{ID: "hist-ww2-end", Prompt: "In what year did World War II end?", Options: []string{"1943", "1944", "1945", "1946"}, CorrectOptionIndex: 2, Category: "history"},
		{ID: "sci-gold-symbol", Prompt: "What is the chemical symbol for gold?", Options: []string{"Go", "Gd", "Au", "Ag"}, CorrectOptionIndex: 2, Category: "science"},
		{ID: "geo-continents", Prompt: "How many continents are there?", Options: []string{"5", "6", "7", "8"}, CorrectOptionIndex: 2, Category: "geography", Difficulty: "easy"},
		{ID: "sci-speed-of-light", Prompt: "What is the speed of light?", Options: []string{"300,000 km/s", "150,000 km/s", "450,000 km/s", "600,000 km/s"}, CorrectOptionIndex: 0, Category: "science"},
		{ID: "art-mona-lisa", Prompt: "Who painted the Mona Lisa?", Options: []string{"Vincent van Gogh", "Leonardo da Vinci", "Pablo Picasso", "Michelangelo"}, CorrectOptionIndex: 1, Category: "art"},
		{ID: "math-smallest-prime", Prompt: "What is the smallest prime number?", Options: []string{"0", "1", "2", "3"}, CorrectOptionIndex: 2, Category: "math"},
		{ID: "cs-web-language", Prompt: "Which programming language is known for its use in web development?", Options: []string{"Python", "JavaScript", "C++", "Java"}, CorrectOptionIndex: 1, Category: "computing"},
		{ID: "cs-html", Prompt: "What does HTML stand for?", Options: []string{"Hyper Text Markup Language", "High Tech Modern Language", "Home Tool Markup Language", "Hyperlinks and Text Markup Language"}, CorrectOptionIndex: 0, Category: "computing"},
		{ID: "sci-boiling-point", Prompt: "What is the boiling point of water at sea level?", Options: []string{"90°C", "100°C", "110°C", "120°C"}, CorrectOptionIndex: 1, Category: "science"},
		{ID: "sci-penicillin", Prompt: "Who discovered penicillin?", Options: []string{"Marie Curie", "Alexander Fleming", "Louis Pasteur", "Isaac Newton"}, CorrectOptionIndex: 1, Category: "science"},
		{ID: "geo-largest-ocean", Prompt: "What is the largest ocean on Earth?", Options: []string{"Atlantic", "Indian", "Arctic", "Pacific"}, CorrectOptionIndex: 3, Category: "geography"},
	}
}
