// Package learn holds the awareness quiz and the training video carousel.
package learn

import (
	"errors"
	"fmt"
)

// Question is one multiple-choice quiz item. Correct indexes Options.
type Question struct {
	ID      int      `yaml:"id" json:"id"`
	Prompt  string   `yaml:"prompt" json:"prompt"`
	Options []string `yaml:"options" json:"options"`
	Correct int      `yaml:"correct" json:"-"`
}

func (q Question) validate() error {
	if q.Prompt == "" {
		return fmt.Errorf("question %d: empty prompt", q.ID)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("question %d: need at least two options", q.ID)
	}
	if q.Correct < 0 || q.Correct >= len(q.Options) {
		return fmt.Errorf("question %d: correct index %d out of range", q.ID, q.Correct)
	}
	return nil
}

func validateAll(qs []Question) error {
	if len(qs) == 0 {
		return errors.New("no questions")
	}
	seen := make(map[int]bool, len(qs))
	for _, q := range qs {
		if err := q.validate(); err != nil {
			return err
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate question id %d", q.ID)
		}
		seen[q.ID] = true
	}
	return nil
}

// DefaultQuestions returns the built-in phishing quiz.
func DefaultQuestions() []Question {
	return []Question{
		{
			ID:     1,
			Prompt: "What is phishing?",
			Options: []string{
				"A technique to send spam emails",
				"A method to steal sensitive information through deceptive means",
				"A type of antivirus software",
				"A way to hack websites",
			},
			Correct: 1,
		},
		{
			ID:     2,
			Prompt: "Which of the following is a common sign of a phishing email?",
			Options: []string{
				"Personalized greetings and accurate details",
				"An urgent call to action, such as 'Reset your password now!'",
				"Emails from known contacts only",
				"Professional grammar and spelling",
			},
			Correct: 1,
		},
		{
			ID:     3,
			Prompt: "What is sniffing in the context of cybersecurity?",
			Options: []string{
				"Tracking user activities on social media",
				"Intercepting and analyzing data packets on a network",
				"Sending unsolicited promotional messages",
				"Encrypting sensitive data for security",
			},
			Correct: 1,
		},
		{
			ID:     4,
			Prompt: "How can you protect yourself from phishing attacks?",
			Options: []string{
				"Click on every link to verify its authenticity",
				"Avoid installing antivirus software",
				"Verify the sender's email address and avoid clicking on suspicious links",
				"Use public Wi-Fi for sensitive activities",
			},
			Correct: 2,
		},
		{
			ID:     5,
			Prompt: "What should you do if you suspect you've fallen victim to phishing?",
			Options: []string{
				"Ignore the situation and hope for the best",
				"Change your passwords immediately and report the incident",
				"Share the phishing email with friends",
				"Uninstall your antivirus software",
			},
			Correct: 1,
		},
	}
}
