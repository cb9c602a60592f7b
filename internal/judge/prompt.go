package judge

import (
	"fmt"
)

// SystemPrompt is the rubric shared by every live judge call.
const SystemPrompt = `You assess the long-term collectible and cultural value of Chinese-market books.

For the book described in the user message, rate:
- classic_potential (0-10): likelihood the work becomes or remains a canonical classic.
- era_significance (0-10): how strongly it captures or shaped its historical and intellectual moment.
- ip_potential (0-10): adaptation and derivative-rights potential.
- structured_adjustment (-10 to 10): correction to the structured_score you were given, in points.
- confidence (0-100): confidence in this assessment.
- rationale: one or two sentences.

Respond with a single JSON object containing exactly these six keys and nothing else.`

// UserPrompt renders the per-record message around an encoded payload.
func UserPrompt(payload []byte) string {
	return fmt.Sprintf("Book record:\n%s", payload)
}
