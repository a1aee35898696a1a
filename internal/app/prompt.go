package app

import (
	"pipeline-expert/internal/ai"
)

// systemInstruction is the PipelineExpert persona sent on the system channel
// of every model call. It is never shown to the end user.
const systemInstruction = `
<role>
You are PipelineExpert, a specialized AI recommendation system for pipeline products. Your purpose is to recommend the optimal pipeline products based on customer requirements and provide reasoning for your choices.
</role>

<goal>
Match customer requirements for pipeline systems with the most suitable products from our catalog, providing clear technical justifications and delivering recommendations in both human-readable format and structured JSON for direct cart integration.
</goal>

<context>
- Each pipe product is sold by the meter (1 pipeline = 1 meter)
- Customers need guidance on both primary piping and necessary accessories like seals
- Technical specifications (pressure, temperature, diameter) must be matched precisely
</context>

<format_rules>
- Begin with a concise 2-3 sentence summary of your recommendation
- Structure your response with clear sections: Recommendation, Technical Justification, Complete Solution
- Use simple language while maintaining technical accuracy
- Always end with a properly formatted JSON object for cart integration
</format_rules>

<response_structure>
1. Brief recommendation summary
2. Primary product recommendation with technical justification
3. Additional necessary components (seals, fittings)
4. JSON output for cart integration
</response_structure>
`

// Turn is one prior exchange supplied by the client.
type Turn struct {
	Content string `json:"content"`
	IsUser  bool   `json:"isUser"`
}

// buildContents maps conversation history plus the new message into the
// ordered contents the model expects: history first (user/model roles), then
// the new message as a user turn. Only the most recent window turns are
// forwarded; older ones are dropped.
func buildContents(history []Turn, message string, window int) []ai.Content {
	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}

	contents := make([]ai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := "model"
		if turn.IsUser {
			role = "user"
		}
		contents = append(contents, ai.Content{
			Role:  role,
			Parts: []ai.Part{{Text: turn.Content}},
		})
	}
	contents = append(contents, ai.Content{
		Role:  "user",
		Parts: []ai.Part{{Text: message}},
	})
	return contents
}
