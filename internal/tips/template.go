// internal/tips/template.go
package tips

import (
	"strconv"
	"strings"
)

// RenderTemplate replaces every {key} placeholder with its value.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

const promptTemplate = `You are a marketing expert. Generate {count} concise and actionable marketing tips suitable for an EngageSphere user looking to improve their customer engagement campaigns.
Focus on tips related to personalization, segmentation, A/B testing, timing, and calls to action.
Each tip should be a single sentence or two.

For example:
{"tips": [
  "Personalize your email subject lines to significantly boost open rates.",
  "Use A/B testing for your call-to-action buttons to see what resonates best with your audience.",
  "Segment your audience based on past purchase behavior for more targeted messaging."
]}`

// BuildPrompt renders the tip prompt for count tips.
func BuildPrompt(count int) string {
	return RenderTemplate(promptTemplate, map[string]string{"count": strconv.Itoa(count)})
}
