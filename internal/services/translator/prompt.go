package translator

import (
	"fmt"

	"captiond/internal/filter"
	"captiond/internal/language"
)

// SystemPrompt builds the translation instruction for a batch. The content
// classification picks a register so dialogue-heavy or adult material is not
// flattened into formal prose.
func SystemPrompt(sourceCode, targetCode string, contentType filter.ContentType) string {
	source := language.DisplayName(sourceCode)
	target := language.DisplayName(targetCode)

	base := fmt.Sprintf(
		"You are a professional subtitle translator. Translate each line from %s to %s. "+
			"Return exactly one translated line per input line, in the same order, with no numbering, "+
			"no commentary, and no blank lines added or removed.",
		source, target)

	switch contentType {
	case filter.ContentAdult:
		return base + " The material is adult-oriented; translate explicit language faithfully without censoring or euphemism."
	case filter.ContentConversation:
		return base + " The material is casual conversation; keep the tone informal and natural, preserving interjections."
	default:
		return base + " Keep the translation concise and suitable for on-screen display."
	}
}
