package gemini

import (
	"fmt"
	"strings"
)

func classifyPrompt(text string) string {
	return fmt.Sprintf(`Classify the following document into exactly one category such as "Invoice", "Contract", "Report", "Letter" or "Other".
Respond with a JSON object of the form {"label": "<category>", "confidence": <0-100>} and nothing else.

Document text:
%s`, text)
}

func extractPrompt(text, label string, fields []string) string {
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+f+`"`)
	}
	return fmt.Sprintf(`The following text is from a document classified as "%s".
Extract the fields %s and respond with a single flat JSON object mapping each field name to its value as a string.
Use an empty string for any field that is not present. Respond with the JSON object and nothing else.

Document text:
%s`, label, strings.Join(quoted, ", "), text)
}

func sentimentPrompt(text string) string {
	return fmt.Sprintf(`Determine the overall sentiment of the following document.
Respond with exactly one word: Positive, Negative or Neutral.

Document text:
%s`, text)
}

func summaryPrompt(text string) string {
	return fmt.Sprintf(`Summarize the following document in a short paragraph of at most five sentences.

Document text:
%s`, text)
}

func comparePrompt(textA, textB string) string {
	return fmt.Sprintf(`Rate the semantic similarity of the two documents below on a scale from 0 to 100, where 0 means entirely unrelated and 100 means the same content.
Respond with the number only.

Document A:
%s

Document B:
%s`, textA, textB)
}

func questionPrompt(text, question string) string {
	return fmt.Sprintf(`Answer the question using only the document text below. If the text does not contain the answer, say so.

Question: %s

Document text:
%s`, question, text)
}
