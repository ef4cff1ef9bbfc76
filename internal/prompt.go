package internal

import (
	"fmt"
	"strings"
)

// NotFoundAnswer is the sentinel the model is instructed to emit when
// the supplied context does not contain the answer.
const NotFoundAnswer = "Not found in the document."

// BuildPrompt wraps the retrieved fragments and the question into the
// grounded-answer template. Fragments appear in the order given, one
// "(Page N) text" line each, ranked best first by the caller.
func BuildPrompt(results []SearchResult, question string) string {
	var context strings.Builder
	for i, r := range results {
		if i > 0 {
			context.WriteByte('\n')
		}
		fmt.Fprintf(&context, "(Page %d) %s", r.Page, r.Text)
	}

	return fmt.Sprintf(`
Answer ONLY from the context.
If not found say: %s

Context:
%s

Question: %s
Answer:
`, NotFoundAnswer, context.String(), question)
}
