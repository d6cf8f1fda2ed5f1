package ollama

import (
	"fmt"
	"strings"

	"github.com/duomind/duomind/internal/core/domain"
)

const normalInstructions = `Answer the user question using only the context below.
Be direct and concise. If the context does not contain the answer, say so plainly.
Cite passages by their [number].`

const proInstructions = `Answer the user question using only the context below.
Reason carefully: connect related passages, surface implications, and note
conflicting or missing information. Cite passages by their [number].
If the context does not contain the answer, say so plainly.`

func buildAnswerPrompt(question string, mode domain.RetrievalMode, sources []domain.Source) string {
	instructions := normalInstructions
	if mode == domain.ModePro {
		instructions = proInstructions
	}

	var contextBuilder strings.Builder
	for idx, source := range sources {
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] file=%s score=%.3f\n%s\n\n",
			idx+1,
			source.Filename,
			source.FusedScore,
			source.Text,
		))
	}

	return fmt.Sprintf(`%s

Question:
%s

Context:
%s`, instructions, question, contextBuilder.String())
}
