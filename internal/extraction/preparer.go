package extraction

import (
	"strings"

	"github.com/dmarsh/bidflow/internal/llm"
	"github.com/dmarsh/bidflow/internal/prompts"
	"github.com/dmarsh/bidflow/internal/types"
)

// Preparer packages a document and a prompt into an LLM request. PDF and
// image bytes ride along as inline content; plain text is appended to the
// prompt itself.
type Preparer interface {
	Prepare(doc types.RawDocument, prompt string) (string, *llm.InlineContent)
}

type inlinePreparer struct{}

func (inlinePreparer) Prepare(doc types.RawDocument, prompt string) (string, *llm.InlineContent) {
	return prompt, &llm.InlineContent{Data: doc.Bytes, MimeType: doc.MimeType}
}

type textPreparer struct{}

func (textPreparer) Prepare(doc types.RawDocument, prompt string) (string, *llm.InlineContent) {
	suffix := prompts.MustGet("extraction.json", "text-document")
	return prompt + prompts.Format(suffix, map[string]string{
		"DocumentText": string(doc.Bytes),
	}), nil
}

// PreparerFor selects the request strategy for a document's mime type.
// Anything that is not a PDF or an image is treated as text.
func PreparerFor(mimeType string) Preparer {
	mt := strings.ToLower(mimeType)
	if strings.Contains(mt, "pdf") || strings.Contains(mt, "image") {
		return inlinePreparer{}
	}
	return textPreparer{}
}
