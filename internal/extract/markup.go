package extract

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/semtypes"
)

// markupExtractor covers Html, Css, Scss and Markdown (§4.2): these never
// fail extraction, but contribute no symbols, only a family-labeled
// insertion so the file is still accounted for in the summary.
type markupExtractor struct{}

func (markupExtractor) Extract(path string, source []byte, _ *sitter.Tree, lang langdispatch.Lang) (*semtypes.SemanticSummary, error) {
	label := map[langdispatch.Lang]string{
		langdispatch.Html:     "HTML document",
		langdispatch.Css:      "CSS stylesheet",
		langdispatch.Scss:     "SCSS stylesheet",
		langdispatch.Markdown: "Markdown document",
		langdispatch.Vue:      "Vue single-file component",
	}[lang]
	if label == "" {
		label = "markup document"
	}
	return &semtypes.SemanticSummary{
		ExtractionComplete: true,
		Insertions:         []string{label},
	}, nil
}
