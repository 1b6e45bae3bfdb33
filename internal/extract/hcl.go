package extract

import (
	"bufio"
	"bytes"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/semtypes"
)

// hclExtractor handles Terraform/HCL files. No HCL grammar is available in
// this module's dependency set (the teacher carries none, and none of the
// sibling examples pull one in either), so blocks are recognized with a
// line-oriented scan for "<block-type> \"<name>\" {" headers, the same
// shortcut already accepted for Dockerfile (§4.1/§9).
type hclExtractor struct{}

func (hclExtractor) Extract(path string, source []byte, _ *sitter.Tree, _ langdispatch.Lang) (*semtypes.SemanticSummary, error) {
	summary := &semtypes.SemanticSummary{ExtractionComplete: true}
	scanner := bufio.NewScanner(bytes.NewReader(source))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		trimmed := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(trimmed)
		if len(fields) < 2 || !strings.HasSuffix(trimmed, "{") {
			continue
		}
		switch fields[0] {
		case "resource", "module", "data", "provider", "variable", "output":
			name := strings.Trim(fields[len(fields)-2], `"`)
			summary.Symbols = append(summary.Symbols, semtypes.SymbolInfo{
				Name:           name,
				Kind:           semtypes.SymbolModule,
				StartLine:      lineNum,
				EndLine:        lineNum,
				IsExported:     true,
				BehavioralRisk: semtypes.RiskLow,
			})
		}
	}
	summary.Insertions = []string{"HCL/Terraform configuration"}
	if len(summary.Symbols) > 0 {
		summary.Symbol = summary.Symbols[0].Name
		summary.SymbolKind = summary.Symbols[0].Kind
	}
	return summary, nil
}
