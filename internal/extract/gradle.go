package extract

import (
	"bufio"
	"bytes"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/semtypes"
)

// gradleExtractor scans build.gradle(.kts) files for dependency
// declarations (implementation/api/testImplementation "group:artifact:ver").
// No Gradle/Groovy grammar is wired in this module, so this is a
// line-oriented scan, same shortcut as HCL and Dockerfile.
type gradleExtractor struct{}

var gradleDepConfigs = []string{
	"implementation", "api", "compileOnly", "runtimeOnly",
	"testImplementation", "testRuntimeOnly", "annotationProcessor", "classpath",
}

func (gradleExtractor) Extract(path string, source []byte, _ *sitter.Tree, _ langdispatch.Lang) (*semtypes.SemanticSummary, error) {
	summary := &semtypes.SemanticSummary{ExtractionComplete: true, Insertions: []string{"Gradle build script"}}
	scanner := bufio.NewScanner(bytes.NewReader(source))
	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		for _, cfg := range gradleDepConfigs {
			if !strings.HasPrefix(trimmed, cfg+"(") && !strings.HasPrefix(trimmed, cfg+" ") {
				continue
			}
			if dep, ok := extractQuoted(trimmed); ok {
				summary.AddedDependencies = append(summary.AddedDependencies, dep)
			}
		}
	}
	return summary, nil
}

func extractQuoted(s string) (string, bool) {
	start := strings.IndexAny(s, `"'`)
	if start < 0 {
		return "", false
	}
	quote := s[start]
	end := strings.IndexByte(s[start+1:], quote)
	if end < 0 {
		return "", false
	}
	return s[start+1 : start+1+end], true
}
