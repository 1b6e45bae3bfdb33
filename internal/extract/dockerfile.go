package extract

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/lci/internal/semtypes"
)

// extractDockerfile extracts semantic information from a Dockerfile using
// text-based parsing (§4.1/§9: Dockerfiles carry no tree-sitter grammar).
// Each instruction yields a symbol; security-relevant patterns are recorded
// as "Security: ..." insertions.
func extractDockerfile(path string, source []byte) (*semtypes.SemanticSummary, error) {
	summary := &semtypes.SemanticSummary{File: path, Language: "dockerfile"}

	hasUserDirective := false
	var securityIssues []string
	lineNum := 0

	for _, line := range strings.Split(preprocessContinuations(string(source)), "\n") {
		lineNum++
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		instruction, args, ok := parseDockerInstruction(trimmed)
		if !ok {
			continue
		}

		switch strings.ToUpper(instruction) {
		case "FROM":
			image := firstField(args)
			image = firstField(image)
			summary.Symbols = append(summary.Symbols, dockerSymbol("FROM "+image, semtypes.SymbolModule, lineNum))
			if summary.Symbol == "" {
				summary.Symbol = "Dockerfile:" + image
			}
			summary.AddedDependencies = append(summary.AddedDependencies, "image:"+image)
			if strings.HasSuffix(image, ":latest") || !strings.Contains(image, ":") {
				securityIssues = append(securityIssues, "Unpinned image tag: "+image)
			}

		case "RUN":
			truncated := truncateDockerfile(args, 50)
			summary.Symbols = append(summary.Symbols, dockerSymbol("RUN "+truncated, semtypes.SymbolFunction, lineNum))
			extractShellCommands(summary, args)
			lower := strings.ToLower(args)
			if strings.Contains(lower, "curl") && (strings.Contains(lower, "| sh") || strings.Contains(lower, "| bash")) {
				securityIssues = append(securityIssues, "curl piped to shell - potential code injection")
			}
			if strings.Contains(lower, "chmod 777") {
				securityIssues = append(securityIssues, "chmod 777 - overly permissive")
			}
			if strings.Contains(lower, "sudo") {
				securityIssues = append(securityIssues, "sudo usage in container")
			}

		case "ENV":
			pairs := parseEnvArgs(args)
			for _, pair := range pairs {
				summary.StateChanges = append(summary.StateChanges, semtypes.StateChange{Name: pair, StateType: "env"})
				lower := strings.ToLower(pair)
				if strings.Contains(lower, "password") || strings.Contains(lower, "secret") ||
					strings.Contains(lower, "api_key") || strings.Contains(lower, "token") {
					securityIssues = append(securityIssues, "Potential secret in ENV: "+beforeEquals(pair))
				}
			}
			summary.Symbols = append(summary.Symbols, dockerSymbol("ENV "+strings.Join(pairs, ", "), semtypes.SymbolFunction, lineNum))

		case "ARG":
			summary.StateChanges = append(summary.StateChanges, semtypes.StateChange{Name: args, StateType: "arg"})
			summary.Symbols = append(summary.Symbols, dockerSymbol("ARG "+args, semtypes.SymbolFunction, lineNum))
			if strings.Contains(args, "=") {
				lower := strings.ToLower(args)
				if strings.Contains(lower, "password") || strings.Contains(lower, "secret") || strings.Contains(lower, "token") {
					securityIssues = append(securityIssues, "Potential secret in ARG default: "+beforeEquals(args))
				}
			}

		case "EXPOSE":
			ports := strings.Fields(args)
			for _, port := range ports {
				summary.StateChanges = append(summary.StateChanges, semtypes.StateChange{Name: "port:" + port, StateType: "expose"})
			}
			summary.Symbols = append(summary.Symbols, dockerSymbol("EXPOSE "+strings.Join(ports, " "), semtypes.SymbolFunction, lineNum))

		case "USER":
			hasUserDirective = true
			user := strings.SplitN(args, ":", 2)[0]
			summary.StateChanges = append(summary.StateChanges, semtypes.StateChange{Name: "user:" + user, StateType: "user"})
			summary.Symbols = append(summary.Symbols, dockerSymbol("USER "+user, semtypes.SymbolFunction, lineNum))
			if user == "root" || user == "0" {
				securityIssues = append(securityIssues, "Explicit USER root")
			}

		case "COPY":
			summary.Symbols = append(summary.Symbols, dockerSymbol("COPY", semtypes.SymbolFunction, lineNum))

		case "ADD":
			summary.Symbols = append(summary.Symbols, dockerSymbol("ADD", semtypes.SymbolFunction, lineNum))
			summary.Insertions = append(summary.Insertions, "ADD: consider using COPY instead")
			if strings.Contains(args, "http://") || strings.Contains(args, "https://") {
				securityIssues = append(securityIssues, "ADD with URL - consider using curl + verification")
			}

		case "WORKDIR":
			summary.StateChanges = append(summary.StateChanges, semtypes.StateChange{Name: "workdir:" + args, StateType: "workdir"})
			summary.Symbols = append(summary.Symbols, dockerSymbol("WORKDIR "+args, semtypes.SymbolFunction, lineNum))

		case "ENTRYPOINT", "CMD":
			name := fmt.Sprintf("%s %s", strings.ToUpper(instruction), truncateDockerfile(args, 30))
			summary.Symbols = append(summary.Symbols, dockerSymbol(name, semtypes.SymbolFunction, lineNum))

		case "LABEL", "MAINTAINER", "VOLUME", "HEALTHCHECK", "SHELL", "STOPSIGNAL", "ONBUILD":
			summary.Symbols = append(summary.Symbols, dockerSymbol(strings.ToUpper(instruction), semtypes.SymbolFunction, lineNum))
		}
	}

	if !hasUserDirective && len(summary.Symbols) > 0 {
		securityIssues = append(securityIssues, "No USER directive - container runs as root")
	}
	for _, issue := range securityIssues {
		summary.Insertions = append(summary.Insertions, "Security: "+issue)
	}

	summary.ExtractionComplete = len(summary.Symbols) > 0
	if len(summary.Symbols) > 0 {
		first, last := summary.Symbols[0], summary.Symbols[len(summary.Symbols)-1]
		start, end := first.StartLine, last.EndLine
		summary.StartLine = &start
		summary.EndLine = &end
		summary.PublicSurfaceChanged = true
		summary.SymbolKind = first.Kind
	}

	return summary, nil
}

func dockerSymbol(name string, kind semtypes.SymbolKind, line int) semtypes.SymbolInfo {
	return semtypes.SymbolInfo{Name: name, Kind: kind, StartLine: line, EndLine: line, BehavioralRisk: semtypes.RiskLow}
}

func preprocessContinuations(source string) string {
	var result strings.Builder
	var continuation strings.Builder
	for _, line := range strings.Split(source, "\n") {
		if continuation.Len() > 0 {
			line = strings.TrimLeft(line, " \t")
		}
		trimmedEnd := strings.TrimRight(line, " \t\r")
		if strings.HasSuffix(trimmedEnd, "\\") {
			continuation.WriteString(strings.TrimRight(strings.TrimSuffix(trimmedEnd, "\\"), " \t"))
			continuation.WriteString(" ")
		} else {
			continuation.WriteString(line)
			result.WriteString(continuation.String())
			result.WriteString("\n")
			continuation.Reset()
		}
	}
	if continuation.Len() > 0 {
		result.WriteString(continuation.String())
	}
	return result.String()
}

func parseDockerInstruction(line string) (instruction, args string, ok bool) {
	trimmed := strings.TrimSpace(line)
	idx := strings.IndexFunc(trimmed, func(r rune) bool { return r == ' ' || r == '\t' })
	if idx < 0 {
		return trimmed, "", true
	}
	return trimmed[:idx], strings.TrimSpace(trimmed[idx:]), true
}

func parseEnvArgs(args string) []string {
	var pairs []string
	if strings.Contains(args, "=") {
		for _, part := range strings.Fields(args) {
			if strings.Contains(part, "=") {
				pairs = append(pairs, part)
			}
		}
	} else {
		parts := strings.SplitN(args, " ", 2)
		if len(parts) > 0 && parts[0] != "" {
			pairs = append(pairs, strings.Join(parts, "="))
		}
	}
	return pairs
}

var shellBuiltinSkip = map[string]bool{"[": true, "test": true, "true": true, "false": true, "echo": true}

func extractShellCommands(summary *semtypes.SemanticSummary, cmd string) {
	for _, part := range splitAny(cmd, "&&", ";", "|") {
		trimmed := strings.TrimSpace(part)
		fields := strings.Fields(trimmed)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if shellBuiltinSkip[name] {
			continue
		}
		summary.Calls = append(summary.Calls, semtypes.Call{Name: name, Object: "shell"})
	}
}

func splitAny(s string, seps ...string) []string {
	parts := []string{s}
	for _, sep := range seps {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}
	return parts
}

func truncateDockerfile(s string, maxLen int) string {
	if len(s) > maxLen {
		cut := maxLen - 3
		if cut < 0 {
			cut = 0
		}
		return s[:cut] + "..."
	}
	return s
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	return fields[0]
}

func beforeEquals(s string) string {
	if idx := strings.Index(s, "="); idx >= 0 {
		return s[:idx]
	}
	return s
}
