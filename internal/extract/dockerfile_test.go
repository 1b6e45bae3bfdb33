package extract

import (
	"strings"
	"testing"
)

func TestExtractDockerfile_FromInstruction(t *testing.T) {
	src := "FROM golang:1.22\n"
	summary, err := extractDockerfile("Dockerfile", []byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Symbols) != 1 {
		t.Fatalf("expected 1 symbol, got %d", len(summary.Symbols))
	}
	if summary.Symbols[0].Name != "FROM golang:1.22" {
		t.Errorf("unexpected symbol name: %s", summary.Symbols[0].Name)
	}
	if summary.Symbol != "Dockerfile:golang:1.22" {
		t.Errorf("unexpected primary symbol: %s", summary.Symbol)
	}
	found := false
	for _, dep := range summary.AddedDependencies {
		if dep == "image:golang:1.22" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected image dependency, got %v", summary.AddedDependencies)
	}
}

func TestExtractDockerfile_UnpinnedImageWarning(t *testing.T) {
	src := "FROM ubuntu:latest\nUSER app\n"
	summary, _ := extractDockerfile("Dockerfile", []byte(src))
	if !hasInsertionContaining(summary.Insertions, "Unpinned image tag") {
		t.Errorf("expected unpinned image warning, got %v", summary.Insertions)
	}
}

func TestExtractDockerfile_NoTagWarning(t *testing.T) {
	src := "FROM ubuntu\nUSER app\n"
	summary, _ := extractDockerfile("Dockerfile", []byte(src))
	if !hasInsertionContaining(summary.Insertions, "Unpinned image tag") {
		t.Errorf("expected unpinned image warning for untagged image, got %v", summary.Insertions)
	}
}

func TestExtractDockerfile_CurlPipeBashWarning(t *testing.T) {
	src := "FROM alpine\nRUN curl https://example.com/install.sh | bash\nUSER app\n"
	summary, _ := extractDockerfile("Dockerfile", []byte(src))
	if !hasInsertionContaining(summary.Insertions, "curl piped to shell") {
		t.Errorf("expected curl-pipe-bash warning, got %v", summary.Insertions)
	}
}

func TestExtractDockerfile_ChmodAndSudoWarnings(t *testing.T) {
	src := "FROM alpine\nRUN chmod 777 /app && sudo echo hi\nUSER app\n"
	summary, _ := extractDockerfile("Dockerfile", []byte(src))
	if !hasInsertionContaining(summary.Insertions, "chmod 777") {
		t.Errorf("expected chmod 777 warning, got %v", summary.Insertions)
	}
	if !hasInsertionContaining(summary.Insertions, "sudo usage") {
		t.Errorf("expected sudo warning, got %v", summary.Insertions)
	}
}

func TestExtractDockerfile_EnvSecretDetection(t *testing.T) {
	src := "FROM alpine\nENV API_TOKEN=abc123\nUSER app\n"
	summary, _ := extractDockerfile("Dockerfile", []byte(src))
	if !hasInsertionContaining(summary.Insertions, "Potential secret in ENV") {
		t.Errorf("expected secret ENV warning, got %v", summary.Insertions)
	}
	found := false
	for _, sc := range summary.StateChanges {
		if sc.StateType == "env" && sc.Name == "API_TOKEN=abc123" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected env state change, got %v", summary.StateChanges)
	}
}

func TestExtractDockerfile_ArgSecretDetection(t *testing.T) {
	src := "FROM alpine\nARG DB_PASSWORD=hunter2\nUSER app\n"
	summary, _ := extractDockerfile("Dockerfile", []byte(src))
	if !hasInsertionContaining(summary.Insertions, "Potential secret in ARG default") {
		t.Errorf("expected secret ARG warning, got %v", summary.Insertions)
	}
}

func TestExtractDockerfile_MissingUserDirective(t *testing.T) {
	src := "FROM alpine\nRUN echo hi\n"
	summary, _ := extractDockerfile("Dockerfile", []byte(src))
	if !hasInsertionContaining(summary.Insertions, "No USER directive") {
		t.Errorf("expected missing-USER warning, got %v", summary.Insertions)
	}
}

func TestExtractDockerfile_UserDirectivePresent(t *testing.T) {
	src := "FROM alpine\nUSER app\n"
	summary, _ := extractDockerfile("Dockerfile", []byte(src))
	if hasInsertionContaining(summary.Insertions, "No USER directive") {
		t.Errorf("did not expect missing-USER warning, got %v", summary.Insertions)
	}
}

func TestExtractDockerfile_UserRootWarning(t *testing.T) {
	src := "FROM alpine\nUSER root\n"
	summary, _ := extractDockerfile("Dockerfile", []byte(src))
	if !hasInsertionContaining(summary.Insertions, "Explicit USER root") {
		t.Errorf("expected explicit root warning, got %v", summary.Insertions)
	}
}

func TestExtractDockerfile_AddWarning(t *testing.T) {
	src := "FROM alpine\nADD https://example.com/file.tar.gz /app/\nUSER app\n"
	summary, _ := extractDockerfile("Dockerfile", []byte(src))
	if !hasInsertionContaining(summary.Insertions, "consider using COPY instead") {
		t.Errorf("expected ADD-prefers-COPY insertion, got %v", summary.Insertions)
	}
	if !hasInsertionContaining(summary.Insertions, "ADD with URL") {
		t.Errorf("expected ADD URL security warning, got %v", summary.Insertions)
	}
}

func TestExtractDockerfile_ShellCommandExtraction(t *testing.T) {
	src := "FROM alpine\nRUN apt-get update && apt-get install -y git\nUSER app\n"
	summary, _ := extractDockerfile("Dockerfile", []byte(src))
	names := map[string]bool{}
	for _, c := range summary.Calls {
		names[c.Name] = true
	}
	if !names["apt-get"] {
		t.Errorf("expected apt-get call, got %v", summary.Calls)
	}
}

func TestExtractDockerfile_MultilineContinuation(t *testing.T) {
	src := "FROM alpine\nRUN apt-get update && \\\n    apt-get install -y git\nUSER app\n"
	summary, _ := extractDockerfile("Dockerfile", []byte(src))
	found := false
	for _, s := range summary.Symbols {
		if strings.HasPrefix(s.Name, "RUN apt-get update && apt-get install") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected joined continuation line in RUN symbol, got %v", summary.Symbols)
	}
}

func TestExtractDockerfile_ExposePorts(t *testing.T) {
	src := "FROM alpine\nEXPOSE 8080 9090\nUSER app\n"
	summary, _ := extractDockerfile("Dockerfile", []byte(src))
	ports := map[string]bool{}
	for _, sc := range summary.StateChanges {
		if sc.StateType == "expose" {
			ports[sc.Name] = true
		}
	}
	if !ports["port:8080"] || !ports["port:9090"] {
		t.Errorf("expected both ports recorded, got %v", summary.StateChanges)
	}
}

func hasInsertionContaining(insertions []string, substr string) bool {
	for _, ins := range insertions {
		if strings.Contains(ins, substr) {
			return true
		}
	}
	return false
}
