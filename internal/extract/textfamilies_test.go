package extract

import (
	"testing"

	"github.com/standardbeagle/lci/internal/langdispatch"
)

func TestMarkupExtractor_Labels(t *testing.T) {
	summary, err := markupExtractor{}.Extract("index.html", nil, nil, langdispatch.Html)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Insertions) != 1 || summary.Insertions[0] != "HTML document" {
		t.Errorf("expected HTML document insertion, got %v", summary.Insertions)
	}
	if len(summary.Symbols) != 0 {
		t.Errorf("expected no symbols from markup, got %v", summary.Symbols)
	}
}

func TestConfigExtractor_JsonTopLevelKeys(t *testing.T) {
	src := []byte(`{
  "name": "app",
  "version": "1.0.0",
  "nested": {
    "ignored": true
  },
  "scripts": {}
}
`)
	summary, err := configExtractor{}.Extract("package.json", src, nil, langdispatch.Json)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]bool{"name": true, "version": true, "nested": true, "scripts": true}
	if len(summary.AddedDependencies) != len(want) {
		t.Fatalf("expected %d top-level keys, got %v", len(want), summary.AddedDependencies)
	}
	for _, k := range summary.AddedDependencies {
		if !want[k] {
			t.Errorf("unexpected key %q picked up from nested object", k)
		}
	}
}

func TestConfigExtractor_YamlTopLevelKeys(t *testing.T) {
	src := []byte("name: app\nversion: 1.0.0\nnested:\n  ignored: true\n")
	summary, err := configExtractor{}.Extract("config.yaml", src, nil, langdispatch.Yaml)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]bool{"name": true, "version": true, "nested": true}
	if len(summary.AddedDependencies) != len(want) {
		t.Fatalf("expected %d top-level keys, got %v", len(want), summary.AddedDependencies)
	}
}

func TestHclExtractor_Blocks(t *testing.T) {
	src := []byte(`resource "aws_instance" "web" {
  ami = "ami-123"
}

variable "region" {
  default = "us-east-1"
}
`)
	summary, err := hclExtractor{}.Extract("main.tf", src, nil, langdispatch.Hcl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Symbols) != 2 {
		t.Fatalf("expected 2 blocks, got %+v", summary.Symbols)
	}
	if summary.Symbols[0].Name != "web" || summary.Symbols[1].Name != "region" {
		t.Errorf("unexpected block names: %+v", summary.Symbols)
	}
}

func TestGradleExtractor_Dependencies(t *testing.T) {
	src := []byte(`dependencies {
    implementation("org.springframework:spring-core:5.3.0")
    testImplementation "junit:junit:4.13"
}
`)
	summary, err := gradleExtractor{}.Extract("build.gradle", src, nil, langdispatch.Gradle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]bool{
		"org.springframework:spring-core:5.3.0": true,
		"junit:junit:4.13":                      true,
	}
	if len(summary.AddedDependencies) != len(want) {
		t.Fatalf("expected %d dependencies, got %v", len(want), summary.AddedDependencies)
	}
	for _, d := range summary.AddedDependencies {
		if !want[d] {
			t.Errorf("unexpected dependency %q", d)
		}
	}
}

func TestShellExtractor_AssignmentsAndCommands(t *testing.T) {
	src := []byte("#!/bin/bash\nFOO=bar\ngit status\necho done\n")
	summary, err := shellExtractor{}.Extract("deploy.sh", src, nil, langdispatch.Bash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.StateChanges) != 1 || summary.StateChanges[0].Name != "FOO" {
		t.Errorf("expected FOO assignment recorded, got %v", summary.StateChanges)
	}
	foundGit := false
	for _, c := range summary.Calls {
		if c.Name == "git" {
			foundGit = true
		}
	}
	if !foundGit {
		t.Errorf("expected git command call recorded, got %v", summary.Calls)
	}
}
