package drift

import (
	"context"
	"testing"
)

type stubGit struct {
	changed []string
	all     []string
	err     error
}

func (s stubGit) GetChangedFiles(ctx context.Context, baseRef, headRef string) ([]string, error) {
	return s.changed, s.err
}

func (s stubGit) ListAllFiles(ctx context.Context) ([]string, error) {
	return s.all, nil
}

func names(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "f"
	}
	return out
}

func TestCheck_NoChanges_Fresh(t *testing.T) {
	d := NewDetector(stubGit{all: names(100)})
	status, err := d.Check(context.Background(), "main", "HEAD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Strategy != Fresh {
		t.Errorf("expected Fresh, got %v", status.Strategy)
	}
}

func TestCheck_FewFiles_Incremental(t *testing.T) {
	d := NewDetector(stubGit{changed: names(5), all: names(1000)})
	status, err := d.Check(context.Background(), "main", "HEAD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Strategy != Incremental {
		t.Errorf("expected Incremental, got %v", status.Strategy)
	}
}

func TestCheck_ModeratePercentage_Rebase(t *testing.T) {
	d := NewDetector(stubGit{changed: names(15), all: names(100)})
	status, err := d.Check(context.Background(), "main", "HEAD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Strategy != Rebase {
		t.Errorf("expected Rebase, got %v", status.Strategy)
	}
}

func TestCheck_HighPercentage_FullRebuild(t *testing.T) {
	d := NewDetector(stubGit{changed: names(40), all: names(100)})
	status, err := d.Check(context.Background(), "main", "HEAD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Strategy != FullRebuild {
		t.Errorf("expected FullRebuild, got %v", status.Strategy)
	}
}

func TestClassify_BoundaryAt30Percent(t *testing.T) {
	if got := classify(30, 100); got != FullRebuild {
		t.Errorf("expected FullRebuild at exactly 30%%, got %v", got)
	}
	if got := classify(29, 100); got != Rebase {
		t.Errorf("expected Rebase just under 30%%, got %v", got)
	}
}

func TestClassify_BoundaryAt10Files(t *testing.T) {
	if got := classify(9, 1000); got != Incremental {
		t.Errorf("expected Incremental at 9 files, got %v", got)
	}
	if got := classify(10, 1000); got == Incremental {
		t.Errorf("expected non-Incremental at 10 files, got %v", got)
	}
}

func TestUpdateStrategy_String(t *testing.T) {
	cases := map[UpdateStrategy]string{
		Fresh: "Fresh", Incremental: "Incremental", Rebase: "Rebase", FullRebuild: "FullRebuild",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
