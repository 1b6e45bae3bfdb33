package sqliteexport

import "testing"

func TestParseLineRange_Range(t *testing.T) {
	start, end := parseLineRange("45-89")
	if start == nil || end == nil || *start != 45 || *end != 89 {
		t.Fatalf("expected (45, 89), got (%v, %v)", start, end)
	}
}

func TestParseLineRange_SingleNumber(t *testing.T) {
	start, end := parseLineRange("12")
	if start == nil || end == nil || *start != 12 || *end != 12 {
		t.Fatalf("expected (12, 12), got (%v, %v)", start, end)
	}
}

func TestParseLineRange_Empty(t *testing.T) {
	start, end := parseLineRange("")
	if start != nil || end != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", start, end)
	}
}

func TestParseLineRange_Malformed(t *testing.T) {
	start, end := parseLineRange("not-a-range")
	if start != nil || end != nil {
		t.Fatalf("expected (nil, nil) for malformed input, got (%v, %v)", start, end)
	}
}

func TestBatchSizeClamping(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{50, minBatchSize},
		{100, 100},
		{5000, 5000},
		{50000, 50000},
		{100000, maxBatchSize},
	}
	for _, c := range cases {
		if got := clampBatchSize(c.in); got != c.want {
			t.Errorf("clampBatchSize(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestDecodeCalleeToken(t *testing.T) {
	cases := []struct {
		token, wantCallee, wantKind string
	}{
		{"abc123", "abc123", "call"},
		{"abc123:await", "abc123", "await"},
		{"abc123:try", "abc123", "try"},
		{"ext:fmt:Println:await", "ext:fmt:Println", "await"},
	}
	for _, c := range cases {
		callee, kind := decodeCalleeToken(c.token)
		if callee != c.wantCallee || kind != c.wantKind {
			t.Errorf("decodeCalleeToken(%q) = (%q, %q), want (%q, %q)", c.token, callee, kind, c.wantCallee, c.wantKind)
		}
	}
}

func TestExternalToken(t *testing.T) {
	pkg, name, ok := externalToken("ext:fmt:Println")
	if !ok || pkg != "fmt" || name != "Println" {
		t.Errorf("expected (fmt, Println, true), got (%q, %q, %v)", pkg, name, ok)
	}

	pkg, name, ok = externalToken("ext:println")
	if !ok || pkg != "" || name != "println" {
		t.Errorf("expected (\"\", println, true), got (%q, %q, %v)", pkg, name, ok)
	}

	_, _, ok = externalToken("localhash")
	if ok {
		t.Error("expected localhash to not be an external token")
	}
}

func TestInBatches_CoversEveryItem(t *testing.T) {
	var seen []int
	err := inBatches(3, 10, func(start, end int) error {
		for i := start; i < end; i++ {
			seen = append(seen, i)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 10 {
		t.Fatalf("expected 10 items visited, got %d", len(seen))
	}
	for i, v := range seen {
		if v != i {
			t.Fatalf("expected sequential indices, got %v", seen)
		}
	}
}
