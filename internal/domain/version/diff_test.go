package version

import "testing"

func TestChecksumStable(t *testing.T) {
	a := Checksum([]byte("hello world\n"))
	b := Checksum([]byte("hello world\n"))
	if a != b {
		t.Error("checksum must be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if Checksum([]byte("hello world")) == a {
		t.Error("different content must not share a checksum")
	}
}

func TestDiffFirstVersion(t *testing.T) {
	got := Diff(nil, []byte("one\ntwo\nthree\n"))
	want := ChangesSummary{Additions: 3}
	if got != want {
		t.Errorf("Diff(nil, ...) = %+v, want %+v", got, want)
	}
}

func TestDiff(t *testing.T) {
	cases := []struct {
		name     string
		previous string
		current  string
		want     ChangesSummary
	}{
		{
			name:     "identical",
			previous: "a\nb\n",
			current:  "a\nb\n",
			want:     ChangesSummary{},
		},
		{
			name:     "pure additions",
			previous: "a\nb\n",
			current:  "a\nb\nc\nd\n",
			want:     ChangesSummary{Additions: 2},
		},
		{
			name:     "pure deletions",
			previous: "a\nb\nc\nd\n",
			current:  "a\nb\n",
			want:     ChangesSummary{Deletions: 2},
		},
		{
			name:     "changed line counts as modification",
			previous: "a\nb\nc\n",
			current:  "a\nB\nc\n",
			want:     ChangesSummary{Modifications: 1},
		},
		{
			name:     "replace shorter with longer",
			previous: "a\nx\nc\n",
			current:  "a\ny\nz\nc\n",
			want:     ChangesSummary{Additions: 1, Modifications: 1},
		},
		{
			name:     "everything replaced",
			previous: "old\n",
			current:  "new\n",
			want:     ChangesSummary{Modifications: 1},
		},
		{
			name:     "emptied out",
			previous: "a\nb\n",
			current:  "",
			want:     ChangesSummary{Deletions: 2},
		},
		{
			name:     "no trailing newline still counts",
			previous: "a\n",
			current:  "a\nb",
			want:     ChangesSummary{Additions: 1},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Diff([]byte(tc.previous), []byte(tc.current))
			if got != tc.want {
				t.Errorf("Diff = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestCountLines(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\nb\n", 2},
	}
	for _, tc := range cases {
		if got := countLines(tc.in); got != tc.want {
			t.Errorf("countLines(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
