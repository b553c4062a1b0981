package transcript

import "testing"

func TestClean(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses whitespace runs",
			in:   "so   the  thing\n\nis",
			want: "so the thing is",
		},
		{
			name: "strips bracketed artifacts",
			in:   "welcome [Music] to the show [Applause]",
			want: "welcome to the show",
		},
		{
			name: "strips parenthesized artifacts",
			in:   "and then (inaudible) we left",
			want: "and then we left",
		},
		{
			name: "repairs space before punctuation",
			in:   "that was it .",
			want: "that was it.",
		},
		{
			name: "inserts gap between run-together sentences",
			in:   "it ended.Then we began",
			want: "it ended. Then we began",
		},
		{
			name: "artifact-only input cleans to empty",
			in:   "[Music] (applause)",
			want: "",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clean(tc.in); got != tc.want {
				t.Errorf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCleanSegments_DropsEmptiedSegments(t *testing.T) {
	in := []segmentText{
		{Start: 0, Dur: 2, Text: "first line"},
		{Start: 2, Dur: 1, Text: "[Music]"},
		{Start: 3, Dur: 2, Text: "second  line"},
	}

	out := cleanSegments(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(out))
	}
	if out[0].Text != "first line" || out[1].Text != "second line" {
		t.Fatalf("unexpected cleaned segments: %+v", out)
	}
	if out[1].Start != 3 {
		t.Fatalf("segment timing must survive cleaning, got start %v", out[1].Start)
	}
}
