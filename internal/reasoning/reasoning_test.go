package reasoning

import "testing"

func TestSplit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want Parts
	}{
		{"plain", "Hello world", Parts{Content: "Hello world"}},
		{"closed block", "<think>internal</think>\nHello", Parts{Content: "Hello", Reasoning: "internal"}},
		{"unclosed block", "<think>internal only", Parts{Reasoning: "internal only"}},
		{"interleaved", "A<think>r1</think>B<think>r2</think>C", Parts{Content: "ABC", Reasoning: "r1r2"}},
		{"upper case tags", "<THINK>x</THINK>y", Parts{Content: "y", Reasoning: "x"}},
		{"opened by template", "step one\n</think>\n\nAnswer", Parts{Content: "Answer", Reasoning: "step one"}},
		{"opened by template then block", "a</think>b<think>c</think>d", Parts{Content: "bd", Reasoning: "ac"}},
		{"empty", "", Parts{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Split(tc.in); got != tc.want {
				t.Fatalf("Split(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}
