package scan

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Command
	}{
		{input: "USR0001", want: Command{Kind: CommandUser, Code: "usr0001", Raw: "usr0001"}},
		{input: "usr", want: Command{Kind: CommandUser, Code: "usr", Raw: "usr"}},
		{input: "Tool0042", want: Command{Kind: CommandTool, Code: "tool0042", Raw: "tool0042"}},
		{input: "dur3", want: Command{Kind: CommandDuration, Days: 3, Raw: "dur3"}},
		{input: "DUR14", want: Command{Kind: CommandDuration, Days: 14, Raw: "dur14"}},
		{input: "durx", want: Command{Kind: CommandUnknown, Raw: "durx"}},
		{input: "dur0", want: Command{Kind: CommandUnknown, Raw: "dur0"}},
		{input: "dur", want: Command{Kind: CommandUnknown, Raw: "dur"}},
		{input: "CANCEL", want: Command{Kind: CommandCancel, Raw: "cancel"}},
		{input: "cancel-now", want: Command{Kind: CommandUnknown, Raw: "cancel-now"}},
		{input: "reload", want: Command{Kind: CommandReload, Raw: "reload"}},
		{input: "Return", want: Command{Kind: CommandReturn, Raw: "return"}},
		{input: "returns", want: Command{Kind: CommandUnknown, Raw: "returns"}},
		{input: "hello", want: Command{Kind: CommandUnknown, Raw: "hello"}},
		{input: "", want: Command{Kind: CommandUnknown, Raw: ""}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tc.input); got != tc.want {
				t.Fatalf("Classify(%q) = %+v, want %+v", tc.input, got, tc.want)
			}
		})
	}
}

func TestCommandKindString(t *testing.T) {
	t.Parallel()

	if CommandDuration.String() != "duration" {
		t.Fatalf("unexpected name %q", CommandDuration.String())
	}
	if CommandKind(99).String() != "unknown" {
		t.Fatalf("expected unknown for out-of-range kind")
	}
}
