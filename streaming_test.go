package llmprovider

import "testing"

func TestAccumulator_GrowsMonotonically(t *testing.T) {
	var acc Accumulator

	steps := []struct {
		delta string
		want  string
	}{
		{"A", "A"},
		{"", "A"},
		{"B", "AB"},
		{"中文", "AB中文"},
	}

	prevLen := 0
	for _, step := range steps {
		got := acc.Append(step.delta)
		if got != step.want {
			t.Errorf("Append(%q) = %q, want %q", step.delta, got, step.want)
		}
		if len(got) < prevLen {
			t.Errorf("accumulator shrank from %d to %d", prevLen, len(got))
		}
		prevLen = len(got)
	}

	if acc.Deltas() != len(steps) {
		t.Errorf("Deltas() = %d, want %d", acc.Deltas(), len(steps))
	}
	if acc.String() != "AB中文" || acc.Len() != len("AB中文") {
		t.Errorf("unexpected final state %q (%d)", acc.String(), acc.Len())
	}
}

func TestFrameKind_String(t *testing.T) {
	tests := []struct {
		kind FrameKind
		want string
	}{
		{FrameContentDelta, "content_delta"},
		{FrameDone, "done"},
		{FrameMalformed, "malformed"},
		{FrameHeartbeat, "heartbeat"},
		{FrameKind(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("FrameKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestParseProviderID(t *testing.T) {
	tests := []struct {
		input   string
		want    ProviderID
		wantErr bool
	}{
		{"openai_compatible", ProviderOpenAICompatible, false},
		{"openai", ProviderOpenAICompatible, false},
		{"openrouter", ProviderOpenRouter, false},
		{"anthropic", ProviderAnthropic, false},
		{"lorem", ProviderLorem, false},
		{"gemini", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseProviderID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseProviderID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseProviderID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
