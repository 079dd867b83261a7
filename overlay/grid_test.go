package overlay

import "testing"

func TestSpacingIsPowerOfTenWithAtLeastTenLines(t *testing.T) {
	cases := []float64{1000, 50000, 7, 123456789}
	for _, span := range cases {
		sp := Spacing(span)
		lines := span / sp
		if lines < 10 {
			t.Errorf("Spacing(%v) = %v yields %v lines, want >= 10", span, sp, lines)
		}
		if lines >= 100 {
			t.Errorf("Spacing(%v) = %v yields %v lines, want < 100 (next power of 10 should win)", span, sp, lines)
		}
	}
}

func TestSpacingNonPositiveSpanReturnsOne(t *testing.T) {
	if got := Spacing(0); got != 1 {
		t.Errorf("Spacing(0) = %v, want 1", got)
	}
	if got := Spacing(-5); got != 1 {
		t.Errorf("Spacing(-5) = %v, want 1", got)
	}
}

func TestLinesCoversRangeAtSpacing(t *testing.T) {
	lines := Lines(-25, 25, 10)
	want := []float64{-20, -10, 0, 10, 20}
	if len(lines) != len(want) {
		t.Fatalf("Lines = %+v, want %v entries", lines, len(want))
	}
	for i, l := range lines {
		if l.Position != want[i] {
			t.Errorf("Lines[%d].Position = %v, want %v", i, l.Position, want[i])
		}
	}
}

func TestLinesFlagsZeroCrossingAsMajor(t *testing.T) {
	lines := Lines(-25, 25, 10)
	for _, l := range lines {
		if l.Position == 0 && !l.Major {
			t.Error("gridline at 0 should be flagged Major")
		}
		if l.Position != 0 && l.Major {
			t.Errorf("gridline at %v should not be flagged Major", l.Position)
		}
	}
}

func TestLinesZeroSpacingReturnsNil(t *testing.T) {
	if lines := Lines(0, 100, 0); lines != nil {
		t.Errorf("Lines with zero spacing = %+v, want nil", lines)
	}
}
