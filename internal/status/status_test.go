package status

import "testing"

func TestSequenceHasElevenStages(t *testing.T) {
	if len(Sequence) != 11 {
		t.Fatalf("Sequence has %d stages, want 11", len(Sequence))
	}
	if Sequence[0].Slug != Created {
		t.Errorf("first stage = %s, want %s", Sequence[0].Slug, Created)
	}
	if Sequence[len(Sequence)-1].Slug != Closed {
		t.Errorf("last stage = %s, want %s", Sequence[len(Sequence)-1].Slug, Closed)
	}
	seen := map[string]bool{}
	for _, s := range Sequence {
		if seen[s.Slug] {
			t.Errorf("duplicate slug %s", s.Slug)
		}
		seen[s.Slug] = true
		if s.Label == "" || s.Description == "" || s.Icon == "" {
			t.Errorf("stage %s missing display metadata", s.Slug)
		}
	}
}

func TestStepStateMatrix(t *testing.T) {
	for si, stage := range Sequence {
		for ci, current := range Sequence {
			got := StepStateFor(stage.Slug, current.Slug)
			var want StepState
			switch {
			case si < ci:
				want = StepCompleted
			case si == ci:
				want = StepActive
			default:
				want = StepPending
			}
			if got != want {
				t.Errorf("StepStateFor(%s, %s) = %s, want %s", stage.Slug, current.Slug, got, want)
			}
		}
	}
}

func TestStepStateUnmappedCurrent(t *testing.T) {
	for _, current := range []string{"", "garbage", "blocked", "frozen"} {
		for _, stage := range Sequence {
			if got := StepStateFor(stage.Slug, current); got != StepUnmapped {
				t.Errorf("StepStateFor(%s, %q) = %s, want unmapped", stage.Slug, current, got)
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"canonical", "created", Created, true},
		{"uppercase", "CLOSED", Closed, true},
		{"whitespace", "  paid  ", Paid, true},
		{"legacy new", "new", Created, true},
		{"legacy on_way", "on_way", OnTheWay, true},
		{"legacy onway", "onway", OnTheWay, true},
		{"legacy done", "done", Completed, true},
		{"legacy payment_blocked", "payment_blocked", Paid, true},
		{"unknown", "frozen", "frozen", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Normalize(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIndex(t *testing.T) {
	if Index(Created) != 0 {
		t.Errorf("Index(created) = %d, want 0", Index(Created))
	}
	if Index(Closed) != 10 {
		t.Errorf("Index(closed) = %d, want 10", Index(Closed))
	}
	if Index("nope") != -1 {
		t.Errorf("Index(nope) = %d, want -1", Index("nope"))
	}
}
