package gc

import "testing"

func TestDefaultTuningMatchesDocumentedValues(t *testing.T) {
	d := DefaultTuning()
	if d.Pause != 250 || d.StepMul != 200 || d.MinorMul != 20 || d.MinorMajor != 70 || d.MajorMinor != 50 {
		t.Fatalf("unexpected tuning defaults: %+v", d)
	}
}

func TestOptionsApplyOverDefaults(t *testing.T) {
	c := New(WithPause(300), WithStepMul(150), WithMinorMul(30), WithSweepMax(5))
	if c.tuning.Pause != 300 || c.tuning.StepMul != 150 || c.tuning.MinorMul != 30 || c.tuning.SweepMax != 5 {
		t.Fatalf("options did not apply, got %+v", c.tuning)
	}
}

func TestWithModeSetsInitialMode(t *testing.T) {
	c := New(WithMode(ModeGenerationalMajor))
	if c.ModeOf() != ModeGenerationalMajor {
		t.Fatalf("expected initial mode GenerationalMajor, got %s", c.ModeOf())
	}
}

func TestModeString(t *testing.T) {
	cases := map[Mode]string{
		ModeIncremental:       "incremental",
		ModeGenerationalMinor: "generational-minor",
		ModeGenerationalMajor: "generational-major",
	}
	for m, want := range cases {
		if got := m.String(); got != want {
			t.Errorf("Mode(%d).String() = %q, want %q", m, got, want)
		}
	}
}
