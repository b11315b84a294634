package gc

import "testing"

func TestColorTransitions(t *testing.T) {
	h := &Header{Tag: TagTable, marked: bitWhite0}
	if !h.isWhite() {
		t.Fatal("fresh header should be white")
	}
	if h.isBlack() || h.isGray() {
		t.Fatal("fresh header should not be black or gray")
	}

	h.makeGray()
	if !h.isGray() {
		t.Fatal("expected gray after makeGray")
	}
	if h.isWhite() || h.isBlack() {
		t.Fatal("gray must not also read as white or black")
	}

	h.makeBlack()
	if !h.isBlack() {
		t.Fatal("expected black after makeBlack")
	}

	h.makeWhite(bitWhite1)
	if !h.isWhiteShade(bitWhite1) {
		t.Fatal("expected white1 shade after makeWhite(bitWhite1)")
	}
	if h.isWhiteShade(bitWhite0) {
		t.Fatal("should not carry the other white shade")
	}
}

func TestOtherWhite(t *testing.T) {
	if otherWhite(bitWhite0) != bitWhite1 {
		t.Fatal("otherWhite(white0) should be white1")
	}
	if otherWhite(bitWhite1) != bitWhite0 {
		t.Fatal("otherWhite(white1) should be white0")
	}
}

func TestAgeRoundTrip(t *testing.T) {
	h := &Header{}
	for _, a := range []Age{AgeNew, AgeSurvival, AgeOld0, AgeOld1, AgeOld, AgeTouched1, AgeTouched2} {
		h.setAge(a)
		if h.age() != a {
			t.Fatalf("age roundtrip failed: set %v, got %v", a, h.age())
		}
	}
}

func TestFinalizedBitIndependentOfColor(t *testing.T) {
	h := &Header{marked: bitWhite0}
	h.setFinalized(true)
	if !h.isFinalized() {
		t.Fatal("expected finalized bit set")
	}
	if !h.isWhite() {
		t.Fatal("finalized bit must not disturb color")
	}
	h.makeBlack()
	if !h.isFinalized() {
		t.Fatal("color change must not clear finalized bit")
	}
	h.setFinalized(false)
	if h.isFinalized() {
		t.Fatal("expected finalized bit cleared")
	}
}

func TestTagString(t *testing.T) {
	cases := map[Tag]string{
		TagShortString: "short-string",
		TagTable:       "table",
		TagThread:      "thread",
	}
	for tag, want := range cases {
		if got := tag.String(); got != want {
			t.Errorf("Tag(%d).String() = %q, want %q", tag, got, want)
		}
	}
}
