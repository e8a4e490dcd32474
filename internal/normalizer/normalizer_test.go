package normalizer

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  Hello   World  ", "hello world"},
		{"Book A Room!", "book a room"},
		{"  ", ""},
		{"ONE   adult,   please.", "one adult, please"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	in := "  Two Adults, February 13  "
	first := Normalize(in)
	for i := 0; i < 5; i++ {
		if got := Normalize(in); got != first {
			t.Fatalf("Normalize is not deterministic: call %d got %q, want %q", i, got, first)
		}
	}
}

func TestIsFiller(t *testing.T) {
	for _, tok := range []string{"uh", "um", "hmm", "huh", "ah", "oh"} {
		if !IsFiller(tok) {
			t.Errorf("IsFiller(%q) = false, want true", tok)
		}
	}
	if IsFiller("book a room") {
		t.Error("IsFiller(\"book a room\") = true, want false")
	}
	if IsFiller("uh huh") {
		t.Error("a two-token phrase containing filler words is not itself a filler token")
	}
}

func TestHasCommandKeyword(t *testing.T) {
	if !HasCommandKeyword(Normalize("yes please confirm")) {
		t.Error("expected command keyword match on \"confirm\"")
	}
	if !HasCommandKeyword(Normalize("what amenities do you have")) {
		t.Error("expected command keyword match on \"amenit\"")
	}
	if HasCommandKeyword(Normalize("the weather is nice today")) {
		t.Error("expected no command keyword match")
	}
}
