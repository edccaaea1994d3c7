package identity

import "testing"

func TestFingerprintStable(t *testing.T) {
	content := "def foo():\n    return 1"

	a := Fingerprint(content)
	b := Fingerprint(content)
	if a != b {
		t.Errorf("fingerprint not stable: %q vs %q", a, b)
	}
	if len(a) != TokenLength {
		t.Errorf("fingerprint length = %d, want %d", len(a), TokenLength)
	}
}

func TestFingerprintDistinguishes(t *testing.T) {
	a := Fingerprint("hello world")
	b := Fingerprint("hello world!")
	if a == b {
		t.Errorf("distinct content produced identical fingerprints: %q", a)
	}
}

func TestFingerprintEmpty(t *testing.T) {
	got := Fingerprint("")
	if len(got) != TokenLength {
		t.Errorf("empty-content fingerprint length = %d, want %d", len(got), TokenLength)
	}
}

func TestFoldDigest(t *testing.T) {
	a := foldDigest("some content")
	b := foldDigest("some content")
	c := foldDigest("other content")

	if a != b {
		t.Errorf("fold digest not stable: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("fold digest collided for distinct inputs: %q", a)
	}
	if len(a) != TokenLength {
		t.Errorf("fold digest length = %d, want %d", len(a), TokenLength)
	}
}
