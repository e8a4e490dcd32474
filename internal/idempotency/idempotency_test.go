package idempotency

import "testing"

func TestKeyIsDeterministic(t *testing.T) {
	a := Key("secret", "tenant-1", "sess-1", "room-1", "2026-02-13", "2026-02-15", "John Smith")
	b := Key("secret", "tenant-1", "sess-1", "room-1", "2026-02-13", "2026-02-15", "John Smith")
	if a != b {
		t.Errorf("Key() not deterministic: %q != %q", a, b)
	}
}

func TestKeyIsCaseInsensitiveOnGuestName(t *testing.T) {
	a := Key("secret", "tenant-1", "sess-1", "room-1", "2026-02-13", "2026-02-15", "John Smith")
	b := Key("secret", "tenant-1", "sess-1", "room-1", "2026-02-13", "2026-02-15", "  JOHN SMITH  ")
	if a != b {
		t.Errorf("Key() should be case/whitespace-insensitive on guest name: %q != %q", a, b)
	}
}

func TestKeyDiffersOnAnyFieldChange(t *testing.T) {
	base := Key("secret", "tenant-1", "sess-1", "room-1", "2026-02-13", "2026-02-15", "John Smith")
	variants := []string{
		Key("secret", "tenant-2", "sess-1", "room-1", "2026-02-13", "2026-02-15", "John Smith"),
		Key("secret", "tenant-1", "sess-2", "room-1", "2026-02-13", "2026-02-15", "John Smith"),
		Key("secret", "tenant-1", "sess-1", "room-2", "2026-02-13", "2026-02-15", "John Smith"),
		Key("secret", "tenant-1", "sess-1", "room-1", "2026-02-14", "2026-02-15", "John Smith"),
		Key("secret", "tenant-1", "sess-1", "room-1", "2026-02-13", "2026-02-16", "John Smith"),
		Key("secret", "tenant-1", "sess-1", "room-1", "2026-02-13", "2026-02-15", "Jane Doe"),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base key", i)
		}
	}
}
