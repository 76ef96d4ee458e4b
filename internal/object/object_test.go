package object

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseActor(t *testing.T) {
	for in, want := range map[string]Actor{
		"Alice <alice@example.com>":      {Name: "Alice", Email: "alice@example.com"},
		"  Bob Jones  <bob@example.com>": {Name: "Bob Jones", Email: "bob@example.com"},
		"<anon@example.com>":             {Email: "anon@example.com"},
		"Just A Name":                    {Name: "Just A Name"},
		"":                               {},
	} {
		if got := ParseActor(in); got != want {
			t.Errorf("ParseActor(%q) = %+v, want %+v", in, got, want)
		}
	}
}

func TestActorString(t *testing.T) {
	for _, tt := range []struct {
		actor Actor
		want  string
	}{
		{Actor{Name: "Alice", Email: "alice@example.com"}, "Alice <alice@example.com>"},
		{Actor{Name: "Alice"}, "Alice"},
		{Actor{Email: "a@b"}, "<a@b>"},
	} {
		if got := tt.actor.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseTreeEntry(t *testing.T) {
	e, err := ParseTreeEntry("100644 blob 309fdb99e87a82643ef13c71c7ee1d8d28c91fa2      12\tdir/a b.txt")
	if err != nil {
		t.Fatalf("ParseTreeEntry() = %v", err)
	}
	want := TreeEntry{
		Mode: "100644",
		Type: TypeBlob,
		ID:   "309fdb99e87a82643ef13c71c7ee1d8d28c91fa2",
		Size: 12,
		Name: "dir/a b.txt",
	}
	if diff := cmp.Diff(want, e); diff != "" {
		t.Errorf("ParseTreeEntry() mismatch (-want +got):\n%s", diff)
	}

	e, err = ParseTreeEntry("040000 tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904       -\tdir")
	if err != nil {
		t.Fatalf("ParseTreeEntry() = %v", err)
	}
	if e.Type != TypeTree || e.Size != -1 {
		t.Errorf("tree entry = %s size %d, want tree size -1", e.Type, e.Size)
	}

	for _, bad := range []string{
		"",
		"100644 blob 309fdb99e87a82643ef13c71c7ee1d8d28c91fa2 12",
		"100644 blob nothex 12\ta",
		"100644 blob 309fdb99e87a82643ef13c71c7ee1d8d28c91fa2 twelve\ta",
		"100644 309fdb99e87a82643ef13c71c7ee1d8d28c91fa2 12\ta",
	} {
		if _, err := ParseTreeEntry(bad); err == nil {
			t.Errorf("ParseTreeEntry(%q) succeeded, want error", bad)
		}
	}
}

func TestIsID(t *testing.T) {
	for id, want := range map[string]bool{
		"309fdb99e87a82643ef13c71c7ee1d8d28c91fa2": true,
		"309FDB99E87A82643EF13C71C7EE1D8D28C91FA2": true,
		"309fdb9": false,
		"zzzfdb99e87a82643ef13c71c7ee1d8d28c91fa2": false,
	} {
		if got := IsID(id); got != want {
			t.Errorf("IsID(%q) = %v, want %v", id, got, want)
		}
	}
	if !SameID("abc", "ABC") {
		t.Error("SameID is case sensitive")
	}
}
