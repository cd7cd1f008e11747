package gcodeio

import "testing"

func TestRegisterAssignsSequentialIDs(t *testing.T) {
	r := NewCommandRegistry()
	id0 := r.Register("a", "", func(*[]byte) error { return nil })
	id1 := r.Register("b", "", func(*[]byte) error { return nil })

	if id0 != 0 || id1 != 1 {
		t.Fatalf("got ids %d, %d; want 0, 1", id0, id1)
	}
	if r.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", r.Count())
	}
}

func TestRegisterSameNameTwiceReturnsSameID(t *testing.T) {
	r := NewCommandRegistry()
	id0 := r.Register("a", "", func(*[]byte) error { return nil })
	id1 := r.Register("a", "", func(*[]byte) error { return nil })

	if id0 != id1 {
		t.Errorf("re-registering %q should return the same ID, got %d and %d", "a", id0, id1)
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestDispatchCallsHandler(t *testing.T) {
	r := NewCommandRegistry()
	called := false
	id := r.Register("a", "", func(*[]byte) error {
		called = true
		return nil
	})

	data := []byte{1, 2, 3}
	if err := r.Dispatch(id, &data); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !called {
		t.Errorf("expected handler to be called")
	}
}

func TestDispatchUnknownIDErrors(t *testing.T) {
	r := NewCommandRegistry()
	data := []byte{}
	if err := r.Dispatch(99, &data); err == nil {
		t.Errorf("expected error dispatching unknown command ID")
	}
}

func TestDictionaryListsRegisteredCommands(t *testing.T) {
	r := NewCommandRegistry()
	r.Register("foo", "arg%u", func(*[]byte) error { return nil })
	r.Register("bar", "", func(*[]byte) error { return nil })

	dict := r.Dictionary()
	if dict != "foo arg%u\nbar\n" {
		t.Errorf("Dictionary() = %q", dict)
	}
}
