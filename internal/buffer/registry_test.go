package buffer

import "testing"

func TestOpenFiles(t *testing.T) {
	o := NewOpenFiles()
	a := New("a.txt", "UTF-8")
	b := New("b.txt", "UTF-8")

	o.Add(a)
	o.Add(b)
	o.Add(a)
	if o.Len() != 2 {
		t.Fatalf("expected 2 buffers, got %d", o.Len())
	}
	if o.Version() != 2 {
		t.Errorf("expected version 2, got %d", o.Version())
	}
	if o.ByPath("./b.txt") != b {
		t.Error("ByPath should find b")
	}
	if o.Index(b) != 1 || o.At(0) != a {
		t.Error("buffers should keep insertion order")
	}

	c := New("c.txt", "UTF-8")
	o.Replace(a, c)
	if o.At(0) != c || o.Contains(a) {
		t.Error("Replace should swap the slot")
	}

	if !o.Remove(b) || o.Remove(b) {
		t.Error("Remove should succeed exactly once")
	}
	if o.Version() != 4 {
		t.Errorf("expected version 4, got %d", o.Version())
	}

	c.Edit("x")
	if mod := o.Modified(); len(mod) != 1 || mod[0] != c {
		t.Errorf("Modified() = %v", mod)
	}
}

func TestRecentFiles(t *testing.T) {
	r := NewRecentFiles(3)

	for _, name := range []string{"a", "b", "c", "d"} {
		r.PushFront(RecentFile{Name: name, Encoding: "UTF-8"})
	}
	if r.Len() != 3 || r.Get(0).Name != "d" || r.Get(2).Name != "b" {
		t.Fatalf("unexpected entries %v", r.All())
	}

	r.PushFront(RecentFile{Name: "b", Encoding: "ISO-8859-1"})
	if r.Len() != 3 || r.Get(0).Name != "b" || r.Get(0).Encoding != "ISO-8859-1" {
		t.Errorf("re-pushing should move the entry to the front, got %v", r.All())
	}

	version := r.Version()
	if !r.Remove("c") || r.Remove("c") {
		t.Error("Remove should succeed exactly once")
	}
	if r.Version() != version+1 {
		t.Error("Remove should bump the version once")
	}

	r.Push(New("", "UTF-8"))
	if r.Len() != 2 {
		t.Error("untitled buffers must not be recorded")
	}
}

func TestNameCache(t *testing.T) {
	o := NewOpenFiles()
	view := NewOpenView(o)

	a := New("", "UTF-8")
	a.SetWindow(true)
	o.Add(a)
	b := New("b.txt", "UTF-8")
	b.Edit("x")
	o.Add(b)

	names := view.Names()
	if len(names) != 2 || names[0] != Untitled || names[1] != "*b.txt [hidden]" {
		t.Fatalf("Names() = %q", names)
	}

	builds := 0
	var cache NameCache
	build := func() []string { builds++; return nil }
	cache.Get(1, build)
	cache.Get(1, build)
	cache.Get(2, build)
	if builds != 2 {
		t.Errorf("expected 2 builds, got %d", builds)
	}
	cache.Invalidate()
	cache.Get(2, build)
	if builds != 3 {
		t.Errorf("expected rebuild after Invalidate, got %d builds", builds)
	}
}

func TestRecentView(t *testing.T) {
	r := NewRecentFiles(0)
	for _, name := range []string{"a", "b", "c"} {
		r.PushFront(RecentFile{Name: name})
	}

	view := NewRecentView(r, 2)
	names := view.Names()
	if len(names) != 2 || names[0] != "c" || names[1] != "b" {
		t.Errorf("Names() = %q", names)
	}

	r.Remove("c")
	names = view.Names()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("Names() after Remove = %q", names)
	}
}
