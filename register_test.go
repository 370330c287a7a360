package flexsearch

import "testing"

func TestSetRegister_AddHasRemove(t *testing.T) {
	r := newSetRegister()
	r.Add(1)
	r.Add(2)

	if !r.Has(1) || !r.Has(2) {
		t.Fatal("Has() false for just-added ids")
	}
	if r.Has(3) {
		t.Error("Has(3) = true for an id never added")
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}

	r.Remove(1)
	if r.Has(1) {
		t.Error("Has(1) = true after Remove(1)")
	}
	if r.Len() != 1 {
		t.Errorf("Len() after Remove = %d, want 1", r.Len())
	}
}

func TestSetRegister_ClearAndIds(t *testing.T) {
	r := newSetRegister()
	r.Add(5)
	r.Add(7)
	ids := r.Ids()
	if len(ids) != 2 {
		t.Fatalf("Ids() = %v, want 2 entries", ids)
	}

	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", r.Len())
	}
}

func TestMapRegister_AddHasRemove(t *testing.T) {
	r := newMapRegister()
	r.Add(1)
	if !r.Has(1) {
		t.Fatal("Has(1) = false just after Add(1)")
	}
	if r.Has(2) {
		t.Error("Has(2) = true for an id never added")
	}

	r.Remove(1)
	if r.Has(1) {
		t.Error("Has(1) = true after Remove(1)")
	}
}

func TestMapRegister_SetRefsAndLookup(t *testing.T) {
	r := newMapRegister()
	r.Add(1)
	refs := []indexRef{{isContext: false, term: "fox", bucket: 0}}
	r.setRefs(1, refs)

	got, ok := r.refsFor(1)
	if !ok || len(got) != 1 || got[0].term != "fox" {
		t.Errorf("refsFor(1) = (%v, %v), want the stored refs", got, ok)
	}
}

func TestMapRegister_ClearAndLen(t *testing.T) {
	r := newMapRegister()
	r.Add(1)
	r.Add(2)
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", r.Len())
	}
}

func TestMapRegister_Ids(t *testing.T) {
	r := newMapRegister()
	r.Add(10)
	r.Add(20)
	ids := r.Ids()
	seen := map[DocId]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if len(ids) != 2 || !seen[10] || !seen[20] {
		t.Errorf("Ids() = %v, want [10 20] in any order", ids)
	}
}
