package flexsearch

import "testing"

func identityKeystore() *Keystore[string, int] {
	return NewKeystore[string, int](2, func(k string) string { return k })
}

func TestKeystore_SetGetHas(t *testing.T) {
	ks := identityKeystore()
	ks.Set("fox", 1)

	if !ks.Has("fox") {
		t.Fatal("Has(fox) = false just after Set")
	}
	got, ok := ks.Get("fox")
	if !ok || got != 1 {
		t.Errorf("Get(fox) = (%d, %v), want (1, true)", got, ok)
	}
	if ks.Has("dog") {
		t.Error("Has(dog) = true for a key never set")
	}
}

func TestKeystore_Delete(t *testing.T) {
	ks := identityKeystore()
	ks.Set("fox", 1)
	ks.Delete("fox")
	if ks.Has("fox") {
		t.Error("Has(fox) = true after Delete")
	}
}

func TestKeystore_Clear(t *testing.T) {
	ks := identityKeystore()
	ks.Set("a", 1)
	ks.Set("b", 2)
	ks.Clear()
	if ks.Size() != 0 {
		t.Errorf("Size() after Clear() = %d, want 0", ks.Size())
	}
}

func TestKeystore_SizeAndKeys(t *testing.T) {
	ks := identityKeystore()
	ks.Set("a", 1)
	ks.Set("b", 2)
	ks.Set("c", 3)

	if ks.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", ks.Size())
	}
	keys := ks.Keys()
	seen := map[string]bool{}
	for _, k := range keys {
		seen[k] = true
	}
	if !seen["a"] || !seen["b"] || !seen["c"] {
		t.Errorf("Keys() = %v, want a, b and c all present", keys)
	}
}

func TestKeystore_Entries(t *testing.T) {
	ks := identityKeystore()
	ks.Set("a", 1)
	ks.Set("b", 2)

	entries := ks.Entries()
	if entries["a"] != 1 || entries["b"] != 2 {
		t.Errorf("Entries() = %v, want {a:1 b:2}", entries)
	}
}

func TestKeystore_UpdateAtomicReadModifyWrite(t *testing.T) {
	ks := identityKeystore()
	ks.Update("counter", func(cur int, ok bool) int { return cur + 1 })
	ks.Update("counter", func(cur int, ok bool) int { return cur + 1 })

	got, _ := ks.Get("counter")
	if got != 2 {
		t.Errorf("Get(counter) = %d, want 2 after two increments", got)
	}
}

func TestNewKeystore_ZeroBitsFallsBackToDefault(t *testing.T) {
	ks := NewKeystore[string, int](0, func(k string) string { return k })
	if ks.bits != DefaultKeystoreBits {
		t.Errorf("bits = %d, want the default %d", ks.bits, DefaultKeystoreBits)
	}
}
