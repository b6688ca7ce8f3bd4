package khf

import "testing"

func TestMechanismConstructors(t *testing.T) {
	if m := Full(); m.ranged || m.level != 0 {
		t.Errorf("Full() = %+v, want zero-value non-ranged level-0 mechanism", m)
	}
	if m := Leveled(2); m.ranged || m.level != 2 {
		t.Errorf("Leveled(2) = %+v, want non-ranged level 2", m)
	}
	if m := Ranged(3, 9); !m.ranged || m.level != 1 || m.a != 3 || m.b != 9 {
		t.Errorf("Ranged(3,9) = %+v, want ranged level 1 [3,9)", m)
	}
	if m := RangedLeveled(2, 3, 9); !m.ranged || m.level != 2 || m.a != 3 || m.b != 9 {
		t.Errorf("RangedLeveled(2,3,9) = %+v, want ranged level 2 [3,9)", m)
	}
}

func TestConsolidateFullYieldsSingleRootAndAllIDs(t *testing.T) {
	f, err := New(Config{Fanouts: []uint64{2, 2}})
	if err != nil {
		t.Fatal(err)
	}
	for x := uint64(0); x < 10; x++ {
		f.Derive(x)
	}
	f.Commit()

	before := make([]Key, 10)
	for x := range before {
		before[x] = f.Derive(uint64(x))
	}

	ids := f.Consolidate(Full())
	if len(ids) != 10 {
		t.Fatalf("Consolidate(Full()) returned %d ids, want 10", len(ids))
	}
	if !f.IsConsolidated() {
		t.Error("forest should be consolidated to a single root after Full()")
	}

	changed := 0
	for x := range before {
		if f.Derive(uint64(x)) != before[x] {
			changed++
		}
	}
	if changed == 0 {
		t.Error("Full() consolidation should change at least some derived values (fresh root)")
	}
}

func TestConsolidateRangedOnlyTouchesItsWindow(t *testing.T) {
	f, err := New(Config{Fanouts: []uint64{2, 2}})
	if err != nil {
		t.Fatal(err)
	}
	for x := uint64(0); x < 8; x++ {
		f.Derive(x)
	}
	f.Commit()

	before := make([]Key, 8)
	for x := range before {
		before[x] = f.Derive(uint64(x))
	}

	f.Consolidate(Ranged(2, 5))

	for x := range before {
		got := f.Derive(uint64(x))
		inWindow := x >= 2 && x < 5
		if inWindow && got == before[x] {
			t.Errorf("id %d in the consolidated window should very likely change", x)
		}
		if !inWindow && got != before[x] {
			t.Errorf("id %d outside the consolidated window changed unexpectedly", x)
		}
	}
}

func TestConsolidateRangedBeyondKeysExtendsDomain(t *testing.T) {
	f, err := New(Config{Fanouts: []uint64{2, 2}})
	if err != nil {
		t.Fatal(err)
	}
	for x := uint64(0); x < 4; x++ {
		f.Derive(x)
	}
	f.Commit()
	if f.Keys() != 4 {
		t.Fatalf("Keys() = %d, want 4", f.Keys())
	}

	f.Consolidate(RangedLeveled(1, 2, 6))
	if f.Keys() < 6 {
		t.Errorf("Keys() = %d, want >= 6 after consolidating a range beyond the committed domain", f.Keys())
	}
}
