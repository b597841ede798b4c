package handler

import "testing"

func TestInstallAndDispatch(t *testing.T) {
	tbl := New(2)
	var got string
	if err := tbl.Install("sensors/temp", func(topic string, payload []byte) {
		got = topic + ":" + string(payload)
	}); err != nil {
		t.Fatalf("install: %v", err)
	}
	tbl.Dispatch("sensors/temp", []byte("21C"))
	if got != "sensors/temp:21C" {
		t.Fatalf("got %q", got)
	}
}

func TestInstallFullReturnsErrFull(t *testing.T) {
	tbl := New(1)
	if err := tbl.Install("a", func(string, []byte) {}); err != nil {
		t.Fatalf("install: %v", err)
	}
	if err := tbl.Install("b", func(string, []byte) {}); err != ErrFull {
		t.Fatalf("expected ErrFull, got %v", err)
	}
}

func TestReinstallSameFilterReplaces(t *testing.T) {
	tbl := New(1)
	calls := 0
	_ = tbl.Install("a", func(string, []byte) { calls = 1 })
	_ = tbl.Install("a", func(string, []byte) { calls = 2 })
	tbl.Dispatch("a", nil)
	if calls != 2 {
		t.Fatalf("expected replacement handler to run, got calls=%d", calls)
	}
}

func TestRemoveFreesSlot(t *testing.T) {
	tbl := New(1)
	_ = tbl.Install("a", func(string, []byte) {})
	tbl.Remove("a")
	if tbl.Len() != 0 {
		t.Fatalf("expected 0 installed, got %d", tbl.Len())
	}
	if err := tbl.Install("b", func(string, []byte) {}); err != nil {
		t.Fatalf("expected free slot after remove, got %v", err)
	}
}

func TestDispatchFallsBackToDefault(t *testing.T) {
	tbl := New(1)
	defaulted := false
	tbl.SetDefault(func(topic string, payload []byte) { defaulted = true })
	tbl.Dispatch("unmatched/topic", nil)
	if !defaulted {
		t.Fatal("expected default handler to run for unmatched topic")
	}
}

func TestByteExactMatchOnly(t *testing.T) {
	tbl := New(1)
	matched := false
	_ = tbl.Install("sensors/+", func(string, []byte) { matched = true })
	tbl.Dispatch("sensors/temp", nil)
	if matched {
		t.Fatal("wildcard filters must not match by substring/prefix, only byte-exact equality")
	}
}
