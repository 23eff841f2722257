package schema

import "testing"

func TestBuilderAssignsSequentialIDs(t *testing.T) {
	b := NewBuilder()
	id0, err := b.RegisterParser("identify_response", nil, FlagNone, nil)
	if err != nil {
		t.Fatal(err)
	}
	id1, err := b.RegisterParser("identify", []ParamType{PTUint32, PTByte}, FlagNone, func([]Arg) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	if id0 != 0 || id1 != 1 {
		t.Fatalf("bootstrap IDs: got %d, %d, want 0, 1", id0, id1)
	}

	table := b.Freeze()
	p, ok := table.Parser(1)
	if !ok || p.Name != "identify" {
		t.Fatalf("unexpected parser at ID 1: %+v", p)
	}
}

func TestDuplicateNameRejected(t *testing.T) {
	b := NewBuilder()
	if _, err := b.RegisterParser("foo", nil, FlagNone, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := b.RegisterParser("foo", nil, FlagNone, nil); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestUnknownIDNotFound(t *testing.T) {
	table := NewBuilder().Freeze()
	if _, ok := table.Parser(5); ok {
		t.Fatal("expected no parser in an empty table")
	}
}

func TestFrozenTableIsIndependentOfBuilder(t *testing.T) {
	b := NewBuilder()
	b.RegisterParser("a", nil, FlagNone, nil)
	table := b.Freeze()
	b.RegisterParser("b", nil, FlagNone, nil)

	if table.Size() != 1 {
		t.Fatalf("frozen table mutated after Freeze: size=%d", table.Size())
	}
}

func TestNames(t *testing.T) {
	b := NewBuilder()
	b.RegisterParser("get_uptime", nil, FlagNone, func([]Arg) error { return nil })
	b.RegisterEncoder("uptime", []ParamType{PTUint32, PTUint32}, 16)
	table := b.Freeze()

	cmds, resps := table.Names()
	if _, ok := cmds["get_uptime"]; !ok {
		t.Fatal("expected get_uptime in commands")
	}
	if _, ok := resps["uptime"]; !ok {
		t.Fatal("expected uptime in responses")
	}
}
