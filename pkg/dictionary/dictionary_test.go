package dictionary

import (
	"encoding/json"
	"testing"

	"github.com/klipper-proto/gopperd/pkg/schema"
)

func TestGenerateIncludesCommandsAndResponses(t *testing.T) {
	b := schema.NewBuilder()
	b.RegisterEncoder("identify_response", nil, 64)
	b.RegisterParser("identify", nil, schema.FlagNone, nil)
	table := b.Freeze()

	d := New(table, "gopperd-0.1.0", "go")
	var decoded map[string]interface{}
	if err := json.Unmarshal(d.Generate(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["version"] != "gopperd-0.1.0" {
		t.Fatalf("version = %v", decoded["version"])
	}
	responses := decoded["responses"].(map[string]interface{})
	if _, ok := responses["identify_response"]; !ok {
		t.Fatal("missing identify_response in responses")
	}
	commands := decoded["commands"].(map[string]interface{})
	if _, ok := commands["identify"]; !ok {
		t.Fatal("missing identify in commands")
	}
}

func TestChunkClampsToLength(t *testing.T) {
	b := schema.NewBuilder()
	table := b.Freeze()
	d := New(table, "v", "b")
	full := d.Generate()

	chunk := d.Chunk(0, 255)
	if len(chunk) != len(full) {
		t.Fatalf("chunk len = %d, want %d", len(chunk), len(full))
	}

	empty := d.Chunk(uint32(len(full)), 10)
	if len(empty) != 0 {
		t.Fatalf("expected empty chunk past end, got %d bytes", len(empty))
	}
}

func TestAddConstantInvalidatesCache(t *testing.T) {
	b := schema.NewBuilder()
	table := b.Freeze()
	d := New(table, "v", "b")
	first := d.Generate()
	d.AddConstant("CLOCK_FREQ", uint32(1000000))
	second := d.Generate()
	if string(first) == string(second) {
		t.Fatal("expected cache invalidation after AddConstant")
	}
}
