package telemetry

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func TestReadingRoundTripsThroughCBOR(t *testing.T) {
	r := Reading{
		Response: "uptime",
		Fields:   map[string]interface{}{"high": uint32(0), "clock": uint32(123456)},
	}
	data, err := cbor.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Reading
	if err := cbor.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Response != "uptime" {
		t.Fatalf("response = %q", got.Response)
	}
	if len(got.Fields) != 2 {
		t.Fatalf("fields = %v", got.Fields)
	}
}
