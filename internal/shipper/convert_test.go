package shipper

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/obsidianstack/framewatch/pkg/types"
)

func TestShippable(t *testing.T) {
	if got := shippable([]types.Report{{Kind: types.ReportFrame}}); got != nil {
		t.Errorf("frame-only: got %v, want nil", got)
	}
	got := shippable(sampleBatch())
	if len(got) != 2 || got[0].Kind != types.ReportHeartBeat || got[1].Kind != types.ReportWarning {
		t.Errorf("shippable kinds: got %+v", got)
	}
}

func TestStructRoundTripKeepsLargeTimestamps(t *testing.T) {
	in := Batch{
		ID:        "b-1",
		Source:    "host",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 6000, time.UTC),
		Reports:   shippable(sampleBatch()),
	}
	st, err := toStruct(in)
	if err != nil {
		t.Fatalf("toStruct: %v", err)
	}
	out, err := DecodeBatch(st)
	if err != nil {
		t.Fatalf("DecodeBatch: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeBatch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]interface{}
	}{
		{"missing id", map[string]interface{}{"reports": []interface{}{}}},
		{"bad created_at", map[string]interface{}{"batch_id": "x", "created_at": "yesterday"}},
		{"bad report kind", map[string]interface{}{
			"batch_id": "x",
			"reports":  []interface{}{map[string]interface{}{"kind": "NOPE"}},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st, err := structpb.NewStruct(tc.fields)
			if err != nil {
				t.Fatalf("NewStruct: %v", err)
			}
			if _, err := DecodeBatch(st); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestReceiver_RejectsInvalidBatch(t *testing.T) {
	var called bool
	r := NewReceiver(func([]types.Report) { called = true })

	_, err := r.Publish(context.Background(), &structpb.Struct{})
	if code := status.Code(err); code != codes.InvalidArgument {
		t.Errorf("code: got %v, want InvalidArgument", code)
	}
	if called {
		t.Error("sink called for invalid batch")
	}
}
