package shipper

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/obsidianstack/framewatch/pkg/types"
)

// Receiver implements ReportServiceServer. Each accepted batch is handed to
// sink, typically the local store's Report method.
// Authentication is enforced by the gRPC server interceptor before Publish
// is called.
type Receiver struct {
	sink func([]types.Report)
}

// NewReceiver creates a Receiver that forwards decoded reports to sink.
func NewReceiver(sink func([]types.Report)) *Receiver {
	return &Receiver{sink: sink}
}

// Publish decodes one batch and forwards its reports.
func (r *Receiver) Publish(_ context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	b, err := DecodeBatch(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if len(b.Reports) > 0 {
		r.sink(b.Reports)
	}

	slog.Debug("receiver: batch accepted",
		"batch_id", b.ID, "source", b.Source, "reports", len(b.Reports))
	return &emptypb.Empty{}, nil
}
