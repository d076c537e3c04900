package shipper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/obsidianstack/framewatch/internal/config"
	"github.com/obsidianstack/framewatch/pkg/types"
)

const sendTimeout = 10 * time.Second

// Shipper buffers report batches and publishes them to a collector.
type Shipper struct {
	cfg    config.ShipperConfig
	source string
	buf    chan *structpb.Struct
	dialFn dialFunc // injectable for tests
	now    func() time.Time
	jitter func() float64
	wait   func(ctx context.Context, d time.Duration) bool
}

// dialFunc opens a gRPC connection to endpoint.
type dialFunc func(ctx context.Context, endpoint string) (*grpc.ClientConn, error)

// New creates a Shipper. source identifies this instance in every batch.
// Zero retry bounds fall back to the config defaults.
func New(cfg config.ShipperConfig, source string) *Shipper {
	if cfg.RetryInitial <= 0 {
		cfg.RetryInitial = config.DefaultRetryInitial
	}
	if cfg.RetryMax < cfg.RetryInitial {
		cfg.RetryMax = max(cfg.RetryInitial, config.DefaultRetryMax)
	}
	return &Shipper{
		cfg:    cfg,
		source: source,
		buf:    make(chan *structpb.Struct, cfg.BufferSize),
		dialFn: defaultDial,
		now:    time.Now,
		wait:   sleep,
	}
}

// Ship enqueues the shippable part of batch. It is safe to install as a
// monitor.Reporter: it never blocks, evicting the oldest buffered batch
// when the buffer is full.
func (s *Shipper) Ship(batch []types.Report) {
	reports := shippable(batch)
	if len(reports) == 0 {
		return
	}
	st, err := toStruct(Batch{
		ID:        uuid.NewString(),
		Source:    s.source,
		CreatedAt: s.now(),
		Reports:   reports,
	})
	if err != nil {
		slog.Error("shipper: encode batch failed", "err", err, "reports", len(reports))
		return
	}

	for {
		select {
		case s.buf <- st:
			return
		default:
		}
		select {
		case <-s.buf:
			slog.Warn("shipper: buffer full, evicted oldest batch", "buffer_cap", cap(s.buf))
		default:
		}
	}
}

// Pending returns the number of batches waiting to be sent.
func (s *Shipper) Pending() int {
	return len(s.buf)
}

// Run drains the buffer, reconnecting after a growing delay when the
// connection is lost. Run blocks until ctx is cancelled.
func (s *Shipper) Run(ctx context.Context) {
	retry := newRetryDelay(s.cfg.RetryInitial, s.cfg.RetryMax, s.jitter)

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := s.dialFn(ctx, s.cfg.Endpoint)
		if err != nil {
			wait := retry.failed()
			slog.Error("shipper: dial failed, will retry",
				"endpoint", s.cfg.Endpoint, "err", err, "retry_in", wait)
			if !s.wait(ctx, wait) {
				return
			}
			continue
		}

		slog.Info("shipper: connected", "endpoint", s.cfg.Endpoint)
		retry.connected()

		err = s.drain(ctx, conn)
		conn.Close()

		if ctx.Err() != nil {
			return
		}

		wait := retry.failed()
		slog.Warn("shipper: connection lost, will reconnect",
			"endpoint", s.cfg.Endpoint, "err", err, "retry_in", wait)
		if !s.wait(ctx, wait) {
			return
		}
	}
}

// drain sends batches until a transient failure or ctx is cancelled.
func (s *Shipper) drain(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case st := <-s.buf:
			id := st.GetFields()[fieldBatchID].GetStringValue()

			sendCtx, cancel := context.WithTimeout(s.outgoing(ctx), sendTimeout)
			err := publish(sendCtx, conn, st, grpc.WaitForReady(true))
			cancel()

			if err == nil {
				slog.Debug("shipper: batch delivered", "batch_id", id)
				continue
			}
			if isPermanentError(err) {
				slog.Error("shipper: permanent send error, discarding batch",
					"batch_id", id, "err", err)
				continue
			}

			// Requeue for the next connection if there is room.
			select {
			case s.buf <- st:
			default:
			}
			return fmt.Errorf("shipper: publish: %w", err)
		}
	}
}

// outgoing attaches the API key, when configured, as gRPC metadata.
func (s *Shipper) outgoing(ctx context.Context) context.Context {
	if s.cfg.Auth.Mode != "apikey" {
		return ctx
	}
	key := s.cfg.Auth.Key()
	if key == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, strings.ToLower(s.cfg.Auth.Header), key)
}

// isPermanentError reports gRPC errors that retrying will not fix.
func isPermanentError(err error) bool {
	switch status.Code(err) {
	case codes.InvalidArgument, codes.Unauthenticated, codes.PermissionDenied, codes.Unimplemented:
		return true
	}
	return false
}

// defaultDial opens a plaintext gRPC connection. Transport security is
// expected from the network layer (service mesh or tunnel).
func defaultDial(ctx context.Context, endpoint string) (*grpc.ClientConn, error) {
	return grpc.DialContext(ctx, endpoint, //nolint:staticcheck // DialContext kept for grpc-go 1.62 compat
		grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// sleep waits for d or ctx, returning false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
