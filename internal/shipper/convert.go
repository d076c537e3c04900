package shipper

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/obsidianstack/framewatch/pkg/types"
)

// Batch field names.
const (
	fieldBatchID   = "batch_id"
	fieldSource    = "source"
	fieldCreatedAt = "created_at"
	fieldReports   = "reports"
)

// Batch is the decoded form of a shipped batch.
type Batch struct {
	ID        string
	Source    string
	CreatedAt time.Time
	Reports   []types.Report
}

// shippable drops FRAME reports. It returns nil when nothing is left.
func shippable(batch []types.Report) []types.Report {
	var out []types.Report
	for _, r := range batch {
		if r.Kind != types.ReportFrame {
			out = append(out, r)
		}
	}
	return out
}

// toStruct encodes b as a protobuf Struct. Reports go through their JSON
// form so field names match the REST API.
func toStruct(b Batch) (*structpb.Struct, error) {
	raw, err := json.Marshal(b.Reports)
	if err != nil {
		return nil, fmt.Errorf("shipper: marshal reports: %w", err)
	}
	var reports []interface{}
	if err := json.Unmarshal(raw, &reports); err != nil {
		return nil, fmt.Errorf("shipper: reshape reports: %w", err)
	}
	st, err := structpb.NewStruct(map[string]interface{}{
		fieldBatchID:   b.ID,
		fieldSource:    b.Source,
		fieldCreatedAt: b.CreatedAt.UTC().Format(time.RFC3339Nano),
		fieldReports:   reports,
	})
	if err != nil {
		return nil, fmt.Errorf("shipper: build struct: %w", err)
	}
	return st, nil
}

// DecodeBatch parses a Struct produced by a Shipper.
func DecodeBatch(st *structpb.Struct) (Batch, error) {
	fields := st.GetFields()
	b := Batch{
		ID:     fields[fieldBatchID].GetStringValue(),
		Source: fields[fieldSource].GetStringValue(),
	}
	if b.ID == "" {
		return Batch{}, fmt.Errorf("shipper: batch_id is required")
	}
	if ts := fields[fieldCreatedAt].GetStringValue(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return Batch{}, fmt.Errorf("shipper: created_at: %w", err)
		}
		b.CreatedAt = t
	}

	list := fields[fieldReports].GetListValue()
	if list == nil {
		return b, nil
	}
	raw, err := json.Marshal(list.AsSlice())
	if err != nil {
		return Batch{}, fmt.Errorf("shipper: marshal reports: %w", err)
	}
	if err := json.Unmarshal(raw, &b.Reports); err != nil {
		return Batch{}, fmt.Errorf("shipper: decode reports: %w", err)
	}
	return b, nil
}
