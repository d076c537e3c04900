package sink

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/obsidianstack/framewatch/pkg/types"
)

func TestFanout_DeliversToAllInOrder(t *testing.T) {
	var order []string
	a := func([]types.Report) { order = append(order, "a") }
	b := func([]types.Report) { order = append(order, "b") }

	Fanout(a, nil, b)([]types.Report{{Kind: types.ReportFrame}})

	if strings.Join(order, ",") != "a,b" {
		t.Errorf("delivery order = %v, want [a b]", order)
	}
}

func TestFanout_PanickingSinkDoesNotStarveOthers(t *testing.T) {
	var got []string
	first := func([]types.Report) { got = append(got, "first") }
	bad := func([]types.Report) { panic("boom") }
	last := func(b []types.Report) { got = append(got, "last:"+b[0].Pipeline) }

	report := Fanout(first, bad, last)
	report([]types.Report{{Kind: types.ReportHeartBeat, Pipeline: "cam0"}})
	report([]types.Report{{Kind: types.ReportHeartBeat, Pipeline: "cam1"}})

	want := "first,last:cam0,first,last:cam1"
	if strings.Join(got, ",") != want {
		t.Errorf("deliveries = %v, want %s", got, want)
	}
}

func TestFanout_Empty(t *testing.T) {
	Fanout()([]types.Report{{}}) // must not panic
}

func TestLog_LevelsByKind(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	Log(logger)([]types.Report{
		{Kind: types.ReportFrame, Pipeline: "cam0", Seq: 1},
		{Kind: types.ReportHeartBeat, Pipeline: "cam0"},
		{Kind: types.ReportWarning, Pipeline: "cam0", Warning: types.WarningLockLost},
	})

	out := buf.String()
	if !strings.Contains(out, "warning=LOCK_LOST") {
		t.Errorf("warning not logged: %q", out)
	}
	if strings.Contains(out, "heartbeat") {
		t.Errorf("heartbeat logged above debug: %q", out)
	}
	if strings.Contains(out, "seq=") {
		t.Errorf("frame report logged: %q", out)
	}
}
