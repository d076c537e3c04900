package store

import (
	"sync"
	"testing"
	"time"

	"github.com/obsidianstack/framewatch/pkg/types"
)

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func heartbeat(name string, online bool) types.Report {
	return types.Report{Kind: types.ReportHeartBeat, Pipeline: name, Online: online, FrameLoss: "0/10"}
}

func warning(name string, kind types.WarningKind) types.Report {
	return types.Report{Kind: types.ReportWarning, Pipeline: name, Warning: kind}
}

func TestReport_FoldsBatchPerPipeline(t *testing.T) {
	st := New(5 * time.Minute)
	st.Report([]types.Report{
		{Kind: types.ReportFrame, Pipeline: "cam0", Seq: 1},
		{Kind: types.ReportFrame, Pipeline: "cam0", Seq: 2},
		heartbeat("cam0", true),
		warning("cam0", types.WarningLockLost),
		heartbeat("cam1", false),
	})

	e, ok := st.Get("cam0")
	if !ok {
		t.Fatal("Get(cam0): expected entry")
	}
	if e.LastFrame == nil || e.LastFrame.Seq != 2 {
		t.Errorf("LastFrame = %+v, want seq 2", e.LastFrame)
	}
	if e.Heartbeat == nil || !e.Heartbeat.Online {
		t.Errorf("Heartbeat = %+v, want online", e.Heartbeat)
	}
	if len(e.Warnings) != 1 || e.Warnings[0].Warning != types.WarningLockLost {
		t.Errorf("Warnings = %+v, want [LOCK_LOST]", e.Warnings)
	}
	if st.Count() != 2 {
		t.Errorf("Count = %d, want 2", st.Count())
	}
}

func TestReport_FrameOnlyBatchKeepsWarnings(t *testing.T) {
	st := New(5 * time.Minute)
	st.Report([]types.Report{heartbeat("cam0", true), warning("cam0", types.WarningCalibLost)})
	st.Report([]types.Report{{Kind: types.ReportFrame, Pipeline: "cam0", Seq: 9}})

	e, _ := st.Get("cam0")
	if len(e.Warnings) != 1 {
		t.Errorf("Warnings after frame-only batch = %d, want 1 kept", len(e.Warnings))
	}
	if e.Heartbeat == nil {
		t.Error("Heartbeat dropped by frame-only batch")
	}
}

func TestReport_NextTickClearsWarnings(t *testing.T) {
	st := New(5 * time.Minute)
	st.Report([]types.Report{heartbeat("cam0", true), warning("cam0", types.WarningCalibLost)})
	st.Report([]types.Report{heartbeat("cam0", true)})

	e, _ := st.Get("cam0")
	if len(e.Warnings) != 0 {
		t.Errorf("Warnings = %+v, want cleared by the next heartbeat", e.Warnings)
	}
}

func TestReport_EntriesAreReplaced(t *testing.T) {
	st := New(5 * time.Minute)
	st.Report([]types.Report{heartbeat("cam0", true)})
	first, _ := st.Get("cam0")
	st.Report([]types.Report{heartbeat("cam0", false)})

	if !first.Heartbeat.Online {
		t.Error("earlier Entry was mutated by a later Report")
	}
}

func TestGet_Missing(t *testing.T) {
	st := New(5 * time.Minute)
	if _, ok := st.Get("unknown"); ok {
		t.Fatal("Get on empty store: expected false, got true")
	}
}

func TestList_SortedAndExcludesStale(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.Report([]types.Report{heartbeat("old", true)})

	st.now = fixedClock(base)
	st.Report([]types.Report{heartbeat("cam1", true), heartbeat("cam0", true)})

	list := st.List()
	if len(list) != 2 {
		t.Fatalf("List: got %d entries, want 2", len(list))
	}
	if list[0].Pipeline != "cam0" || list[1].Pipeline != "cam1" {
		t.Errorf("List order = %s,%s, want cam0,cam1", list[0].Pipeline, list[1].Pipeline)
	}
}

func TestEvict(t *testing.T) {
	base := time.Now()
	st := New(time.Minute)
	st.now = fixedClock(base)
	st.Report([]types.Report{heartbeat("cam0", true)})

	if n := st.Evict(base.Add(30 * time.Second)); n != 0 {
		t.Errorf("Evict within TTL removed %d, want 0", n)
	}
	if n := st.Evict(base.Add(2 * time.Minute)); n != 1 {
		t.Errorf("Evict past TTL removed %d, want 1", n)
	}
	if st.Count() != 0 {
		t.Errorf("Count after evict = %d, want 0", st.Count())
	}
}

func TestConcurrentReportAndList(t *testing.T) {
	st := New(5 * time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				st.Report([]types.Report{heartbeat("cam0", j%2 == 0)})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = st.List()
			}
		}()
	}
	wg.Wait()
}

func TestFresh(t *testing.T) {
	base := time.Now()
	st := New(time.Minute)
	st.now = fixedClock(base)
	st.Report([]types.Report{heartbeat("cam0", true)})
	e, _ := st.Get("cam0")

	if !st.Fresh(e) {
		t.Error("Fresh right after Report: got false")
	}
	st.now = fixedClock(base.Add(2 * time.Minute))
	if st.Fresh(e) {
		t.Error("Fresh after TTL: got true")
	}
	if st.TTL() != time.Minute {
		t.Errorf("TTL = %v, want 1m", st.TTL())
	}
}
