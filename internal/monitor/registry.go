package monitor

import (
	"slices"

	"github.com/obsidianstack/framewatch/pkg/types"
)

// RegisterPipeline inserts or replaces the metadata for info.Name.
// An fps outside (0, MaxFPS] is replaced by DefaultFPS. Re-registering an
// existing pipeline swaps its metadata and keeps its accumulated counters.
func (e *Engine) RegisterPipeline(info types.PipelineInfo) {
	if fps := clampFPS(info.FPS); fps != info.FPS {
		e.log.Warn("monitor: pipeline registered with illegal fps, using default",
			"pipeline", info.Name, "fps", info.FPS, "default", fps)
		info.FPS = fps
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if st, ok := e.pipelines[info.Name]; ok {
		st.info = info
		return
	}
	e.pipelines[info.Name] = newPipelineState(info)
	i, _ := slices.BinarySearch(e.names, info.Name)
	e.names = slices.Insert(e.names, i, info.Name)
	e.log.Info("monitor: pipeline registered",
		"pipeline", info.Name, "fps", info.FPS, "media", info.Media.String())
}

// Pipelines returns the registered metadata ordered by name.
func (e *Engine) Pipelines() []types.PipelineInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.PipelineInfo, 0, len(e.names))
	for _, name := range e.names {
		out = append(out, e.pipelines[name].info)
	}
	return out
}

func clampFPS(fps uint32) uint32 {
	if fps == 0 || fps > types.MaxFPS {
		return types.DefaultFPS
	}
	return fps
}
