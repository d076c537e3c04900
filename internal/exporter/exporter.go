package exporter

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/obsidianstack/framewatch/internal/store"
)

const namespace = "framewatch_"

// Source is the subset of *store.Store the exporter reads.
type Source interface {
	List() []*store.Entry
}

// Handler renders the current pipeline state on each request.
type Handler struct {
	src Source
}

// New returns a Handler reading from src.
func New(src Source) *Handler {
	return &Handler{src: src}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range Families(h.src.List()) {
		if err := enc.Encode(mf); err != nil {
			slog.Warn("exporter: encode failed", "family", mf.GetName(), "err", err)
			return
		}
	}
}

// Families converts store entries into metric families. Entries without a
// heartbeat contribute only to framewatch_pipelines and the warning family.
func Families(entries []*store.Entry) []*dto.MetricFamily {
	fps := gauge("pipeline_fps", "Frames per second measured over the current window.")
	online := gauge("pipeline_online", "1 if the pipeline delivered a frame within two frame intervals.")
	synced := gauge("pipeline_synced", "1 if the sensor-to-receive delay is within tolerance.")
	delay := gauge("pipeline_delay_us", "Sensor-to-receive delay of the last frame in microseconds.")
	lost := gauge("pipeline_frames_lost", "Frames lost in the current window.")
	expected := gauge("pipeline_frames_expected", "Frames expected in the current window.")
	warn := gauge("pipeline_warning_active", "1 for each warning raised at the last evaluation.")
	count := gauge("pipelines", "Number of pipelines with fresh state.")

	count.Metric = append(count.Metric, sample(float64(len(entries))))

	for _, e := range entries {
		pl := label("pipeline", e.Pipeline)
		if hb := e.Heartbeat; hb != nil {
			fps.Metric = append(fps.Metric, sample(hb.FPS, pl))
			online.Metric = append(online.Metric, sample(boolValue(hb.Online), pl))
			synced.Metric = append(synced.Metric, sample(boolValue(hb.Synced), pl))
			delay.Metric = append(delay.Metric, sample(float64(hb.DelayUS), pl))
			if l, x, ok := parseFrameLoss(hb.FrameLoss); ok {
				lost.Metric = append(lost.Metric, sample(l, pl))
				expected.Metric = append(expected.Metric, sample(x, pl))
			}
		}
		for _, w := range e.Warnings {
			warn.Metric = append(warn.Metric, sample(1, pl, label("kind", w.Warning.String())))
		}
	}

	out := make([]*dto.MetricFamily, 0, 8)
	for _, mf := range []*dto.MetricFamily{count, fps, online, synced, delay, lost, expected, warn} {
		if len(mf.Metric) > 0 {
			out = append(out, mf)
		}
	}
	return out
}

// parseFrameLoss splits "lost/expected".
func parseFrameLoss(s string) (lost, expected float64, ok bool) {
	l, x, found := strings.Cut(s, "/")
	if !found {
		return 0, 0, false
	}
	lv, err := strconv.ParseUint(l, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	xv, err := strconv.ParseUint(x, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return float64(lv), float64(xv), true
}

func gauge(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(namespace + name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

func sample(v float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{
		Label: labels,
		Gauge: &dto.Gauge{Value: proto.Float64(v)},
	}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
