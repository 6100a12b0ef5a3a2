package v1

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/rcrowley/go-metrics"
	"github.com/zintix-labs/cbsample"
	"github.com/zintix-labs/cbsample/dto"
	"github.com/zintix-labs/cbsample/stats"
)

const sampleSize = 1028

// Metrics v1 handler 的推送式指標，存在外部注入的 registry 內。
//
// Histogram 只收整數：max|z| 以千分之一為單位記錄。
type Metrics struct {
	reg metrics.Registry

	drawReq     metrics.Counter
	drawErr     metrics.Counter
	drawLatency metrics.Timer
	drawCases   metrics.Histogram

	simReq     metrics.Counter
	simErr     metrics.Counter
	simLatency metrics.Timer
	simDraws   metrics.Histogram
	simMaxZ    metrics.Histogram
}

func NewMetrics(reg metrics.Registry) *Metrics {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Metrics{
		reg:         reg,
		drawReq:     metrics.GetOrRegisterCounter("draw/requests", reg),
		drawErr:     metrics.GetOrRegisterCounter("draw/errors", reg),
		drawLatency: metrics.GetOrRegisterTimer("draw/latency", reg),
		drawCases:   metrics.GetOrRegisterHistogram("draw/cases", reg, metrics.NewUniformSample(sampleSize)),
		simReq:      metrics.GetOrRegisterCounter("sim/requests", reg),
		simErr:      metrics.GetOrRegisterCounter("sim/errors", reg),
		simLatency:  metrics.GetOrRegisterTimer("sim/latency", reg),
		simDraws:    metrics.GetOrRegisterHistogram("sim/draws", reg, metrics.NewUniformSample(sampleSize)),
		simMaxZ:     metrics.GetOrRegisterHistogram("sim/max_abs_z_milli", reg, metrics.NewUniformSample(sampleSize)),
	}
}

func (m *Metrics) Registry() metrics.Registry { return m.reg }

func (m *Metrics) observeDraw(start time.Time, res dto.DrawResult, err error) {
	m.drawReq.Inc(1)
	m.drawLatency.UpdateSince(start)
	if err != nil {
		m.drawErr.Inc(1)
		return
	}
	m.drawCases.Update(int64(len(res.Cases)))
	metrics.GetOrRegisterCounter("draw/plan/"+res.PlanName, m.reg).Inc(1)
}

func (m *Metrics) observeSim(start time.Time, rep *stats.InclusionReport, err error) {
	m.simReq.Inc(1)
	m.simLatency.UpdateSince(start)
	if err != nil || rep == nil || rep.Summary == nil {
		m.simErr.Inc(1)
		return
	}
	m.simDraws.Update(int64(rep.Summary.Draws))
	if !math.IsInf(rep.Summary.MaxAbsZ, 0) && !math.IsNaN(rep.Summary.MaxAbsZ) {
		m.simMaxZ.Update(int64(math.Round(rep.Summary.MaxAbsZ * 1000)))
	}
}

// MetricsResponse /v1/metrics 的回應：registry 快照 + 各機台池的拉取式快照
type MetricsResponse struct {
	Registry map[string]map[string]interface{} `json:"registry"`
	Pools    []cbsample.MachinePoolMetrics     `json:"pools"`
}

// Metrics 輸出目前所有指標
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	resp := MetricsResponse{
		Registry: h.met.reg.GetAll(),
		Pools:    h.rt.Metrics(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
