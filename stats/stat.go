package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/cbsample/plan"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var lang language.Tag = language.English

// DefaultConfidence 報表預設信賴水準
const DefaultConfidence = 0.95

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo" yaml:"Lo"`
	Hi float64 `json:"Hi" yaml:"Hi"`
}

// Contains 判斷 x 是否落在閉區間 [Lo, Hi]
func (c CI) Contains(x float64) bool {
	return x >= c.Lo && x <= c.Hi
}

// InclusionReport 包含機率模擬報表
//
// Positions[i].Hits 與 Summary.Draws 由 recorder 填入，
// 其餘欄位在 Done() 時一次計算。
type InclusionReport struct {
	Summary   *SummaryReport   `json:"Summary"   yaml:"Summary"`
	Positions []PositionReport `json:"Positions" yaml:"Positions"`
	CountDist []int            `json:"CountDist" yaml:"CountDist"` // CountDist[k] : Σx = k 的次數
	isDone    bool
}

type SummaryReport struct {
	PlanName   string   `json:"PlanName"   yaml:"PlanName"`
	PlanID     plan.PID `json:"PlanID"     yaml:"PlanID"`
	Method     string   `json:"Method"     yaml:"Method"`
	Q          int      `json:"Q"          yaml:"Q"`
	R          int      `json:"R"          yaml:"R"`
	Draws      int      `json:"Draws"      yaml:"Draws"`
	Failures   int      `json:"Failures"   yaml:"Failures"`   // 抽樣回傳錯誤的次數
	Violations int      `json:"Violations" yaml:"Violations"` // Σx != r 的次數，正確實作必為 0
	Confidence float64  `json:"Confidence" yaml:"Confidence"`
	MaxAbsZ    float64  `json:"MaxAbsZ"    yaml:"MaxAbsZ"`
	MeanAbsZ   float64  `json:"MeanAbsZ"   yaml:"MeanAbsZ"`
	Covered    int      `json:"Covered"    yaml:"Covered"`  // expected 落在 CI 內的位置數
	Certain    int      `json:"Certain"    yaml:"Certain"`  // expected 為 0 或 1 卻觀測不符的位置數，正確實作必為 0
	Coverage   float64  `json:"Coverage"   yaml:"Coverage"` // Covered / Q
}

// PositionReport 單一位置的統計
type PositionReport struct {
	Index    int     `json:"Index"    yaml:"Index"`
	Pi       float64 `json:"Pi"       yaml:"Pi"`
	Expected float64 `json:"Expected" yaml:"Expected"` // P(x_i = 1 | Σx = r)
	Hits     int     `json:"Hits"     yaml:"Hits"`
	Observed float64 `json:"Observed" yaml:"Observed"`
	CI       CI      `json:"CI"       yaml:"CI"`
	Z        float64 `json:"Z"        yaml:"Z"`
	PValue   float64 `json:"PValue"   yaml:"PValue"`
	Inside   bool    `json:"Inside"   yaml:"Inside"`
}

// NewInclusionReport 建立空報表；expected 可為 nil（例如 r 不可達時）。
func NewInclusionReport(s *plan.Setting, expected []float64) *InclusionReport {
	q := s.Q()
	r := &InclusionReport{
		Summary: &SummaryReport{
			PlanName:   s.Name,
			PlanID:     s.ID,
			Method:     s.SamplerMethod().String(),
			Q:          q,
			R:          s.R,
			Confidence: DefaultConfidence,
		},
		Positions: make([]PositionReport, q),
		CountDist: make([]int, q+1),
	}
	for i := range r.Positions {
		r.Positions[i].Index = i
		r.Positions[i].Pi = s.Pi[i]
		if i < len(expected) {
			r.Positions[i].Expected = expected[i]
		}
	}
	return r
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為頻率、信賴區間與 z 分數，只會計算一次。
func (s *InclusionReport) Done() {
	if s.isDone {
		return
	}
	n := s.Summary.Draws
	conf := s.Summary.Confidence
	if !(conf > 0 && conf < 1) {
		conf = DefaultConfidence
		s.Summary.Confidence = conf
	}
	absZ := make([]float64, len(s.Positions))
	covered, certain := 0, 0
	maxZ := 0.0
	for i := range s.Positions {
		p := &s.Positions[i]
		p.Observed, p.CI = proportionCICP(p.Hits, n, conf)
		p.Z = zScore(p.Hits, n, p.Expected)
		p.PValue = twoSidedP(p.Z)
		p.Inside = p.CI.Contains(p.Expected)
		if n > 0 && (p.Expected == 0 || p.Expected == 1) {
			// 必然或不可能的位置：只要有一次不符就是錯
			p.Inside = p.Observed == p.Expected
			if !p.Inside {
				certain++
			}
		}
		if p.Inside {
			covered++
		}
		absZ[i] = math.Abs(p.Z)
		maxZ = max(maxZ, absZ[i])
	}
	s.Summary.Covered = covered
	s.Summary.Certain = certain
	s.Summary.MaxAbsZ = maxZ
	if len(absZ) > 0 {
		s.Summary.MeanAbsZ = stat.Mean(absZ, nil)
		s.Summary.Coverage = float64(covered) / float64(len(absZ))
	}
	s.isDone = true
}

// Observed 回傳各位置的觀測頻率
func (s *InclusionReport) Observed() []float64 {
	s.Done()
	out := make([]float64, len(s.Positions))
	for i, p := range s.Positions {
		out[i] = p.Observed
	}
	return out
}

func (s *InclusionReport) WriteWith(w io.Writer, rep InclusionReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut 在終端輸出摘要表格
func (s *InclusionReport) StdOut(ut time.Duration) {
	s.Done()
	formatDuration(ut, s.Summary.Draws)
	sk, sm := s.fmtBasic()
	fmt.Println(fmtTable(s.Summary.PlanName, sk, sm))
}

// ============================================================
// ** 內部方法 **
// ============================================================

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// zScore 以 expected 的二項變異數標準化觀測頻率；變異數為 0 時回傳 0。
func zScore(k, n int, expected float64) float64 {
	v := expected * (1 - expected)
	if n == 0 || v <= 0 {
		return 0
	}
	return (float64(k)/float64(n) - expected) / math.Sqrt(v/float64(n))
}

func twoSidedP(z float64) float64 {
	return 2 * distuv.UnitNormal.Survival(math.Abs(z))
}

func formatDuration(d time.Duration, draws int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	dps := int(float64(draws) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\ndps : %d draws/sec\n", sec, dps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Printf("used: %dm %ds\ndps : %d draws/sec\n", m, s, dps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\ndps : %d draws/sec\n", h, m, s, dps)
}

func (s *InclusionReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Plan Name":    p.Sprintf("%s", s.Summary.PlanName),
		"Plan ID":      fmt.Sprintf("%d", s.Summary.PlanID),
		"Method":       s.Summary.Method,
		"Q / R":        p.Sprintf("%d / %d", s.Summary.Q, s.Summary.R),
		"Total Draws":  p.Sprintf("%d", s.Summary.Draws),
		"Failures":     p.Sprintf("%d", s.Summary.Failures),
		"Violations":   p.Sprintf("%d", s.Summary.Violations),
		"Certain Miss": p.Sprintf("%d", s.Summary.Certain),
		"Max |Z|":      p.Sprintf("%.3f", s.Summary.MaxAbsZ),
		"Mean |Z|":     p.Sprintf("%.3f", s.Summary.MeanAbsZ),
		"CI Coverage":  p.Sprintf("%.2f %% (%d/%d)", 100.0*s.Summary.Coverage, s.Summary.Covered, s.Summary.Q),
	}
	keys := []string{"Plan Name", "Plan ID", "Method", "Q / R", "Total Draws", "Failures", "Violations", "Certain Miss", "Max |Z|", "Mean |Z|", "CI Coverage"}
	return keys, basic
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	fmtStr := top
	fmtStr += p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right))
	fmtStr += divider
	for _, k := range keys {
		fmtStr += p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	fmtStr += divider

	return fmtStr
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
