package v1

import (
	"crypto/rand"
	"log/slog"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zintix-labs/cbsample"
	"github.com/zintix-labs/cbsample/catalog"
	"github.com/zintix-labs/cbsample/errs"
	"github.com/zintix-labs/cbsample/plan"
	"github.com/zintix-labs/cbsample/server/svrcfg"
)

// Handler v1 API 的共同依賴：Lab 負責模擬，Runtime 負責線上抽樣。
type Handler struct {
	lab         *cbsample.Lab
	rt          *cbsample.Runtime
	log         *slog.Logger
	met         *Metrics
	drawTimeout time.Duration
}

// NewHandler 建立 Runtime（會 Freeze catalog）；sCfg 需先通過 Valid。
func NewHandler(sCfg *svrcfg.SvrCfg) (*Handler, error) {
	rt, err := sCfg.Lab.BuildRuntime(sCfg.PoolSize)
	if err != nil {
		return nil, errs.Wrap(err, "build v1 handler error")
	}
	return &Handler{
		lab:         sCfg.Lab,
		rt:          rt,
		log:         sCfg.Log,
		met:         NewMetrics(sCfg.Metrics),
		drawTimeout: sCfg.DrawTimeout,
	}, nil
}

// Runtime 交給上層在關閉時釋放
func (h *Handler) Runtime() *cbsample.Runtime { return h.rt }

// resolvePlan 先用 pid，找不到再用名稱（不分大小寫）。
func (h *Handler) resolvePlan(pid plan.PID, name string) (catalog.Entry, error) {
	if pid != 0 {
		if e, ok := h.lab.EntryByID(pid); ok {
			return e, nil
		}
		return catalog.Entry{}, errs.Invalid("pid %d not found", pid)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return catalog.Entry{}, errs.Invalid("pid or plan is required")
	}
	if e, ok := h.lab.EntryByName(name); ok {
		return e, nil
	}
	return catalog.Entry{}, errs.Invalid("plan %q not found", name)
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func queryPID(s string) (plan.PID, error) {
	if s == "" {
		return 0, nil
	}
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, errs.Invalid("pid must be non-negative integer")
	}
	return plan.PID(u), nil
}

func queryInt(s, name string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.Invalid("%s must be integer", name)
	}
	return v, nil
}

func querySeed(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, errs.Invalid("seed must be int64")
	}
	return &v, nil
}

// seedOr 未指定 seed 時以 crypto/rand 產生
func seedOr(seed *int64) (int64, error) {
	if seed != nil {
		return *seed, nil
	}
	rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.Wrap(err, "seed generate failed")
	}
	return rnd.Int64(), nil
}
