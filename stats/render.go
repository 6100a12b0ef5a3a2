package stats

import (
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// InclusionReportRender 定義輸出行為
type InclusionReportRender interface {
	Write(w io.Writer, r *InclusionReport) error
}

// RenderByName 依名稱 (json / yaml / table / html) 取得渲染器
func RenderByName(name string) (InclusionReportRender, bool) {
	switch name {
	case "", "json":
		return &JsonInclusionRender{}, true
	case "yaml", "yml":
		return &YAMLInclusionRender{}, true
	case "table":
		return &TableInclusionRender{}, true
	case "html", "chart":
		return &ChartInclusionRender{}, true
	default:
		return nil, false
	}
}

// Json渲染
type JsonInclusionRender struct{}

func (jr *JsonInclusionRender) Write(w io.Writer, r *InclusionReport) error {
	return json.NewEncoder(w).Encode(r)
}

// YAML渲染
type YAMLInclusionRender struct{}

func (yr *YAMLInclusionRender) Write(w io.Writer, r *InclusionReport) error {
	// 只有「最內層的一維陣列」輸出成 flow style：[..., ...]
	return forceReadableList(w, r)
}

// 表格渲染：摘要 + 每個位置一列
type TableInclusionRender struct{}

func (tr *TableInclusionRender) Write(w io.Writer, r *InclusionReport) error {
	keys, msg := r.fmtBasic()
	if _, err := io.WriteString(w, fmtTable(r.Summary.PlanName, keys, msg)); err != nil {
		return err
	}
	p := message.NewPrinter(lang)
	if _, err := p.Fprintf(w, "%6s %9s %9s %9s %21s %8s %s\n", "idx", "pi", "expected", "observed", "ci", "z", "ok"); err != nil {
		return err
	}
	for _, pos := range r.Positions {
		ci := fmt.Sprintf("[%.5f,%.5f]", pos.CI.Lo, pos.CI.Hi)
		ok := "v"
		if !pos.Inside {
			ok = "x"
		}
		if _, err := p.Fprintf(w, "%6d %9.5f %9.5f %9.5f %21s %8.3f %s\n", pos.Index, pos.Pi, pos.Expected, pos.Observed, ci, pos.Z, ok); err != nil {
			return err
		}
	}
	return nil
}

// YAML 內層方法
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}

	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
		return

	case yaml.SequenceNode:
		// 內含 mapping 或 sequence 的是外層維度，維持 block style
		nested := false
		for _, c := range n.Content {
			if c != nil && (c.Kind == yaml.SequenceNode || c.Kind == yaml.MappingNode) {
				nested = true
				break
			}
		}
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
		if !nested {
			n.Style = yaml.FlowStyle
		}
		return

	default:
		return
	}
}
