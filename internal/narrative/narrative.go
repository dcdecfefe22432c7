// Package narrative expands a single insight into a five-frame story.
package narrative

import "github.com/me-e6/pengine/internal/insight"

// FrameType names a position in the story.
type FrameType string

const (
	FrameContext     FrameType = "context"
	FrameChange      FrameType = "change"
	FrameEvidence    FrameType = "evidence"
	FrameConsequence FrameType = "consequence"
	FrameImplication FrameType = "implication"
)

// FrameOrder is the fixed order of every narrative's frames.
var FrameOrder = [5]FrameType{FrameContext, FrameChange, FrameEvidence, FrameConsequence, FrameImplication}

// Frame is one step of the story.
type Frame struct {
	Type           FrameType `json:"type"`
	Headline       string    `json:"headline"`
	Body           string    `json:"body_text"`
	KeyMetric      string    `json:"key_metric,omitempty"`
	KeyMetricLabel string    `json:"key_metric_label,omitempty"`
	VisualHint     string    `json:"visual_hint"`
	Emphasis       string    `json:"emphasis"`
}

// Narrative is a complete story built from one insight. Frames always hold
// context, change, evidence, consequence and implication in that order.
type Narrative struct {
	Title      string            `json:"title"`
	Subtitle   string            `json:"subtitle"`
	Domain     string            `json:"domain"`
	Sentiment  insight.Sentiment `json:"sentiment"`
	Frames     [5]Frame          `json:"frames"`
	Source     string            `json:"source"`
	Period     string            `json:"period"`
	Confidence float64           `json:"confidence"`
}

// Frame returns the frame of type t.
func (n Narrative) Frame(t FrameType) Frame {
	for _, f := range n.Frames {
		if f.Type == t {
			return f
		}
	}
	return Frame{}
}
