package reporter

import (
	"fmt"

	"github.com/EEWBot/webhook-benchmark/model"
)

const (
	reportTitle = "Webhook Benchmark Metrics"
	reportColor = 0x008000
	noData      = "no data"
)

// Message is a Discord-compatible webhook body.
type Message struct {
	Embeds []Embed `json:"embeds"`
}

// Embed is a single rich embed.
type Embed struct {
	Title  string  `json:"title"`
	Color  int     `json:"color"`
	Fields []Field `json:"fields"`
}

// Field is one labelled value inside an embed.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// FormatReport renders a snapshot. With no samples the latency fields read "no data".
func FormatReport(g model.Gauge) Message {
	best, avgText, worst := noData, noData, noData
	if avg, ok := g.AvgMs(); ok {
		best = fmt.Sprintf("%dms", g.BestMs)
		avgText = fmt.Sprintf("%dms", avg)
		worst = fmt.Sprintf("%dms", g.WorstMs)
	}

	return Message{Embeds: []Embed{{
		Title: reportTitle,
		Color: reportColor,
		Fields: []Field{
			{Name: "Count", Value: fmt.Sprintf("%d times", g.Count)},
			{Name: "Best", Value: best, Inline: true},
			{Name: "Average", Value: avgText, Inline: true},
			{Name: "Worst", Value: worst, Inline: true},
		},
	}}}
}
