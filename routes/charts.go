/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/humaidq/rulebase/engine"
)

// chartThreshold is a horizontal reference line drawn from a rule condition.
type chartThreshold struct {
	Name  string
	Value float64
}

// ruleThresholds collects the numeric bounds that rules place on a parameter.
func ruleThresholds(rules []engine.DiseaseRule, parameter string) []chartThreshold {
	var out []chartThreshold

	seen := make(map[string]bool)
	add := func(name string, value float64) {
		key := fmt.Sprintf("%s|%g", name, value)
		if seen[key] {
			return
		}

		seen[key] = true
		out = append(out, chartThreshold{Name: name, Value: value})
	}

	for _, d := range rules {
		for _, entry := range d.Entries {
			for _, c := range entry.Conditions {
				if !strings.EqualFold(c.Parameter, parameter) {
					continue
				}

				switch c.Kind {
				case engine.KindRange:
					add(d.Code+" min", c.Range.Min)
					add(d.Code+" max", c.Range.Max)
				case engine.KindComparison:
					add(d.Code+" "+c.Comparison.Operator.Symbol(), c.Comparison.Value)
				case engine.KindTimeDependent:
					add(d.Code+" "+c.TimeDependent.Operator.Symbol(), c.TimeDependent.Value)
				}
			}
		}
	}

	return out
}

// generateObservationChart renders one parameter's history as a line chart.
// Observations collected on the same day keep the latest entry. Returns an
// empty string when there is nothing to plot.
func generateObservationChart(parameter string, history []engine.Observation, thresholds []chartThreshold) (string, error) {
	if len(history) == 0 {
		return "", nil
	}

	var (
		days   []engine.Date
		byDay  = make(map[engine.Date]engine.Observation)
		unit   string
		series []opts.LineData
	)

	for _, o := range history {
		if _, ok := byDay[o.CollectedOn]; !ok {
			days = append(days, o.CollectedOn)
		}

		byDay[o.CollectedOn] = o

		if unit == "" {
			unit = o.Unit
		}
	}

	xAxis := make([]string, 0, len(days))
	for _, day := range days {
		xAxis = append(xAxis, day.Time().Format("Jan 2, 2006"))
		series = append(series, opts.LineData{Value: byDay[day].Value})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: parameter,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: unit,
		}),
	)

	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(true),
			ShowSymbol: opts.Bool(true),
		}),
		charts.WithMarkPointNameTypeItemOpts(
			opts.MarkPointNameTypeItem{Name: "Max", Type: "max"},
			opts.MarkPointNameTypeItem{Name: "Min", Type: "min"},
		),
	}

	if len(thresholds) > 0 {
		items := make([]interface{}, 0, len(thresholds))
		for _, th := range thresholds {
			items = append(items, opts.MarkLineNameYAxisItem{Name: th.Name, YAxis: th.Value})
		}

		seriesOpts = append(seriesOpts, func(s *charts.SingleSeries) {
			s.MarkLines = &opts.MarkLines{
				Data: items,
				MarkLineStyle: opts.MarkLineStyle{
					Symbol: []string{"none", "none"},
					LineStyle: &opts.LineStyle{
						Color: "rgba(192, 57, 43, 0.6)",
						Type:  "dashed",
						Width: 1.5,
					},
				},
			}
		})
	}

	line.SetXAxis(xAxis).
		AddSeries(parameter, series).
		SetSeriesOptions(seriesOpts...)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}

	return buf.String(), nil
}
