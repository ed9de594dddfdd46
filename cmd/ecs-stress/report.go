package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"text/template"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/plus3/ooftn-store/ecs"
	"github.com/shirou/gopsutil/v3/process"
)

var jsonConf = jsoniter.Config{
	EscapeHTML:  true,
	SortMapKeys: true,
}.Froze()

type Report struct {
	// Configuration
	Duration time.Duration `json:"duration"`
	Entities int           `json:"entities"`
	Workers  int           `json:"workers"`
	Churn    float64       `json:"churn"`

	// Results
	TotalUpdates   int64             `json:"total_updates"`
	TotalTime      time.Duration     `json:"total_time"`
	UpdateTime     Stats             `json:"update_time"`
	Churned        int64             `json:"churned"`
	Storage        *ecs.StorageStats `json:"storage"`
	Process        ProcessSample     `json:"process"`
	GCPauseMetrics bool              `json:"-"`
	MemStatsStart  runtime.MemStats  `json:"-"`
	MemStatsEnd    runtime.MemStats  `json:"-"`
}

type Stats struct {
	Min     time.Duration   `json:"min"`
	Max     time.Duration   `json:"max"`
	Avg     time.Duration   `json:"avg"`
	Samples []time.Duration `json:"-"`
}

// ProcessSample is the OS view of this process at the end of a run.
type ProcessSample struct {
	Available  bool    `json:"available"`
	RSS        uint64  `json:"rss"`
	CPUPercent float64 `json:"cpu_percent"`
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

func sampleProcess() (ProcessSample, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return ProcessSample{}, fmt.Errorf("open process: %w", err)
	}

	mem, err := proc.MemoryInfo()
	if err != nil {
		return ProcessSample{}, fmt.Errorf("read memory info: %w", err)
	}
	cpu, err := proc.CPUPercent()
	if err != nil {
		return ProcessSample{}, fmt.Errorf("read cpu usage: %w", err)
	}

	return ProcessSample{
		Available:  true,
		RSS:        mem.RSS,
		CPUPercent: cpu,
	}, nil
}

func (r *Report) Generate(w io.Writer, format string) error {
	switch format {
	case "json":
		data, err := jsonConf.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case "text", "":
		return r.generateText(w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func (r *Report) generateText(w io.Writer) error {
	const reportTemplate = `
# ECS Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Initial Entities:** {{.Entities}}
- **Workers:** {{.Workers}}
- **Churn Rate:** {{.Churn}}

## Performance Results
- **Total Updates:** {{.TotalUpdates}}
- **Total Test Time:** {{.TotalTime}}
- **Churned Components:** {{.Churned}}
- **Update Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}
{{with .Storage}}
## Component Stores ({{.ComponentTypeCount}} types, {{.TotalComponentCount}} components)
{{range .Components}}- {{.TypeName}}: {{.Count}} components, capacity {{.Capacity}}, {{.FreeSlots}} free slots
{{end}}{{end}}
## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{if .Process.Available}}- Process RSS:    {{.Process.RSS | mb}} MiB
- Process CPU:    {{printf "%.1f" .Process.CPUPercent}}%
{{end}}
{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}
`

	fm := template.FuncMap{
		"mb": func(v any) string {
			switch val := v.(type) {
			case uint64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			case int64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			default:
				return "N/A"
			}
		},
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
