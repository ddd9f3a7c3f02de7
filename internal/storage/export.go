package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

type ExportData struct {
	Metadata  RunMetadata `json:"metadata"`
	Times     []float64   `json:"times"`
	Waveforms []Waveform  `json:"waveforms"`
}

// Times returns the sample times for n samples of dt.
func Times(n int, dt float64) []float64 {
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i) * dt
	}
	return t
}

func ExportJSON(w io.Writer, meta *RunMetadata, waves []Waveform) error {
	data := ExportData{
		Metadata:  *meta,
		Times:     Times(meta.Samples, meta.Dt),
		Waveforms: waves,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes a column layout: time first, then one column per grid
// point named by its coordinates.
func ExportCSV(w io.Writer, meta *RunMetadata, waves []Waveform) error {
	cw := csv.NewWriter(w)

	header := []string{"time"}
	for _, wf := range waves {
		header = append(header, fmt.Sprintf("V%g_y%g_z%g", wf.Voltage, wf.Lateral, wf.Depth))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, t := range Times(meta.Samples, meta.Dt) {
		row := []string{strconv.FormatFloat(t, 'g', 6, 64)}
		for _, wf := range waves {
			v := 0.0
			if i < len(wf.Current) {
				v = wf.Current[i]
			}
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
