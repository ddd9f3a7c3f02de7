package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/tctsim/internal/sweep"
)

const (
	metadataFile  = "metadata.json"
	waveformsFile = "waveforms.csv"
)

var waveformHeader = []string{"voltage", "lateral", "depth", "crossings"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Dir is the directory of a run.
func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type DetectorInfo struct {
	Model        string  `json:"model"`
	Thickness    float64 `json:"thickness"`
	Width        float64 `json:"width"`
	Doping       float64 `json:"doping"`
	Temperature  float64 `json:"temperature"`
	TrappingTime float64 `json:"trapping_time"`
	Diffusion    bool    `json:"diffusion"`
	Capacitance  float64 `json:"capacitance"`
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Scan       string             `json:"scan"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	TotalTime  float64            `json:"total_time"`
	Samples    int                `json:"samples"`
	Threads    int                `json:"threads"`
	Integrator string             `json:"integrator"`
	Shaping    string             `json:"shaping"`
	Detector   DetectorInfo       `json:"detector"`
	Carriers   int                `json:"carriers"`
	Electrons  int                `json:"electrons"`
	Holes      int                `json:"holes"`
	CentroidX  float64            `json:"centroid_x"`
	CentroidY  float64            `json:"centroid_y"`
	Crossings  int                `json:"crossings"`
	Voltages   []float64          `json:"voltages"`
	Lateral    []float64          `json:"lateral"`
	Depths     []float64          `json:"depths"`
	Elapsed    float64            `json:"elapsed_seconds"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// Waveform is one stored grid point.
type Waveform struct {
	Voltage   float64   `json:"voltage"`
	Lateral   float64   `json:"lateral"`
	Depth     float64   `json:"depth"`
	Crossings int       `json:"crossings"`
	Current   []float64 `json:"current"`
}

// Waveforms flattens a result table in index order.
func Waveforms(table *sweep.ResultTable) []Waveform {
	g := table.Grid()
	out := make([]Waveform, table.Len())
	for i := range out {
		v, l, d := table.Coords(i)
		cur := make([]float64, table.Samples())
		copy(cur, table.At(i))
		out[i] = Waveform{
			Voltage:   g.Voltages[v],
			Lateral:   g.Lateral[l],
			Depth:     g.Depths[d],
			Crossings: table.CrossingsAt(i),
			Current:   cur,
		}
	}
	return out
}

// Save writes metadata.json and waveforms.csv into a new run directory.
// The grid, sample count and crossing total of meta are filled from table.
func (s *Store) Save(meta RunMetadata, table *sweep.ResultTable) (string, error) {
	if meta.Scan == "" {
		meta.Scan = "scan"
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runID := fmt.Sprintf("%s_%d", meta.Scan, meta.Timestamp.UnixNano())
	runDir := s.Dir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	g := table.Grid()
	meta.ID = runID
	meta.Samples = table.Samples()
	meta.Crossings = table.Crossings()
	meta.Voltages = g.Voltages
	meta.Lateral = g.Lateral
	meta.Depths = g.Depths

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeWaveforms(filepath.Join(runDir, waveformsFile), Waveforms(table)); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// waveforms.csv holds one row per grid point: the coordinates, the
// crossing count, then the samples.
func writeWaveforms(path string, waves []Waveform) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{}, waveformHeader...)
	if len(waves) > 0 {
		for i := range waves[0].Current {
			header = append(header, fmt.Sprintf("i%d", i))
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, wf := range waves {
		row := []string{
			strconv.FormatFloat(wf.Voltage, 'g', -1, 64),
			strconv.FormatFloat(wf.Lateral, 'g', -1, 64),
			strconv.FormatFloat(wf.Depth, 'g', -1, 64),
			strconv.Itoa(wf.Crossings),
		}
		for _, v := range wf.Current {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	return &meta, nil
}

// Latest returns the ID of the newest run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("no runs stored")
	}
	return runs[0].ID, nil
}

func (s *Store) LoadWaveforms(runID string) ([]Waveform, error) {
	f, err := os.Open(filepath.Join(s.Dir(runID), waveformsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Waveform{}, nil
	}

	waves := make([]Waveform, 0, len(records)-1)
	for n, record := range records[1:] {
		if len(record) < len(waveformHeader) {
			return nil, fmt.Errorf("%s: row %d has %d fields", waveformsFile, n+2, len(record))
		}
		vals := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %d: %w", waveformsFile, n+2, i+1, err)
			}
			vals[i] = v
		}
		waves = append(waves, Waveform{
			Voltage:   vals[0],
			Lateral:   vals[1],
			Depth:     vals[2],
			Crossings: int(vals[3]),
			Current:   vals[len(waveformHeader):],
		})
	}
	return waves, nil
}
