package ports

import "time"

// MemberReport describes one internal member of a written unit.
type MemberReport struct {
	Path      string `json:"path"`
	Bytes     int64  `json:"bytes"`
	Mode      string `json:"mode"`
	HasMarker bool   `json:"has_marker"`
}

// UnitReport is the outcome of one driver iteration.
type UnitReport struct {
	Index     int            `json:"index"`
	Name      string         `json:"name"`
	Format    Format         `json:"format"`
	Timestamp time.Time      `json:"timestamp"`
	Marker    string         `json:"marker,omitempty"`
	Members   []MemberReport `json:"members,omitempty"`
	Bytes     int64          `json:"bytes"`
	Duration  time.Duration  `json:"duration"`
	Err       string         `json:"error,omitempty"`
}

// OK reports whether the unit was written successfully.
func (r UnitReport) OK() bool { return r.Err == "" }

// MarkerMember returns the path of the member carrying the marker, or "".
func (r UnitReport) MarkerMember() string {
	for _, m := range r.Members {
		if m.HasMarker {
			return m.Path
		}
	}
	return ""
}

// Summary is the result of a whole run.
type Summary struct {
	RunID       string       `json:"run_id"`
	OutputDir   string       `json:"output_dir"`
	Started     time.Time    `json:"started"`
	Finished    time.Time    `json:"finished"`
	Requested   int          `json:"requested"`
	Succeeded   int          `json:"succeeded"`
	Failed      int          `json:"failed"`
	Interrupted bool         `json:"interrupted"`
	Units       []UnitReport `json:"units"`
}

// Reporter receives per-unit progress from the corpus driver.
type Reporter interface {
	Start(total int)
	UnitStarted(index, total int, name, marker string)
	UnitDone(report UnitReport)
	Finish(summary Summary)
}

// ManifestWriter persists the ground truth of a run.
type ManifestWriter interface {
	// Ext is the file extension, dot included, of the manifests it writes.
	Ext() string
	WriteManifest(path string, summary Summary) error
}
