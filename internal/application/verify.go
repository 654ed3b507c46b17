package application

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gobwas/glob"
	"github.com/juju/errors"

	"github.com/hailam/chaoslog/internal/ports"
	"github.com/hailam/chaoslog/internal/theme"
)

// maxLineBytes caps a single scanned line.
const maxLineBytes = 1 << 20

// MemberCheck is what verification found in one member.
type MemberCheck struct {
	Path         string
	Bytes        int64
	ValidUTF8    bool
	UnknownLines int
	// Markers counts occurrences of each marker word.
	Markers map[string]int
}

// MarkerCount is the total number of marker words found in the member.
func (m MemberCheck) MarkerCount() int {
	n := 0
	for _, c := range m.Markers {
		n += c
	}
	return n
}

// FileCheck is what verification found in one corpus file.
type FileCheck struct {
	Name    string
	Format  ports.Format
	Members []MemberCheck
	Err     string
}

// VerifyReport is the outcome of a corpus verification.
type VerifyReport struct {
	Files []FileCheck
	// Problems lists every failed check in human-readable form.
	Problems []string
}

// OK reports whether verification found no problem.
func (r VerifyReport) OK() bool { return len(r.Problems) == 0 }

// VerifyService reads a corpus back and checks it against the ground truth.
type VerifyService struct {
	markers []string
	include glob.Glob
}

// NewVerifyService returns a service looking for markers. include, when not
// empty, is a glob that file names must match to be checked.
func NewVerifyService(markers []string, include string) (*VerifyService, error) {
	if len(markers) == 0 {
		return nil, errors.NotValidf("empty marker vocabulary")
	}
	v := &VerifyService{markers: markers}
	if include != "" {
		g, err := glob.Compile(include)
		if err != nil {
			return nil, errors.Annotatef(err, "compiling include pattern %q", include)
		}
		v.include = g
	}
	return v, nil
}

// Verify checks every corpus file in dir. When manifest is not nil, file
// presence and marker placement are compared with it.
func (v *VerifyService) Verify(ctx context.Context, dir string, manifest *ports.Summary) (VerifyReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return VerifyReport{}, errors.Annotatef(err, "reading corpus dir %s", dir)
	}

	var report VerifyReport
	seen := map[string]FileCheck{}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, errors.Trace(err)
		}
		if e.IsDir() {
			continue
		}
		format, ok := ports.FormatFromPath(e.Name())
		if !ok {
			continue
		}
		if v.include != nil && !v.include.Match(e.Name()) {
			continue
		}

		fc := v.checkFile(filepath.Join(dir, e.Name()), format)
		fc.Name = e.Name()
		report.Files = append(report.Files, fc)
		seen[fc.Name] = fc

		if fc.Err != "" {
			report.problemf("%s: %s", fc.Name, fc.Err)
			continue
		}
		for _, m := range fc.Members {
			if !m.ValidUTF8 {
				report.problemf("%s: member %s is not valid UTF-8", fc.Name, m.Path)
			}
			if m.UnknownLines > 0 {
				report.problemf("%s: member %s has %d unrecognized lines", fc.Name, m.Path, m.UnknownLines)
			}
		}
		if carriers := markerCarriers(fc); len(carriers) > 1 {
			report.problemf("%s: markers found in %d members (%s)", fc.Name, len(carriers), strings.Join(carriers, ", "))
		}
	}

	if manifest != nil {
		v.compare(&report, seen, *manifest)
	}
	return report, nil
}

func (r *VerifyReport) problemf(format string, args ...interface{}) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

func markerCarriers(fc FileCheck) []string {
	var out []string
	for _, m := range fc.Members {
		if m.MarkerCount() > 0 {
			out = append(out, m.Path)
		}
	}
	return out
}

// compare checks the files found on disk against the manifest.
func (v *VerifyService) compare(report *VerifyReport, seen map[string]FileCheck, manifest ports.Summary) {
	expected := map[string]bool{}
	for _, u := range manifest.Units {
		if !u.OK() {
			continue
		}
		if v.include != nil && !v.include.Match(u.Name) {
			continue
		}
		expected[u.Name] = true

		fc, ok := seen[u.Name]
		if !ok {
			report.problemf("%s: listed in manifest but missing", u.Name)
			continue
		}
		if fc.Err != "" {
			continue
		}
		if len(fc.Members) != len(u.Members) {
			report.problemf("%s: %d members, manifest lists %d", u.Name, len(fc.Members), len(u.Members))
		}

		carriers := markerCarriers(fc)
		switch {
		case u.Marker == "" && len(carriers) > 0:
			report.problemf("%s: unexpected marker in %s", u.Name, strings.Join(carriers, ", "))
		case u.Marker != "":
			want := u.MarkerMember()
			if len(carriers) != 1 || carriers[0] != want {
				report.problemf("%s: marker %s expected in %s, found in [%s]", u.Name, u.Marker, want, strings.Join(carriers, ", "))
				continue
			}
			for _, m := range fc.Members {
				if m.Path == want && (m.Markers[u.Marker] != 1 || m.MarkerCount() != 1) {
					report.problemf("%s: marker %s found %d times in %s", u.Name, u.Marker, m.Markers[u.Marker], want)
				}
			}
		}
	}

	var extra []string
	for name := range seen {
		if !expected[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		report.problemf("%s: not listed in manifest", name)
	}
}

func (v *VerifyService) checkFile(path string, format ports.Format) FileCheck {
	fc := FileCheck{Format: format}
	var err error
	switch format {
	case ports.FormatPlain:
		err = v.checkPlain(path, &fc)
	case ports.FormatZip:
		err = v.checkZip(path, &fc)
	case ports.FormatTarball:
		err = v.checkTarGz(path, &fc)
	}
	if err != nil {
		fc.Err = err.Error()
	}
	return fc
}

func (v *VerifyService) checkPlain(path string, fc *FileCheck) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()

	m, err := v.checkMember(filepath.Base(path), f)
	if err != nil {
		return err
	}
	fc.Members = append(fc.Members, m)
	return nil
}

func (v *VerifyService) checkZip(path string, fc *FileCheck) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return errors.Annotate(err, "opening zip")
	}
	defer zr.Close()

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return errors.Annotatef(err, "opening member %s", f.Name)
		}
		m, err := v.checkMember(f.Name, rc)
		rc.Close()
		if err != nil {
			return err
		}
		fc.Members = append(fc.Members, m)
	}
	return nil
}

func (v *VerifyService) checkTarGz(path string, fc *FileCheck) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return errors.Annotate(err, "opening gzip stream")
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Annotate(err, "reading tar")
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		m, err := v.checkMember(hdr.Name, tr)
		if err != nil {
			return err
		}
		if m.Bytes != hdr.Size {
			return errors.Errorf("member %s holds %d bytes, header says %d", hdr.Name, m.Bytes, hdr.Size)
		}
		fc.Members = append(fc.Members, m)
	}
}

// checkMember scans r line by line.
func (v *VerifyService) checkMember(name string, r io.Reader) (MemberCheck, error) {
	m := MemberCheck{Path: name, ValidUTF8: true, Markers: map[string]int{}}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	sc.Split(scanLinesKeepEOL)
	for sc.Scan() {
		raw := sc.Bytes()
		m.Bytes += int64(len(raw))
		if !utf8.Valid(raw) {
			m.ValidUTF8 = false
		}
		line := strings.TrimSuffix(string(raw), "\n")
		if !theme.KnownLine(line) {
			m.UnknownLines++
		}
		for _, w := range v.markers {
			if n := strings.Count(line, w); n > 0 {
				m.Markers[w] += n
			}
		}
	}
	if err := sc.Err(); err != nil {
		return m, errors.Annotatef(err, "scanning member %s", name)
	}
	return m, nil
}

// scanLinesKeepEOL is bufio.ScanLines without dropping the newline, so byte
// counts match the member size.
func scanLinesKeepEOL(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i+1], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
