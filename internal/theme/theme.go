// Package theme renders single synthetic log records for the four log
// families a corpus mixes: web access, syslog, database slow query and
// application stack trace.
package theme

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/chaoslog/internal/utils"
)

// Theme is one synthetic log family.
type Theme int

const (
	Web Theme = iota
	Syslog
	DB
	AppTrace
)

// TimestampLayout is the millisecond layout shared by every theme.
const TimestampLayout = "2006-01-02 15:04:05.000"

// maxOffsetMS scatters record timestamps over the day after the base date.
const maxOffsetMS = 86_400_000

var names = map[Theme]string{
	Web:      "web",
	Syslog:   "syslog",
	DB:       "db",
	AppTrace: "app_trace",
}

// All returns the themes in declaration order.
func All() []Theme {
	return []Theme{Web, Syslog, DB, AppTrace}
}

func (t Theme) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return "theme(" + strconv.Itoa(int(t)) + ")"
}

// Parse maps a theme name back to its value.
func Parse(s string) (Theme, error) {
	for t, n := range names {
		if strings.EqualFold(s, n) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown theme: %s", s)
}

// Generator renders records for a vocabulary from a random source.
// It is not safe for concurrent use.
type Generator struct {
	rng   *rand.Rand
	vocab Vocabulary
}

// NewGenerator returns a Generator drawing from r and vocab.
func NewGenerator(r *rand.Rand, vocab Vocabulary) *Generator {
	return &Generator{rng: r, vocab: vocab}
}

// Entry renders one newline-terminated record of theme t.
func (g *Generator) Entry(t Theme, base time.Time) string {
	switch t {
	case Web:
		return g.web(base)
	case Syslog:
		return g.syslog(base)
	case DB:
		return g.db(base)
	default:
		return g.appTrace(base)
	}
}

// Timestamp returns base plus a random offset within the following 24 hours.
func (g *Generator) Timestamp(base time.Time) string {
	delta := time.Duration(g.rng.Int64N(maxOffsetMS+1)) * time.Millisecond
	return base.Add(delta).Format(TimestampLayout)
}

var webStatuses = []int{200, 200, 200, 301, 404, 500, 403}

func (g *Generator) web(base time.Time) string {
	return fmt.Sprintf("%s - - [%s] \"%s %s HTTP/1.1\" %d %d \"%s\"\n",
		utils.RandIPv4(g.rng),
		g.Timestamp(base),
		utils.Pick(g.rng, g.vocab.Methods),
		utils.Pick(g.rng, g.vocab.URLs),
		utils.Pick(g.rng, webStatuses),
		utils.IntRange(g.rng, 100, 15000),
		utils.Pick(g.rng, g.vocab.UserAgents),
	)
}

func (g *Generator) syslog(base time.Time) string {
	return fmt.Sprintf("%s %s %s[%d]: <INFO> %s result=success\n",
		g.Timestamp(base),
		g.vocab.Hostname,
		utils.Pick(g.rng, g.vocab.Processes),
		utils.IntRange(g.rng, 100, 9999),
		utils.Pick(g.rng, g.vocab.SyslogMessages),
	)
}

func (g *Generator) db(base time.Time) string {
	queryTime := 0.1 + g.rng.Float64()*(15.0-0.1)
	return fmt.Sprintf("# Time: %s\n# User@Host: admin[%s]\n# Query_time: %.4f  Lock_time: 0.0001\nSELECT * FROM %s WHERE id > %d ORDER BY created_at DESC;\n",
		g.Timestamp(base),
		utils.RandIPv4(g.rng),
		queryTime,
		utils.Pick(g.rng, g.vocab.Tables),
		utils.IntRange(g.rng, 1000, 90000),
	)
}

func (g *Generator) appTrace(base time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [main] ERROR com.company.service.Core - Exception occurred: %s\n",
		g.Timestamp(base), utils.Pick(g.rng, g.vocab.Errors))
	frames := utils.IntRange(g.rng, 5, 15)
	for i := 0; i < frames; i++ {
		fmt.Fprintf(&b, "\tat com.company.module.Class%d.method(SourceFile.java:%d)\n",
			utils.IntRange(g.rng, 1, 99), utils.IntRange(g.rng, 10, 500))
	}
	return b.String()
}

// MarkerPrefix starts every injected marker line.
const MarkerPrefix = "[SECURITY_AUDIT]"

// MarkerLine renders the audit line that carries a marker word, preceded by
// a blank line.
func (g *Generator) MarkerLine(base time.Time, marker string) string {
	return fmt.Sprintf("\n%s %s ALERT: Pattern %s detected in input stream from %s !!!\n",
		MarkerPrefix, g.Timestamp(base), marker, utils.RandIPv4(g.rng))
}
