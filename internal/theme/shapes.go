package theme

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	reTS = `\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}`
	reIP = `\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`
)

// lineShapes matches every line a theme or the marker can produce.
var lineShapes = []*regexp.Regexp{
	// web
	regexp.MustCompile(`^` + reIP + ` - - \[` + reTS + `\] "[A-Z]+ \S+ HTTP/1\.1" \d{3} \d+ ".*"$`),
	// syslog
	regexp.MustCompile(`^` + reTS + ` \S+ \S+\[\d+\]: <INFO> .+ result=success$`),
	// db
	regexp.MustCompile(`^# Time: ` + reTS + `$`),
	regexp.MustCompile(`^# User@Host: admin\[` + reIP + `\]$`),
	regexp.MustCompile(`^# Query_time: \d+\.\d{4}  Lock_time: 0\.0001$`),
	regexp.MustCompile(`^SELECT \* FROM \S+ WHERE id > \d+ ORDER BY created_at DESC;$`),
	// app trace
	regexp.MustCompile(`^` + reTS + ` \[main\] ERROR com\.company\.service\.Core - Exception occurred: .+$`),
	regexp.MustCompile(`^\tat com\.company\.module\.Class\d+\.method\(SourceFile\.java:\d+\)$`),
	// marker
	regexp.MustCompile(`^\[SECURITY_AUDIT\] ` + reTS + ` ALERT: Pattern \S+ detected in input stream from ` + reIP + ` !!!$`),
}

// KnownLine reports whether line (without its newline) has one of the shapes
// the themes emit. The empty line before a marker counts as known.
func KnownLine(line string) bool {
	if line == "" {
		return true
	}
	for _, re := range lineShapes {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// fixedText is the literal text of the record and marker templates.
var fixedText = []string{
	"HTTP/1.1",
	"<INFO>", "result=success",
	"# Time:", "# User@Host: admin[", "# Query_time:", "Lock_time:",
	"SELECT * FROM", "WHERE id >", "ORDER BY created_at DESC;",
	"[main] ERROR com.company.service.Core - Exception occurred:",
	"\tat com.company.module.Class", ".method(SourceFile.java:",
	MarkerPrefix, "ALERT: Pattern", "detected in input stream from", "!!!",
}

// FixedText returns the literal template text shared by every record.
func FixedText() []string {
	return append([]string(nil), fixedText...)
}

// CanOccur reports whether word may show up in records rendered from vocab.
// Every letter run of a rendered record lies inside one template literal or
// one vocabulary entry, since placeholders are always bounded by non-letters
// and only digits fill the numeric ones. A word with no letters can be formed
// by numbers, and a word whose letter runs all appear in that text may be too.
func CanOccur(word string, vocab Vocabulary) bool {
	runs := strings.FieldsFunc(word, func(r rune) bool { return !unicode.IsLetter(r) })
	if len(runs) == 0 {
		return true
	}
	sources := append(FixedText(), vocab.Words()...)
	for _, run := range runs {
		if !containedIn(run, sources) {
			return false
		}
	}
	return true
}

func containedIn(s string, sources []string) bool {
	for _, src := range sources {
		if strings.Contains(src, s) {
			return true
		}
	}
	return false
}
