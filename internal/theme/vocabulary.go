package theme

import "fmt"

// Vocabulary holds every fixed word list the themes draw from.
type Vocabulary struct {
	UserAgents     []string `yaml:"user_agents"`
	URLs           []string `yaml:"urls"`
	Methods        []string `yaml:"methods"`
	Errors         []string `yaml:"errors"`
	Tables         []string `yaml:"tables"`
	Processes      []string `yaml:"processes"`
	SyslogMessages []string `yaml:"syslog_messages"`
	Hostname       string   `yaml:"hostname"`
}

// DefaultVocabulary returns the built-in word lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
			"curl/7.64.1",
			"PostmanRuntime/7.26.8",
			"Googlebot/2.1",
			"Python-urllib/3.9",
		},
		URLs: []string{
			"/api/login", "/v2/users", "/static/img/logo.png",
			"/admin/dashboard", "/wp-login.php", "/health",
		},
		Methods: []string{"GET", "POST", "PUT"},
		Errors: []string{
			"Connection refused", "Timeout waiting for lock", "Segment fault",
			"OutOfMemoryError", "Invalid Token",
		},
		Tables:    []string{"users", "orders", "transactions", "audit_log", "inventory"},
		Processes: []string{"systemd", "sshd", "kernel", "cron", "dockerd"},
		SyslogMessages: []string{
			"Started session", "Disconnected user", "Cleaning up",
			"Reloading configuration", "Failed to start unit",
		},
		Hostname: "srv-main",
	}
}

// Words returns every vocabulary string, used to check for overlap with
// marker words.
func (v Vocabulary) Words() []string {
	var out []string
	for _, list := range [][]string{v.UserAgents, v.URLs, v.Methods, v.Errors, v.Tables, v.Processes, v.SyslogMessages} {
		out = append(out, list...)
	}
	if v.Hostname != "" {
		out = append(out, v.Hostname)
	}
	return out
}

// Validate reports the first empty list.
func (v Vocabulary) Validate() error {
	lists := []struct {
		name  string
		items []string
	}{
		{"user_agents", v.UserAgents},
		{"urls", v.URLs},
		{"methods", v.Methods},
		{"errors", v.Errors},
		{"tables", v.Tables},
		{"processes", v.Processes},
		{"syslog_messages", v.SyslogMessages},
	}
	for _, l := range lists {
		if len(l.items) == 0 {
			return fmt.Errorf("vocabulary list %q is empty", l.name)
		}
	}
	if v.Hostname == "" {
		return fmt.Errorf("vocabulary hostname is empty")
	}
	return nil
}
