package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"anihub/pkg/models"
	"anihub/pkg/utils"
)

// Runner executes one catalog script invocation. Tests swap in a fake.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

type scriptRunner struct {
	path    string
	timeout time.Duration
}

func (r *scriptRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, r.path, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("run %s %s: %w", r.path, strings.Join(args, " "), err)
	}
	return out, nil
}

// Provider wraps the anime.sh-compatible catalog script. The script
// speaks a small command protocol: /search emits tab-separated
// (show_id, title, episode_count) lines, /episodes and /episode_url
// emit JSON documents.
type Provider struct {
	Runner Runner
}

func New(cfg utils.ProviderConfig) *Provider {
	return &Provider{
		Runner: &scriptRunner{path: cfg.ScriptPath, timeout: cfg.Timeout},
	}
}

// EnsureExecutable makes the catalog script runnable, matching the
// startup behavior of the original service.
func EnsureExecutable(cfg utils.ProviderConfig) error {
	if _, err := os.Stat(cfg.ScriptPath); err != nil {
		return fmt.Errorf("provider script %s: %w", cfg.ScriptPath, err)
	}
	if err := os.Chmod(cfg.ScriptPath, 0o755); err != nil {
		return fmt.Errorf("chmod provider script: %w", err)
	}
	log.Printf("[provider] %s is executable", cfg.ScriptPath)
	return nil
}

// ParseError reports garbled provider output. The raw output rides
// along for diagnosis; it never corrupts the mapping store.
type ParseError struct {
	Op  string
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ansiPattern matches terminal control sequences the script leaks into
// its output when it thinks it is talking to a TTY.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

func stripControl(b []byte) string {
	s := ansiPattern.ReplaceAllString(string(b), "")
	return strings.ReplaceAll(s, "\r", "")
}

// Search runs the script's search command and parses the line-oriented
// result. Blank lines are skipped; a structurally broken line is a
// ParseError, not a fatal condition for the process.
func (p *Provider) Search(ctx context.Context, query string) ([]models.ShowEntry, error) {
	out, err := p.Runner.Run(ctx, "/search", "query="+query)
	if err != nil {
		return nil, err
	}

	cleaned := stripControl(out)
	var entries []models.ShowEntry

	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			return nil, &ParseError{
				Op:  "search",
				Raw: cleaned,
				Err: fmt.Errorf("expected 3 tab-separated fields, got %d", len(parts)),
			}
		}

		eps, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || eps < 0 {
			return nil, &ParseError{
				Op:  "search",
				Raw: cleaned,
				Err: fmt.Errorf("bad episode count %q", parts[2]),
			}
		}

		entries = append(entries, models.ShowEntry{
			ShowID:   strings.TrimSpace(parts[0]),
			Title:    strings.TrimSpace(parts[1]),
			Episodes: eps,
		})
	}

	return entries, nil
}

// Episodes returns the raw episode listing for a show id. The document
// is validated but passed through untouched.
func (p *Provider) Episodes(ctx context.Context, showID string) (json.RawMessage, error) {
	out, err := p.Runner.Run(ctx, "/episodes/"+showID)
	if err != nil {
		return nil, err
	}
	return validateJSON("episodes", out)
}

// EpisodeURL resolves the stream document for one episode.
func (p *Provider) EpisodeURL(ctx context.Context, showID, epNo, quality string) (json.RawMessage, error) {
	if quality == "" {
		quality = "best"
	}
	params := fmt.Sprintf("show_id=%s&ep_no=%s&quality=%s", showID, epNo, quality)

	out, err := p.Runner.Run(ctx, "/episode_url", params)
	if err != nil {
		return nil, err
	}
	return validateJSON("episode_url", out)
}

func validateJSON(op string, out []byte) (json.RawMessage, error) {
	cleaned := strings.TrimSpace(stripControl(out))
	if cleaned == "" || !json.Valid([]byte(cleaned)) {
		return nil, &ParseError{
			Op:  op,
			Raw: cleaned,
			Err: fmt.Errorf("output is not valid JSON"),
		}
	}
	return json.RawMessage(cleaned), nil
}
