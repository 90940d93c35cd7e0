package validators

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spboyer/hirebench/internal/extract"
	"github.com/spboyer/hirebench/internal/models"
	"github.com/spboyer/hirebench/internal/textnorm"
	"go.uber.org/zap"
)

var (
	defaultDropPolicy = regexp.MustCompile(`(?i)(policy\s+(input|forward)\s+drop|-P\s+(INPUT|FORWARD)\s+DROP)`)

	rtspRule      = regexp.MustCompile(`(554|rtsp)`)
	cameraSegment = regexp.MustCompile(`(camera|10\.50\.20|eno2)`)
	outboundRule  = regexp.MustCompile(`(output|outbound|established)`)
	mgmtSegment   = regexp.MustCompile(`(10\.50\.1\.|management|mgmt)`)

	dockerInstall = []*regexp.Regexp{
		regexp.MustCompile(`apt(-get)?\s+install.*docker`),
		regexp.MustCompile(`docker-ce`),
		regexp.MustCompile(`install docker`),
		regexp.MustCompile(`docker\.io`),
		regexp.MustCompile(`get\.docker\.com`),
	}
)

const (
	lintMinLines     = 5
	firewallMinLines = 8
	setupMinLines    = 10
	sitePlanMinLines = 5
)

// shellValidator grades the network and edge modules: firewall and setup
// scripts, the camera discovery tool and the site planning documents.
type shellValidator struct {
	deps Deps
}

// NewShellValidator creates the shell validator.
func NewShellValidator(deps Deps) Validator {
	return &shellValidator{deps: deps.withDefaults()}
}

func (v *shellValidator) Name() string { return string(TypeShell) }

func (v *shellValidator) Validate(ctx context.Context, root string, quick bool) []models.Check {
	networkDir := filepath.Join(root, "network")
	edgeDir := filepath.Join(root, "edge")

	var checks []models.Check
	if !quick {
		checks = append(checks, v.shellcheck(ctx, append(listFiles(networkDir, ".sh"), listFiles(edgeDir, ".sh")...)))
	}

	cameraSrc := readText(filepath.Join(networkDir, "camera_discovery.py"))
	var camera *extract.PythonModule
	if strings.TrimSpace(cameraSrc) != "" {
		m, err := extract.ParsePython(ctx, []byte(cameraSrc))
		if err != nil {
			v.deps.Logger.Warn("python parser failed", zap.String("file", "camera_discovery.py"), zap.Error(err))
		} else {
			camera = m
		}
	}
	checks = append(checks, models.NewCheck("Python syntax valid (camera_discovery.py)", 1, camera != nil && !camera.SyntaxError, ""))

	if quick {
		return checks
	}

	firewallRaw := readText(filepath.Join(networkDir, "firewall_rules.sh"))
	firewall := textnorm.Code(firewallRaw, textnorm.Shell)
	checks = append(checks,
		models.NewCheck("Firewall: default DROP policy", 3, defaultDropPolicy.MatchString(firewall), ""),
		firewallRulesCheck(firewallRaw, firewall),
	)

	setupRaw := readText(filepath.Join(edgeDir, "setup.sh"))
	checks = append(checks,
		setupCheck(setupRaw),
		cameraCheck(camera),
		v.sitePlanCheck(networkDir),
		v.goldenImageCheck(edgeDir),
	)
	return checks
}

func (v *shellValidator) shellcheck(ctx context.Context, scripts []string) models.Check {
	const name = "shellcheck passes on .sh files"

	linted := 0
	var failed []string
	for _, p := range scripts {
		src := readText(p)
		if textnorm.CodeLines(src, textnorm.Shell) < lintMinLines {
			continue
		}
		linted++

		res := v.deps.Linter.Run(ctx, p)
		v.deps.Logger.Debug("linted script", zap.String("file", p), zap.Stringer("status", res.Status))
		if !res.Passed() {
			failed = append(failed, filepath.Base(p))
		}
	}

	switch {
	case linted == 0:
		return models.NewCheck(name, 2, false, "No shell scripts with content found")
	case len(failed) > 0:
		return models.NewCheck(name, 2, false, "Failed: "+strings.Join(failed, ", "))
	default:
		return models.NewCheck(name, 2, true, "")
	}
}

func firewallRulesCheck(raw, code string) models.Check {
	var found []string
	if textnorm.Substantial(raw, firewallMinLines) {
		lower := strings.ToLower(code)
		if rtspRule.MatchString(lower) && cameraSegment.MatchString(lower) {
			found = append(found, "RTSP from camera VLAN")
		}
		if strings.Contains(code, "443") && outboundRule.MatchString(lower) {
			found = append(found, "HTTPS outbound")
		}
		if strings.Contains(code, "22") && mgmtSegment.MatchString(lower) {
			found = append(found, "SSH from management")
		}
	}

	return models.NewCheck("Firewall: RTSP, HTTPS, SSH, camera isolation", 3, len(found) >= 2,
		foundDetails(found, "Missing firewall rules"))
}

func setupCheck(raw string) models.Check {
	var found []string
	if textnorm.Substantial(raw, setupMinLines) {
		code := strings.ToLower(textnorm.Code(raw, textnorm.Shell))
		if matchesAny(code, dockerInstall...) {
			found = append(found, "Docker")
		}
		if containsAny(code, "ntp", "chrony", "timedatectl", "timesyncd") {
			found = append(found, "NTP")
		}
		if containsAny(code, "logrotate", "log rotation", "log-rotate", "maxsize", "rotate ") {
			found = append(found, "log rotation")
		}
		if containsAny(code, "systemctl", "systemd", ".service", "wantedby") {
			found = append(found, "systemd service")
		}
		if containsAny(raw, "set -e", "set -euo pipefail") {
			found = append(found, "error handling")
		}
	}

	return models.NewCheck("setup.sh: Docker, NTP, log rotation, systemd, error handling", 5, len(found) >= 3,
		fmt.Sprintf("Found: %s (%d/5)", strings.Join(found, ", "), len(found)))
}

// cameraCheck only looks inside implemented routines so that helper names
// and hints left in a stub template don't score.
func cameraCheck(m *extract.PythonModule) models.Check {
	var found []string
	if m != nil && !m.SyntaxError {
		var body strings.Builder
		for _, f := range m.Implemented() {
			body.WriteString(f.Body)
			body.WriteString("\n")
		}
		code := body.String()

		if code != "" {
			if containsAny(code, ".parse(", ".fromstring(", "findall(", "find(", "iter(") {
				found = append(found, "XML parsing")
			}
			if containsAny(code, "json.dump(", "json.dumps(") {
				found = append(found, "JSON output")
			}
			if containsAny(code, "timeout", "TimeoutError", "socket.timeout") {
				found = append(found, "timeout handling")
			}
		}
	}

	return models.NewCheck("camera_discovery.py: XML parsing, JSON output, timeout", 3, len(found) >= 2,
		foundDetails(found, "Skeleton not implemented"))
}

func (v *shellValidator) sitePlanCheck(networkDir string) models.Check {
	raw := readText(filepath.Join(networkDir, "site_plan.md"))
	plan := textnorm.Prose(raw)
	if textnorm.NonEmptyLines(plan) < sitePlanMinLines {
		plan = ""
	}

	vlan := v.deps.Keywords.Concept(plan, "site_plan_vlan")
	ip := v.deps.Keywords.Concept(plan, "site_plan_ip")

	score := 0
	if vlan >= 2 {
		score++
	}
	if ip >= 2 {
		score++
	}

	return models.NewCheck("site_plan.md: VLAN design, IP scheme, isolation", 2, score >= 1,
		fmt.Sprintf("VLAN keywords=%d, IP keywords=%d", vlan, ip))
}

func (v *shellValidator) goldenImageCheck(edgeDir string) models.Check {
	raw := readText(filepath.Join(edgeDir, "golden_image.md"))
	n := v.deps.Keywords.Concept(textnorm.Prose(raw), "golden_image")
	return models.NewCheck("golden_image.md: creation process, patching strategy", 1, n >= 2,
		fmt.Sprintf("Concept keywords matched: %d", n))
}
