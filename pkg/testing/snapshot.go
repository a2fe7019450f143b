package testing

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/panelkit/pkg/headless"
)

// UpdateSnapshotsEnv names the variable that makes MatchesFile rewrite
// golden files instead of comparing.
const UpdateSnapshotsEnv = "PANELKIT_UPDATE_SNAPSHOTS"

// TestingT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot captures the node tree below every layer root.
type Snapshot struct {
	Roots []*SnapshotNode `yaml:"roots"`
}

// SnapshotNode is one serialized node.
type SnapshotNode struct {
	Name     string          `yaml:"name"`
	Widget   string          `yaml:"widget,omitempty"`
	Value    string          `yaml:"value,omitempty"`
	Hidden   bool            `yaml:"hidden,omitempty"`
	Disabled bool            `yaml:"disabled,omitempty"`
	Children []*SnapshotNode `yaml:"children,omitempty"`
}

// CaptureSnapshot captures the current tree. Destroyed nodes are already
// detached and do not appear.
func (t *PanelTester) CaptureSnapshot() *Snapshot {
	snap := &Snapshot{}
	for _, root := range t.renderer.Roots() {
		snap.Roots = append(snap.Roots, captureNode(root))
	}
	return snap
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When
// PANELKIT_UPDATE_SNAPSHOTS=1 is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv(UpdateSnapshotsEnv) == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: %s=1 go test -run %s", path, UpdateSnapshotsEnv, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: %s=1 go test -run %s", path, diff, UpdateSnapshotsEnv, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating directories
// as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a line diff between this snapshot and other. Returns
// empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, _ := marshalSnapshot(s)
	b, _ := marshalSnapshot(other)
	if bytes.Equal(a, b) {
		return ""
	}
	return unifiedDiff(string(b), string(a))
}

// String renders the snapshot as YAML.
func (s *Snapshot) String() string {
	data, err := marshalSnapshot(s)
	if err != nil {
		return err.Error()
	}
	return string(data)
}

func captureNode(n *headless.Node) *SnapshotNode {
	node := &SnapshotNode{
		Name:   n.Name(),
		Widget: n.Kind(),
		Hidden: !n.Active(),
	}
	switch w := n.Widget().(type) {
	case *headless.Text:
		node.Value = w.Value()
	case *headless.Input:
		node.Value = w.Value()
		node.Disabled = !w.Interactable()
	case *headless.Button:
		node.Value = w.Label()
		node.Disabled = !w.Interactable()
	case *headless.Toggle:
		node.Value = strconv.FormatBool(w.IsOn())
		node.Disabled = !w.Interactable()
	case *headless.Dropdown:
		if opts := w.Options(); w.Selected() >= 0 && w.Selected() < len(opts) {
			node.Value = opts[w.Selected()]
		}
		node.Disabled = !w.Interactable()
	case *headless.Image:
		if w.Sprite() != nil {
			node.Value = fmt.Sprintf("%T", w.Sprite())
		}
	}
	for _, c := range n.Children() {
		node.Children = append(node.Children, captureNode(c))
	}
	return node
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot YAML: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unifiedDiff produces a simple line-oriented diff.
func unifiedDiff(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	var buf strings.Builder
	buf.WriteString("--- expected\n+++ actual\n")

	for i := range max(len(expectedLines), len(actualLines)) {
		var e, a string
		if i < len(expectedLines) {
			e = expectedLines[i]
		}
		if i < len(actualLines) {
			a = actualLines[i]
		}
		if e != a {
			if i < len(expectedLines) {
				fmt.Fprintf(&buf, "-%s\n", e)
			}
			if i < len(actualLines) {
				fmt.Fprintf(&buf, "+%s\n", a)
			}
		}
	}

	return buf.String()
}
