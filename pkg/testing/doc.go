// Package testing provides a headless harness for panel tests.
//
// # Quick Start
//
// Register templates and panels, open one, and drive its widgets:
//
//	func TestLogin(t *testing.T) {
//	    tester := paneltest.NewPanelTesterWithT(t)
//	    tester.AddTemplate("ui/login", loginYAML)
//	    tester.Register(panel.Descriptor{Name: "Login", Template: "ui/login", Layer: 1}, NewLoginPanel)
//
//	    tester.Open("Login")
//	    tester.Type(paneltest.ByName("UsernameInput"), "admin")
//	    tester.Tap(paneltest.ByName("LoginButton"))
//
//	    if !tester.Find(paneltest.ByText("wrong password")).Exists() {
//	        t.Error("expected an error message")
//	    }
//	}
//
// # Asynchronous Loads
//
// Templates load on worker goroutines and their completions are queued
// rather than delivered immediately. Pump delivers what is queued, as a
// frame of the host loop would; PumpAndSettle also waits for loads still
// in flight:
//
//	tester.OpenAsync(ctx, "Login", done)
//	tester.PumpAndSettle(paneltest.DefaultSettleTimeout)
//
// # Snapshot Testing
//
// Capture the node tree and compare it with a golden file:
//
//	tester.CaptureSnapshot().MatchesFile(t, "testdata/login.snapshot.yaml")
//
// Update snapshots with:
//
//	PANELKIT_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import paneltest "github.com/go-drift/panelkit/pkg/testing"
package testing
