package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/go-drift/panelkit/pkg/app"
	"github.com/go-drift/panelkit/pkg/config"
	uierrors "github.com/go-drift/panelkit/pkg/errors"
	"github.com/go-drift/panelkit/pkg/headless"
	"github.com/go-drift/panelkit/pkg/host"
	"github.com/go-drift/panelkit/pkg/panel"
	"github.com/go-drift/panelkit/pkg/resource"
)

func init() {
	RegisterCommand(&Command{
		Name:  "validate",
		Short: "Check configuration and templates",
		Long: `Load ui.yaml, resolve every panel and parse the template each one
instantiates. Missing or malformed templates are listed together.`,
		Usage: "panelkit validate [--dir DIR]",
		Flags: projectFlags,
		Run:   runValidate,
	})
	RegisterCommand(&Command{
		Name:  "list",
		Short: "List configured panels",
		Long:  `Print every configured panel with its layer, template and caching policy.`,
		Usage: "panelkit list [--dir DIR]",
		Flags: projectFlags,
		Run:   runList,
	})
	RegisterCommand(&Command{
		Name:  "open",
		Short: "Open a panel headlessly and print its tree",
		Long: `Open one configured panel with the default behavior on the headless
renderer, then print the node tree and the state transitions it went
through.`,
		Usage: "panelkit open <panel> [--dir DIR]",
		Flags: projectFlags,
		Run:   runOpen,
	})
}

func projectFlags(fs *pflag.FlagSet) {
	fs.StringP("dir", "d", ".", "project directory containing ui.yaml")
	fs.Bool("verbose", false, "log stack traces with reported errors")
}

// logHandler routes reported UI errors through slog on stderr.
func logHandler(fs *pflag.FlagSet) uierrors.ErrorHandler {
	level := slog.LevelWarn
	if verbose, _ := fs.GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return &uierrors.SlogHandler{Logger: logger}
}

func resolveProject(fs *pflag.FlagSet) (*config.Resolved, string, error) {
	dir, _ := fs.GetString("dir")
	cfg, err := config.Resolve(dir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	assets := dir
	if cfg.Env.Assets != "" {
		assets = cfg.Env.Assets
	}
	return cfg, assets, nil
}

func runValidate(fs *pflag.FlagSet, args []string) error {
	uierrors.SetHandler(logHandler(fs))
	cfg, assets, err := resolveProject(fs)
	if err != nil {
		return err
	}
	reg, err := panel.FromConfig(cfg)
	if err != nil {
		return err
	}

	provider := resource.New(os.DirFS(assets))
	templates := make(map[string]bool)
	var problems []error
	check := func(owner, path string) {
		if templates[path] {
			return
		}
		templates[path] = true
		if _, err := provider.Load(host.KindTemplate, path); err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", owner, err))
		}
	}
	masked := false
	for _, d := range reg.Descriptors() {
		check(d.Name, d.Template)
		masked = masked || d.ShowMask
	}
	if masked && cfg.MaskTemplate != "" {
		check("mask", cfg.MaskTemplate)
	}

	if len(problems) > 0 {
		return errors.Join(problems...)
	}
	fmt.Fprintf(stdout, "ok: %d panels, %d templates (%s)\n", reg.Len(), len(templates), cfg.Path)
	return nil
}

func runList(fs *pflag.FlagSet, args []string) error {
	cfg, _, err := resolveProject(fs)
	if err != nil {
		return err
	}
	reg, err := panel.FromConfig(cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLAYER\tTEMPLATE\tCACHE\tMASK")
	for _, d := range reg.Descriptors() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\n", d.Name, reg.LayerName(d.Layer), d.Template, d.CacheOnClose, d.ShowMask)
	}
	return w.Flush()
}

func runOpen(fs *pflag.FlagSet, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("panel name is required\n\nUsage: panelkit open <panel>")
	}
	cfg, assets, err := resolveProject(fs)
	if err != nil {
		return err
	}

	var transitions []panel.Transition
	a, err := app.New(app.Options{
		Config:       cfg,
		Assets:       os.DirFS(assets),
		ErrorHandler: logHandler(fs),
		OnTransition: func(t panel.Transition) { transitions = append(transitions, t) },
	})
	if err != nil {
		return err
	}
	defer a.Shutdown()

	if _, err := a.Manager.Open(args[0]); err != nil {
		return err
	}
	printTransitions(transitions)
	printTree(a.Renderer)
	return nil
}

func printTransitions(transitions []panel.Transition) {
	for _, t := range transitions {
		fmt.Fprintf(stdout, "%-10s %s -> %s\n", t.Name, t.From, t.To)
	}
}

func printTree(r host.Renderer) {
	hr, ok := r.(*headless.Renderer)
	if !ok {
		return
	}
	for _, root := range hr.Roots() {
		root.Dump(stdout)
	}
}
