package cmd

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/spf13/pflag"

	"github.com/go-drift/panelkit/pkg/app"
	"github.com/go-drift/panelkit/pkg/binding"
	"github.com/go-drift/panelkit/pkg/config"
	"github.com/go-drift/panelkit/pkg/headless"
	"github.com/go-drift/panelkit/pkg/mvvm"
	"github.com/go-drift/panelkit/pkg/panel"
	"github.com/go-drift/panelkit/pkg/prefs"
	"github.com/go-drift/panelkit/pkg/rx"
	"github.com/go-drift/panelkit/pkg/signal"
	"github.com/go-drift/panelkit/pkg/viewmodel"
)

//go:embed demo
var demoFS embed.FS

func init() {
	RegisterCommand(&Command{
		Name:  "demo",
		Short: "Run the built-in login walkthrough",
		Long: `Run a scripted login against an embedded project on the headless
renderer: a failed attempt, a successful one, and the transition to the
main panel. Prints each step, the state transitions and the final tree.`,
		Usage: "panelkit demo [--user NAME] [--password SECRET]",
		Flags: func(fs *pflag.FlagSet) {
			fs.String("user", "admin", "user name to log in with")
			fs.String("password", "admin", "password for the second attempt")
			fs.Bool("verbose", false, "log stack traces with reported errors")
		},
		Run: runDemo,
	})
}

func runDemo(flags *pflag.FlagSet, args []string) error {
	user, _ := flags.GetString("user")
	password, _ := flags.GetString("password")

	assets, err := fs.Sub(demoFS, "demo")
	if err != nil {
		return err
	}
	data, err := fs.ReadFile(assets, config.FileName)
	if err != nil {
		return err
	}
	raw, err := config.Parse(data)
	if err != nil {
		return err
	}
	cfg, err := raw.Resolve()
	if err != nil {
		return err
	}

	store := prefs.NewMemory()
	store.SetString("password", password)

	var transitions []panel.Transition
	a, err := app.New(app.Options{
		Config:       cfg,
		Assets:       assets,
		Prefs:        store,
		ErrorHandler: logHandler(flags),
		OnTransition: func(t panel.Transition) { transitions = append(transitions, t) },
	})
	if err != nil {
		return err
	}
	defer a.Shutdown()
	a.Register("Login", newDemoLogin)
	a.Register("Main", func() panel.Panel { return &demoMain{} })

	inst, err := a.Manager.Open("Login")
	if err != nil {
		return err
	}
	find := func(name string) any {
		w, _ := inst.Context().Find(name)
		return w
	}
	username := find("Form/UsernameInput").(*headless.Input)
	pass := find("Form/PasswordInput").(*headless.Input)
	button := find("LoginButton").(*headless.Button)
	errText := find("ErrorText").(*headless.Text)

	fmt.Fprintf(stdout, "login enabled before typing: %t\n", button.Interactable())
	username.Type(user)
	pass.Type(password + "-wrong")
	button.Tap()
	fmt.Fprintf(stdout, "first attempt: %q\n", errText.Value())

	pass.Type(password)
	button.Tap()
	fmt.Fprintf(stdout, "second attempt: Login %s, Main %s\n", a.Manager.State("Login"), a.Manager.State("Main"))

	fmt.Fprintln(stdout)
	printTransitions(transitions)
	fmt.Fprintln(stdout)
	printTree(a.Renderer)
	return nil
}

type demoLoginVM struct {
	*viewmodel.Store
	password string
	success  *signal.Typed[string]
}

func (vm *demoLoginVM) canLogin() bool {
	return viewmodel.Get[string](vm.Store, "Username") != "" && viewmodel.Get[string](vm.Store, "Password") != ""
}

func (vm *demoLoginVM) login() {
	if viewmodel.Get[string](vm.Store, "Password") != vm.password {
		viewmodel.Set(vm.Store, "ErrorMessage", "wrong username or password")
		return
	}
	viewmodel.Set(vm.Store, "ErrorMessage", "")
	vm.success.Emit(viewmodel.Get[string](vm.Store, "Username"))
}

// Update clears the password on every open.
func (vm *demoLoginVM) Update(...any) {
	viewmodel.Set(vm.Store, "Password", "")
}

var demoLoginBindings = binding.Declare().
	TwoWay("Form/UsernameInput", "Username").
	TwoWay("Form/PasswordInput", "Password").
	TwoWay("Form/RememberToggle", "Remember").
	OneWay("ErrorText", "ErrorMessage").
	Command("LoginButton", "LoginCommand", binding.EnabledBy("CanLogin")).
	Build()

type demoLogin struct {
	*mvvm.Panel[*demoLoginVM]
	sub rx.Subscription
}

func newDemoLogin() panel.Panel {
	return &demoLogin{Panel: mvvm.NewPanel(newDemoLoginVM, demoLoginBindings)}
}

func newDemoLoginVM(ctx *panel.Context) *demoLoginVM {
	vm := &demoLoginVM{
		Store:    viewmodel.NewStore(ctx.Name),
		password: ctx.Services.Prefs.GetString("password", "admin"),
	}
	vm.success, _ = signal.GetTyped[string](ctx.Services.Signals, "login.success")
	viewmodel.Set[viewmodel.Command](vm.Store, "LoginCommand", viewmodel.NewRelayCommand(func(any) { vm.login() }, vm.canLogin))
	vm.Subscribe(func(name string) {
		if name == "Username" || name == "Password" {
			vm.Set("CanLogin", vm.canLogin())
		}
	})
	return vm
}

func (p *demoLogin) Initialize(ctx *panel.Context) error {
	if err := p.Panel.Initialize(ctx); err != nil {
		return err
	}
	p.sub = p.ViewModel.success.Subscribe(func(user string) {
		ctx.Services.Panels.Close(ctx.Name)
		ctx.Services.Panels.Open("Main", user)
	})
	return nil
}

func (p *demoLogin) Destroy() {
	if p.sub != nil {
		p.sub.Dispose()
	}
	p.Panel.Destroy()
}

type demoMain struct {
	panel.Base
}

func (p *demoMain) Open(args ...any) {
	greeting, ok := panel.Find[*headless.Text](p.Context(), "Greeting")
	if !ok || len(args) == 0 {
		return
	}
	greeting.SetValue(fmt.Sprintf("Welcome, %v", args[0]))
}
