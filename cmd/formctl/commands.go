package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/formstate/internal/definition"
	"github.com/muurk/formstate/internal/discovery"
	"github.com/muurk/formstate/internal/events"
	"github.com/muurk/formstate/internal/logging"
	"github.com/muurk/formstate/internal/server"
	"github.com/muurk/formstate/internal/ui"
	"github.com/muurk/formstate/internal/version"
)

// errFormInvalid makes the process exit 1 after the form's errors have
// already been printed.
var errFormInvalid = errors.New("form has errors")

// Command flags
var (
	setValues    []string
	touchKeys    []string
	checkStep    int
	outputFormat string

	listenAddr string
	advertise  bool
	tlsCert    string
	tlsKey     string
	serveTUI   bool

	scanTimeout int
	scanForm    string
)

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)
}

// loadForm resolves a path or registered name and parses the definition.
// Registered forms get their last-opened time updated.
func loadForm(arg string) (*definition.Definition, error) {
	reg, save, err := openRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	name, path, err := reg.Resolve(arg)
	if err != nil {
		return nil, err
	}

	def, err := definition.Load(path)
	if err != nil {
		return nil, err
	}

	if name != "" {
		reg.TouchForm(name)
		if err := save(); err != nil {
			logging.Warn("Failed to record form usage", zap.String("form", name), zap.Error(err))
		}
	}
	return def, nil
}

// runCmd shows a form in the terminal
var runCmd = &cobra.Command{
	Use:   "run <form>",
	Short: "Fill in a form interactively",
	Long: `Show a form one step at a time in the terminal.

Errors are shown for a field once it has been left. Enter moves to the next
step when the current one is valid; after the last step a review screen lets
you submit. The submitted values are printed as JSON.`,
	Example: `  # Run a definition file
  formctl run forms/signup.yaml

  # Run a registered form
  formctl run signup`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	if !ui.IsTerminal() {
		return fmt.Errorf("run needs a terminal; use 'formctl check' for scripted use")
	}

	def, err := loadForm(args[0])
	if err != nil {
		return err
	}

	bus := events.NewBus()
	ctrl, err := def.NewController(bus)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	res, err := ui.Run(def, ctrl, bus)
	if err != nil {
		return err
	}
	if !res.Submitted {
		fmt.Fprintln(cmd.ErrOrStderr(), "Form not submitted.")
		return nil
	}
	return printJSON(cmd, res.State.Values)
}

// checkCmd applies values without a UI and reports validity
var checkCmd = &cobra.Command{
	Use:   "check <form>",
	Short: "Check values against a form's rules",
	Long: `Apply values to a form and report every field's validity.

Each --set runs exactly as if the field had been edited, so a field's rules are
evaluated against the whole form. The command exits with status 1 when any
field is invalid.`,
	Example: `  # Check a phone number
  formctl check signup --set name=Ann --set phone=12ab

  # Nested keys and typed values
  formctl check signup --set address.city=Oslo --set newsletter=true

  # Machine-readable output
  formctl check signup --set name=Ann --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringArrayVar(&setValues, "set", nil, "Set a value (key=value, repeatable)")
	checkCmd.Flags().StringArrayVar(&touchKeys, "touch", nil, "Mark a field as touched (repeatable)")
	checkCmd.Flags().IntVar(&checkStep, "step", -1, "Set the current step before printing")
	checkCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format (table, json)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	def, err := loadForm(args[0])
	if err != nil {
		return err
	}

	ctrl, err := def.NewController(nil)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	for _, assignment := range setValues {
		key, value, err := definition.ParseAssignment(assignment)
		if err != nil {
			return err
		}
		// Declared fields read their value as the terminal form would.
		if f, ok := def.Field(key); ok {
			_, raw, _ := strings.Cut(assignment, "=")
			value = f.Coerce(raw)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %q is not a field of %s\n", key, def.Name)
		}
		ctrl.SetValue(key, value)
	}
	for _, key := range touchKeys {
		ctrl.Touch(key)
	}
	if checkStep >= 0 {
		ctrl.SetStep(checkStep)
	}

	state := ctrl.Snapshot()

	switch outputFormat {
	case "json":
		if err := printJSON(cmd, state); err != nil {
			return err
		}
	case "table":
		p := ui.NewPrinter(cmd.OutOrStdout())
		p.PrintHeader("Check", "formctl check "+args[0], map[string]string{
			"Form":   def.Name,
			"Fields": strconv.Itoa(len(def.Fields)),
			"Set":    strconv.Itoa(len(setValues)),
		})
		p.Println(ui.RenderSnapshot(def, state, p.Width()))
		if msgs := ui.FieldErrors(def, state); len(msgs) > 0 {
			p.PrintError("Form has errors", errors.New(strings.Join(msgs, "\n")), []string{
				"Fix the listed fields with --set key=value",
			})
		} else {
			p.PrintSuccess("Form is valid", map[string]string{"Step": strconv.Itoa(state.Step + 1)})
		}
	default:
		return fmt.Errorf("unknown format %q (expected table or json)", outputFormat)
	}

	if state.HasFormFieldError {
		return errFormInvalid
	}
	return nil
}

// serveCmd exposes a form over the websocket event bridge
var serveCmd = &cobra.Command{
	Use:   "serve <form>",
	Short: "Serve a form over a websocket event bridge",
	Long: `Serve a form to remote clients.

Clients connect to /events and send field events as JSON; every change is
pushed back to all clients as a snapshot. GET /state returns the current
snapshot. With --advertise the bridge is announced over mDNS so
'formctl scan' can find it. With --tui the form is also shown in this
terminal and reflects remote edits.`,
	Example: `  # Serve on the default address
  formctl serve signup

  # Serve on all interfaces and advertise
  formctl serve signup --listen :8765 --advertise

  # Serve over TLS
  formctl serve signup --tls-cert cert.pem --tls-key key.pem`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (default from config, "+server.DefaultAddr+")")
	serveCmd.Flags().BoolVar(&advertise, "advertise", false, "Advertise the bridge over mDNS (default from config)")
	serveCmd.Flags().StringVar(&tlsCert, "tls-cert", "", "TLS certificate file")
	serveCmd.Flags().StringVar(&tlsKey, "tls-key", "", "TLS private key file")
	serveCmd.Flags().BoolVar(&serveTUI, "tui", false, "Also show the form in this terminal")
}

func runServe(cmd *cobra.Command, args []string) error {
	def, err := loadForm(args[0])
	if err != nil {
		return err
	}

	reg, _, err := openRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	addr := listenAddr
	if addr == "" {
		addr = reg.Preferences.Listen
	}
	if !cmd.Flags().Changed("advertise") {
		advertise = reg.Preferences.Advertise
	}

	bus := events.NewBus()
	ctrl, err := def.NewController(bus)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	srv, err := server.New(server.Config{Addr: addr, CertPath: tlsCert, KeyPath: tlsKey}, ctrl, bus)
	if err != nil {
		return err
	}
	if err := srv.Listen(); err != nil {
		return err
	}

	if advertise {
		host, _ := os.Hostname()
		instance := fmt.Sprintf("%s on %s", def.Name, host)
		stop, err := discovery.Advertise(instance, srv.Port(), discovery.TXTRecords(def.Name, ctrl.ID(), version.Short()))
		if err != nil {
			return err
		}
		defer stop()
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !serveTUI {
		fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on %s (ctrl+c to stop)\n", def.Name, srv.Addr())
		return srv.Start(ctx)
	}

	if !ui.IsTerminal() {
		return fmt.Errorf("--tui needs a terminal")
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(ctx)
	}()

	res, runErr := ui.Run(def, ctrl, bus)
	cancel()
	if err := <-errChan; err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if res.Submitted {
		return printJSON(cmd, res.State.Values)
	}
	return nil
}

// scanCmd discovers event bridges on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find forms served on the local network",
	Long: `Scan for event bridges started with 'formctl serve --advertise'.

Bridges are found with mDNS/DNS-SD and listed with their form name and
connection URLs.`,
	Example: `  # Scan for 5 seconds (default)
  formctl scan

  # Longer scan for slow networks
  formctl scan --timeout 15

  # Stop at the first bridge serving a form
  formctl scan --form signup`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", int(discovery.DefaultScanTimeout/time.Second), "Scan timeout in seconds")
	scanCmd.Flags().StringVar(&scanForm, "form", "", "Stop at the first bridge serving this form")
}

func runScan(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning for forms (timeout: %ds)...\n\n", scanTimeout)

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second

	var sessions []*discovery.Session
	if scanForm != "" {
		session, err := scanner.WaitForForm(cmd.Context(), scanForm)
		if err == nil {
			sessions = append(sessions, session)
		}
	} else {
		var err error
		sessions, err = scanner.Scan(cmd.Context())
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
	}

	if len(sessions) == 0 {
		fmt.Fprintln(out, "No forms found.")
		fmt.Fprintln(out, "\nTroubleshooting:")
		fmt.Fprintln(out, "  - Start the bridge with 'formctl serve <form> --advertise'")
		fmt.Fprintln(out, "  - Make sure the bridge listens on a reachable address (e.g. --listen :8765)")
		fmt.Fprintln(out, "  - Try increasing --timeout for slower networks")
		return nil
	}

	fmt.Fprintf(out, "Found %d form(s):\n\n", len(sessions))

	for i, s := range sessions {
		fmt.Fprintf(out, "%d. %s\n", i+1, s.Instance)
		fmt.Fprintf(out, "   Form:    %s\n", s.Form)
		fmt.Fprintf(out, "   Events:  %s\n", s.EventsURL())
		fmt.Fprintf(out, "   State:   %s\n", s.StateURL())
		if s.Version != "" {
			fmt.Fprintf(out, "   Version: %s\n", s.Version)
		}
		fmt.Fprintln(out)
	}

	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
