package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/phonefield/phonefield/internal/cli/ui"
	"github.com/phonefield/phonefield/internal/countries"
	"github.com/phonefield/phonefield/internal/phoneinput"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Drive a phone field interactively",
	Long:  sessionHelp,
	RunE:  runSession,
}

const sessionHelp = `Start an interactive phone field on stdin. Every plain line replaces
the field's text; the field answers with the formatted display, validity
and placeholder. Slash commands drive the country picker:

  /picker        open the country picker
  /pick XX       select a country in the picker
  /search        open search over the picker
  /find QUERY    list matching countries (search only)
  /confirm XX    select a search result and close the picker
  /cancel        close search, back to the picker
  /done          close the picker
  /example on|off  toggle the example placeholder
  /set +NUMBER   load a complete international number
  /show          print the field state
  /help          show this help
  /quit          leave`

const maxFindResults = 20

func runSession(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	s, err := newSession(env, cmd.InOrStdin(), cmd.OutOrStdout(), sessionColor(cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	return s.run()
}

func sessionColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && colorEnabledFd(f.Fd())
}

// session is a line-driven phone field: one engine plus its mode machine.
type session struct {
	id     string
	in     io.Reader
	out    io.Writer
	color  bool
	dir    *countries.Directory
	logger *slog.Logger
	engine *phoneinput.Engine
	modes  *phoneinput.Modes
}

func newSession(env *environment, in io.Reader, out io.Writer, color bool) (*session, error) {
	s := &session{
		id:    uuid.NewString(),
		in:    in,
		out:   out,
		color: color,
		dir:   env.dir,
	}
	s.logger = env.logger.With("session", s.id)

	e, err := phoneinput.New(phoneinput.Options{
		Region:      env.region,
		ShowExample: env.cfg.Input.ShowExample,
		Directory:   env.dir,
		Callbacks:   s.callbacks(),
		Logger:      s.logger,
	})
	if err != nil {
		return nil, err
	}
	s.engine = e
	s.modes = phoneinput.NewModes(e, env.dir, s.modeChanged, s.logger)
	return s, nil
}

func (s *session) callbacks() phoneinput.Callbacks {
	return phoneinput.Callbacks{
		DisplayTextChanged: func(text string) {
			fmt.Fprintf(s.out, "  %s %s\n", dim("display", s.color), boldCyan(text, s.color))
		},
		ValidityChanged: func(valid bool) {
			if valid {
				fmt.Fprintf(s.out, "  %s %s\n", dim("valid  ", s.color), green(ui.SymbolCheck, s.color))
				return
			}
			fmt.Fprintf(s.out, "  %s %s\n", dim("valid  ", s.color), yellow(ui.SymbolCross, s.color))
		},
		PlaceholderChanged: func(text string, ok bool) {
			if !ok {
				fmt.Fprintf(s.out, "  %s %s\n", dim("example", s.color), dim("(none)", s.color))
				return
			}
			fmt.Fprintf(s.out, "  %s %s\n", dim("example", s.color), dim(text, s.color))
		},
		RegionChanged: func(region, dialCode string) {
			label := region
			if c, ok := s.dir.Lookup(region); ok {
				label = c.Flag + " " + c.Name
			}
			fmt.Fprintf(s.out, "  %s %s %s\n", dim("country", s.color), bold(label, s.color), cyan("+"+dialCode, s.color))
		},
	}
}

func (s *session) modeChanged(m phoneinput.Mode) {
	fmt.Fprintf(s.out, "  %s %s\n", dim("mode   ", s.color), m)
}

func (s *session) prompt() string {
	switch s.modes.Mode() {
	case phoneinput.ModeCountrySelection:
		return "picker> "
	case phoneinput.ModeSearchOverlay:
		return "search> "
	default:
		return "+" + s.engine.DialCode() + " > "
	}
}

func (s *session) run() error {
	s.logger.Debug("session started", "region", s.engine.Region())
	fmt.Fprintf(s.out, "%s phonefield session %s\n", ui.BrandEmoji, dim(s.id, s.color))
	fmt.Fprintln(s.out, dim("Type digits, or /help.", s.color))

	sc := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, s.prompt())
		if !sc.Scan() {
			break
		}
		quit, err := s.handle(sc.Text())
		if err != nil {
			fmt.Fprintf(s.out, "  %s %s\n", yellow(ui.SymbolWarning, s.color), err)
		}
		if quit {
			break
		}
	}
	fmt.Fprintln(s.out)
	s.logger.Debug("session ended")
	return sc.Err()
}

var errNotInNumericEntry = errors.New("the country picker is open; /done or /confirm closes it")

// handle processes one input line. It reports whether the session should end.
func (s *session) handle(line string) (bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		if s.modes.Mode() != phoneinput.ModeNumericEntry {
			return false, errNotInNumericEntry
		}
		s.engine.TextChanged(line)
		return false, nil
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "quit", "exit", "q":
		return true, nil
	case "help":
		fmt.Fprintln(s.out, sessionHelp)
	case "picker":
		return false, s.request(phoneinput.OpenPicker, "")
	case "pick":
		return false, s.requestRegion(phoneinput.PickCountry, arg)
	case "search":
		return false, s.request(phoneinput.OpenSearch, "")
	case "find":
		return false, s.find(arg)
	case "confirm":
		return false, s.requestRegion(phoneinput.ConfirmSearch, arg)
	case "cancel":
		return false, s.request(phoneinput.CancelSearch, "")
	case "done":
		return false, s.request(phoneinput.Dismiss, "")
	case "example":
		switch arg {
		case "on":
			s.engine.SetShowExample(true)
		case "off":
			s.engine.SetShowExample(false)
		default:
			return false, errors.New("usage: /example on|off")
		}
	case "set":
		if arg == "" {
			return false, errors.New("usage: /set +NUMBER")
		}
		if s.modes.Mode() != phoneinput.ModeNumericEntry {
			return false, errNotInNumericEntry
		}
		return false, s.engine.SetNumber(arg)
	case "show":
		enc := json.NewEncoder(s.out)
		enc.SetIndent("  ", "  ")
		fmt.Fprint(s.out, "  ")
		return false, enc.Encode(s.engine.Snapshot())
	default:
		return false, fmt.Errorf("unknown command /%s (try /help)", name)
	}
	return false, nil
}

func (s *session) request(t phoneinput.Transition, region string) error {
	applied, err := s.modes.Request(t, region)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("/%s does not apply in %s", transitionCommand(t), s.modes.Mode())
	}
	return nil
}

func (s *session) requestRegion(t phoneinput.Transition, region string) error {
	if region == "" {
		return fmt.Errorf("usage: /%s XX", transitionCommand(t))
	}
	return s.request(t, region)
}

func (s *session) find(query string) error {
	if s.modes.Mode() != phoneinput.ModeSearchOverlay {
		return errors.New("open search first with /search")
	}
	matches := s.dir.Search(query)
	if len(matches) == 0 {
		fmt.Fprintf(s.out, "  %s\n", dim("no matches", s.color))
		return nil
	}
	for i, c := range matches {
		if i == maxFindResults {
			fmt.Fprintf(s.out, "  %s\n", dim(fmt.Sprintf("... %d more", len(matches)-i), s.color))
			break
		}
		fmt.Fprintf(s.out, "  %s %s %s %s\n", c.Flag, bold(c.Code, s.color), cyan("+"+c.DialCode, s.color), c.Name)
	}
	return nil
}

var transitionCommands = map[phoneinput.Transition]string{
	phoneinput.OpenPicker:    "picker",
	phoneinput.Dismiss:       "done",
	phoneinput.OpenSearch:    "search",
	phoneinput.CancelSearch:  "cancel",
	phoneinput.PickCountry:   "pick",
	phoneinput.ConfirmSearch: "confirm",
}

func transitionCommand(t phoneinput.Transition) string {
	if c, ok := transitionCommands[t]; ok {
		return c
	}
	return t.String()
}
