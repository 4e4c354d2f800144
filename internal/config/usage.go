package config

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/agbru/omegacalc/internal/ui"
)

// usageSections groups the flags of the usage message. Flags missing from
// every section are listed under "Other".
var usageSections = []struct {
	title string
	flags []string
}{
	{"Numerics", []string{"digits", "orders", "low", "high", "tol-mult"}},
	{"Output", []string{"json", "quiet", "q", "v", "no-color", "log-level", "metrics-file"}},
	{"Runtime", []string{"timeout", "parallel", "config", "completion"}},
}

// setCustomUsage replaces the flag package's usage message with one that
// groups flags by section.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		// The theme is not initialised yet when -h is parsed.
		t := ui.Current()
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			t = ui.NoColorTheme
		}
		writeUsage(fs, fs.Output(), t)
	}
}

func writeUsage(fs *flag.FlagSet, out io.Writer, t ui.Theme) {
	fmt.Fprintf(out, "\n%sOmega Calculator%s\n", t.Bold, t.Reset)
	fmt.Fprintln(out, "Certified root of the Fibonacci-weighted series equation f(x) = ln φ.")
	fmt.Fprintf(out, "\n%sUsage:%s %s [flags]\n", t.Warning, t.Reset, fs.Name())

	listed := make(map[string]bool)
	for _, section := range usageSections {
		fmt.Fprintf(out, "\n%s%s:%s\n", t.Warning, section.title, t.Reset)
		for _, name := range section.flags {
			if f := fs.Lookup(name); f != nil {
				writeFlag(out, f, t)
				listed[name] = true
			}
		}
	}

	var others []*flag.Flag
	fs.VisitAll(func(f *flag.Flag) {
		if !listed[f.Name] {
			others = append(others, f)
		}
	})
	if len(others) > 0 {
		fmt.Fprintf(out, "\n%sOther:%s\n", t.Warning, t.Reset)
		for _, f := range others {
			writeFlag(out, f, t)
		}
	}

	fmt.Fprintf(out, "\nEnvironment:\n")
	for _, b := range envBindings {
		fmt.Fprintf(out, "  %s%s%s%s overrides -%s\n", t.Secondary, EnvPrefix, b.key, t.Reset, b.flags[0])
	}
	fmt.Fprintf(out, "  %s%sCONFIG%s overrides -config\n\n", t.Secondary, EnvPrefix, t.Reset)
}

func writeFlag(out io.Writer, f *flag.Flag, t ui.Theme) {
	arg, usage := flag.UnquoteUsage(f)
	sig := "-" + f.Name
	if arg != "" {
		sig += " " + arg
	}
	fmt.Fprintf(out, "  %s%-22s%s %s", t.Primary, sig, t.Reset, usage)
	switch f.DefValue {
	case "", "0", "false", "0s":
	default:
		fmt.Fprintf(out, " %s[%s]%s", t.Secondary, f.DefValue, t.Reset)
	}
	fmt.Fprintln(out)
}
