package cli

import (
	"fmt"
	"io"
	"strings"
)

// GenerateCompletion writes a shell completion script for omegacalc.
//
// Parameters:
//   - out: The writer to output the completion script.
//   - shell: The shell type ("bash", "zsh", "fish").
//   - flags: The flag names, without dashes.
//
// Returns:
//   - error: An error if the shell is not supported.
func GenerateCompletion(out io.Writer, shell string, flags []string) error {
	switch shell {
	case "bash":
		return generateBashCompletion(out, flags)
	case "zsh":
		return generateZshCompletion(out, flags)
	case "fish":
		return generateFishCompletion(out, flags)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish)", shell)
	}
}

func dashed(flags []string) []string {
	opts := make([]string, 0, len(flags)+1)
	for _, f := range flags {
		opts = append(opts, "-"+f)
	}
	return append(opts, "--version")
}

func generateBashCompletion(out io.Writer, flags []string) error {
	script := `# Bash completion script for omegacalc
# Add this to your ~/.bashrc or ~/.bash_completion

_omegacalc_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    opts="%s"

    case "${prev}" in
        -completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- "${cur}") )
            return 0
            ;;
        -log-level)
            COMPREPLY=( $(compgen -W "debug info warn error disabled" -- "${cur}") )
            return 0
            ;;
        -config|-metrics-file)
            COMPREPLY=( $(compgen -f -- "${cur}") )
            return 0
            ;;
        -timeout)
            COMPREPLY=( $(compgen -W "1m 5m 10m 30m 1h" -- "${cur}") )
            return 0
            ;;
    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _omegacalc_completions omegacalc
`
	_, err := fmt.Fprintf(out, script, strings.Join(dashed(flags), " "))
	return err
}

func generateZshCompletion(out io.Writer, flags []string) error {
	var args strings.Builder
	for _, f := range dashed(flags) {
		switch f {
		case "-completion":
			args.WriteString("        '-completion[Generate completion script]:shell:(bash zsh fish)' \\\n")
		case "-log-level":
			args.WriteString("        '-log-level[Log level]:level:(debug info warn error disabled)' \\\n")
		case "-config", "-metrics-file":
			fmt.Fprintf(&args, "        '%s[File path]:file:_files' \\\n", f)
		default:
			fmt.Fprintf(&args, "        '%s' \\\n", f)
		}
	}
	script := `#compdef omegacalc

# Zsh completion script for omegacalc
# Place this file in $fpath

_omegacalc() {
    _arguments -s \
%s        '*: :'
}

_omegacalc "$@"
`
	_, err := fmt.Fprintf(out, script, args.String())
	return err
}

func generateFishCompletion(out io.Writer, flags []string) error {
	var b strings.Builder
	b.WriteString("# Fish completion script for omegacalc\n")
	b.WriteString("# Add this to ~/.config/fish/completions/omegacalc.fish\n\n")
	b.WriteString("complete -c omegacalc -f\n")
	for _, f := range flags {
		switch f {
		case "completion":
			b.WriteString("complete -c omegacalc -o completion -xa 'bash zsh fish'\n")
		case "log-level":
			b.WriteString("complete -c omegacalc -o log-level -xa 'debug info warn error disabled'\n")
		case "config", "metrics-file":
			fmt.Fprintf(&b, "complete -c omegacalc -o %s -rF\n", f)
		default:
			fmt.Fprintf(&b, "complete -c omegacalc -o %s\n", f)
		}
	}
	b.WriteString("complete -c omegacalc -l version -d 'Show version information'\n")
	_, err := io.WriteString(out, b.String())
	return err
}
