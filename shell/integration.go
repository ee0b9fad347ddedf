package shell

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/javanhut/ravencore/config"
)

// cwdFunc prints the working-directory notification the session tracks.
const cwdFunc = `__ravencore_cwd() { printf '\033]633;CWD=%s\007' "$PWD"; }`

// integration is the argv and environment that make a shell announce its
// directory after every prompt or cd.
type integration struct {
	args []string
	env  map[string]string
}

func scriptDir() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("ravencore-%d", os.Getuid()))
}

func newIntegration(shellPath string, cfg config.ShellConfig) (integration, error) {
	dir := scriptDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return integration{}, fmt.Errorf("create %s: %w", dir, err)
	}

	switch filepath.Base(shellPath) {
	case "bash":
		if cfg.Login {
			// Login shells ignore --rcfile, so hook through the environment.
			return integration{
				args: []string{"-l", "-i"},
				env:  map[string]string{"PROMPT_COMMAND": `printf '\033]633;CWD=%s\007' "$PWD"`},
			}, nil
		}
		rc := filepath.Join(dir, "bashrc")
		if err := os.WriteFile(rc, []byte(bashScript(cfg.SourceRC)), 0o600); err != nil {
			return integration{}, err
		}
		args := []string{"--rcfile", rc, "-i"}
		if !cfg.SourceRC {
			args = append([]string{"--noprofile"}, args...)
		}
		return integration{args: args}, nil

	case "zsh":
		zdot := filepath.Join(dir, "zsh")
		if err := os.MkdirAll(zdot, 0o700); err != nil {
			return integration{}, err
		}
		if err := os.WriteFile(filepath.Join(zdot, ".zshrc"), []byte(zshScript(cfg.SourceRC)), 0o600); err != nil {
			return integration{}, err
		}
		args := []string{"-i"}
		if cfg.Login {
			args = append([]string{"-l"}, args...)
		}
		return integration{args: args, env: map[string]string{"ZDOTDIR": zdot}}, nil

	case "fish":
		args := []string{"-i", "--init-command", fishScript}
		if !cfg.SourceRC {
			args = append([]string{"--no-config"}, args...)
		}
		if cfg.Login {
			args = append([]string{"-l"}, args...)
		}
		return integration{args: args}, nil

	default:
		env := filepath.Join(dir, "shrc")
		if err := os.WriteFile(env, []byte(shScript(cfg.SourceRC)), 0o600); err != nil {
			return integration{}, err
		}
		args := []string{"-i"}
		if cfg.Login {
			args = append([]string{"-l"}, args...)
		}
		return integration{args: args, env: map[string]string{"ENV": env}}, nil
	}
}

// plainIntegration starts the shell interactively with no directory hook.
func plainIntegration(cfg config.ShellConfig) integration {
	args := []string{"-i"}
	if cfg.Login {
		args = append([]string{"-l"}, args...)
	}
	return integration{args: args}
}

func bashScript(sourceRC bool) string {
	script := "# ravencore shell integration, regenerated on every start\n"
	if sourceRC {
		script += "[ -f \"$HOME/.bashrc\" ] && source \"$HOME/.bashrc\"\n"
	}
	script += cwdFunc + "\n"
	script += "PROMPT_COMMAND=\"__ravencore_cwd${PROMPT_COMMAND:+;$PROMPT_COMMAND}\"\n"
	return script
}

func zshScript(sourceRC bool) string {
	script := "# ravencore shell integration, regenerated on every start\n"
	script += "ZDOTDIR=\"$HOME\"\n"
	if sourceRC {
		script += "[ -f \"$HOME/.zshrc\" ] && source \"$HOME/.zshrc\"\n"
	}
	script += cwdFunc + "\n"
	script += "precmd_functions+=(__ravencore_cwd)\n"
	return script
}

const fishScript = `function __ravencore_cwd --on-variable PWD; printf '\e]633;CWD=%s\a' $PWD; end; __ravencore_cwd`

func shScript(sourceRC bool) string {
	script := "# ravencore shell integration, regenerated on every start\n"
	if sourceRC {
		script += "[ -f \"$HOME/.shrc\" ] && . \"$HOME/.shrc\"\n"
	}
	script += cwdFunc + "\n"
	script += "cd() { command cd \"$@\" && __ravencore_cwd; }\n"
	script += "__ravencore_cwd\n"
	return script
}
