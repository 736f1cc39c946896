package framework

import (
	"path/filepath"
	"strings"

	"github.com/testguard/testguard/internal/framework/cargotest"
	"github.com/testguard/testguard/internal/framework/gotest"
	"github.com/testguard/testguard/internal/framework/phpunit"
	"github.com/testguard/testguard/internal/framework/pytest"
	"github.com/testguard/testguard/internal/framework/vitest"
)

// Detect inspects a command line and returns the framework it runs, or ""
// when no supported framework is recognized. Runner wrappers (npx, yarn,
// pnpm, python -m) are looked through.
func Detect(args []string) string {
	args = stripWrappers(args)
	if len(args) == 0 {
		return ""
	}

	cmd := filepath.Base(args[0])

	switch cmd {
	case "go":
		if len(args) > 1 && args[1] == "test" {
			return gotest.Name
		}
	case "cargo":
		if len(args) > 1 && (args[1] == "test" || args[1] == "nextest") {
			return cargotest.Name
		}
	case "pytest", "py.test":
		return pytest.Name
	case "vitest", "jest":
		return vitest.Name
	case "phpunit", "paratest":
		return phpunit.Name
	}

	return ""
}

// stripWrappers removes leading package-runner invocations so the real test
// command is inspected.
func stripWrappers(args []string) []string {
	for len(args) > 0 {
		cmd := filepath.Base(args[0])
		switch cmd {
		case "npx", "pnpx", "bunx":
			args = args[1:]
		case "yarn", "pnpm", "bun":
			// "yarn vitest", "pnpm exec jest"
			args = args[1:]
			if len(args) > 0 && (args[0] == "exec" || args[0] == "run" || args[0] == "dlx") {
				args = args[1:]
			}
		case "python", "python3":
			if len(args) > 2 && args[1] == "-m" {
				args = args[2:]
				continue
			}

			return args
		default:
			if strings.HasSuffix(args[0], "/vendor/bin/phpunit") {
				return []string{"phpunit"}
			}

			return args
		}
	}

	return args
}
