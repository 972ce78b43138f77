package loader

import (
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/soyeahso/gacc/pkg/command"
)

// commandImportPath is the path modules import the command API from.
const commandImportPath = "github.com/soyeahso/gacc/pkg/command"

// commandExports exposes pkg/command to interpreted modules. Yaegi expects
// keys of the form "importPath/pkgName".
var commandExports = interp.Exports{
	commandImportPath + "/command": {
		"Command": reflect.ValueOf((*command.Command)(nil)),
		"Env":     reflect.ValueOf((*command.Env)(nil)),
		"Factory": reflect.ValueOf((*command.Factory)(nil)),
		"Handler": reflect.ValueOf((*command.Handler)(nil)),
		"Logger":  reflect.ValueOf((*command.Logger)(nil)),
	},
}

// restrictedStdlib returns the stdlib symbols for the allowed import paths.
// Unknown paths are returned so the caller can report them.
func restrictedStdlib(allowed []string) (interp.Exports, []string) {
	restricted := interp.Exports{}
	var unknown []string
	for _, path := range allowed {
		key := path + "/" + pkgName(path)
		syms, ok := stdlib.Symbols[key]
		if !ok {
			unknown = append(unknown, path)
			continue
		}
		restricted[key] = syms
	}
	return restricted, unknown
}

func pkgName(importPath string) string {
	for i := len(importPath) - 1; i >= 0; i-- {
		if importPath[i] == '/' {
			return importPath[i+1:]
		}
	}
	return importPath
}
