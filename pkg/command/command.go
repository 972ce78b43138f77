// Package command is the contract between gacc and command modules.
//
// A module is a Go source file in package main that imports this package and
// exports a single factory:
//
//	package main
//
//	import (
//		"strings"
//
//		"github.com/soyeahso/gacc/pkg/command"
//	)
//
//	func Commands(env command.Env) []command.Command {
//		return []command.Command{{
//			Name:  "heal",
//			Usage: "heal <amount>",
//			Run: func(args []string) error {
//				env.Log.Info("healing " + strings.Join(args, " "))
//				return nil
//			},
//		}}
//	}
package command

// FactoryName is the identifier every module must export.
const FactoryName = "Commands"

// Handler runs a command with the arguments that followed its name.
type Handler func(args []string) error

// Command is one named, invocable unit exported by a module.
type Command struct {
	Name  string
	Usage string
	Run   Handler
}

// Logger is the diagnostic sink handed to modules.
type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// Env carries the host dependencies a module may use. Fields may be nil
// when the host does not provide them.
type Env struct {
	Log   Logger
	Print func(msg string)
}

// Factory is the signature of a module's exported Commands function.
type Factory func(env Env) []Command

// Println writes msg to the host console when one is attached.
func (e Env) Println(msg string) {
	if e.Print != nil {
		e.Print(msg)
	}
}
