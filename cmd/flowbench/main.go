// flowbench runs workflow graphs in the terminal or serves them over HTTP.
//
//	flowbench run [-project dir] graph.json
//	flowbench serve [-project dir]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/flowbench/internal/api"
	"github.com/kingrea/flowbench/internal/bootstrap"
	"github.com/kingrea/flowbench/internal/graph"
	"github.com/kingrea/flowbench/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "run":
		err = runCommand(os.Args[2:])
	case "serve":
		err = serveCommand(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowbench: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  flowbench run [-project dir] <graph.json|graph.yaml>")
	fmt.Fprintln(os.Stderr, "  flowbench serve [-project dir]")
}

func projectFlag(fs *flag.FlagSet) *string {
	return fs.String("project", "", "path to the project directory (defaults to cwd)")
}

func resolveProject(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return os.Getwd()
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	project := projectFlag(fs)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("run expects exactly one graph file")
	}
	dir, err := resolveProject(*project)
	if err != nil {
		return err
	}
	g, err := graph.LoadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	app, err := bootstrap.Open(dir)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	model := tui.New(app.Engine, g, tui.WithContext(ctx), tui.WithTitle("flowbench · "+fs.Arg(0)))
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return fmt.Errorf("run terminal UI: %w", err)
	}
	if m, ok := final.(tui.Model); ok {
		if m.Err() != nil {
			return m.Err()
		}
		if m.Outcome().Failed() {
			return errors.New(m.Outcome().Message)
		}
	}
	return nil
}

func serveCommand(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	project := projectFlag(fs)
	fs.Parse(args)
	dir, err := resolveProject(*project)
	if err != nil {
		return err
	}
	app, err := bootstrap.Open(dir)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	srv, err := api.NewServer(api.SettingsFromConfig(app.Config), app.Engine, app.Storage,
		api.WithLogger(app.Logger), api.WithSaver(app.Saver))
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("flowbench API listening on %s (%d features)\n", srv.BaseURL(), app.Catalog.Len())
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
