// module-runner executes a single feature processor outside of a workflow.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/flowbench/internal/bootstrap"
	"github.com/kingrea/flowbench/internal/feature"
)

func main() {
	featureID := flag.String("feature", "", "feature identifier to execute (e.g. text_chunker)")
	projectDir := flag.String("project", "", "path to the project directory (defaults to cwd)")
	configFile := flag.String("config-file", "", "path to YAML/JSON file with input values")
	sets := keyValueFlag{}
	flag.Var(&sets, "set", "input value (key=value, repeatable)")
	flag.Parse()

	if strings.TrimSpace(*featureID) == "" {
		die("--feature is required")
	}
	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	app, err := bootstrap.Open(project)
	if err != nil {
		die("load project: %v", err)
	}
	defer app.Close()

	desc, ok := app.Catalog.Descriptor(*featureID)
	if !ok {
		die("unknown feature %q", *featureID)
	}
	inputs, err := buildInputs(*configFile, sets)
	if err != nil {
		die("load inputs: %v", err)
	}
	if missing := missingInputs(desc, inputs); len(missing) > 0 {
		die("%s needs input(s): %s", label(desc), strings.Join(missing, ", "))
	}
	proc, err := app.Registry.Resolve(desc)
	if err != nil {
		die("resolve processor: %v", err)
	}
	result, err := proc.Run(context.Background(), inputs)
	if err != nil {
		die("Error in %s: %v", desc.ID, err)
	}
	if pause, ok := result.Pause(); ok {
		fmt.Printf("%s paused waiting for %s on node %s (session %s)\n", label(desc), pause.RequiredInput.Name, pause.NodeID, pause.Waiting())
		return
	}
	out, err := json.MarshalIndent(result.Value(), "", "  ")
	if err != nil {
		fmt.Printf("%v\n", result.Value())
		return
	}
	fmt.Println(string(out))
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func label(desc feature.Descriptor) string {
	if name := strings.TrimSpace(desc.Name); name != "" {
		return name
	}
	return desc.ID
}

func missingInputs(desc feature.Descriptor, inputs map[string]any) []string {
	var missing []string
	for _, port := range desc.Inputs {
		if _, ok := inputs[port.Name]; !ok && !port.Optional {
			missing = append(missing, port.Name)
		}
	}
	return missing
}

type keyValueFlag map[string]string

func (kv *keyValueFlag) String() string {
	if kv == nil || len(*kv) == 0 {
		return ""
	}
	var pairs []string
	for key, value := range *kv {
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, value))
	}
	return strings.Join(pairs, ", ")
}

func (kv *keyValueFlag) Set(value string) error {
	parts := strings.SplitN(value, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	key := strings.TrimSpace(parts[0])
	if key == "" {
		return fmt.Errorf("input key is empty in %q", value)
	}
	if *kv == nil {
		*kv = keyValueFlag{}
	}
	(*kv)[key] = parts[1]
	return nil
}

// buildInputs merges the config file with --set values; --set wins.
func buildInputs(configFile string, overrides keyValueFlag) (map[string]any, error) {
	inputs := map[string]any{}
	if path := strings.TrimSpace(configFile); path != "" {
		fileInputs, err := readInputFile(path)
		if err != nil {
			return nil, err
		}
		for key, value := range fileInputs {
			inputs[key] = value
		}
	}
	for key, value := range overrides {
		inputs[key] = value
	}
	return inputs, nil
}

func readInputFile(path string) (map[string]any, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open input file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, expected a file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input file %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("input file %s is empty", path)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse input file %s: %w", path, err)
	}
	return raw, nil
}
