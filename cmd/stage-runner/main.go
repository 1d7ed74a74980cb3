// cmd/stage-runner/main.go
//
// Headless pipeline runner. With no flags it runs the full pipeline
// (plan-scan, then standards-sync) in the current directory, mirroring run
// journal lines to stdout. -stage runs a single stage; -set passes stage
// config overrides such as force=true.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/chalkline/internal/config"
	"github.com/kingrea/chalkline/internal/logbook"
	"github.com/kingrea/chalkline/internal/logging"
	"github.com/kingrea/chalkline/internal/module"
	"github.com/kingrea/chalkline/internal/modules"
	"github.com/kingrea/chalkline/internal/pipeline"
)

func main() {
	stageID := flag.String("stage", "", "stage identifier to execute (default: run the whole pipeline)")
	projectDir := flag.String("project", "", "path to the project directory (defaults to cwd)")
	configFile := flag.String("config-file", "", "path to YAML/JSON file with stage config overrides")
	sets := keyValueFlag{}
	flag.Var(&sets, "set", "stage config override (key=value, repeatable)")
	flag.Parse()

	_ = godotenv.Load()

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	absoluteProject, err := filepath.Abs(project)
	if err != nil {
		die("resolve project dir: %v", err)
	}
	if err := config.InitChalklineDir(absoluteProject); err != nil {
		die("init .chalkline: %v", err)
	}
	cfg, err := config.NewConfig(absoluteProject)
	if err != nil {
		die("load config: %v", err)
	}
	p := pipeline.New(cfg.ChalklineProjectDir)
	if err := p.Initialize(); err != nil {
		die("init run dir: %v", err)
	}
	lb, err := logbook.New(p.LogbookPath(), logbook.WithEcho(os.Stdout))
	if err != nil {
		die("open logbook: %v", err)
	}
	logger, err := logging.New(cfg.LogsDir())
	if err != nil {
		die("open log file: %v", err)
	}
	defer logger.Close()
	ctx := module.NewContext(cfg, p, lb).WithMode("stage-runner")

	reg := module.NewRegistry()
	modules.RegisterBuiltins(reg)
	cfgOverrides, err := buildStageConfig(*configFile, sets)
	if err != nil {
		die("load config overrides: %v", err)
	}

	stages := modules.PipelineOrder
	if id := strings.TrimSpace(*stageID); id != "" {
		stages = []string{id}
	}
	for _, id := range stages {
		mod, err := reg.Resolve(id, cfgOverrides)
		if err != nil {
			die("resolve stage: %v", err)
		}
		label := stageLabel(mod.Info(), id)
		fmt.Printf("== %s ==\n", label)
		result, err := mod.Run(ctx)
		if err != nil {
			logger.Printf("stage %s: %v", id, err)
			die("%s: %v", label, err)
		}
		logger.Printf("stage %s: %s %s", id, result.Status, result.Message)
		fmt.Printf("Run status: %s\n", result.Status)
		if result.Message != "" {
			fmt.Println(result.Message)
		}
		if result.Status == module.StatusNeedsInput {
			die("%s is waiting on inputs, stopping here", label)
		}
		if result.Status == module.StatusFailed {
			die("%s failed", label)
		}
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
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
		return fmt.Errorf("override key is empty in %q", value)
	}
	if *kv == nil {
		*kv = keyValueFlag{}
	}
	(*kv)[key] = parts[1]
	return nil
}

func buildStageConfig(configFile string, overrides keyValueFlag) (module.Config, error) {
	var cfg module.Config
	if path := strings.TrimSpace(configFile); path != "" {
		fileCfg, err := readStageConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	if len(overrides) > 0 {
		if cfg == nil {
			cfg = module.Config{}
		}
		for key, value := range overrides {
			cfg[key] = value
		}
	}
	if len(cfg) == 0 {
		return nil, nil
	}
	return cfg, nil
}

func stageLabel(info module.Info, fallback string) string {
	if name := strings.TrimSpace(info.Name); name != "" {
		return name
	}
	if id := strings.TrimSpace(info.ID); id != "" {
		return id
	}
	return strings.TrimSpace(fallback)
}

func readStageConfigFile(path string) (module.Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open config file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, expected a file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("config file %s is empty", path)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	cfg := make(module.Config, len(raw))
	for key, value := range raw {
		cfg[key] = value
	}
	return cfg, nil
}
