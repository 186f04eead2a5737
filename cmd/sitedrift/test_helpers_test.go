package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"sitedrift/internal/config"
	"sitedrift/internal/testsupport"
)

var testCities = map[string]testsupport.City{
	"beijing":  {Name: "Beijing", Hero: "images/beijing.jpg", Attractions: []string{"Great Wall", "Forbidden City"}},
	"shanghai": {Name: "Shanghai", Hero: "images/shanghai.jpg", Attractions: []string{"The Bund"}},
	"xian":     {Name: "Xi'an", Hero: "images/xian.jpg", Attractions: []string{"Terracotta Army"}},
}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("NO_COLOR", "1")

	testsupport.WriteSite(t, cfg, testCities)

	configPath := filepath.Join(base, "sitedrift.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	flags = append(flags, "--log-level", "error")
	cmd.SetArgs(append(flags, args...))
	cmd.SetContext(context.Background())
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func mustRunCLI(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, _, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("%s: %v\noutput:\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func requireContains(t *testing.T, output, substring string) {
	t.Helper()
	if !strings.Contains(output, substring) {
		t.Fatalf("expected output to contain %q\noutput:\n%s", substring, output)
	}
}
