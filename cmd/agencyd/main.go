// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Command agencyd runs the assistant/terminal multiplexing server.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/amirdauti/virtualagency/internal/app"
	"github.com/amirdauti/virtualagency/internal/config"
)

var version = "0.1"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "init" {
		if err := runInit(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	var (
		configPath  string
		host        string
		port        int
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to config file (default: auto-detect)")
	flag.StringVar(&configPath, "c", "", "Path to config file (short)")
	flag.StringVar(&host, "host", "", "HTTP server host (overrides config)")
	flag.IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&showVersion, "v", false, "Show version (short)")
	flag.Parse()

	if showVersion {
		fmt.Printf("agencyd %s\n", version)
		os.Exit(0)
	}

	if configPath == "" {
		loader := config.NewLoader()
		found, err := loader.FindConfig()
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		configPath = found
	}

	log.Printf("Using config: %s", configPath)

	application, err := app.New(app.Options{
		ConfigPath: configPath,
		Host:       host,
		Port:       port,
		Version:    version,
	})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	ctx := context.Background()
	if err := application.Run(ctx); err != nil {
		log.Fatalf("App error: %v", err)
	}
}

// runInit handles the "agencyd init" command: an interactive wizard
// that writes an agency.hjson into the current directory.
func runInit() error {
	initFlags := flag.NewFlagSet("init", flag.ExitOnError)
	showHelp := initFlags.Bool("help", false, "Show help for init command")
	initFlags.BoolVar(showHelp, "h", false, "Show help for init command")
	initFlags.Parse(os.Args[2:])

	if *showHelp {
		fmt.Println(`Usage: agencyd init [options]

Create a new agency.hjson configuration file in the current directory.

Options:
  -h, -help    Show this help message`)
		return nil
	}

	configFile := "agency.hjson"
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use a different directory", configFile)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Agency Configuration Setup")
	fmt.Println("==========================")
	fmt.Println()
	fmt.Println("Press Enter to accept defaults shown in [brackets].")
	fmt.Println()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	host := prompt(reader, "Server host", "127.0.0.1")
	portStr := prompt(reader, "Server port", "3001")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 3001
	}
	workDir := prompt(reader, "Default workspace directory", cwd)
	cliPath := prompt(reader, "Assistant CLI path (empty to auto-detect)", "")
	defaultModel := prompt(reader, "Default model tag (empty for CLI default)", "")

	content := generateConfig(host, port, workDir, cliPath, defaultModel)
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Println()
	fmt.Printf("Created %s\n", configFile)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit agency.hjson as needed")
	fmt.Println("  2. Run: agencyd")
	fmt.Printf("  3. Open: http://%s:%d\n", host, port)
	fmt.Println()

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}

func escapeHJSONValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

func generateConfig(host string, port int, workDir, cliPath, defaultModel string) string {
	var sb strings.Builder

	sb.WriteString(`{
  // agency.hjson — agencyd configuration (HJSON: JSON with comments).

  server: {
    host: "`)
	sb.WriteString(escapeHJSONValue(host))
	sb.WriteString(`"
    port: `)
	sb.WriteString(strconv.Itoa(port))
	sb.WriteString(`
  }

  workspace: {
    dir: "`)
	sb.WriteString(escapeHJSONValue(filepath.ToSlash(workDir)))
	sb.WriteString(`"
    default_shell: ""  // empty uses $SHELL, falling back to /bin/bash
  }

  assistant: {
    cli_path: "`)
	sb.WriteString(escapeHJSONValue(cliPath))
	sb.WriteString(`"      // empty auto-detects the assistant CLI on PATH
    default_model: "`)
	sb.WriteString(escapeHJSONValue(defaultModel))
	sb.WriteString(`"
  }

  events: {
    capacity: 1000
  }
}
`)
	return sb.String()
}
