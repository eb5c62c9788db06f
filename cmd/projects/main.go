// Projects tool: check, inspect, and create StorCycle archive projects.
//
// Usage:
//
//	projects -check DATASET
//	projects -show DATASET
//	projects -create NAME -description TEXT -directory PATH
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"spectrabrainz/internal/config"
	"spectrabrainz/internal/storcycle"
	"spectrabrainz/internal/util"
)

func main() {
	check := flag.String("check", "", "report whether the named project exists")
	show := flag.String("show", "", "print the named project as JSON")
	create := flag.String("create", "", "create a ScanAndArchive project with this name")
	description := flag.String("description", "", "project description (with -create)")
	directory := flag.String("directory", "", "project working directory (with -create)")
	flag.Parse()

	actions := 0
	for _, v := range []string{*check, *show, *create} {
		if v != "" {
			actions++
		}
	}
	if actions != 1 {
		fmt.Fprintln(os.Stderr, "exactly one of -check, -show, or -create is required")
		flag.Usage()
		os.Exit(2)
	}

	cfgPath := "config/spectrabrainz.yaml"
	if p := os.Getenv("SPECTRABRAINZ_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	credsPath := cfg.API.CredentialsPath
	if credsPath == "" {
		credsPath = config.DefaultCredentialsPath()
	}
	creds, err := config.LoadCredentials(credsPath)
	if err != nil {
		log.Fatalf("failed to load credentials: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := storcycle.New(cfg.API, creds, logger)

	switch {
	case *check != "":
		exists, err := client.ProjectExists(ctx, *check)
		if err != nil {
			log.Fatalf("project check failed: %v", err)
		}
		fmt.Printf("%s: exists=%v\n", *check, exists)
		if !exists {
			os.Exit(1)
		}

	case *show != "":
		project, err := client.GetProject(ctx, *show)
		if err != nil {
			log.Fatalf("project fetch failed: %v", err)
		}
		out, err := json.MarshalIndent(project, "", "  ")
		if err != nil {
			log.Fatalf("encoding project: %v", err)
		}
		fmt.Println(string(out))

	case *create != "":
		if *directory == "" {
			log.Fatalf("-create requires -directory")
		}
		project, err := client.CreateArchiveProject(ctx, *create, *description, *directory)
		if err != nil {
			log.Fatalf("project creation failed: %v", err)
		}
		fmt.Printf("created project %s (directory %s)\n", project.Name, project.WorkingDirectory)
	}
}
