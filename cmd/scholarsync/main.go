// Package main is the scholarsync command-line tool: it synchronizes
// Schol-AR projects and augmentations between the remote service and a
// local on-disk cache.
package main

import (
	"cmp"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/scholarar/scholarsync/internal/api"
	"github.com/scholarar/scholarsync/internal/cache"
	"github.com/scholarar/scholarsync/internal/config"
	"github.com/scholarar/scholarsync/internal/logger"
	"github.com/scholarar/scholarsync/internal/scholar"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const usage = `Usage: scholarsync [flags] <command> [args]

Commands:
  login <username> [api-token]
  project <username> <title> [type] [disc-url]
  augmentation <username> <project> <title> [target-image] [model-file]
  download-files <username> <project> <augmentation> [target] [model]
  upload-files <username> <project> <augmentation> <target-image|-> <model-file|->
  download-qr <username> <project>
  save-session <username> <project> <augmentation> <file>
  open-session <username> <project> <augmentation>
  export-target <username> <project> <augmentation> <dest>
  export-model <username> <project> <augmentation> <dest>
  export-qr <username> <project> <dest>
  export-all <username> <project> <augmentation> <folder>
  status <username> <project> <augmentation>
  list-users
  list-projects <username>
  list-augmentations <username> <project>
  clean-local [username]
  remove-user <username>
  version
`

func main() {
	options := config.Parse()
	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if args[0] == "version" {
		fmt.Printf("scholarsync\nVersion: %s\nBuild Date: %s\n",
			cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	client := api.New(options.APIBaseURL, options.MaxUploadMB, zapLogger)
	store := cache.NewStore(options.BaseDir, client, zapLogger)
	svc := scholar.NewService(store, client, options.MaxUploadMB, zapLogger)

	if err := run(svc, args); err != nil {
		// Server-side faults are outside the user's control and get
		// surfaced prominently; everything else was already logged as a
		// warning by the layer that hit it.
		if api.IsServerFault(err) {
			zapLogger.Error("the Schol-AR service reported an internal error, try again later", zap.Error(err))
		}
		os.Exit(1)
	}
}

// run dispatches one command. Argument counts are checked here so the
// operation layer only ever sees well-formed calls.
func run(svc *scholar.Service, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		if err := need(rest, 1); err != nil {
			return err
		}
		return svc.Login(rest[0], optional(rest, 1, ""))

	case "project":
		if err := need(rest, 2); err != nil {
			return err
		}
		_, err := svc.Project(rest[0], rest[1], optional(rest, 2, "other"), optional(rest, 3, ""))
		return err

	case "augmentation":
		if err := need(rest, 3); err != nil {
			return err
		}
		return svc.Augmentation(rest[0], rest[1], rest[2], "model",
			filearg(optional(rest, 3, "")), filearg(optional(rest, 4, "")))

	case "download-files":
		if err := need(rest, 3); err != nil {
			return err
		}
		target, err := boolarg(optional(rest, 3, "true"))
		if err != nil {
			return err
		}
		model, err := boolarg(optional(rest, 4, "false"))
		if err != nil {
			return err
		}
		return svc.DownloadAugFiles(rest[0], rest[1], rest[2], target, model)

	case "upload-files":
		if err := need(rest, 5); err != nil {
			return err
		}
		return svc.UploadAugFiles(rest[0], rest[1], rest[2], filearg(rest[3]), filearg(rest[4]))

	case "download-qr":
		if err := need(rest, 2); err != nil {
			return err
		}
		return svc.DownloadQR(rest[0], rest[1])

	case "save-session":
		if err := need(rest, 4); err != nil {
			return err
		}
		return svc.SaveSession(rest[0], rest[1], rest[2], rest[3])

	case "open-session":
		if err := need(rest, 3); err != nil {
			return err
		}
		path, err := svc.OpenSession(rest[0], rest[1], rest[2])
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil

	case "export-target":
		if err := need(rest, 4); err != nil {
			return err
		}
		return svc.ExportTargetImage(rest[0], rest[1], rest[2], rest[3])

	case "export-model":
		if err := need(rest, 4); err != nil {
			return err
		}
		return svc.ExportModel(rest[0], rest[1], rest[2], rest[3])

	case "export-qr":
		if err := need(rest, 3); err != nil {
			return err
		}
		return svc.ExportQR(rest[0], rest[1], rest[2])

	case "export-all":
		if err := need(rest, 4); err != nil {
			return err
		}
		return svc.ExportAll(rest[0], rest[1], rest[2], rest[3])

	case "status":
		if err := need(rest, 3); err != nil {
			return err
		}
		report, err := svc.Status(rest[0], rest[1], rest[2])
		if err != nil {
			return err
		}
		printStatus(report)
		return nil

	case "list-users":
		for _, name := range svc.ListUsers() {
			fmt.Println(name)
		}
		return nil

	case "list-projects":
		if err := need(rest, 1); err != nil {
			return err
		}
		for _, title := range svc.ListProjects(rest[0]) {
			fmt.Println(title)
		}
		return nil

	case "list-augmentations":
		if err := need(rest, 2); err != nil {
			return err
		}
		for _, title := range svc.ListAugmentations(rest[0], rest[1]) {
			fmt.Println(title)
		}
		return nil

	case "clean-local":
		return svc.CleanLocal(optional(rest, 0, ""))

	case "remove-user":
		if err := need(rest, 1); err != nil {
			return err
		}
		return svc.RemoveUser(rest[0])

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func printStatus(r scholar.TrackingReport) {
	if r.Pending {
		fmt.Println("Tracking score not ready yet, try refreshing in a moment.")
		return
	}
	if r.Improvable {
		fmt.Printf("Tracking Score: %d/5. Image tracking may be acceptable but could be improved.\n", r.Stars)
		return
	}
	fmt.Printf("Tracking Score: %d/5\n", r.Stars)
}

func need(args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("expected at least %d argument(s), got %d", n, len(args))
	}
	return nil
}

func optional(args []string, i int, def string) string {
	if i < len(args) {
		return args[i]
	}
	return def
}

// filearg maps the "-" placeholder to "skip this file".
func filearg(arg string) string {
	if arg == "-" {
		return ""
	}
	return arg
}

func boolarg(arg string) (bool, error) {
	v, err := strconv.ParseBool(arg)
	if err != nil {
		return false, fmt.Errorf("expected true or false, got %q", arg)
	}
	return v, nil
}
