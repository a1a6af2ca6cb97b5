// Command datactl inspects the document store and log files offline.
//
//	datactl verify               load every collection, report counts or corruption
//	datactl surveys [-by user]   list surveys
//	datactl threads [-user id]   list active chat threads
//	datactl logs [-level ERROR] [-n 50] [-file path]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"enculture-be/internal/bootstrap"
	"enculture-be/internal/config"
	"enculture-be/internal/entity"
	"enculture-be/internal/pkg/logger"
	"enculture-be/internal/repository/specification"

	"github.com/fatih/color"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "verify":
		err = verify(ctx, cfg)
	case "surveys":
		err = surveys(ctx, cfg, os.Args[2:])
	case "threads":
		err = threads(ctx, cfg, os.Args[2:])
	case "logs":
		err = logs(cfg, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: datactl verify|surveys|threads|logs [flags]")
}

func openRepos(cfg *config.Config) (*bootstrap.Repositories, error) {
	backend, err := bootstrap.OpenBackend(cfg.Data, false)
	if err != nil {
		return nil, err
	}
	return bootstrap.NewRepositories(backend), nil
}

func verify(ctx context.Context, cfg *config.Config) error {
	backend, err := bootstrap.OpenBackend(cfg.Data, false)
	if err != nil {
		return err
	}
	color.Cyan("Verifying %s store", cfg.Data.Backend)

	// never quarantine from the CLI, only report
	reports, err := bootstrap.VerifyStore(ctx, bootstrap.NewRepositories(backend), backend, false, logger.NewNopLogger())
	for _, r := range reports {
		if r.Err != nil {
			color.Red("  %-18s CORRUPT  %v", r.Name, r.Err)
			continue
		}
		color.Green("  %-18s ok       %d records", r.Name, r.Records)
	}
	return err
}

func surveys(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("surveys", flag.ExitOnError)
	by := fs.String("by", "", "only surveys created by this user")
	_ = fs.Parse(args)

	repos, err := openRepos(cfg)
	if err != nil {
		return err
	}
	list, err := repos.Surveys.FindAll(ctx, specification.SurveyCreatedBy{CreatedBy: *by})
	if err != nil {
		return err
	}
	counts, err := repos.Responses.CountBySurvey(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tCREATED BY\tQUESTIONS\tRESPONSES")
	for _, s := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
			s.Id, s.Name, statusColor(s.Status), s.CreatedBy, len(s.Questions), counts[s.Id])
	}
	return w.Flush()
}

func statusColor(status string) string {
	switch status {
	case entity.SurveyStatusPublished:
		return color.GreenString(status)
	case entity.SurveyStatusCompleted:
		return color.BlueString(status)
	default:
		return color.YellowString(status)
	}
}

func threads(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("threads", flag.ExitOnError)
	user := fs.String("user", "", "only threads owned by this user")
	_ = fs.Parse(args)

	repos, err := openRepos(cfg)
	if err != nil {
		return err
	}
	list, err := repos.Threads.FindAll(ctx,
		specification.ThreadActive{},
		specification.ThreadOwnedBy{UserId: *user},
	)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tOWNER\tMESSAGES\tUPDATED")
	for _, t := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			t.Id, t.TitleOrEmpty(), t.Owner(), len(t.Messages), t.UpdatedAt.String())
	}
	return w.Flush()
}

func logs(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	level := fs.String("level", "", "only this level (DEBUG, INFO, WARN, ERROR)")
	limit := fs.Int("n", 50, "number of entries, newest first")
	file := fs.String("file", cfg.App.LogFilePath, "log file to read")
	_ = fs.Parse(args)

	entries, err := logger.ReadEntries(*file, strings.ToUpper(*level), *limit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s %-5s [%s] %s", e.Timestamp, e.Level, e.Module, e.Message)
		switch e.Level {
		case "ERROR":
			color.Red("%s", line)
		case "WARN":
			color.Yellow("%s", line)
		default:
			fmt.Println(line)
		}
		if len(e.Details) > 0 {
			fmt.Printf("    %v\n", e.Details)
		}
	}
	return nil
}
