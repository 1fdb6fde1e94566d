// Command composer drives the page composition engine from the shell. It is
// configured through COMPOSER_* variables (see runtimeconfig) and is meant to
// run against the bun storage provider; the memory provider forgets
// everything when the process exits.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"

	composer "github.com/goliatone/go-cms-composer"
	pagescmd "github.com/goliatone/go-cms-composer/internal/commands/pages"
)

const usage = `usage: composer [-env file] <command> [flags]

commands:
  migrate     apply database migrations
  create      create a page from a tree file
  save        save an edited locale tree and sync sibling locales
  publish     publish every locale of a page
  unpublish   remove the live snapshot of a page
  status      print the translation status report of a page
  review      mark an auto-translated node as reviewed
  live        print the published tree of a locale
  delete      delete a page
`

var moduleBuilder = buildModule

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("composer: %v", err)
	}
}

func buildModule(envFiles []string, migrate bool) (*composer.Module, error) {
	cfg, err := composer.LoadEnv(envFiles...)
	if err != nil {
		return nil, err
	}
	if migrate {
		cfg.Storage.AutoMigrate = true
	}
	return composer.New(cfg)
}

func run(ctx context.Context, args []string, out io.Writer) error {
	root := flag.NewFlagSet("composer", flag.ContinueOnError)
	root.SetOutput(io.Discard)
	envFile := root.String("env", "", "dotenv file loaded before COMPOSER_* variables")
	if err := root.Parse(args); err != nil {
		return fmt.Errorf("%w\n%s", err, usage)
	}
	rest := root.Args()
	if len(rest) == 0 {
		return errors.New(usage)
	}

	var envFiles []string
	if *envFile != "" {
		envFiles = []string{*envFile}
	}

	name, cmdArgs := rest[0], rest[1:]
	handler, ok := subcommands[name]
	if !ok {
		return fmt.Errorf("unknown command %q\n%s", name, usage)
	}

	module, err := moduleBuilder(envFiles, name == "migrate")
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()

	return handler(ctx, module, cmdArgs, out)
}

type subcommand func(ctx context.Context, module *composer.Module, args []string, out io.Writer) error

var subcommands = map[string]subcommand{
	"migrate":   runMigrate,
	"create":    runCreate,
	"save":      runSave,
	"publish":   runPublish,
	"unpublish": runUnpublish,
	"status":    runStatus,
	"review":    runReview,
	"live":      runLive,
	"delete":    runDelete,
}

func runMigrate(_ context.Context, module *composer.Module, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if module.Container().BunDB() == nil {
		fmt.Fprintln(out, "memory storage: nothing to migrate")
		return nil
	}
	fmt.Fprintln(out, "migrations applied")
	return nil
}

func runCreate(ctx context.Context, module *composer.Module, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	slug := fs.String("slug", "", "page slug")
	locale := fs.String("locale", "", "locale of the initial tree")
	treeFile := fs.String("tree", "", "path to the tree JSON file (- for stdin)")
	title := fs.String("seo-title", "", "SEO title")
	description := fs.String("seo-description", "", "SEO description")
	image := fs.String("featured-image", "", "featured image reference")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tree, err := readTree(*treeFile)
	if err != nil {
		return err
	}

	var page composer.Page
	err = module.Commands().Create.Execute(ctx, pagescmd.CreatePageCommand{
		Slug:   *slug,
		Locale: defaultLocale(module, *locale),
		Tree:   tree,
		SEO:    composer.SEO{Title: *title, Description: *description, FeaturedImage: *image},
		Result: &page,
	})
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]any{
		"page_id": page.ID,
		"slug":    page.Slug,
		"version": page.Version,
	})
}

func runSave(ctx context.Context, module *composer.Module, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	pageFlag := fs.String("page", "", "page id")
	locale := fs.String("locale", "", "edited locale")
	treeFile := fs.String("tree", "", "path to the edited tree JSON file (- for stdin)")
	version := fs.Int64("version", 0, "page version the edit is based on (0 reads the current one)")
	strategy := fs.String("strategy", "", "structure-only or full-override")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pageID, err := parsePageID(*pageFlag)
	if err != nil {
		return err
	}
	tree, err := readTree(*treeFile)
	if err != nil {
		return err
	}
	loc := defaultLocale(module, *locale)
	if *version == 0 {
		if _, *version, err = module.LoadTree(ctx, pageID, loc); err != nil {
			return err
		}
	}

	var result composer.SaveResult
	err = module.Commands().Save.Execute(ctx, pagescmd.SaveEditCommand{
		PageID:   pageID,
		Locale:   loc,
		Tree:     tree,
		Version:  *version,
		Strategy: composer.Strategy(*strategy),
		Result:   &result,
	})
	if err != nil {
		return err
	}

	failures := make([]string, 0, len(result.TranslationFailures))
	for _, failure := range result.TranslationFailures {
		failures = append(failures, failure.Error())
	}
	return writeJSON(out, map[string]any{
		"page_id":              result.PageID,
		"version":              result.Version,
		"operations":           result.Operations,
		"changed":              result.Changed,
		"created":              result.Created,
		"translation_failures": failures,
	})
}

func runPublish(ctx context.Context, module *composer.Module, args []string, out io.Writer) error {
	pageID, err := pageOnly("publish", args)
	if err != nil {
		return err
	}
	var result composer.PublishResult
	if err := module.Commands().Publish.Execute(ctx, pagescmd.PublishPageCommand{PageID: pageID, Result: &result}); err != nil {
		return err
	}
	return writeJSON(out, result)
}

func runUnpublish(ctx context.Context, module *composer.Module, args []string, out io.Writer) error {
	pageID, err := pageOnly("unpublish", args)
	if err != nil {
		return err
	}
	var result composer.PublishResult
	if err := module.Commands().Unpublish.Execute(ctx, pagescmd.UnpublishPageCommand{PageID: pageID, Result: &result}); err != nil {
		return err
	}
	return writeJSON(out, result)
}

func runStatus(ctx context.Context, module *composer.Module, args []string, out io.Writer) error {
	pageID, err := pageOnly("status", args)
	if err != nil {
		return err
	}
	report, err := module.TranslationStatus(ctx, pageID)
	if err != nil {
		return err
	}
	return writeJSON(out, report)
}

func runReview(ctx context.Context, module *composer.Module, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("review", flag.ContinueOnError)
	pageFlag := fs.String("page", "", "page id")
	node := fs.String("node", "", "node id")
	locale := fs.String("locale", "", "reviewed locale")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pageID, err := parsePageID(*pageFlag)
	if err != nil {
		return err
	}
	err = module.Commands().MarkReviewed.Execute(ctx, pagescmd.MarkReviewedCommand{
		PageID: pageID,
		NodeID: *node,
		Locale: *locale,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "node %s reviewed in %s\n", *node, *locale)
	return nil
}

func runLive(ctx context.Context, module *composer.Module, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("live", flag.ContinueOnError)
	pageFlag := fs.String("page", "", "page id")
	locale := fs.String("locale", "", "locale to read")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pageID, err := parsePageID(*pageFlag)
	if err != nil {
		return err
	}
	live, err := module.ReadLive(ctx, pageID, defaultLocale(module, *locale))
	if err != nil {
		return err
	}
	data, err := composer.SerializeTree(live.Tree)
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]any{
		"locale":        live.Locale,
		"seo":           live.SEO,
		"tree":          json.RawMessage(data),
		"unknown_types": live.UnknownTypes,
	})
}

func runDelete(ctx context.Context, module *composer.Module, args []string, out io.Writer) error {
	pageID, err := pageOnly("delete", args)
	if err != nil {
		return err
	}
	if err := module.Commands().Delete.Execute(ctx, pagescmd.DeletePageCommand{PageID: pageID}); err != nil {
		return err
	}
	fmt.Fprintf(out, "page %s deleted\n", pageID)
	return nil
}

func pageOnly(name string, args []string) (uuid.UUID, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	pageFlag := fs.String("page", "", "page id")
	if err := fs.Parse(args); err != nil {
		return uuid.Nil, err
	}
	return parsePageID(*pageFlag)
}

func parsePageID(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.Nil, errors.New("-page is required")
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse page id: %w", err)
	}
	return id, nil
}

func defaultLocale(module *composer.Module, locale string) string {
	if trimmed := strings.TrimSpace(locale); trimmed != "" {
		return trimmed
	}
	return module.Container().Config.DefaultLocale
}

func readTree(path string) (*composer.Tree, error) {
	var (
		data []byte
		err  error
	)
	switch strings.TrimSpace(path) {
	case "":
		return nil, errors.New("-tree is required")
	case "-":
		data, err = io.ReadAll(os.Stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read tree: %w", err)
	}
	return composer.ParseTree(data)
}

func writeJSON(out io.Writer, value any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
