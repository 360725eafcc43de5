// Command thesis runs one assistant generation and streams it to the terminal.
//
// Usage:
//
//	thesis -use-case topic-selection -major computer -education graduate -input 机器学习
//	thesis -use-case proposal-appraise -major law -file 开题报告.docx
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/haowjy/thesis-llm-go"
	"github.com/haowjy/thesis-llm-go/assistant"
	"github.com/haowjy/thesis-llm-go/config"
	"github.com/haowjy/thesis-llm-go/docread"
	"github.com/haowjy/thesis-llm-go/profile"
	"github.com/haowjy/thesis-llm-go/prompts"
	"github.com/haowjy/thesis-llm-go/providers"
	"github.com/haowjy/thesis-llm-go/render"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	configPath  string
	useCase     string
	projectName string
	major       string
	education   string
	topic       string
	input       string
	file        string
	html        bool
	saveProfile bool
	list        bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("thesis", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "path to config file")
	fs.StringVar(&o.useCase, "use-case", prompts.Assistant, "use case tag")
	fs.StringVar(&o.projectName, "project", "", "project name")
	fs.StringVar(&o.major, "major", "", "major code, e.g. computer")
	fs.StringVar(&o.education, "education", "", "education level: specialty, undergraduate, graduate, doctoral")
	fs.StringVar(&o.topic, "topic", "", "research topic")
	fs.StringVar(&o.input, "input", "", "free-text input (question, research direction, title, ...)")
	fs.StringVar(&o.file, "file", "", "read the input from a .txt, .md or .docx file")
	fs.BoolVar(&o.html, "html", false, "print the rendered HTML instead of streaming text")
	fs.BoolVar(&o.saveProfile, "save-profile", false, "persist the profile flags before generating")
	fs.BoolVar(&o.list, "list", false, "list use cases and majors, then exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.input != "" && o.file != "" {
		return options{}, errors.New("-input and -file are mutually exclusive")
	}
	return o, nil
}

// profile returns the profile given on the command line.
func (o options) profile() (profile.Profile, error) {
	p := profile.Profile{
		ProjectName: strings.TrimSpace(o.projectName),
		Major:       strings.TrimSpace(o.major),
		Topic:       strings.TrimSpace(o.topic),
	}
	if o.education != "" {
		e, err := profile.ParseEducation(o.education)
		if err != nil {
			return profile.Profile{}, err
		}
		p.Education = e
	}
	return p, nil
}

func (o options) request() (assistant.Request, error) {
	p, err := o.profile()
	if err != nil {
		return assistant.Request{}, err
	}

	input := o.input
	if o.file != "" {
		input, err = docread.ReadFile(o.file)
		if err != nil {
			return assistant.Request{}, fmt.Errorf("reading %s: %w", o.file, err)
		}
	}

	return assistant.Request{UseCase: o.useCase, Profile: p, Input: input}, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger := cfg.Log.NewLogger(stderr)

	provider, err := providers.New(cfg.LLM, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	registry, err := prompts.LoadFile(cfg.Prompts.File)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	store, closeStore, err := cfg.Profile.OpenStore(ctx)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer closeStore()

	svc := assistant.New(provider, registry,
		assistant.WithFallback(providers.Fallback(cfg.LLM)),
		assistant.WithRenderer(render.New(cfg.Render.Mode)),
		assistant.WithStore(store),
		assistant.WithDefaults(cfg.Profile.Defaults),
		assistant.WithLogger(logger),
	)

	if o.list {
		listUseCases(svc, stdout)
		return 0
	}

	if err := execute(ctx, svc, o, stdout, stderr); err != nil {
		fmt.Fprintln(stderr, llmprovider.UserMessage(err))
		return 1
	}
	return 0
}

// execute runs the generation described by o against svc.
func execute(ctx context.Context, svc *assistant.Service, o options, stdout, stderr io.Writer) error {
	req, err := o.request()
	if err != nil {
		return err
	}

	if o.saveProfile {
		stored, err := svc.StoredProfile(ctx)
		if err != nil {
			return err
		}
		if err := svc.SaveProfile(ctx, stored.Overlay(req.Profile)); err != nil {
			return err
		}
	}

	var onUpdate assistant.UpdateFunc
	if !o.html {
		onUpdate = newPrinter(stdout, stderr).update
	}

	res, err := svc.Generate(ctx, req, onUpdate)
	if err != nil {
		if !o.html {
			fmt.Fprintln(stdout)
		}
		return err
	}

	if o.html {
		fmt.Fprintln(stdout, res.HTML)
	} else {
		fmt.Fprintln(stdout)
	}
	return nil
}

func listUseCases(svc *assistant.Service, w io.Writer) {
	fmt.Fprintln(w, "Use cases:")
	for _, uc := range svc.UseCases() {
		fmt.Fprintf(w, "  %-18s %s\n", uc.Tag, uc.Title)
	}
	fmt.Fprintln(w, "Majors:")
	for _, m := range profile.Majors() {
		fmt.Fprintf(w, "  %-18s %s\n", m.Code, m.Label)
	}
}

// printer writes only the part of each cumulative update not yet printed.
type printer struct {
	out      io.Writer
	notices  io.Writer
	printed  string
	fallback bool
}

func newPrinter(out, notices io.Writer) *printer {
	return &printer{out: out, notices: notices}
}

func (p *printer) update(u assistant.Update) {
	if u.Fallback && !p.fallback {
		p.fallback = true
		fmt.Fprintln(p.notices, "服务暂时不可用，以下为演示内容")
		if p.printed != "" {
			fmt.Fprintln(p.out)
			p.printed = ""
		}
	}

	// A new exchange started over.
	if !strings.HasPrefix(u.Text, p.printed) {
		fmt.Fprintln(p.out)
		p.printed = ""
	}

	io.WriteString(p.out, u.Text[len(p.printed):])
	p.printed = u.Text
}
