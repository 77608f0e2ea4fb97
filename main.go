// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tsmap-reverse.safepic.fr/tsmap"
)

const (
	defaultOutputDir = "./output"
	crawlCacheSize   = 256
	extractUsageLine = "Usage: tsmap-reverse extract [js|sourcemap] [url|file_path] [output_dir]"
)

// exitError carries the process exit code up to main.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

var (
	errUsage  = &exitError{code: 2, err: errors.New("usage")}
	errFailed = &exitError{code: 1, err: errors.New("extraction failed")}
)

type globalFlags struct {
	configPath string
	timeout    time.Duration
	userAgent  string
	proxy      string
	insecure   bool
	logLevel   string
	verbose    bool
}

type outputFlags struct {
	beautify bool
	eol      string
	saveMap  bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "tsmap-reverse",
		Short:         "tsmap-reverse - rebuild original sources from sourcemaps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML config file")
	pf.DurationVar(&g.timeout, "timeout", 0, "Per-request timeout (default 25s)")
	pf.StringVar(&g.userAgent, "user-agent", "", "User-Agent header (none by default)")
	pf.StringVar(&g.proxy, "proxy", "", "Proxy URL (e.g. http://127.0.0.1:8080)")
	pf.BoolVar(&g.insecure, "insecure", false, "Skip TLS verification, usefull with burpsuite")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(newExtractCmd(g, out), newCrawlCmd(g, out))
	return root
}

func newExtractCmd(g *globalFlags, out io.Writer) *cobra.Command {
	o := &outputFlags{}
	var report bool
	cmd := &cobra.Command{
		Use:   "extract [js|sourcemap] [url|file_path] [output_dir]",
		Short: "Extract sources from a JS file or a .map file, local or remote",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				fmt.Fprintln(out, extractUsageLine)
				return errUsage
			}
			fileType, location := args[0], args[1]
			outputDir := defaultOutputDir
			if len(args) > 2 {
				outputDir = args[2]
			}
			entry, err := tsmap.NewEntry(fileType, location)
			if err != nil {
				fmt.Fprintln(out, "Invalid file type. Use 'js' or 'sourcemap'.")
				return errUsage
			}
			if err := tsmap.ValidEOL(o.eol); err != nil {
				return &exitError{code: 2, err: err}
			}

			cfg, err := buildConfig(cmd, g)
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			fetcher, err := tsmap.NewFetcher(cfg)
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			ex := tsmap.NewExtractor(fetcher, tsmap.Options{
				OutputDir: outputDir,
				Beautify:  o.beautify,
				EOL:       o.eol,
				SaveMap:   o.saveMap,
				Out:       out,
			})
			rep, ok := ex.RunReport(cmd.Context(), entry)
			if report && rep != nil {
				rep.Render(out)
			}
			if !ok {
				return errFailed
			}
			return nil
		},
	}
	addOutputFlags(cmd, o)
	cmd.Flags().BoolVar(&report, "report", false, "Print a per-source table")
	return cmd
}

func newCrawlCmd(g *globalFlags, out io.Writer) *cobra.Command {
	o := &outputFlags{}
	var (
		pageURL     string
		outDir      string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "crawl --url <page>",
		Short: "Crawl a page, find JS and extract .map sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tsmap.ValidEOL(o.eol); err != nil {
				return &exitError{code: 2, err: err}
			}
			cfg, err := buildConfig(cmd, g)
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Concurrency = concurrency
			}
			if cfg.CacheSize == 0 {
				cfg.CacheSize = crawlCacheSize
			}
			if err := cfg.Validate(); err != nil {
				return &exitError{code: 2, err: err}
			}
			fetcher, err := tsmap.NewFetcher(cfg)
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			crawler := tsmap.NewCrawler(fetcher, tsmap.CrawlOptions{
				URL:         pageURL,
				OutputDir:   outDir,
				Beautify:    o.beautify,
				EOL:         o.eol,
				SaveMap:     o.saveMap,
				Concurrency: cfg.Concurrency,
				Out:         out,
			})
			results, err := crawler.Crawl(cmd.Context())
			if err != nil {
				logrus.WithError(err).Error("crawl failed")
				return errFailed
			}
			for _, r := range results {
				if r.Report != nil && r.Report.OK() {
					return nil
				}
			}
			return errFailed
		},
	}
	cmd.Flags().StringVar(&pageURL, "url", "", "Root page URL to crawl (required)")
	cmd.Flags().StringVar(&outDir, "out", "recovered", "Output base directory")
	cmd.Flags().IntVar(&concurrency, "concurrency", tsmap.DefaultConcurrency, "Parallel scripts")
	_ = cmd.MarkFlagRequired("url")
	addOutputFlags(cmd, o)
	return cmd
}

func addOutputFlags(cmd *cobra.Command, o *outputFlags) {
	cmd.Flags().BoolVar(&o.beautify, "beautify", false, "Beautify minimal JS/TS")
	cmd.Flags().StringVar(&o.eol, "eol", "", "Line endings: unix|dos")
	cmd.Flags().BoolVar(&o.saveMap, "save-map", false, "Save the .map file alongside recovered sources")
}

// buildConfig layers file, environment and flags, then applies defaults,
// validates and sets the log level.
func buildConfig(cmd *cobra.Command, g *globalFlags) (*tsmap.Config, error) {
	cfg, err := tsmap.LoadConfig(g.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("timeout") {
		cfg.Timeout = g.timeout
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = g.userAgent
	}
	if flags.Changed("proxy") {
		cfg.Proxy = g.proxy
	}
	if flags.Changed("insecure") {
		cfg.Insecure = g.insecure
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logrus.SetLevel(cfg.Level())
	if g.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	return cfg, nil
}

func main() {
	root := newRootCmd(os.Stdout)
	if err := root.ExecuteContext(context.Background()); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee != errUsage && ee != errFailed {
				fmt.Fprintln(os.Stderr, "Error:", ee.err)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
