package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/gh-search-crawler/internal/domain"
)

type searchOptions struct {
	file     string
	keywords []string
	proxies  []string
	entity   string
}

// NewSearchCmd creates the search command, which runs the pipeline once and
// prints the JSON report to stdout.
func NewSearchCmd() *cobra.Command {
	cmd, _ := newSearchCmd()
	return cmd
}

func newSearchCmd() (*cobra.Command, *searchOptions) {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run one search and print the JSON report",
		Example: `  crawler search -k openstack -k nova -t Repositories
  crawler search -f request.yaml
  crawler search -f request.json -p 10.0.0.1:3128`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Request file (YAML or JSON) with keywords, proxies and type")
	cmd.Flags().StringArrayVarP(&opts.keywords, "keyword", "k", nil, "Search keyword (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.proxies, "proxy", "p", nil, "Candidate proxy host:port (repeatable)")
	cmd.Flags().StringVarP(&opts.entity, "type", "t", "", "Entity type: Repositories, Issues or Wikis")

	return cmd, opts
}

func runSearch(cmd *cobra.Command, opts *searchOptions) error {
	req, err := buildRequest(cmd, opts)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.crawler.RunJSON(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), report)
	return nil
}

// buildRequest starts from the request file, if any, and lets explicit flags
// override its fields.
func buildRequest(cmd *cobra.Command, opts *searchOptions) (domain.CrawlRequest, error) {
	var req domain.CrawlRequest
	if opts.file != "" {
		loaded, err := LoadRequestFile(opts.file)
		if err != nil {
			return domain.CrawlRequest{}, err
		}
		req = *loaded
	}

	flags := cmd.Flags()
	if flags.Changed("keyword") {
		req.Keywords = opts.keywords
	}
	if flags.Changed("proxy") {
		req.Proxies = opts.proxies
	}
	if flags.Changed("type") {
		req.Type = opts.entity
	}
	return req, nil
}
