// docmesh: cross-referencing documentation server.
//
// docmesh serves a tree of markdown documents over MCP. Documents and
// sections are addressed by path and slug, and @references between them
// are followed to a bounded depth.
//
// Usage:
//
//	docmesh serve                  # Start MCP server (stdio transport)
//	docmesh refs /guides/setup.md  # Print the reference tree of an address
//	docmesh resolve '#install' --context /guides/setup.md
//	docmesh version
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/HendryAvila/docmesh/internal/addressing"
	"github.com/HendryAvila/docmesh/internal/config"
	"github.com/HendryAvila/docmesh/internal/document"
	"github.com/HendryAvila/docmesh/internal/references"
	docserver "github.com/HendryAvila/docmesh/internal/server"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	docsRoot   string
	logLevel   string
}

// load builds the configuration from the config file, environment and flags.
func (g *globalFlags) load() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.docsRoot != "" {
		cfg.DocsRoot = g.docsRoot
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "docmesh",
		Short: "Cross-referencing documentation server",
		Long: `docmesh serves a tree of markdown documents to AI assistants over MCP.

Documents are addressed as /path/to/doc.md and sections as /doc.md#slug,
where nested headings form hierarchical slugs (#api/auth/jwt). References
written as @/other.md or @#section are followed to a bounded depth, with
cycles cut and broken references skipped.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&g.docsRoot, "docs", "", "Documentation root directory (overrides config)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(serveCmd(g), refsCmd(g), resolveCmd(g), versionCmd())
	return cmd
}

func serveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			// stdout belongs to the MCP transport.
			logger := cfg.NewLogger(os.Stderr)

			s, cleanup, err := docserver.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("docmesh ready", "version", docserver.Version, "docs_root", cfg.DocsRoot)

			errCh := make(chan error, 1)
			go func() { errCh <- server.ServeStdio(s) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logger.Info("shutting down")
				return nil
			}
		},
	}
}

func refsCmd(g *globalFlags) *cobra.Command {
	var (
		depth int
		flat  bool
	)

	cmd := &cobra.Command{
		Use:   "refs <address>",
		Short: "Print the reference tree of a document or section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("depth") {
				depth = cfg.ReferenceDepth
			}
			if depth < 0 {
				return fmt.Errorf("--depth must be zero or positive, got %d", depth)
			}
			depth = min(depth, config.MaxReferenceDepth)
			// One-shot commands need neither the watcher nor the index.
			cfg.Watch = false
			cfg.IndexEnabled = false

			c, cleanup, err := docserver.Build(cmd.Context(), cfg, cfg.NewLogger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer cleanup()

			doc, section, hasSection, err := c.Parser.ParseAddress(args[0])
			if err != nil {
				return err
			}
			content, err := loadContent(cmd.Context(), c.Docs, doc.Path, section.Slug, hasSection)
			if err != nil {
				return err
			}

			refs, err := references.NormalizeReferences(references.ExtractReferences(content), doc.Path, c.Logger)
			if err != nil {
				return err
			}
			visited := map[string]bool{doc.Path: true}
			tree, err := c.Loader.LoadReferences(cmd.Context(), refs, depth, 0, visited)
			if err != nil {
				return err
			}
			printTree(cmd.OutOrStdout(), tree, flat)
			return nil
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", config.DefaultReferenceDepth, "Maximum reference depth")
	cmd.Flags().BoolVar(&flat, "flat", false, "Print paths in pre-order without indentation")
	return cmd
}

// loadContent returns the text of a document, or of one of its sections.
func loadContent(ctx context.Context, docs *document.Cache, docPath, slug string, hasSection bool) (string, error) {
	if hasSection {
		return docs.GetSectionContent(ctx, docPath, slug)
	}
	snap, err := docs.GetDocument(ctx, docPath)
	if err != nil {
		return "", err
	}
	return snap.Content, nil
}

// printTree writes one indented line per node, or the pre-order path list
// when flat is set, followed by traversal statistics.
func printTree(w io.Writer, tree []*references.HierarchicalContent, flat bool) {
	if flat {
		for _, p := range references.FlattenHierarchy(tree) {
			fmt.Fprintln(w, p)
		}
	} else {
		var walk func(nodes []*references.HierarchicalContent)
		walk = func(nodes []*references.HierarchicalContent) {
			for _, n := range nodes {
				fmt.Fprintf(w, "%s%s  %s\n", strings.Repeat("  ", n.Depth), n.Path, n.Title)
				walk(n.Children)
			}
		}
		walk(tree)
	}
	st := references.GetHierarchyStats(tree)
	fmt.Fprintf(w, "\n%d document(s), max depth %d, namespaces: %s\n",
		st.TotalDocuments, st.MaxDepth, strings.Join(st.Namespaces, ", "))
}

func resolveCmd(g *globalFlags) *cobra.Command {
	var contextDoc string

	cmd := &cobra.Command{
		Use:   "resolve <address>",
		Short: "Parse an address and print its canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := addressing.NewParser(nil)
			input := args[0]

			var out any
			if contextDoc != "" || strings.Contains(input, "#") {
				sec, err := parser.ParseSectionAddress(input, contextDoc)
				if err != nil {
					return err
				}
				out = sec
			} else {
				doc, err := parser.ParseDocumentAddress(input)
				if err != nil {
					return err
				}
				out = doc
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&contextDoc, "context", "", "Document that relative section addresses resolve against")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "docmesh v%s\n", docserver.Version)
		},
	}
}
