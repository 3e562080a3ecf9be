// Command knowledgecored is a thin CLI entrypoint over the retrieval and
// knowledge-graph engine: search, graph traversal, and edge enrichment,
// wired for operational smoke-testing rather than as the primary API
// surface (that is the Database/search/knowledge/qa packages themselves).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grahama1970/arangodb-sub000/internal/config"
	"github.com/grahama1970/arangodb-sub000/internal/embedding"
	"github.com/grahama1970/arangodb-sub000/internal/knowledge"
	"github.com/grahama1970/arangodb-sub000/internal/logging"
	"github.com/grahama1970/arangodb-sub000/internal/search"
	"github.com/grahama1970/arangodb-sub000/internal/store"
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:   "knowledgecored",
		Short: "Retrieval and knowledge-graph engine CLI",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "optional YAML config file overlaying environment defaults")

	root.AddCommand(newSearchCmd())
	root.AddCommand(newGraphCmd())
	root.AddCommand(newEnrichCmd())
	root.AddCommand(newGlossaryCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("knowledgecored dev")
		},
	}
}

func buildDeps(ctx context.Context) (*config.Config, store.Database, *store.QdrantIndex, embedding.Service, error) {
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logging.SetLevel(cfg.LogLevel)

	db, err := store.NewPostgresStore(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}

	index, err := store.NewQdrantIndex(&cfg.Qdrant)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("connect qdrant: %w", err)
	}

	embedder := embedding.NewOpenAIEmbedder(&cfg.Embedding)
	return cfg, db, index, embedder, nil
}

func newSearchCmd() *cobra.Command {
	var collection, field, tags string
	var topN int
	var useGraph bool

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run a hybrid BM25+semantic(+graph) search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, db, index, embedder, err := buildDeps(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			defer index.Close()

			var tagList []string
			if tags != "" {
				tagList = strings.Split(tags, ",")
			}

			resp, err := search.Hybrid(ctx, db, index, embedder, search.HybridRequest{
				QueryText:        args[0],
				Collection:       collection,
				Field:            field,
				Tags:             tagList,
				TopN:             topN,
				MinScoreBM25:     cfg.Retrieval.DefaultMinScoreBM25,
				MinScoreSemantic: cfg.Retrieval.DefaultMinScoreSemantic,
				UseGraph:         useGraph,
				BM25Weight:       cfg.Retrieval.BM25Weight,
				SemanticWeight:   cfg.Retrieval.SemanticWeight,
				GraphWeight:      cfg.Retrieval.GraphWeight,
				RRFK:             cfg.Retrieval.RRFK,
			})
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}

	cmd.Flags().StringVar(&collection, "collection", "documents", "document collection to search")
	cmd.Flags().StringVar(&field, "field", "embedding", "embedding field name")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tag pre-filter")
	cmd.Flags().IntVar(&topN, "top-n", 10, "number of results to return")
	cmd.Flags().BoolVar(&useGraph, "use-graph", false, "include the graph traversal signal")
	return cmd
}

func newGraphCmd() *cobra.Command {
	var collection, direction string
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "graph [start-vertex...]",
		Short: "Run a bounded graph traversal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, db, index, _, err := buildDeps(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			defer index.Close()

			resp, err := search.GraphTraverse(ctx, db, search.GraphRequest{
				Collection:    collection,
				StartVertices: args,
				MaxDepth:      maxDepth,
				Direction:     search.Direction(strings.ToUpper(direction)),
			})
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}

	cmd.Flags().StringVar(&collection, "collection", "relationships", "edge collection to traverse")
	cmd.Flags().StringVar(&direction, "direction", "OUTBOUND", "OUTBOUND, INBOUND, or ANY")
	cmd.Flags().IntVar(&maxDepth, "max-depth", search.HardMaxDepth, "traversal depth (capped at 3)")
	return cmd
}

func newEnrichCmd() *cobra.Command {
	var collection, strategy string
	var keys []string

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Compute edge weights, register search fields, and sweep contradictions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, db, index, _, err := buildDeps(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			defer index.Close()

			report, err := knowledge.EnrichEdges(ctx, db, collection, keys, knowledge.Strategy(strategy))
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}

	cmd.Flags().StringVar(&collection, "collection", "qa_relationships", "edge collection to enrich")
	cmd.Flags().StringVar(&strategy, "strategy", string(knowledge.NewestWins), "newest_wins, merge, or split_timeline")
	cmd.Flags().StringSliceVar(&keys, "keys", nil, "edge keys to enrich")
	return cmd
}

func newGlossaryCmd() *cobra.Command {
	var prefix bool
	var limit int

	cmd := &cobra.Command{
		Use:   "glossary [term]",
		Short: "Look up a glossary term by exact match or prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, db, index, _, err := buildDeps(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			defer index.Close()

			lookup, ok := db.(store.GlossaryLookup)
			if !ok {
				return fmt.Errorf("database backend does not support glossary lookup")
			}

			if prefix {
				terms, err := lookup.LookupPrefix(ctx, args[0], limit)
				if err != nil {
					return err
				}
				return printJSON(terms)
			}
			term, err := lookup.LookupTerm(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(term)
		},
	}

	cmd.Flags().BoolVar(&prefix, "prefix", false, "match by prefix instead of exact term")
	cmd.Flags().IntVar(&limit, "limit", 20, "max results for prefix lookup")
	return cmd
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
