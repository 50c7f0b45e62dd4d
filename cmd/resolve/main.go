package main

import (
	"context"
	"flag"
	"log"
	"time"

	"anihub/internal/lookup"
	"anihub/internal/mapping"
	"anihub/internal/provider"
	"anihub/internal/resolver"
	"anihub/pkg/database"
	"anihub/pkg/utils"
)

// Batch reconciliation: search the catalog provider for a query and
// persist a mapping for every returned show. Useful for warming the
// cache before pointing a frontend at the API.
func main() {
	query := flag.String("query", "", "provider search query (required)")
	flag.Parse()

	if *query == "" {
		log.Fatal("usage: resolve -query <title>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	providerCfg := utils.LoadProviderConfig()
	if err := provider.EnsureExecutable(providerCfg); err != nil {
		log.Fatalf("provider script: %v", err)
	}

	resolverCfg := utils.LoadResolverConfig()

	prov := provider.New(providerCfg)
	repo := mapping.NewRepo(db)
	res := resolver.New(lookup.NewMALClient(resolverCfg), resolverCfg.MatchThreshold)
	svc := mapping.NewService(repo, res, nil, resolverCfg.CacheLookupFailures, resolverCfg.Workers)

	entries, err := prov.Search(ctx, *query)
	if err != nil {
		log.Fatalf("provider search failed: %v", err)
	}
	log.Printf("provider returned %d shows for %q", len(entries), *query)

	results, err := svc.Reconcile(ctx, entries)
	if err != nil {
		log.Fatalf("reconcile failed: %v", err)
	}

	matched := 0
	for _, r := range results {
		if r.MalID != nil {
			matched++
			log.Printf("  %s  %q -> mal_id=%d", r.Entry.ShowID, r.Entry.Title, *r.MalID)
		} else {
			log.Printf("  %s  %q -> no match", r.Entry.ShowID, r.Entry.Title)
		}
	}
	log.Printf("done: %d/%d matched", matched, len(results))
}
