package health_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/catalogops/docstore"
	"github.com/jonwraymond/catalogops/health"
)

func ExampleNewPingChecker() {
	store := docstore.NewMemoryStore("catalog")

	agg := health.NewAggregator()
	agg.Register(health.NewPingChecker("store", store.Ping))

	results := agg.CheckAll(context.Background())
	fmt.Println(results["store"].Status, health.OverallStatus(results))
	// Output:
	// healthy healthy
}
