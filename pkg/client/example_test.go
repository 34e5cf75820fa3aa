package client_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/LizBugFree/network-monitor-demo/pkg/client"
)

// Example demonstrates triggering a network cycle
func Example() {
	c := client.NewClient(client.Config{
		BaseURL: "http://localhost:8080",
	})

	result, err := c.Collect().Network(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Collected %d networks at %s\n", result.ResourcesCollected.Networks, result.Timestamp)
	for _, insight := range result.Insights.Security {
		fmt.Printf("  %s: %s\n", insight.Rule, insight.Message)
	}
}

// ExampleCollectService_Metrics demonstrates a metrics cycle over the last 30 minutes
func ExampleCollectService_Metrics() {
	c := client.NewClient(client.Config{
		BaseURL: "http://localhost:8080",
	})

	result, err := c.Collect().Metrics(context.Background(), 30)
	if err != nil {
		log.Fatal(err)
	}

	for family, count := range result.MetricsBreakdown {
		fmt.Printf("%s: %d points\n", family, count)
	}
}

// ExampleAPIError demonstrates inspecting API errors
func ExampleAPIError() {
	c := client.NewClient(client.Config{
		BaseURL: "http://localhost:8080",
	})

	_, err := c.Snapshots().LatestInventory(context.Background(), "demo-project")
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.IsNotFound():
			fmt.Println("No snapshot collected yet")
		case apiErr.IsCycleFailure():
			fmt.Println("Cycle failed:", apiErr.Message)
		default:
			fmt.Println("Error:", apiErr)
		}
	}
}
