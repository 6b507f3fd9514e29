// Package main implements a standalone seed script that populates the
// review API with realistic sample data through its public HTTP endpoints.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Tago-F/onsen-review/client"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func strPtr(s string) *string { return &s }

func f64Ptr(f float64) *float64 { return &f }

var seedReviews = []client.Review{
	{
		Name:        "Kusatsu Onsen",
		Rating:      5.0,
		Comment:     strPtr("Strong acidic water, the yubatake at night is unforgettable."),
		VisitedDate: strPtr("2024-01-14"),
		Quality:     f64Ptr(5.0),
		Scenery:     f64Ptr(4.5),
		Cleanliness: f64Ptr(4.5),
		Service:     f64Ptr(4.0),
		Meal:        f64Ptr(4.5),
	},
	{
		Name:        "Kinosaki Onsen",
		Rating:      4.5,
		Comment:     strPtr("Seven public baths within walking distance, go in winter for crab."),
		VisitedDate: strPtr("2024-02-23"),
		Quality:     f64Ptr(4.0),
		Scenery:     f64Ptr(5.0),
		Cleanliness: f64Ptr(4.0),
		Service:     f64Ptr(4.5),
		Meal:        f64Ptr(5.0),
	},
	{
		Name:        "Noboribetsu Onsen",
		Rating:      4.0,
		Comment:     strPtr("Hell Valley sulfur springs, milky water."),
		VisitedDate: strPtr("2024-05-03"),
		Quality:     f64Ptr(4.5),
		Scenery:     f64Ptr(4.0),
	},
	{
		Name:   "Dogo Onsen",
		Rating: 4.0,
		// No comment or sub-ratings on purpose; exercises null handling.
	},
	{
		Name:        "Kurokawa Onsen",
		Rating:      4.5,
		Comment:     strPtr("Rotenburo hopping with the tegata pass."),
		VisitedDate: strPtr("2023-11-19"),
		Quality:     f64Ptr(4.5),
		Scenery:     f64Ptr(5.0),
		Cleanliness: f64Ptr(4.5),
	},
}

func main() {
	baseURL := getEnv("ONSEN_API_URL", "http://localhost:8080")
	c := client.New(baseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Printf("seeding %d reviews into %s", len(seedReviews), baseURL)

	for i := range seedReviews {
		created, err := c.CreateReview(ctx, &seedReviews[i])
		if err != nil {
			log.Fatalf("seed review %q: %v", seedReviews[i].Name, err)
		}
		fmt.Printf("created review %d: %s\n", created.ID, created.Name)
	}

	reviews, err := c.ListReviews(ctx)
	if err != nil {
		log.Fatalf("verify list: %v", err)
	}
	fmt.Printf("done, %d reviews in total\n", len(reviews))
}
