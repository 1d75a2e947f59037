// README: Demo CLI; plans a sample (or JSON-supplied) Kyoto trip and prints the itinerary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kr/pretty"

	"wayfarer/internal/ai"
	"wayfarer/internal/obs"
	"wayfarer/internal/service"
	"wayfarer/internal/types"
)

func main() {
	in := flag.String("in", "", "plan request JSON; empty uses the built-in sample")
	useAI := flag.Bool("ai", false, "ask Gemini for day order and themes (needs GEMINI_API_KEY)")
	flag.Parse()
	_ = godotenv.Load()

	req := sampleRequest()
	if *in != "" {
		raw, err := os.ReadFile(*in)
		if err != nil {
			log.Fatalf("read request: %v", err)
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			log.Fatalf("parse request: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	rec := &obs.Recorder{}
	opts := service.DefaultOptions()
	opts.Emit = rec
	if *useAI {
		advisor, err := ai.NewGeminiAdvisor(ctx, os.Getenv("GEMINI_API_KEY"), "")
		if err != nil {
			log.Fatalf("Failed to initialize advisor: %v", err)
		}
		defer advisor.Close()
		opts.Advisor = advisor
	}

	it, err := service.NewTripPlanner(opts).Plan(ctx, req)
	if err != nil {
		log.Fatalf("plan: %v", err)
	}

	for _, d := range it.Days {
		fmt.Printf("\nDay %d  %s  %s\n", d.DayNumber, d.Date, d.Theme)
		for _, item := range d.Items {
			fmt.Printf("  %s-%s  %-11s %s\n", item.StartTime, item.EndTime, item.Type, item.Title)
		}
		fmt.Printf("  max leg %.2f km, travel %d min\n", d.GeoDiagnostics.MaxLegKm, d.GeoDiagnostics.TotalTravelMin)
	}

	fmt.Printf("\nScore: %d\n", it.Validation.Score)
	for _, w := range it.Validation.Warnings {
		fmt.Printf("  ! %s\n", w)
	}
	fmt.Println()
	pretty.Println(it.Summary)
	pretty.Println(it.Profile)
	fmt.Printf("events: %d skipped, %d moved, %d advisor fallbacks\n",
		rec.Count(obs.KindItemSkipped), rec.Count(obs.KindCandidateMoved), rec.Count(obs.KindAdvisorFallback))
}

func spot(id, name, category string, lat, lng float64, mins int) types.Candidate {
	return types.Candidate{ID: types.ID(id), Name: name, Category: category, Lat: lat, Lng: lng, DurationMin: mins, Rating: 4.5, ReviewCount: 1200}
}

func sampleRequest() service.PlanRequest {
	arr := time.Date(2026, 5, 4, 11, 20, 0, 0, time.FixedZone("JST", 9*3600))
	dep := arr.Add(-2*time.Hour - 15*time.Minute)
	out := time.Date(2026, 5, 6, 17, 0, 0, 0, arr.Location())

	return service.PlanRequest{
		Preferences: types.Preferences{
			DurationDays: 3,
			Destination:  types.Point{Lat: 35.0116, Lng: 135.7681},
			Pacing:       types.PacingModerate,
		},
		Candidates: []types.Candidate{
			spot("kiyomizu", "Kiyomizu-dera", "temple", 34.9949, 135.7850, 90),
			spot("sannenzaka", "Sannenzaka", "street", 34.9963, 135.7810, 45),
			spot("yasaka", "Yasaka Shrine", "shrine", 35.0037, 135.7788, 40),
			spot("nishiki", "Nishiki Market", "market", 35.0050, 135.7649, 60),
			spot("fushimi", "Fushimi Inari", "shrine", 34.9671, 135.7727, 120),
			spot("tofukuji", "Tofuku-ji", "temple", 34.9767, 135.7738, 60),
			spot("kinkaku", "Kinkaku-ji", "temple", 35.0394, 135.7292, 60),
			spot("ryoanji", "Ryoan-ji", "temple", 35.0345, 135.7183, 45),
			spot("bamboo", "Arashiyama Bamboo Grove", "park", 35.0170, 135.6710, 45),
			spot("tenryuji", "Tenryu-ji", "temple", 35.0156, 135.6737, 60),
		},
		Meals: []types.MealCandidate{
			{DayNumber: 1, MealType: types.MealLunch, Restaurant: &types.Restaurant{ID: "izuju", Name: "Izuju", Lat: 35.0036, Lng: 135.7786, EstimatedCost: 25, Verified: true}},
			{DayNumber: 2, MealType: types.MealDinner, Restaurant: nil},
		},
		Accommodation: &types.Accommodation{
			Name: "Kamo Riverside Inn", Lat: 35.0060, Lng: 135.7710,
			CheckInTime: "15:00", CheckOutTime: "10:00",
			NightlyPrice:      types.Money{Amount: 14000, Currency: "USD"},
			BreakfastIncluded: true,
		},
		Inbound: &types.TransportLeg{
			Mode: types.ModeTrain, OriginName: "Tokyo", DestinationName: "Kyoto",
			Origin: types.Point{Lat: 35.6812, Lng: 139.7671}, Destination: types.Point{Lat: 34.9858, Lng: 135.7588},
			DepartureTime: &dep, ArrivalTime: &arr,
		},
		Outbound: &types.TransportLeg{
			Mode: types.ModeTrain, OriginName: "Kyoto", DestinationName: "Tokyo",
			Origin: types.Point{Lat: 34.9858, Lng: 135.7588}, Destination: types.Point{Lat: 35.6812, Lng: 139.7671},
			DepartureTime: &out, EstimatedDurationMin: 135,
		},
	}
}
