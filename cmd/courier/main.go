package main

import (
	"context"
	"log"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"courierflow/admin"
	"courierflow/agent"
	"courierflow/api"
	"courierflow/auth"
	"courierflow/config"
	"courierflow/customer"
	"courierflow/parcel"
	"courierflow/realtime"
	"courierflow/tui"
)

var (
	apiURLFlag    = flag.String("api-url", "", "Backend base URL (overrides COURIER_API_URL)")
	socketURLFlag = flag.String("socket-url", "", "Realtime channel URL (overrides COURIER_SOCKET_URL)")
	noRealtime    = flag.Bool("no-realtime", false, "Disable the realtime channel")
	originLat     = flag.Float64("origin-lat", 23.8103, "Starting latitude for the simulated device track")
	originLng     = flag.Float64("origin-lng", 90.4125, "Starting longitude for the simulated device track")
)

func main() {
	flag.Parse()

	// Local overrides from a .env file, if present.
	_ = godotenv.Load()

	cfg := config.Load()
	if *apiURLFlag != "" {
		cfg.APIURL = *apiURLFlag
	}
	if *socketURLFlag != "" {
		cfg.SocketURL = *socketURLFlag
	}

	client, err := api.NewClient(cfg.APIURL, api.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
	if err != nil {
		log.Fatalf("bootstrap api client: %v", err)
	}

	var relay *realtime.Relay
	if !*noRealtime {
		relay = realtime.New(cfg.SocketURL)
		if err := relay.Connect(context.Background()); err != nil {
			// The dashboards still work without live updates.
			log.Printf("realtime channel unavailable: %v", err)
			relay = nil
		} else {
			defer relay.Close()
		}
	}

	agentRegistry := parcel.NewRegistry()
	agentService := agent.NewService(client, agentRegistry)

	source := &agent.SimulatedSource{
		Origin: agent.Position{Lat: *originLat, Lng: *originLng},
		Step:   0.0004,
	}
	publisher := agent.NewPublisher(client, source, func(err error) {
		log.Printf("location publisher: %v", err)
	})
	defer publisher.Stop()

	services := tui.Services{
		Session:   auth.NewSession(),
		Auth:      auth.NewService(client),
		Admin:     admin.NewService(client, parcel.NewRegistry()),
		Agent:     agentService,
		Customer:  customer.NewService(client, parcel.NewRegistry()),
		Publisher: publisher,
		Relay:     relay,
		Transport: client,
		ExportDir: cfg.ExportDir,
	}

	program := tea.NewProgram(tui.NewApp(services), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Printf("run: %v", err)
		os.Exit(1)
	}
}
