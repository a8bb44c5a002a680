package main

import (
	"os"
)

// @title Weather Dashboard API
// @version 1.0
// @description Local weather dashboard: city cards, details, search and preferences backed by WeatherAPI.com.

// @host localhost:8080
// @BasePath /
// @schemes http

// @tag.name Dashboard
// @tag.description Home, city details and location search
// @tag.name Preferences
// @tag.description Favourites, temperature unit and location
// @tag.name Auth
// @tag.description Google sign-in
func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
