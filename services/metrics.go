package services

import "github.com/prometheus/client_golang/prometheus"

var (
	progressEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_progress_events_total",
			Help: "Qualifying events applied to user challenges, by source",
		},
		[]string{"source"},
	)
	challengeCompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_completions_total",
			Help: "User challenges that reached their clear standard, by source",
		},
		[]string{"source"},
	)
	imageUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_image_uploads_total",
			Help: "Challenge image uploads, by result",
		},
		[]string{"result"},
	)
)

// RegisterMetrics registers the service-level collectors. Call this from main.go
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(progressEventsTotal)
	reg.MustRegister(challengeCompletionsTotal)
	reg.MustRegister(imageUploadsTotal)
}
