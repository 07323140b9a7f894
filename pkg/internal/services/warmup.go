package services

import (
	"context"

	"github.com/k0kubun/go-ansi"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// WarmSessionIndex scans the gallery once at startup and primes the session
// index cache, so the first admin or album request does not pay for the full
// store scan.
func WarmSessionIndex() {
	objs, err := DefaultStore.List(context.Background(), GalleryFolder(), GalleryMaxResults())
	if err != nil {
		log.Error().Err(err).Msg("Warming the session index failed...")
		return
	}
	if len(objs) == 0 {
		return
	}

	bar := progressbar.NewOptions(len(objs),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription("Indexing gallery sessions..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	indexed := make([]StoredObject, 0, len(objs))
	for _, obj := range objs {
		if _, ok := sessionIDFromTags(obj.Tags); ok {
			indexed = append(indexed, obj)
		}
		bar.Add(1)
	}

	sessions := GroupSessions(indexed)
	PrimeSessionIndex(sessions)

	log.Info().Int("assets", len(indexed)).Int("sessions", len(sessions)).Msg("Session index warmed up.")
}
