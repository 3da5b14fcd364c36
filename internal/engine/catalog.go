package engine

import (
	"fmt"
	"sort"
)

// styleTypeFrameDecode marks styles rendered through the frame decoder
// (humming); every other style type is talk.
const styleTypeFrameDecode = "frame_decode"

// hummingStyleThreshold splits style ids between talk (< 3000) and humming
// capable (>= 3000) models.
const hummingStyleThreshold = 3000

// VoiceEntry is one selectable voice in the catalog.
type VoiceEntry struct {
	Label   string
	StyleID uint32
}

// Catalog lists the available voices split by synthesis mode. Labels are
// "<model> - <style> - <Talk|Humming>".
type Catalog struct {
	Talk    []VoiceEntry
	Humming []VoiceEntry
}

// Catalog builds the voice catalog from the backend's metadata.
func (e *Engine) Catalog() (Catalog, error) {
	raw, err := e.backend.MetasJSON()
	if err != nil {
		return Catalog{}, fmt.Errorf("fetch metas: %w", err)
	}

	metas, err := parseMetas(raw)
	if err != nil {
		return Catalog{}, err
	}

	var cat Catalog
	for _, model := range metas {
		for _, style := range model.Styles {
			kind := "Talk"
			if style.Type == styleTypeFrameDecode {
				kind = "Humming"
			}

			entry := VoiceEntry{
				Label:   fmt.Sprintf("%s - %s - %s", model.Name, style.Name, kind),
				StyleID: style.ID,
			}

			if style.ID < hummingStyleThreshold {
				cat.Talk = append(cat.Talk, entry)
			} else {
				cat.Humming = append(cat.Humming, entry)
			}
		}
	}

	sort.Slice(cat.Talk, func(i, j int) bool { return cat.Talk[i].Label < cat.Talk[j].Label })
	sort.Slice(cat.Humming, func(i, j int) bool { return cat.Humming[i].Label < cat.Humming[j].Label })

	return cat, nil
}
