package matching

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/dto"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/validation"
	"github.com/tidwall/gjson"
)

// PairMealInput is the normalized pair-meal body.
type PairMealInput struct {
	Date        time.Time
	TimeBand    string
	Location    string
	LocationURL string
	Note        string
}

type flatPairMeal struct {
	Date        string `json:"date" validate:"required,isodate"`
	TimeBand    string `json:"timeBand" validate:"required,max=20"`
	Location    string `json:"location" validate:"max=200"`
	LocationURL string `json:"locationUrl" validate:"omitempty,url,max=2000"`
	Note        string `json:"note" validate:"max=500"`
}

type nestedPairMeal struct {
	Schedule struct {
		Date     string `json:"date" validate:"required,isodate"`
		TimeBand string `json:"timeBand" validate:"required,max=20"`
	} `json:"schedule"`
	Place struct {
		Name string `json:"name" validate:"max=200"`
		URL  string `json:"url" validate:"omitempty,url,max=2000"`
	} `json:"place"`
	Note string `json:"note" validate:"max=500"`
}

// DecodePairMeal accepts either the flat or the nested body shape. The flat
// shape is tried first; a body carrying a "schedule" object reports the
// nested shape's issues when neither fits.
func DecodePairMeal(body []byte) (*PairMealInput, []dto.Issue) {
	if !gjson.ValidBytes(body) {
		return nil, []dto.Issue{{Field: "", Rule: "json", Message: "body must be JSON"}}
	}

	var flat flatPairMeal
	flatIssues := decodeInto(body, &flat)
	if flatIssues == nil {
		return normalize(flat.Date, flat.TimeBand, flat.Location, flat.LocationURL, flat.Note), nil
	}

	var nested nestedPairMeal
	nestedIssues := decodeInto(body, &nested)
	if nestedIssues == nil {
		return normalize(nested.Schedule.Date, nested.Schedule.TimeBand, nested.Place.Name, nested.Place.URL, nested.Note), nil
	}

	if gjson.GetBytes(body, "schedule").IsObject() {
		return nil, nestedIssues
	}
	return nil, flatIssues
}

func decodeInto(body []byte, v interface{}) []dto.Issue {
	if err := json.Unmarshal(body, v); err != nil {
		return []dto.Issue{{Field: "", Rule: "json", Message: err.Error()}}
	}
	return validation.Struct(v)
}

func normalize(date, band, location, url, note string) *PairMealInput {
	d, _ := time.Parse("2006-01-02", date)
	return &PairMealInput{
		Date:        d.UTC(),
		TimeBand:    strings.TrimSpace(band),
		Location:    strings.TrimSpace(location),
		LocationURL: strings.TrimSpace(url),
		Note:        strings.TrimSpace(note),
	}
}
