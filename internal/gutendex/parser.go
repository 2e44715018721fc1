package gutendex

import (
	"encoding/json"
	"errors"
	"fmt"

	"book-search/internal/models"
)

// ErrMissingResults is returned when a response lacks the results array.
var ErrMissingResults = errors.New("response has no results field")

// ParseResultPage parses a catalogue search response.
func ParseResultPage(body []byte) (models.ResultPage, error) {
	var payload struct {
		Count    *int          `json:"count"`
		Next     *string       `json:"next"`
		Previous *string       `json:"previous"`
		Results  []models.Book `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.ResultPage{}, fmt.Errorf("parse search response: %w", err)
	}
	if payload.Results == nil {
		return models.ResultPage{}, ErrMissingResults
	}

	page := models.ResultPage{
		Items:       payload.Results,
		HasNext:     payload.Next != nil && *payload.Next != "",
		HasPrevious: payload.Previous != nil && *payload.Previous != "",
	}
	if payload.Count != nil && *payload.Count > 0 {
		page.TotalCount = *payload.Count
	}
	return page, nil
}
