package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/okian/recomodel/internal/domain/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

type failureResponse struct {
	Success          bool   `json:"success"`
	Error            string `json:"error"`
	InteractionCount *int   `json:"interaction_count,omitempty"`
}

type initializeResponse struct {
	Success          bool        `json:"success"`
	InteractionCount int         `json:"interaction_count"`
	Reused           bool        `json:"reused"`
	Stats            model.Stats `json:"stats"`
}

type recommendResponse struct {
	Success         bool                   `json:"success"`
	UserID          string                 `json:"user_id"`
	Recommendations []model.Recommendation `json:"recommendations"`
}

type statsResponse struct {
	Success bool        `json:"success"`
	Stats   model.Stats `json:"stats"`
}

type retrainResponse struct {
	Success          bool        `json:"success"`
	Message          string      `json:"message"`
	InteractionCount int         `json:"interaction_count"`
	Stats            model.Stats `json:"stats"`
}

type helpResponse struct {
	Success  bool     `json:"success"`
	Commands []string `json:"commands"`
}

// render writes v as one JSON line.
// encodeFailure is written in place of a result that cannot be encoded, so
// stdout still carries one JSON document.
const encodeFailure = `{"success":false,"error":"encode result"}` + "\n"

func render(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		_, _ = io.WriteString(w, encodeFailure)
		return fmt.Errorf("encode result: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
