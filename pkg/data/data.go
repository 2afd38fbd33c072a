package data

import (
	"encoding/json"
	"fmt"
	"time"
)

// LoadingState is the lifecycle status of a panel data payload.
type LoadingState int

const (
	NotStarted LoadingState = iota
	Loading
	Streaming
	Done
	Error
)

var loadingStateNames = [...]string{
	NotStarted: "NotStarted",
	Loading:    "Loading",
	Streaming:  "Streaming",
	Done:       "Done",
	Error:      "Error",
}

// String returns the wire name of the state.
func (s LoadingState) String() string {
	if s < 0 || int(s) >= len(loadingStateNames) {
		return fmt.Sprintf("LoadingState(%d)", int(s))
	}
	return loadingStateNames[s]
}

// IsTerminal reports whether no further payloads are expected for the request.
func (s LoadingState) IsTerminal() bool {
	return s == Done || s == Error
}

// MarshalText encodes the state by name.
func (s LoadingState) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(loadingStateNames) {
		return nil, fmt.Errorf("data: invalid loading state %d", int(s))
	}
	return []byte(loadingStateNames[s]), nil
}

// UnmarshalText decodes a state name.
func (s *LoadingState) UnmarshalText(text []byte) error {
	for i, name := range loadingStateNames {
		if name == string(text) {
			*s = LoadingState(i)
			return nil
		}
	}
	return fmt.Errorf("data: unknown loading state %q", text)
}

// TimeRange is the absolute time window a payload covers.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Field is one column of a series.
type Field struct {
	Name   string            `json:"name"`
	Type   string            `json:"type,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
	Values []any             `json:"values"`
}

// Series is one named time-series or table result within a query response.
type Series struct {
	Name   string  `json:"name,omitempty"`
	RefID  string  `json:"refId,omitempty"`
	Fields []Field `json:"fields"`
}

// Len returns the number of rows, taken from the first field.
func (s Series) Len() int {
	if len(s.Fields) == 0 {
		return 0
	}
	return len(s.Fields[0].Values)
}

// DisplayName returns the series name, falling back to its ref id.
func (s Series) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.RefID
}

// QueryError describes a failed query.
type QueryError struct {
	Message string `json:"message"`
	RefID   string `json:"refId,omitempty"`
}

// PanelData is the result payload a data provider publishes.
// Payloads are treated as read-only once published.
type PanelData struct {
	State     LoadingState `json:"state"`
	Series    []Series     `json:"series"`
	TimeRange TimeRange    `json:"timeRange"`
	RequestID string       `json:"requestId,omitempty"`
	Error     *QueryError  `json:"error,omitempty"`
}

// WithSeries returns a copy of the payload carrying only the given series.
// Every other field is carried through unchanged.
func (d PanelData) WithSeries(series ...Series) PanelData {
	d.Series = append([]Series(nil), series...)
	return d
}

// SeriesNames returns the display names of all series in order.
func (d PanelData) SeriesNames() []string {
	names := make([]string, len(d.Series))
	for i, s := range d.Series {
		names[i] = s.DisplayName()
	}
	return names
}

// Decode parses a JSON encoded payload.
func Decode(raw []byte) (PanelData, error) {
	var d PanelData
	if err := json.Unmarshal(raw, &d); err != nil {
		return PanelData{}, fmt.Errorf("data: decode payload: %w", err)
	}
	return d, nil
}
