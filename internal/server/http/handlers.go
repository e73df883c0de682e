package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/helixir/research-desk/internal/agents"
	"github.com/helixir/research-desk/internal/observability"
	"github.com/helixir/research-desk/internal/retrievers"
)

// Request limits.
const (
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
	maxQueries         = 50
)

// searchRequest is the JSON request body for POST /search.
type searchRequest struct {
	Queries       []string `json:"queries" validate:"max=50,dive,max=1000"`
	Retriever     string   `json:"retriever,omitempty" validate:"omitempty,max=64"`
	MaxResults    int      `json:"max_results,omitempty" validate:"omitempty,min=1,max=100"`
	UseAutoprompt *bool    `json:"use_autoprompt,omitempty"`
	Type          string   `json:"type,omitempty" validate:"omitempty,oneof=auto keyword neural"`
	Category      string   `json:"category,omitempty" validate:"omitempty,max=64"`
}

// queryRequest is the JSON request body for POST /query.
type queryRequest struct {
	User        string   `json:"user" validate:"required,max=100000"`
	System      string   `json:"system,omitempty" validate:"max=20000"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	Model       string   `json:"model,omitempty" validate:"omitempty,max=128"`
	MaxTokens   int      `json:"max_tokens,omitempty" validate:"omitempty,min=1,max=32768"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// search handles POST /search.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}

	resources := s.searcher.ProcessSearch(r.Context(), req.Queries, retrievers.Options{
		Retriever:     req.Retriever,
		MaxResults:    req.MaxResults,
		UseAutoprompt: req.UseAutoprompt,
		Type:          req.Type,
		Category:      req.Category,
	})

	writeJSON(w, http.StatusOK, searchResponse{Resources: resources, Count: len(resources)})
}

// query handles POST /query. Provider failures are reported in the text,
// never as an HTTP error.
func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !s.decode(w, r, &req) {
		return
	}

	text := s.querier.ProcessQuery(r.Context(), agents.Request{
		System:      req.System,
		User:        req.User,
		Temperature: req.Temperature,
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
	})

	writeJSON(w, http.StatusOK, queryResponse{Text: text})
}

// listAgents handles GET /agents.
func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	all, err := s.providers.ListAgents(r.Context())
	if err != nil {
		s.internalError(w, r, err, "failed to list agents")
		return
	}

	resp := listAgentsResponse{Agents: make([]agentResponse, len(all))}
	for i := range all {
		resp.Agents[i] = domainAgentToResponse(&all[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// listRetrievers handles GET /retrievers.
func (s *Server) listRetrievers(w http.ResponseWriter, r *http.Request) {
	all, err := s.providers.ListRetrievers(r.Context())
	if err != nil {
		s.internalError(w, r, err, "failed to list retrievers")
		return
	}

	resp := listRetrieversResponse{Retrievers: make([]retrieverResponse, len(all))}
	for i := range all {
		resp.Retrievers[i] = domainRetrieverToResponse(&all[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// decode reads, parses and validates a JSON body into dst. On failure it
// writes a 400 response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log := observability.LoggerFromContext(r.Context(), s.logger)
	log.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	writeError(w, http.StatusInternalServerError, msg)
}

// validationMessage renders the first failed field as "<field>: <rule>".
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		if field == "queries" {
			return fmt.Sprintf("queries must have at most %d entries", maxQueries)
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
