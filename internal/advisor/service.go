package advisor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/agrimind/agri-advisor/internal/facts"
	"github.com/agrimind/agri-advisor/internal/llm"
)

// BundleAssembler is the slice of the aggregation service the orchestrator
// needs.
type BundleAssembler interface {
	Assemble(ctx context.Context, loc facts.Coordinates, inputs facts.FarmerInputs) facts.FactBundle
}

// ChatRequest carries everything needed for one advisory exchange.
type ChatRequest struct {
	Location    facts.Coordinates
	Inputs      facts.FarmerInputs
	UserMessage string
	Lang        string
}

// Service turns a fact bundle and a free-text question into a model call.
// Each call is a single stateless request/response cycle; multi-turn context
// must be supplied by the caller.
type Service struct {
	facts BundleAssembler
	model llm.TextModel
	log   *logrus.Entry
}

func NewService(assembler BundleAssembler, model llm.TextModel, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.WithField("component", "advisor")
	}
	return &Service{
		facts: assembler,
		model: model,
		log:   log,
	}
}

// Bundle exposes plain aggregation for the fact-bundle endpoint.
func (s *Service) Bundle(ctx context.Context, loc facts.Coordinates, inputs facts.FarmerInputs) facts.FactBundle {
	return s.facts.Assemble(ctx, loc, inputs)
}

// Chat assembles a fresh fact bundle, wraps it into the instruction payload
// and invokes the model. Aggregation cannot fail; only the model call can,
// and its error is passed to the caller unretried.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (json.RawMessage, error) {
	bundle := s.facts.Assemble(ctx, req.Location, req.Inputs)
	messages := BuildMessages(bundle, req.UserMessage, req.Lang)

	raw, err := s.model.GenerateText(ctx, messages)
	if err != nil {
		s.log.WithField("model", s.model.Name()).Warnf("generation failed: %v", err)
		return nil, fmt.Errorf("advisory generation failed: %w", err)
	}
	return raw, nil
}
