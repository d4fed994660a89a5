package advisor

import (
	"encoding/json"
	"fmt"

	"github.com/agrimind/agri-advisor/internal/facts"
	"github.com/agrimind/agri-advisor/internal/llm"
)

const systemInstructions = "You are an agricultural advisor for Punjab farmers. " +
	"You receive a compact JSON 'fact bundle' that contains weather, soil info, disaster alerts, " +
	"local market snapshot, and fertilizer/subsidy notes. " +
	"For every farmer request, produce region-specific, implementable advice covering: " +
	"1) crop choice, 2) sowing schedule, 3) irrigation & fertilizer plan, 4) pest control, " +
	"5) sell timing and market guidance, 6) subsidy suggestions and 7) disaster preparedness / alerts. " +
	"Answer bilingually: produce an English section and a Hindi section. " +
	"When you use facts from the bundle, explicitly label which fields were used (e.g., weather.forecast, soil_health_card, alerts). " +
	"Keep recommendations short, numbered, and actionable. Use local units (kg/ha, mm of water, dates in DD-MMM-YYYY). " +
	"If data is missing, say what input is needed (no more than 2 extra items)."

const bundlePrefix = "Fact bundle (json):\n"

// BuildMessages produces the fixed three-message instruction payload:
// advisory instructions, serialized fact bundle, then the farmer's question.
// The order matters: the model must see instructions, then context, then the
// question. lang is accepted for API compatibility but the instructions
// always require both an English and a Hindi section, so it does not alter
// the payload.
func BuildMessages(bundle facts.FactBundle, userMessage, lang string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemInstructions},
		{Role: llm.RoleSystem, Content: bundlePrefix + serializeBundle(bundle)},
		{Role: llm.RoleUser, Content: userMessage},
	}
}

// serializeBundle renders the bundle compactly. A value that cannot be
// marshaled is coerced to its string form instead of failing the request.
func serializeBundle(bundle facts.FactBundle) string {
	b, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Sprintf("%+v", bundle)
	}
	return string(b)
}
