package suggest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// suggestionResponse is the strict-schema envelope the model must return.
type suggestionResponse struct {
	Items []CandidateItem `json:"items" jsonschema_description:"Between 1 and 15 candidate quote lines covering the described job"`
}

// OpenAISuggester proposes quote items with an OpenAI structured-output call.
type OpenAISuggester struct {
	client *openai.Client
	model  string
}

// NewOpenAISuggester creates the assistant client. model may be empty to use
// the default.
func NewOpenAISuggester(apiKey, model string) *OpenAISuggester {
	if model == "" {
		model = string(shared.ChatModelGPT4o)
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAISuggester{client: &client, model: model}
}

// Suggest asks the model for candidate items. The response is forced into a
// strict JSON schema and then shape-validated; anything else is an error.
func (s *OpenAISuggester) Suggest(ctx context.Context, description string, priceList []PriceListEntry) ([]CandidateItem, error) {
	prompt := fmt.Sprintf(`You are estimating a renovation/construction job for an independent contractor.
Propose concrete service lines for the job described below.
Rules:
1. Prefer items from the contractor's price list; copy their unit and unit price exactly.
2. If the job needs work not on the list, include it with unit_price 0.
3. Be specific: "Wall painting", never "finishing work".
4. Estimate quantities from the description; explain each estimate in one sentence.

Price list:
%s

Job description:
%s`, FormatPriceList(priceList), description)

	schemaStruct := generateSchema()
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(s.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "quote_item_suggestions",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("Candidate line items for a contractor quote"),
				},
			},
		},
	}

	resp, err := s.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var out suggestionResponse
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("parse suggestions: %w", err)
	}
	return ValidateCandidates(out.Items), nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v suggestionResponse
	return reflector.Reflect(v)
}
